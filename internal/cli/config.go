package cli

import (
	"github.com/spf13/viper"

	"codeberg.org/snonux/parrot/internal/observe"
)

// ApplyConfig copies values from the config file and environment into flags
// that were not set on the command line. Flags bound to viper already hold
// their command line value, so viper returns the winner for every key.
func ApplyConfig(flags *Flags) {
	setString(&flags.LogFormat, "log.format")
	setString(&flags.LogLevel, "log.level")
	setString(&flags.LogFile, "log.file")

	setString(&flags.Addr, "server.addr")
	setString(&flags.TextModel, "genai.text_model")
	setString(&flags.TTSModel, "genai.tts_model")
	setString(&flags.VideoModel, "genai.video_model")
	if d := viper.GetDuration("video.poll_interval"); d > 0 {
		flags.VideoPollInterval = d
	}
	if d := viper.GetDuration("video.max_wait"); d > 0 {
		flags.VideoMaxWait = d
	}
	if viper.IsSet("speech.fallback") {
		flags.SpeechFallback = viper.GetBool("speech.fallback")
	}
	setString(&flags.OpenAIModel, "speech.openai_model")
	setString(&flags.SpeechCachePath, "speech.cache_path")

	setString(&flags.ServerURL, "practice.server_url")
	setString(&flags.OutputDir, "practice.output")
}

// LogConfig returns the logger settings from flags
func (f *Flags) LogConfig() observe.LogConfig {
	return observe.LogConfig{Format: f.LogFormat, Level: f.LogLevel, File: f.LogFile}
}

func setString(dst *string, key string) {
	if v := viper.GetString(key); v != "" {
		*dst = v
	}
}
