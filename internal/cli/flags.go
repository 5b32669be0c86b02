package cli

import "time"

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile   string
	LogFormat string
	LogLevel  string
	LogFile   string

	// serve flags
	Addr              string
	TextModel         string
	TTSModel          string
	VideoModel        string
	VideoPollInterval time.Duration
	VideoMaxWait      time.Duration
	SpeechFallback    bool
	OpenAIModel       string
	SpeechCachePath   string

	// practice flags
	ServerURL string
	BatchFile string
	OutputDir string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		LogFormat:         "text",
		LogLevel:          "info",
		Addr:              ":8080",
		TextModel:         "gemini-2.5-flash",
		TTSModel:          "gemini-2.5-flash-preview-tts",
		VideoModel:        "veo-3.1-fast-generate-preview",
		VideoPollInterval: 3 * time.Second,
		VideoMaxWait:      2 * time.Minute,
		OpenAIModel:       "gpt-4o-mini-tts",
		ServerURL:         "http://localhost:8080/api",
	}
}
