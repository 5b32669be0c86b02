package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/parrot/internal"
)

// CreateRootCommand creates and configures the root cobra command. The
// subcommands are created separately so their run functions can be wired
// in main.
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "parrot",
		Short: "English pronunciation practice with AI feedback",
		Long: `parrot generates example sentences for an English word, plays them with
natural voices and scores your own pronunciation.

It consists of a proxy service holding the Gemini credential and a terminal
practice client talking to it.

Examples:
  parrot serve                          # Start the proxy on :8080
  parrot practice                       # Interactive practice session
  parrot practice serendipity           # Start with a search
  parrot practice --batch words.txt -o out  # Export reference audio for a word list
  parrot models                         # List Gemini models for your key`,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.parrot.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flags.LogFile, "log-file", "", "Also write logs to this file (rotated)")

	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))

	return rootCmd
}

// CreateServeCommand creates the proxy service command
func CreateServeCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the proxy service",
		Long: `serve runs the HTTP proxy exposing sentence generation, speech synthesis,
pronunciation analysis and video generation. The Gemini key is read from
GENAI_API_KEY or genai.api_key in the config file.`,
		Args: cobra.NoArgs,
	}

	cmd.Flags().StringVar(&flags.Addr, "addr", flags.Addr, "Listen address")
	cmd.Flags().StringVar(&flags.TextModel, "text-model", flags.TextModel, "Gemini model for sentences and pronunciation analysis")
	cmd.Flags().StringVar(&flags.TTSModel, "tts-model", flags.TTSModel, "Gemini speech model")
	cmd.Flags().StringVar(&flags.VideoModel, "video-model", flags.VideoModel, "Veo model for context videos")
	cmd.Flags().DurationVar(&flags.VideoPollInterval, "video-poll-interval", flags.VideoPollInterval, "How often a running video is polled")
	cmd.Flags().DurationVar(&flags.VideoMaxWait, "video-max-wait", flags.VideoMaxWait, "How long a video request may wait before answering 202")
	cmd.Flags().BoolVar(&flags.SpeechFallback, "speech-fallback", false, "Fall back to OpenAI speech when Gemini speech fails (needs OPENAI_API_KEY)")
	cmd.Flags().StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI TTS model used by the fallback")
	cmd.Flags().StringVar(&flags.SpeechCachePath, "speech-cache", "", "sqlite file caching synthesized speech (disabled when empty)")

	viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	viper.BindPFlag("genai.text_model", cmd.Flags().Lookup("text-model"))
	viper.BindPFlag("genai.tts_model", cmd.Flags().Lookup("tts-model"))
	viper.BindPFlag("genai.video_model", cmd.Flags().Lookup("video-model"))
	viper.BindPFlag("video.poll_interval", cmd.Flags().Lookup("video-poll-interval"))
	viper.BindPFlag("video.max_wait", cmd.Flags().Lookup("video-max-wait"))
	viper.BindPFlag("speech.fallback", cmd.Flags().Lookup("speech-fallback"))
	viper.BindPFlag("speech.openai_model", cmd.Flags().Lookup("openai-model"))
	viper.BindPFlag("speech.cache_path", cmd.Flags().Lookup("speech-cache"))

	return cmd
}

// CreatePracticeCommand creates the terminal practice client command
func CreatePracticeCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "practice [word]",
		Short: "Practice pronunciation in the terminal",
		Long: `practice starts an interactive session against a running proxy. Search a
word, listen to the example sentences, record yourself and get feedback.

With --batch every word of the file is searched in turn; with --output the
reference audio of every sentence is exported as WAV.`,
		Args: cobra.MaximumNArgs(1),
	}

	cmd.Flags().StringVar(&flags.ServerURL, "server", flags.ServerURL, "Proxy API root")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Process words from file (one per line)")
	cmd.Flags().StringVarP(&flags.OutputDir, "output", "o", "", "Export reference audio to this directory (batch mode)")

	viper.BindPFlag("practice.server_url", cmd.Flags().Lookup("server"))
	viper.BindPFlag("practice.output", cmd.Flags().Lookup("output"))

	return cmd
}

// CreateModelsCommand creates the model listing command
func CreateModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List Gemini models available to your key",
		Args:  cobra.NoArgs,
	}
}

// InitConfig initializes viper configuration. A .env file in the working
// directory is loaded first when present.
func InitConfig(cfgFile string) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".parrot" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".parrot")
	}

	// PARROT_SERVER_ADDR overrides server.addr
	viper.SetEnvPrefix("PARROT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetGenAIKey retrieves the Gemini API key from environment or config
func GetGenAIKey() string {
	if key := os.Getenv("GENAI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("genai.api_key")
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("speech.openai_key")
}
