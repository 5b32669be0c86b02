package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"codeberg.org/snonux/parrot/internal"
	"codeberg.org/snonux/parrot/internal/audio"
	"codeberg.org/snonux/parrot/internal/backend"
	"codeberg.org/snonux/parrot/internal/cli"
	"codeberg.org/snonux/parrot/internal/health"
	"codeberg.org/snonux/parrot/internal/models"
	"codeberg.org/snonux/parrot/internal/observe"
	"codeberg.org/snonux/parrot/internal/processor"
	"codeberg.org/snonux/parrot/internal/proxy"
	"codeberg.org/snonux/parrot/internal/speechcache"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create commands
	rootCmd := cli.CreateRootCommand(flags)
	serveCmd := cli.CreateServeCommand(flags)
	practiceCmd := cli.CreatePracticeCommand(flags)
	modelsCmd := cli.CreateModelsCommand()
	rootCmd.AddCommand(serveCmd, practiceCmd, modelsCmd)

	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
		cli.ApplyConfig(flags)
	})

	var logCloser io.Closer
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logger, closer, err := observe.NewLogger(flags.LogConfig())
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		logCloser = closer
		return nil
	}

	serveCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), flags)
	}
	practiceCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runPractice(cmd.Context(), flags, args)
	}
	modelsCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return models.NewLister(cli.GetGenAIKey()).ListAvailableModels(cmd.Context(), cmd.OutOrStdout())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context, flags *cli.Flags) error {
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: internal.Version,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	var b *proxy.Backend
	var checks []health.Checker

	if key := cli.GetGenAIKey(); key == "" {
		slog.Warn("GENAI_API_KEY not set, API requests will fail with a server misconfiguration error")
	} else {
		cfg := backend.DefaultConfig()
		cfg.APIKey = key
		cfg.TextModel = flags.TextModel
		cfg.SpeechModel = flags.TTSModel
		cfg.VideoModel = flags.VideoModel
		cfg.Metrics = metrics

		gemini, err := backend.New(ctx, cfg)
		if err != nil {
			return err
		}
		checks = append(checks, health.Checker{Name: "gemini", Check: gemini.Check})

		fallback, err := speechFallback(flags)
		if err != nil {
			return err
		}
		if fallback != nil {
			checks = append(checks, health.Checker{
				Name:     "speech-fallback",
				Optional: true,
				Check:    func(context.Context) error { return fallback.IsAvailable() },
			})
		}

		speech, closeSpeech, err := speechProvider(flags, gemini, fallback, metrics)
		if err != nil {
			return err
		}
		defer closeSpeech()

		b = proxy.FromGemini(gemini, speech)
	}

	srv := proxy.New(b,
		proxy.WithAddr(flags.Addr),
		proxy.WithMetrics(metrics),
		proxy.WithVideoPolling(flags.VideoPollInterval, flags.VideoMaxWait),
		proxy.WithHealthChecks(checks...),
		proxy.WithVersion(internal.Version),
	)
	return srv.Run(ctx)
}

// speechFallback builds the optional OpenAI speech provider
func speechFallback(flags *cli.Flags) (audio.Provider, error) {
	if !flags.SpeechFallback {
		return nil, nil
	}
	openAIKey := cli.GetOpenAIKey()
	if openAIKey == "" {
		slog.Warn("speech fallback requested but OPENAI_API_KEY is not set")
		return nil, nil
	}
	cfg := audio.DefaultProviderConfig()
	cfg.OpenAIKey = openAIKey
	cfg.OpenAIModel = flags.OpenAIModel
	p, err := audio.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech fallback: %w", err)
	}
	return p, nil
}

// speechProvider caches Gemini speech and puts fallback, if any, on top of
// the cache
func speechProvider(flags *cli.Flags, gemini *backend.Gemini, fallback audio.Provider, metrics *observe.Metrics) (audio.Provider, func(), error) {
	speech, closer, err := speechcache.Chain(flags.SpeechCachePath, gemini, fallback, metrics)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := closer.Close(); err != nil {
			slog.Warn("failed to close speech cache", "error", err)
		}
	}

	slog.Info("speech provider ready", "provider", speech.Name())
	return speech, closeFn, nil
}

func runPractice(ctx context.Context, flags *cli.Flags, args []string) error {
	proc := processor.NewProcessor(flags)

	if flags.BatchFile != "" {
		if err := proc.ProcessBatch(ctx); err != nil {
			return err
		}
		if flags.OutputDir != "" {
			fmt.Printf("\nDone! Audio saved to: %s\n", flags.OutputDir)
		}
		return nil
	}

	var query string
	if len(args) > 0 {
		query = args[0]
	}
	return proc.Run(ctx, query)
}
