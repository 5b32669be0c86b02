package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/snonux/parrot/internal"
	"codeberg.org/snonux/parrot/internal/audio"
	"codeberg.org/snonux/parrot/internal/audio/device"
	"codeberg.org/snonux/parrot/internal/batch"
	"codeberg.org/snonux/parrot/internal/cli"
	"codeberg.org/snonux/parrot/internal/gateway"
	"codeberg.org/snonux/parrot/internal/models"
	"codeberg.org/snonux/parrot/internal/practice"
	"codeberg.org/snonux/parrot/internal/shell"
)

// Processor handles the interactive session and batch runs
type Processor struct {
	flags  *cli.Flags
	client *gateway.Client
	shell  *shell.Shell
	player practice.Player
	mic    practice.Microphone

	in  io.Reader
	out io.Writer

	outMu       sync.Mutex
	interactive bool
}

// Option configures a Processor
type Option func(*Processor)

// WithDevices replaces the PortAudio speaker and microphone
func WithDevices(player practice.Player, mic practice.Microphone) Option {
	return func(p *Processor) {
		p.player = player
		p.mic = mic
	}
}

// WithIO replaces the terminal input and output
func WithIO(in io.Reader, out io.Writer) Option {
	return func(p *Processor) {
		p.in = in
		p.out = out
	}
}

// NewProcessor creates a processor talking to the proxy at flags.ServerURL
func NewProcessor(flags *cli.Flags, opts ...Option) *Processor {
	p := &Processor{
		flags:  flags,
		client: gateway.New(flags.ServerURL),
		player: device.NewSpeaker(),
		mic:    device.NewMicrophone(),
		in:     os.Stdin,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.shell = shell.New(p.client, p.newCard)
	p.shell.OnChange(p.onShellChange)
	return p
}

func (p *Processor) newCard(sentence models.SentenceContext, index int) *practice.Card {
	return practice.NewCard(sentence, index, p.client, p.player, p.mic)
}

func (p *Processor) printf(format string, args ...any) {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

// onShellChange reports search progress of batch runs; the interactive
// session renders it itself
func (p *Processor) onShellChange(s shell.Snapshot) {
	if p.interactive {
		return
	}
	switch s.State {
	case shell.StateGeneratingContext:
		p.printf("Generating sentences for %q...\n", s.Query)
	case shell.StateError:
		p.printf("%s\n", s.Error)
	case shell.StateReadyToPractice:
		p.printf("Ready: %d sentences for %q\n", len(s.Sentences), s.Query)
	}
}

// Run starts the interactive session and blocks until the user quits or
// ctx is cancelled. A non-empty initialQuery is searched first.
func (p *Processor) Run(ctx context.Context, initialQuery string) error {
	p.interactive = true
	m := newModel(ctx, p, initialQuery)
	prog := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	p.shell.OnChange(func(s shell.Snapshot) {
		prog.Send(shellChangedMsg(s))
	})

	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run practice session: %w", err)
	}
	return nil
}

// ProcessBatch searches every word of the batch file and prints the cards.
// With an output directory the reference audio of every card is exported.
func (p *Processor) ProcessBatch(ctx context.Context) error {
	words, err := batch.ReadBatchFile(p.flags.BatchFile)
	if err != nil {
		return err
	}

	if p.flags.OutputDir != "" {
		if err := os.MkdirAll(p.flags.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	processedCount := 0
	skippedCount := 0
	errorCount := 0

	for i, word := range words {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.printf("\nProcessing %d/%d: %s\n", i+1, len(words), word)

		if p.flags.OutputDir != "" && p.isWordExported(word) {
			p.printf("  ✓ Skipping '%s' - already exported\n", word)
			skippedCount++
			continue
		}

		if err := p.shell.Search(ctx, word); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing '%s': %v\n", word, err)
			errorCount++
			continue
		}
		p.printCards()

		if p.flags.OutputDir != "" {
			if err := p.exportWord(ctx, word); err != nil {
				fmt.Fprintf(os.Stderr, "Error exporting '%s': %v\n", word, err)
				errorCount++
				continue
			}
		}
		processedCount++
	}

	p.printf("\n=== Batch Processing Summary ===\n")
	p.printf("Total words: %d\n", len(words))
	p.printf("Processed: %d\n", processedCount)
	p.printf("Skipped (already exported): %d\n", skippedCount)
	if errorCount > 0 {
		p.printf("Errors: %d\n", errorCount)
	}
	p.printf("================================\n")
	return nil
}

func (p *Processor) printCards() {
	for _, c := range p.shell.Cards() {
		p.printf("%s\n", c.Render())
	}
}

func (p *Processor) wordDir(word string) string {
	return filepath.Join(p.flags.OutputDir, internal.SanitizeFilename(word))
}

// isWordExported reports whether a previous run left audio for word
func (p *Processor) isWordExported(word string) bool {
	matches, _ := filepath.Glob(filepath.Join(p.wordDir(word), "*.wav"))
	return len(matches) > 0
}

// exportWord writes <dir>/<word>/<n>_<voice>.wav for every current card
func (p *Processor) exportWord(ctx context.Context, word string) error {
	dir := p.wordDir(word)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create word directory: %w", err)
	}

	for _, c := range p.shell.Cards() {
		voice := c.Voice()
		b64, err := p.client.GenerateSpeech(ctx, c.Sentence().English, voice)
		if err != nil {
			return fmt.Errorf("card %d: %w", c.Index()+1, err)
		}
		buf, err := audio.DecodePCM16(b64, audio.ReferenceSampleRate)
		if err != nil {
			return fmt.Errorf("card %d: %w", c.Index()+1, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("%d_%s.wav", c.Index()+1, voice))
		if err := audio.WriteWAVFile(path, audio.FloatToPCM16(buf.Samples), buf.SampleRate, buf.Channels); err != nil {
			return fmt.Errorf("card %d: %w", c.Index()+1, err)
		}
		p.printf("  Saved %s (%.1fs)\n", path, buf.Duration().Seconds())
	}
	return nil
}
