package processor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"codeberg.org/snonux/parrot/internal"
	"codeberg.org/snonux/parrot/internal/practice"
	"codeberg.org/snonux/parrot/internal/shell"
)

const helpText = `Commands:
  search <word>   generate example sentences (a bare word works too)
  list            show the current cards
  listen <n>      play the reference audio of card n
  record <n>      record yourself for card n, press Enter to stop
  video <n>       generate a context video for card n (runs in background)
  clear <n>       clear the feedback of card n
  help            show this help
  quit            leave`

// maxLogEntries bounds the scrollback kept by the model
const maxLogEntries = 200

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	recStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87"))
)

// Messages produced by the model's commands
type (
	shellChangedMsg shell.Snapshot

	searchDoneMsg struct {
		query string
		err   error
	}

	listenDoneMsg struct {
		card *practice.Card
		err  error
	}

	recordStartedMsg struct {
		card *practice.Card
		err  error
	}

	analysisDoneMsg struct {
		card *practice.Card
		err  error
	}

	videoDoneMsg struct {
		card *practice.Card
		err  error
	}
)

// model is the bubbletea model of the interactive practice session
type model struct {
	p   *Processor
	ctx context.Context

	input     textinput.Model
	entries   []string
	status    string
	recording *practice.Card
	height    int

	initialQuery string
}

func newModel(ctx context.Context, p *Processor, initialQuery string) *model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "a word to practice, or 'help'"
	ti.CharLimit = 200
	ti.Focus()

	m := &model{
		p:            p,
		ctx:          ctx,
		input:        ti,
		height:       24,
		initialQuery: initialQuery,
	}
	m.addEntry(fmt.Sprintf("parrot %s, type 'help' for commands", internal.Version))
	return m
}

// Init starts the cursor blink and the initial search, if any
func (m *model) Init() tea.Cmd {
	if m.initialQuery == "" {
		return textinput.Blink
	}
	return tea.Batch(textinput.Blink, m.search(m.initialQuery))
}

func (m *model) addEntry(format string, args ...any) {
	m.entries = append(m.entries, fmt.Sprintf(format, args...))
	if len(m.entries) > maxLogEntries {
		m.entries = m.entries[len(m.entries)-maxLogEntries:]
	}
}

// Update handles key presses and command results
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case shellChangedMsg:
		if msg.State == shell.StateGeneratingContext {
			m.status = fmt.Sprintf("Generating sentences for %q...", msg.Query)
		}
		return m, nil

	case searchDoneMsg:
		m.status = ""
		switch {
		case errors.Is(msg.err, shell.ErrEmptyQuery):
			m.addEntry("Usage: search <word>")
		case msg.err != nil:
			if snap := m.p.shell.Snapshot(); snap.Error != "" {
				m.addEntry("%s", snap.Error)
			} else {
				m.addEntry("Search failed: %v", msg.err)
			}
		default:
			m.addEntry("Ready: %d sentences for %q", len(m.p.shell.Cards()), msg.query)
			m.list()
		}
		return m, nil

	case listenDoneMsg:
		m.status = ""
		if msg.err != nil {
			m.addEntry("%s", messageOr(msg.card, msg.err))
		}
		return m, nil

	case recordStartedMsg:
		if msg.err != nil {
			m.status = ""
			m.addEntry("%s", messageOr(msg.card, msg.err))
			return m, nil
		}
		m.recording = msg.card
		m.status = ""
		m.addEntry("Recording, say: %s", msg.card.Sentence().English)
		return m, nil

	case analysisDoneMsg:
		m.status = ""
		if msg.err != nil {
			m.addEntry("%s", messageOr(msg.card, msg.err))
			return m, nil
		}
		m.addEntry("%s", msg.card.Render())
		return m, nil

	case videoDoneMsg:
		n := msg.card.Index() + 1
		if msg.err != nil {
			m.addEntry("Video for card %d failed: %s", n, messageOr(msg.card, msg.err))
			return m, nil
		}
		status, uri := msg.card.Video()
		if status == practice.VideoReady {
			m.addEntry("Video for card %d ready: %s", n, uri)
		} else if text := msg.card.Message(); text != "" {
			m.addEntry("Video for card %d: %s", n, text)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		if m.recording != nil {
			return m, m.stopRecording()
		}
		line := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if line == "" {
			return m, nil
		}
		m.addEntry("> %s", line)
		return m, m.execute(line)
	}

	// the microphone owns the session until Enter
	if m.recording != nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// execute runs one command line
func (m *model) execute(line string) tea.Cmd {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "quit", "exit", "q":
		return tea.Quit
	case "help", "?":
		m.addEntry("%s", helpText)
	case "search", "s":
		return m.search(arg)
	case "list", "ls":
		m.list()
	case "listen", "l":
		return m.withCard(arg, m.listen)
	case "record", "r":
		return m.withCard(arg, m.startRecording)
	case "video", "v":
		return m.withCard(arg, m.video)
	case "clear", "c":
		return m.withCard(arg, func(c *practice.Card) tea.Cmd {
			c.ClearFeedback()
			m.addEntry("%s", c.Render())
			return nil
		})
	default:
		// a bare word or phrase is a search
		return m.search(line)
	}
	return nil
}

func (m *model) search(query string) tea.Cmd {
	query = strings.TrimSpace(query)
	if query != "" {
		m.status = fmt.Sprintf("Generating sentences for %q...", query)
	}
	ctx, sh := m.ctx, m.p.shell
	return func() tea.Msg {
		return searchDoneMsg{query: query, err: sh.Search(ctx, query)}
	}
}

func (m *model) list() {
	cards := m.p.shell.Cards()
	if len(cards) == 0 {
		m.addEntry("No cards yet, search a word first")
		return
	}
	for _, c := range cards {
		m.addEntry("%s", c.Render())
	}
}

// withCard resolves a one based card number
func (m *model) withCard(arg string, fn func(*practice.Card) tea.Cmd) tea.Cmd {
	n, err := strconv.Atoi(arg)
	if err != nil {
		m.addEntry("Expected a card number, got %q", arg)
		return nil
	}
	c, ok := m.p.shell.Card(n - 1)
	if !ok {
		m.addEntry("No card %d", n)
		return nil
	}
	return fn(c)
}

func (m *model) listen(c *practice.Card) tea.Cmd {
	m.status = fmt.Sprintf("Playing card %d (%s)...", c.Index()+1, c.Voice())
	m.addEntry("Playing card %d (%s)", c.Index()+1, c.Voice())
	ctx := m.ctx
	return func() tea.Msg {
		return listenDoneMsg{card: c, err: c.Listen(ctx)}
	}
}

func (m *model) startRecording(c *practice.Card) tea.Cmd {
	m.status = "Opening microphone..."
	ctx := m.ctx
	return func() tea.Msg {
		return recordStartedMsg{card: c, err: c.StartRecording(ctx)}
	}
}

func (m *model) stopRecording() tea.Cmd {
	c := m.recording
	m.recording = nil
	m.status = "Analyzing..."
	ctx := m.ctx
	return func() tea.Msg {
		return analysisDoneMsg{card: c, err: c.StopRecording(ctx)}
	}
}

func (m *model) video(c *practice.Card) tea.Cmd {
	n := c.Index() + 1
	if !c.Controls().VideoEnabled {
		if status, uri := c.Video(); status == practice.VideoReady {
			m.addEntry("Video for card %d: %s", n, uri)
		} else {
			m.addEntry("Video for card %d is already being generated", n)
		}
		return nil
	}

	m.addEntry("Generating video for card %d in the background...", n)
	ctx := m.ctx
	return func() tea.Msg {
		return videoDoneMsg{card: c, err: c.GenerateVideo(ctx)}
	}
}

// View renders the scrollback that fits the terminal, the status line and
// the prompt
func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("parrot"))
	b.WriteString("\n\n")

	var lines []string
	for _, e := range m.entries {
		lines = append(lines, strings.Split(e, "\n")...)
	}
	if room := m.height - 6; room > 0 && len(lines) > room {
		lines = lines[len(lines)-room:]
	}
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")

	switch {
	case m.recording != nil:
		b.WriteString(recStyle.Render(fmt.Sprintf("● Recording card %d, press Enter to stop", m.recording.Index()+1)))
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

// messageOr prefers the card's user facing message over the raw error
func messageOr(c *practice.Card, err error) string {
	if msg := c.Message(); msg != "" {
		return msg
	}
	return err.Error()
}
