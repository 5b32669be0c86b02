// Package shell holds the top-level application state: the current search,
// its generated sentences and one practice card per sentence.
package shell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"codeberg.org/snonux/parrot/internal/models"
	"codeberg.org/snonux/parrot/internal/practice"
)

// MsgGenerationFailed is shown when a search produced no sentences
const MsgGenerationFailed = "Unable to generate content. Please check your connection or try a different word."

// ErrEmptyQuery is returned for blank searches; the state is left untouched
var ErrEmptyQuery = errors.New("query cannot be empty")

// State is the shell's search state
type State int

// Shell states
const (
	StateIdle              State = iota // no search yet
	StateGeneratingContext              // waiting for sentences
	StateReadyToPractice                // cards available
	StateError                          // last search failed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGeneratingContext:
		return "generating"
	case StateReadyToPractice:
		return "ready"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ContextGenerator produces the sentences for a search
type ContextGenerator interface {
	GenerateContexts(ctx context.Context, query string) ([]models.SentenceContext, error)
}

// CardFactory builds the practice card for the sentence at index
type CardFactory func(sentence models.SentenceContext, index int) *practice.Card

// Snapshot is a consistent copy of the shell state
type Snapshot struct {
	State     State
	Query     string
	Sentences []models.SentenceContext
	Error     string
}

// Shell is the application state machine
type Shell struct {
	gen     ContextGenerator
	newCard CardFactory

	mu        sync.Mutex
	state     State
	query     string
	sentences []models.SentenceContext
	cards     []*practice.Card
	errMsg    string
	seq       uint64
	observers []func(Snapshot)
}

// New creates an idle shell
func New(gen ContextGenerator, newCard CardFactory) *Shell {
	return &Shell{gen: gen, newCard: newCard}
}

// OnChange registers fn to be called with a snapshot after every state
// change. Observers run on the goroutine that caused the change.
func (s *Shell) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Snapshot returns the current state
func (s *Shell) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Shell) snapshotLocked() Snapshot {
	return Snapshot{
		State:     s.state,
		Query:     s.query,
		Sentences: append([]models.SentenceContext(nil), s.sentences...),
		Error:     s.errMsg,
	}
}

// Cards returns the practice cards of the current search in sentence order
func (s *Shell) Cards() []*practice.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*practice.Card(nil), s.cards...)
}

// Card returns the card at zero based index i
func (s *Shell) Card(i int) (*practice.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.cards) {
		return nil, false
	}
	return s.cards[i], true
}

// Search runs a new search for query and blocks until it finished. A search
// superseded by a newer one while it was running leaves no trace.
func (s *Shell) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return ErrEmptyQuery
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.state = StateGeneratingContext
	s.query = query
	s.sentences = nil
	s.cards = nil
	s.errMsg = ""
	s.unlockAndNotify()

	sentences, err := s.gen.GenerateContexts(ctx, query)

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		slog.DebugContext(ctx, "dropping superseded search result", "query", query)
		return nil
	}

	if err != nil {
		s.state = StateError
		s.errMsg = MsgGenerationFailed
		s.unlockAndNotify()
		slog.WarnContext(ctx, "sentence generation failed", "query", query, "error", err)
		return fmt.Errorf("failed to generate sentences for %q: %w", query, err)
	}

	cards := make([]*practice.Card, len(sentences))
	for i, sentence := range sentences {
		cards[i] = s.newCard(sentence, i)
	}
	s.state = StateReadyToPractice
	s.sentences = sentences
	s.cards = cards
	s.unlockAndNotify()
	return nil
}

// unlockAndNotify snapshots the state, releases s.mu and calls the
// observers. The caller must hold s.mu.
func (s *Shell) unlockAndNotify() {
	snap := s.snapshotLocked()
	observers := slices.Clone(s.observers)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(snap)
	}
}
