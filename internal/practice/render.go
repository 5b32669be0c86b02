package practice

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			MarginBottom(1)

	indexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99"))

	difficultyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	englishStyle = lipgloss.NewStyle().
			Bold(true)

	chineseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	flaggedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Underline(true)

	clearStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// Render draws the card for a terminal
func (c *Card) Render() string {
	c.mu.Lock()
	phase, video, uri := c.phase, c.video, c.videoURI
	feedback, message := c.feedback, c.message
	c.mu.Unlock()

	s := c.sentence
	header := fmt.Sprintf("%s  %s  %s",
		indexStyle.Render(fmt.Sprintf("#%d", c.index+1)),
		badgeStyle.Render(s.ContextType+" · "+s.Tone),
		difficultyStyle.Render(strings.ToUpper(string(s.Difficulty))),
	)

	var english string
	if feedback == nil {
		english = englishStyle.Render(s.English)
	} else {
		words := HighlightWords(s.English, feedback)
		parts := make([]string, len(words))
		for i, w := range words {
			if w.Flagged {
				parts[i] = flaggedStyle.Render(w.Text)
			} else {
				parts[i] = clearStyle.Render(w.Text)
			}
		}
		english = englishStyle.Render(strings.Join(parts, " "))
	}

	lines := []string{header, english, chineseStyle.Render(s.Chinese)}

	if feedback != nil {
		lines = append(lines, "", scoreStyle.Render(fmt.Sprintf("Score %d/100 · %s", feedback.Score, feedback.Accuracy)))
		for _, issue := range feedback.PhonemeIssues {
			lines = append(lines, "  - "+issue)
		}
		if feedback.Advice != "" {
			lines = append(lines, "  "+feedback.Advice)
		}
	}

	switch video {
	case VideoPending:
		lines = append(lines, statusStyle.Render("Video: generating..."))
	case VideoReady:
		lines = append(lines, statusStyle.Render("Video: "+uri))
	}
	if phase != PhaseIdle {
		lines = append(lines, statusStyle.Render("["+phase.String()+"]"))
	}
	if message != "" {
		lines = append(lines, messageStyle.Render(message))
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
