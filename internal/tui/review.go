// Package tui runs an interactive review session in the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/recall/internal/spacedrep"
	"github.com/abhisek/recall/internal/ui/components"
	"github.com/abhisek/recall/internal/ui/layout"
	"github.com/abhisek/recall/internal/ui/theme"
)

// Reviewer is the part of the engine a session needs.
type Reviewer interface {
	DueReviews(ctx context.Context, learnerID string, now time.Time) ([]spacedrep.Card, error)
	SubmitReview(ctx context.Context, learnerID, itemID string, q int, timeTaken float64) (*spacedrep.Card, error)
}

type phase int

const (
	phaseLoading phase = iota
	phaseAsking
	phaseFeedback
	phaseDone
)

type dueLoadedMsg struct {
	Cards []spacedrep.Card
	Err   error
}

type reviewSubmittedMsg struct {
	Card *spacedrep.Card
	Err  error
}

// Summary describes a finished session.
type Summary struct {
	Reviewed     int
	Missed       int
	TotalQuality int
}

func (s Summary) AverageQuality() float64 {
	if s.Reviewed == 0 {
		return 0
	}
	return float64(s.TotalQuality) / float64(s.Reviewed)
}

// Model is the review session.
type Model struct {
	ctx      context.Context
	reviewer Reviewer
	learner  string
	now      func() time.Time

	phase   phase
	cards   []spacedrep.Card
	current int
	shownAt time.Time
	input   components.QualityInput
	last    *spacedrep.Card
	summary Summary
	err     error

	width  int
	height int
}

func New(ctx context.Context, r Reviewer, learnerID string) Model {
	return Model{
		ctx:      ctx,
		reviewer: r,
		learner:  learnerID,
		now:      time.Now,
		input:    components.NewQualityInput(0, spacedrep.MaxQuality),
	}
}

// Summary returns what the session has reviewed so far.
func (m Model) Summary() Summary { return m.summary }

// Err returns the error that ended the session, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadDue(), m.input.Init())
}

func (m Model) loadDue() tea.Cmd {
	return func() tea.Msg {
		cards, err := m.reviewer.DueReviews(m.ctx, m.learner, time.Time{})
		return dueLoadedMsg{Cards: cards, Err: err}
	}
}

func (m Model) submit(itemID string, q int, took float64) tea.Cmd {
	return func() tea.Msg {
		card, err := m.reviewer.SubmitReview(m.ctx, m.learner, itemID, q, took)
		return reviewSubmittedMsg{Card: card, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case dueLoadedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			m.phase = phaseDone
			return m, nil
		}
		m.cards = msg.Cards
		return m.next(), nil

	case reviewSubmittedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			m.phase = phaseDone
			return m, nil
		}
		m.last = msg.Card
		m.summary.Reviewed++
		m.summary.TotalQuality += msg.Card.LastQuality
		if msg.Card.LastQuality < spacedrep.PassQuality {
			m.summary.Missed++
		}
		m.phase = phaseFeedback
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.phase == phaseAsking {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	}

	switch m.phase {
	case phaseAsking:
		if msg.String() == "enter" {
			q, ok := m.input.Quality()
			if !ok {
				return m, nil
			}
			card := m.cards[m.current]
			took := m.now().Sub(m.shownAt).Seconds()
			return m, m.submit(card.ItemID, q, took)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case phaseFeedback:
		m.current++
		return m.next(), nil

	case phaseDone:
		return m, tea.Quit
	}
	return m, nil
}

// next shows the current card or ends the session when none are left.
func (m Model) next() Model {
	if m.current >= len(m.cards) {
		m.phase = phaseDone
		return m
	}
	m.phase = phaseAsking
	m.shownAt = m.now()
	m.input.Reset()
	return m
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		v.SetContent(m.content())
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	header := layout.RenderHeader("Review", m.learner, m.remaining(), m.width)
	footer := layout.RenderFooter(m.hints(), m.width)
	v.SetContent(layout.RenderFrame(header, m.content(), footer, m.width, m.height))
	return v
}

func (m Model) remaining() int {
	left := len(m.cards) - m.current
	if m.phase == phaseFeedback {
		left--
	}
	return max(left, 0)
}

func (m Model) hints() []layout.KeyHint {
	switch m.phase {
	case phaseAsking:
		return []layout.KeyHint{{Key: "0-5", Description: "Quality"}, {Key: "Enter", Description: "Submit"}, {Key: "Esc", Description: "Quit"}}
	case phaseFeedback:
		return []layout.KeyHint{{Key: "Any key", Description: "Next"}, {Key: "Esc", Description: "Quit"}}
	default:
		return []layout.KeyHint{{Key: "Any key", Description: "Exit"}}
	}
}

func (m Model) content() string {
	switch m.phase {
	case phaseLoading:
		return theme.Hint.Render("Loading due reviews...")
	case phaseAsking:
		return m.askView()
	case phaseFeedback:
		return m.feedbackView()
	default:
		return m.doneView()
	}
}

func (m Model) askView() string {
	c := m.cards[m.current]
	bar := components.ProgressBar{Done: m.current, Total: len(m.cards), Width: 40}

	var b strings.Builder
	b.WriteString(bar.View() + "\n\n")
	b.WriteString(theme.Title.Render(c.ItemID) + "  " + theme.Subtitle.Render(c.Topic) + "\n\n")
	b.WriteString(field("State", string(c.State)))
	b.WriteString(field("Interval", fmt.Sprintf("%d days", c.IntervalDays)))
	b.WriteString(field("Ease", fmt.Sprintf("%.2f", c.EaseFactor)))
	b.WriteString(field("Lapses", fmt.Sprintf("%d", c.Lapses)))
	b.WriteString("\nHow well did you recall it? ")
	b.WriteString(m.input.View() + "\n\n")
	b.WriteString(theme.Hint.Render("0 blackout · 3 recalled with effort · 5 perfect"))
	return theme.Card.Render(b.String())
}

func (m Model) feedbackView() string {
	c := m.last
	verdict := theme.Good.Render("Recalled")
	if c.LastQuality < spacedrep.PassQuality {
		verdict = theme.Bad.Render("Missed")
	}
	var b strings.Builder
	b.WriteString(verdict + "  " + theme.Subtitle.Render(c.ItemID) + "\n\n")
	b.WriteString(field("Next review", c.DueAt.Local().Format("Mon Jan 2 15:04")))
	b.WriteString(field("Interval", fmt.Sprintf("%d days", c.IntervalDays)))
	b.WriteString(field("Ease", fmt.Sprintf("%.2f", c.EaseFactor)))
	return theme.Card.Render(b.String())
}

func (m Model) doneView() string {
	if m.err != nil {
		return theme.Bad.Render("Review stopped: " + m.err.Error())
	}
	if m.summary.Reviewed == 0 && len(m.cards) == 0 {
		return theme.Good.Render("Nothing due. Come back later.")
	}
	var b strings.Builder
	b.WriteString(theme.Title.Render("Session complete") + "\n\n")
	b.WriteString(field("Reviewed", fmt.Sprintf("%d", m.summary.Reviewed)))
	b.WriteString(field("Missed", fmt.Sprintf("%d", m.summary.Missed)))
	b.WriteString(field("Average quality", fmt.Sprintf("%.1f", m.summary.AverageQuality())))
	return theme.Card.Render(b.String())
}

func field(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, theme.Label.Render(label), theme.Body.Render(value)) + "\n"
}

// Run starts an interactive session and returns its summary.
func Run(ctx context.Context, r Reviewer, learnerID string) (Summary, error) {
	p := tea.NewProgram(New(ctx, r, learnerID), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return Summary{}, fmt.Errorf("review session: %w", err)
	}
	m := final.(Model)
	return m.Summary(), m.Err()
}
