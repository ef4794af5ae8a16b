package components

import (
	"strconv"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/recall/internal/ui/theme"
)

// QualityInput reads a single review quality digit in [Min, Max].
type QualityInput struct {
	Model textinput.Model
	Min   int
	Max   int
	err   string
}

func NewQualityInput(lo, hi int) QualityInput {
	ti := textinput.New()
	ti.Placeholder = strconv.Itoa(lo) + "-" + strconv.Itoa(hi)
	ti.CharLimit = 1
	ti.Focus()
	return QualityInput{Model: ti, Min: lo, Max: hi}
}

func (q QualityInput) Init() tea.Cmd {
	return q.Model.Focus()
}

// Update drops printable keys that are not digits.
func (q QualityInput) Update(msg tea.Msg) (QualityInput, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		key := kmsg.String()
		if len(key) == 1 && (key[0] < '0' || key[0] > '9') {
			return q, nil
		}
		q.err = ""
	}
	var cmd tea.Cmd
	q.Model, cmd = q.Model.Update(msg)
	return q, cmd
}

func (q QualityInput) View() string {
	view := q.Model.View()
	if q.err != "" {
		view += "  " + lipgloss.NewStyle().Foreground(theme.Error).Render(q.err)
	}
	return view
}

// Quality parses the entered digit. An out of range or empty value is
// reported on the input itself.
func (q *QualityInput) Quality() (int, bool) {
	v, err := strconv.Atoi(q.Model.Value())
	if err != nil || v < q.Min || v > q.Max {
		q.err = "enter " + strconv.Itoa(q.Min) + "-" + strconv.Itoa(q.Max)
		return 0, false
	}
	return v, true
}

// Reset clears the input for the next card.
func (q *QualityInput) Reset() {
	q.Model.SetValue("")
	q.err = ""
}
