package sheets

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/recall/internal/mastery"
	"github.com/abhisek/recall/internal/readiness"
	"github.com/abhisek/recall/internal/spacedrep"
)

// Sheet names of an exported report.
const (
	ReadinessSheet  = "Readiness"
	WeaknessesSheet = "Weaknesses"
	DueSheet        = "Due Reviews"
)

// Report is a learner's progress report.
type Report struct {
	LearnerID   string
	GeneratedAt time.Time
	Readiness   *readiness.Report
	Weaknesses  []mastery.Weakness
	Due         []spacedrep.Card
}

// ExportReport writes r as an .xlsx workbook at path.
func ExportReport(path string, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	w := &writer{f: f, header: bold}
	w.readiness(r)
	w.weaknesses(r.Weaknesses)
	w.due(r.Due)
	if w.err != nil {
		return w.err
	}

	f.SetActiveSheet(w.first)
	f.DeleteSheet("Sheet1")
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// writer keeps the first error; later writes are no-ops.
type writer struct {
	f      *excelize.File
	header int
	first  int
	err    error
}

func (w *writer) sheet(name string, header []any) {
	if w.err != nil {
		return
	}
	idx, err := w.f.NewSheet(name)
	if err != nil {
		w.err = fmt.Errorf("create sheet %s: %w", name, err)
		return
	}
	if name == ReadinessSheet {
		w.first = idx
	}
	if header == nil {
		return
	}
	w.row(name, 1, header)
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellStyle(name, "A1", last, w.header); err != nil {
		w.err = fmt.Errorf("style %s header: %w", name, err)
	}
}

func (w *writer) row(sheet string, n int, values []any) {
	if w.err != nil {
		return
	}
	if err := w.f.SetSheetRow(sheet, fmt.Sprintf("A%d", n), &values); err != nil {
		w.err = fmt.Errorf("write %s row %d: %w", sheet, n, err)
	}
}

func (w *writer) readiness(r Report) {
	w.sheet(ReadinessSheet, nil)
	rows := [][]any{
		{"Learner", r.LearnerID},
		{"Generated", r.GeneratedAt.UTC().Format(time.RFC3339)},
	}
	if rep := r.Readiness; rep != nil {
		rows = append(rows,
			[]any{"Readiness", string(rep.Level)},
			[]any{"Overall score", round2(rep.OverallScore)},
			[]any{"Mastery score", round2(rep.MasteryScore)},
			[]any{"Consistency score", round2(rep.ConsistencyScore)},
			[]any{"Confidence score", round2(rep.ConfidenceScore)},
			[]any{"Coverage score", round2(rep.CoverageScore)},
			[]any{"Estimated study hours", rep.EstimatedStudyHours},
			[]any{"Strong topics", strings.Join(rep.StrongTopics, ", ")},
			[]any{"Weak topics", strings.Join(rep.WeakTopics, ", ")},
			[]any{"Unpracticed topics", strings.Join(rep.UnpracticedTopics, ", ")},
		)
		for i, a := range rep.PriorityActions {
			rows = append(rows, []any{fmt.Sprintf("Action %d", i+1), a})
		}
	}
	for i, row := range rows {
		w.row(ReadinessSheet, i+1, row)
	}
	if w.err == nil {
		w.err = w.f.SetCellStyle(ReadinessSheet, "A1", fmt.Sprintf("A%d", len(rows)), w.header)
	}
}

func (w *writer) weaknesses(ws []mastery.Weakness) {
	w.sheet(WeaknessesSheet, []any{
		"Topic", "Mastery", "Priority", "Attempts", "Confusion", "Tricky rate", "Patterns", "Wrong items", "Recommendation",
	})
	for i, wk := range ws {
		patterns := make([]string, len(wk.Patterns))
		for j, p := range wk.Patterns {
			patterns[j] = string(p)
		}
		w.row(WeaknessesSheet, i+2, []any{
			wk.Topic,
			round2(wk.Mastery),
			round2(wk.Priority),
			wk.SampleCount,
			round2(wk.AvgConfusion),
			round2(wk.TrickyRate),
			strings.Join(patterns, ", "),
			strings.Join(wk.WrongItems, ", "),
			wk.Recommendation,
		})
	}
}

func (w *writer) due(cards []spacedrep.Card) {
	w.sheet(DueSheet, []any{"Item", "Topic", "State", "Due", "Interval (days)", "Ease", "Lapses"})
	for i, c := range cards {
		w.row(DueSheet, i+2, []any{
			c.ItemID,
			c.Topic,
			string(c.State),
			c.DueAt.UTC().Format(time.RFC3339),
			c.IntervalDays,
			round2(c.EaseFactor),
			c.Lapses,
		})
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
