package sheets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/abhisek/recall/internal/attempt"
	"github.com/abhisek/recall/internal/mastery"
	"github.com/abhisek/recall/internal/readiness"
	"github.com/abhisek/recall/internal/spacedrep"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportCSV(t *testing.T) {
	path := writeFile(t, "attempts.csv", `Learner ID,item_id,topic,is_correct,time_taken_seconds,was_skipped,hesitation_count,occurred_at
L1,q1,algebra,yes,12.5,,1,2026-03-02T09:00:00Z
L1,q2,algebra,,4,true,,
L1,q3,geometry,maybe,abc,,,
`)
	im, err := ImportAttempts(path)
	require.NoError(t, err)

	require.Len(t, im.Raws, 2)
	assert.Equal(t, []int{2, 3}, im.Rows)

	first := im.Raws[0]
	assert.Equal(t, "L1", first.LearnerID)
	require.NotNil(t, first.IsCorrect)
	assert.True(t, *first.IsCorrect)
	assert.Equal(t, 12.5, first.TimeTakenSeconds)
	assert.Equal(t, 1, first.HesitationCount)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), first.OccurredAt)

	second := im.Raws[1]
	assert.Nil(t, second.IsCorrect)
	assert.True(t, second.WasSkipped)

	require.Contains(t, im.Problems, 4)
	var verr *attempt.ValidationError
	require.ErrorAs(t, im.Problems[4], &verr)
	assert.Len(t, verr.Problems, 2)
}

func TestImportCSV_NonFiniteTime(t *testing.T) {
	path := writeFile(t, "attempts.csv", `learner_id,item_id,topic,is_correct,time_taken_seconds
L1,q1,algebra,yes,10
L1,q2,algebra,no,NaN
L1,q3,algebra,no,Inf
`)
	im, err := ImportAttempts(path)
	require.NoError(t, err)

	assert.Equal(t, []int{2}, im.Rows)
	for _, row := range []int{3, 4} {
		require.Contains(t, im.Problems, row)
		var verr *attempt.ValidationError
		require.ErrorAs(t, im.Problems[row], &verr)
		require.Len(t, verr.Problems, 1)
		assert.Equal(t, "time_taken_seconds", verr.Problems[0].Field)
	}
}

func TestImportMissingColumn(t *testing.T) {
	path := writeFile(t, "attempts.csv", "learner_id,item_id\nL1,q1\n")
	_, err := ImportAttempts(path)
	assert.ErrorContains(t, err, "topic")
}

func TestImportUnsupported(t *testing.T) {
	_, err := ImportAttempts(writeFile(t, "attempts.txt", "x"))
	assert.Error(t, err)
}

func TestImportWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attempts.xlsx")
	f := excelize.NewFile()
	_, err := f.NewSheet(AttemptsSheet)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"ignored"}))
	require.NoError(t, f.SetSheetRow(AttemptsSheet, "A1", &[]any{"learner_id", "item_id", "topic", "is_correct", "time_taken_seconds"}))
	require.NoError(t, f.SetSheetRow(AttemptsSheet, "A2", &[]any{"L1", "q1", "algebra", "FALSE", 30}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	im, err := ImportAttempts(path)
	require.NoError(t, err)
	require.Len(t, im.Raws, 1)
	assert.Equal(t, "q1", im.Raws[0].ItemID)
	require.NotNil(t, im.Raws[0].IsCorrect)
	assert.False(t, *im.Raws[0].IsCorrect)
	assert.Equal(t, 30.0, im.Raws[0].TimeTakenSeconds)
	assert.Empty(t, im.Problems)
}

func TestExportReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	due := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	err := ExportReport(path, Report{
		LearnerID:   "L1",
		GeneratedAt: due,
		Readiness: &readiness.Report{
			Level:           readiness.LevelNeedsWork,
			OverallScore:    51.234,
			WeakTopics:      []string{"algebra"},
			PriorityActions: []string{"Review algebra"},
		},
		Weaknesses: []mastery.Weakness{{
			Topic:    "algebra",
			Mastery:  0.3333,
			Priority: 0.8,
			Patterns: []mastery.Pattern{mastery.PatternFastWrong, mastery.PatternSlowWrong},
		}},
		Due: []spacedrep.Card{{ItemID: "q1", Topic: "algebra", State: spacedrep.StateLearning, DueAt: due, IntervalDays: 1, EaseFactor: 2.5}},
	})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ReadinessSheet, WeaknessesSheet, DueSheet}, f.GetSheetList())

	rows, err := f.GetRows(ReadinessSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Learner", "L1"}, rows[0])
	assert.Equal(t, []string{"Readiness", "Needs Work"}, rows[2])
	assert.Equal(t, []string{"Overall score", "51.23"}, rows[3])

	rows, err = f.GetRows(WeaknessesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "algebra", rows[1][0])
	assert.Equal(t, "0.33", rows[1][1])
	assert.Equal(t, "fast_wrong, slow_wrong", rows[1][6])

	rows, err = f.GetRows(DueSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"q1", "algebra", "learning", "2026-03-03T09:00:00Z", "1", "2.5", "0"}, rows[1])
}
