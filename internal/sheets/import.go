// Package sheets moves attempts and reports between the engine and
// spreadsheets. Attempts are imported from .xlsx or .csv files whose
// first row names the columns; reports are exported as .xlsx workbooks.
package sheets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/recall/internal/attempt"
)

// AttemptsSheet is read when a workbook has a sheet of that name;
// otherwise the first sheet is used.
const AttemptsSheet = "Attempts"

var requiredColumns = []string{"learner_id", "item_id", "topic"}

// Import holds the attempts read from a file. Row numbers are 1-based
// spreadsheet rows, the header being row 1.
type Import struct {
	Raws []attempt.Raw
	// Rows[i] is the source row of Raws[i].
	Rows []int
	// Problems holds rows that could not be parsed, by source row.
	Problems map[int]error
}

func (im *Import) reject(row int, err error) {
	if im.Problems == nil {
		im.Problems = make(map[int]error)
	}
	im.Problems[row] = err
}

// ImportAttempts reads attempts from an .xlsx or .csv file.
func ImportAttempts(path string) (*Import, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(path)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return parseRows(rows)
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := ""
	for _, name := range f.GetSheetList() {
		if sheet == "" || strings.EqualFold(name, AttemptsSheet) {
			sheet = name
		}
	}
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func parseRows(rows [][]string) (*Import, error) {
	if len(rows) == 0 {
		return nil, errors.New("file is empty")
	}
	cols := make(map[string]int)
	for i, h := range rows[0] {
		cols[normalizeHeader(h)] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	im := &Import{}
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			continue
		}
		raw, err := parseRow(row, cols)
		if err != nil {
			im.reject(rowNum, err)
			continue
		}
		im.Raws = append(im.Raws, raw)
		im.Rows = append(im.Rows, rowNum)
	}
	return im, nil
}

func parseRow(row []string, cols map[string]int) (attempt.Raw, error) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	raw := attempt.Raw{
		LearnerID:  cell("learner_id"),
		ItemID:     cell("item_id"),
		Topic:      cell("topic"),
		DocumentID: cell("document_id"),
	}
	verr := &attempt.ValidationError{}

	if v := cell("is_correct"); v != "" {
		b, err := parseBool(v)
		if err != nil {
			verr.Problems = append(verr.Problems, attempt.FieldError{Field: "is_correct", Message: err.Error()})
		} else {
			raw.IsCorrect = &b
		}
	}
	for _, flag := range []struct {
		name string
		dst  *bool
	}{
		{"was_skipped", &raw.WasSkipped},
		{"answer_changed", &raw.AnswerChanged},
		{"marked_tricky", &raw.MarkedTricky},
	} {
		v := cell(flag.name)
		if v == "" {
			continue
		}
		b, err := parseBool(v)
		if err != nil {
			verr.Problems = append(verr.Problems, attempt.FieldError{Field: flag.name, Message: err.Error()})
			continue
		}
		*flag.dst = b
	}
	if v := cell("time_taken_seconds"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		switch {
		case err != nil:
			verr.Problems = append(verr.Problems, attempt.FieldError{Field: "time_taken_seconds", Message: "must be a number"})
		case math.IsNaN(f) || math.IsInf(f, 0):
			verr.Problems = append(verr.Problems, attempt.FieldError{Field: "time_taken_seconds", Message: "must be a finite number"})
		}
		raw.TimeTakenSeconds = f
	}
	if v := cell("hesitation_count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			verr.Problems = append(verr.Problems, attempt.FieldError{Field: "hesitation_count", Message: "must be an integer"})
		}
		raw.HesitationCount = n
	}
	if v := cell("occurred_at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			verr.Problems = append(verr.Problems, attempt.FieldError{Field: "occurred_at", Message: "must be an RFC 3339 timestamp"})
		}
		raw.OccurredAt = t
	}

	if len(verr.Problems) > 0 {
		return attempt.Raw{}, verr
	}
	return raw, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%q is not a boolean", v)
	}
	return b, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
