package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/abhisek/recall/internal/attempt"
	"github.com/abhisek/recall/internal/sheets"
	"github.com/abhisek/recall/internal/ui/theme"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Record attempts from a JSON file or stdin",
	Long: "Reads a single attempt, an array of attempts or an {\"events\": [...]} envelope.\n" +
		"Use - or omit the file to read stdin.",
	Args: cobra.MaximumNArgs(1),
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		var r io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		payload, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("read attempts: %w", err)
		}

		res, err := rt.engine.IngestJSON(cmd.Context(), payload)
		if err != nil {
			return err
		}
		return printBatch(cmd, res, nil)
	}),
}

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx|file.csv>",
	Short: "Record attempts from a spreadsheet",
	Long:  "The first row names the columns: learner_id, item_id and topic are required.",
	Args:  cobra.ExactArgs(1),
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		im, err := sheets.ImportAttempts(args[0])
		if err != nil {
			return err
		}
		res, err := rt.engine.IngestBatch(cmd.Context(), im.Raws)
		if err != nil {
			return err
		}

		// Report rejections by spreadsheet row.
		rows := make(map[int]error, len(im.Problems)+len(res.Errors))
		for row, perr := range im.Problems {
			rows[row] = perr
		}
		for i, verr := range res.Errors {
			rows[im.Rows[i]] = verr
		}
		return printBatch(cmd, attempt.BatchResult{Recorded: res.Recorded}, rows)
	}),
}

type batchOutput struct {
	Recorded int            `json:"recorded"`
	Rejected map[int]string `json:"rejected,omitempty"`
}

// printBatch prints a batch outcome. rows, when set, replaces the
// result's index-keyed errors with row-keyed ones.
func printBatch(cmd *cobra.Command, res attempt.BatchResult, rows map[int]error) error {
	unit := "attempt"
	rejected := res.Errors
	if rows != nil {
		unit = "row"
		rejected = rows
	}

	out := batchOutput{Recorded: len(res.Recorded)}
	keys := make([]int, 0, len(rejected))
	for k, err := range rejected {
		if out.Rejected == nil {
			out.Rejected = make(map[int]string)
		}
		out.Rejected[k] = err.Error()
		keys = append(keys, k)
	}
	sort.Ints(keys)

	err := emit(cmd, out, func(w io.Writer) {
		fmt.Fprintln(w, theme.Good.Render(fmt.Sprintf("Recorded %d attempts", out.Recorded)))
		for _, k := range keys {
			fmt.Fprintf(w, "%s %s\n", theme.Bad.Render(fmt.Sprintf("%s %d:", unit, k)), out.Rejected[k])
		}
	})
	if err != nil {
		return err
	}
	if out.Recorded == 0 && len(keys) > 0 {
		return fmt.Errorf("no attempts recorded")
	}
	return nil
}
