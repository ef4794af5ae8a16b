package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/recall/internal/sheets"
)

var exportCmd = &cobra.Command{
	Use:   "export <learner> <report.xlsx>",
	Short: "Write a learner's progress report as a spreadsheet",
	Args:  cobra.ExactArgs(2),
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		ctx := cmd.Context()
		learner := args[0]
		doc, _ := cmd.Flags().GetString("document")

		ws, err := rt.engine.Weaknesses(ctx, learner, doc)
		if err != nil {
			return err
		}
		due, err := rt.engine.DueReviews(ctx, learner, time.Time{})
		if err != nil {
			return err
		}
		rep := sheets.Report{
			LearnerID:   learner,
			GeneratedAt: rt.engine.Now(),
			Weaknesses:  ws,
			Due:         due,
		}
		ready, err := rt.engine.Readiness(ctx, learner, doc)
		if err != nil {
			return err
		}
		rep.Readiness = &ready

		if err := sheets.ExportReport(args[1], rep); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[1])
		return nil
	}),
}

func init() {
	exportCmd.Flags().String("document", "", "Restrict the report to a document's topics")
}
