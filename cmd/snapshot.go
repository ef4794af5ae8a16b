package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/abhisek/recall/internal/jobs"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Run one maintenance pass: snapshot mastery and sweep for decay",
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		runner := jobs.New(rt.engine, rt.cfg.Jobs.SnapshotInterval, rt.log)
		rep, err := runner.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		return emit(cmd, rep, func(w io.Writer) {
			kv(w, "Snapshots", rep.Snapshots)
			kv(w, "Learners", rep.Learners)
			learners := make([]string, 0, len(rep.NeedsReview))
			for l := range rep.NeedsReview {
				learners = append(learners, l)
			}
			sort.Strings(learners)
			for _, l := range learners {
				fmt.Fprintf(w, "%s needs review: %s\n", l, list(rep.NeedsReview[l]))
			}
		})
	}),
}
