package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/recall/internal/mastery"
	"github.com/abhisek/recall/internal/ui/theme"
)

var masteryCmd = &cobra.Command{
	Use:   "mastery <learner> <topic>",
	Short: "Show a learner's mastery of a topic",
	Args:  cobra.ExactArgs(2),
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		rec, err := rt.engine.Mastery(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return emit(cmd, rec, func(w io.Writer) {
			heading(w, rec.Topic, rec.LearnerID)
			kv(w, "Mastery", fmt.Sprintf("%s  %s", pct(rec.Mastery), levelBadge(rec.Mastery)))
			kv(w, "Answered", rec.SampleCount)
			kv(w, "Updated", rec.LastUpdated.Local().Format("2006-01-02 15:04"))
		})
	}),
}

var weakCmd = &cobra.Command{
	Use:   "weak <learner>",
	Short: "Rank a learner's weak topics and suggest the next focus",
	Args:  cobra.ExactArgs(1),
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		doc, _ := cmd.Flags().GetString("document")
		ws, err := rt.engine.Weaknesses(cmd.Context(), args[0], doc)
		if err != nil {
			return err
		}
		target := mastery.Target(ws)
		out := struct {
			Weaknesses []mastery.Weakness `json:"weaknesses"`
			Targeting  mastery.Targeting  `json:"targeting"`
		}{ws, target}

		return emit(cmd, out, func(w io.Writer) {
			if len(ws) == 0 {
				hint(w, "No practiced topics yet.")
				return
			}
			heading(w, "Weak topics", args[0])
			for i, wk := range ws {
				patterns := make([]string, len(wk.Patterns))
				for j, p := range wk.Patterns {
					patterns[j] = string(p)
				}
				fmt.Fprintf(w, "%2d. %-24s %s %s  priority %.2f\n",
					i+1, wk.Topic, pct(wk.Mastery), levelBadge(wk.Mastery), wk.Priority)
				if len(patterns) > 0 {
					fmt.Fprintf(w, "    %s\n", theme.Hint.Render(strings.Join(patterns, ", ")))
				}
				if wk.Recommendation != "" {
					fmt.Fprintf(w, "    %s\n", wk.Recommendation)
				}
			}
			fmt.Fprintln(w)
			kv(w, "Focus on", list(target.WeakTopics))
			kv(w, "Difficulty", list(target.RecommendedDifficulty))
			kv(w, "Questions needed", target.QuestionsNeeded)
		})
	}),
}

var velocityCmd = &cobra.Command{
	Use:   "velocity <learner> [topic]",
	Short: "Show how fast mastery is changing",
	Args:  cobra.RangeArgs(1, 2),
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		var vs []mastery.Velocity
		if len(args) == 2 {
			v, err := rt.engine.TopicVelocity(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			vs = []mastery.Velocity{v}
		} else {
			var err error
			if vs, err = rt.engine.Velocity(cmd.Context(), args[0]); err != nil {
				return err
			}
		}
		return emit(cmd, vs, func(w io.Writer) {
			if len(vs) == 0 {
				hint(w, "Not enough snapshot history yet.")
				return
			}
			heading(w, "Learning velocity", args[0])
			for _, v := range vs {
				eta := "-"
				if v.SessionsToMastery != nil {
					eta = fmt.Sprintf("%d sessions to mastery", *v.SessionsToMastery)
				}
				fmt.Fprintf(w, "%-24s %+.3f/snapshot  %-8s %s\n", v.Topic, v.Velocity, v.ComparativeRank, theme.Subtitle.Render(eta))
			}
		})
	}),
}

func init() {
	weakCmd.Flags().String("document", "", "Restrict to a document's topics")
}
