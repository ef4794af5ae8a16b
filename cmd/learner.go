package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/abhisek/recall/internal/forgetting"
	"github.com/abhisek/recall/internal/ui/theme"
)

var forgetCmd = &cobra.Command{
	Use:   "forget <learner> [topic]",
	Short: "Estimate forgetting from mastery snapshots",
	Long:  "With a topic, fits its decay curve. Without, lists every topic that needs review.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		var (
			results []forgetting.Result
			err     error
		)
		if len(args) == 2 {
			var res forgetting.Result
			res, err = rt.engine.ForgettingCurve(cmd.Context(), args[0], args[1])
			results = []forgetting.Result{res}
		} else {
			results, err = rt.engine.NeedsReviewSweep(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}

		return emit(cmd, results, func(w io.Writer) {
			if len(results) == 0 {
				hint(w, "No topic has decayed enough to need review.")
				return
			}
			heading(w, "Forgetting", args[0])
			for _, r := range results {
				halfLife := "-"
				if r.HalfLifeDays != nil {
					halfLife = fmt.Sprintf("%.1f days", *r.HalfLifeDays)
				}
				flag := ""
				if r.NeedsReview {
					flag = theme.Warn.Render("needs review")
				}
				fmt.Fprintf(w, "%-24s peak %s now %s  retention %s  half-life %s  %s\n",
					r.Topic, pct(r.PeakMastery), pct(r.CurrentMastery), pct(r.Retention), halfLife, flag)
			}
		})
	}),
}

var behaviorCmd = &cobra.Command{
	Use:   "behavior <learner>",
	Short: "Profile how a learner answers",
	Args:  cobra.ExactArgs(1),
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		p, err := rt.engine.Behavior(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return emit(cmd, p, func(w io.Writer) {
			heading(w, string(p.PrimaryTrait), args[0])
			if p.SecondaryTrait != nil {
				kv(w, "Secondary trait", *p.SecondaryTrait)
			}
			kv(w, "Risk taking", pct(p.RiskTaking))
			kv(w, "Perfectionism", pct(p.Perfectionism))
			kv(w, "Skimming", pct(p.Skimming))
			kv(w, "Grinding", pct(p.Grinding))
			kv(w, "Calibration", pct(p.ConfidenceCalibration))
			kv(w, "Consistency", pct(p.Consistency))
			kv(w, "Accuracy", pct(p.Accuracy))
			kv(w, "Strengths", list(p.Strengths))
			kv(w, "Growth areas", list(p.GrowthAreas))
			fmt.Fprintln(w)
			fmt.Fprintln(w, p.OptimalStrategy)
		})
	}),
}

var readinessCmd = &cobra.Command{
	Use:   "readiness <learner>",
	Short: "Estimate exam readiness",
	Args:  cobra.ExactArgs(1),
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		doc, _ := cmd.Flags().GetString("document")
		rep, err := rt.engine.Readiness(cmd.Context(), args[0], doc)
		if err != nil {
			return err
		}
		return emit(cmd, rep, func(w io.Writer) {
			heading(w, string(rep.Level), fmt.Sprintf("%.0f/100", rep.OverallScore))
			kv(w, "Mastery", pct(rep.MasteryScore))
			kv(w, "Consistency", pct(rep.ConsistencyScore))
			kv(w, "Confidence", pct(rep.ConfidenceScore))
			kv(w, "Coverage", pct(rep.CoverageScore))
			kv(w, "Study hours", rep.EstimatedStudyHours)
			kv(w, "Strong", list(rep.StrongTopics))
			kv(w, "Weak", list(rep.WeakTopics))
			kv(w, "Unpracticed", list(rep.UnpracticedTopics))
			for _, a := range rep.PriorityActions {
				fmt.Fprintln(w, "  • "+a)
			}
		})
	}),
}

var explainCmd = &cobra.Command{
	Use:   "explain <learner> <attempt>",
	Short: "Show the behavioral context of one attempt",
	Args:  cobra.ExactArgs(2),
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		ec, err := rt.engine.ExplanationContext(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return emit(cmd, ec, func(w io.Writer) {
			heading(w, ec.ItemID, ec.Topic)
			fmt.Fprintln(w, ec.BehavioralInsight)
		})
	}),
}

func init() {
	readinessCmd.Flags().String("document", "", "Document whose topics define coverage")
}
