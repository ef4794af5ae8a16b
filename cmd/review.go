package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/recall/internal/spacedrep"
	"github.com/abhisek/recall/internal/tui"
	"github.com/abhisek/recall/internal/ui/theme"
)

var dueCmd = &cobra.Command{
	Use:   "due <learner>",
	Short: "List reviews that are due",
	Args:  cobra.ExactArgs(1),
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		cards, err := rt.engine.DueReviewStatus(cmd.Context(), args[0], time.Time{})
		if err != nil {
			return err
		}
		sched, err := rt.engine.ReviewSchedule(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := struct {
			Due      []spacedrep.DueCard `json:"due"`
			Schedule spacedrep.Schedule  `json:"schedule"`
		}{cards, sched}

		return emit(cmd, out, func(w io.Writer) {
			heading(w, "Due reviews", args[0])
			if len(cards) == 0 {
				hint(w, "Nothing due.")
			}
			for _, c := range cards {
				fmt.Fprintf(w, "%-20s %-20s %-9s ease %.2f  due %s  %s\n",
					c.ItemID, c.Topic, c.State, c.EaseFactor, c.DueAt.Local().Format("2006-01-02 15:04"), dueBadge(c))
			}
			fmt.Fprintln(w)
			kv(w, "Due today", sched.DueToday)
			kv(w, "This week", sched.DueThisWeek)
			kv(w, "This month", sched.DueThisMonth)
			kv(w, "Scheduled", sched.Total)
			if sched.Next != nil && sched.NextInDays > 0 {
				kv(w, "Next review", fmt.Sprintf("%s in %d days", sched.Next.ItemID, sched.NextInDays))
			}
		})
	}),
}

func dueBadge(c spacedrep.DueCard) string {
	if c.Status == spacedrep.ReviewOverdue {
		return theme.Bad.Render(fmt.Sprintf("overdue %.1fd", c.OverdueDays))
	}
	return theme.Warn.Render("due")
}

var reviewCmd = &cobra.Command{
	Use:   "review <learner>",
	Short: "Work through due reviews interactively",
	Args:  cobra.ExactArgs(1),
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		sum, err := tui.Run(cmd.Context(), rt.engine, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reviewed %d cards, missed %d\n", sum.Reviewed, sum.Missed)
		return nil
	}),
}

var submitCmd = &cobra.Command{
	Use:   "submit <learner> <item>",
	Short: "Record a review of an item",
	Long: "Records a review with --quality (0-5), or derives the quality from a\n" +
		"recorded attempt with --attempt.",
	Args: cobra.ExactArgs(2),
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		ctx := cmd.Context()
		learner, item := args[0], args[1]
		took, _ := cmd.Flags().GetFloat64("time")
		attemptID, _ := cmd.Flags().GetString("attempt")

		q, _ := cmd.Flags().GetInt("quality")
		switch {
		case attemptID != "" && cmd.Flags().Changed("quality"):
			return errors.New("use --quality or --attempt, not both")
		case attemptID != "":
			var err error
			if q, err = rt.engine.SuggestQuality(ctx, learner, attemptID); err != nil {
				return err
			}
		case !cmd.Flags().Changed("quality"):
			return errors.New("--quality or --attempt is required")
		}

		card, err := rt.engine.SubmitReview(ctx, learner, item, q, took)
		if err != nil {
			return err
		}
		return emit(cmd, card, func(w io.Writer) { printCard(w, card, q) })
	}),
}

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule <learner> <item> <due>",
	Short: "Move a review to a new due date (RFC 3339 or YYYY-MM-DD)",
	Args:  cobra.ExactArgs(3),
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		due, err := parseDate(args[2])
		if err != nil {
			return err
		}
		card, err := rt.engine.Reschedule(cmd.Context(), args[0], args[1], due)
		if err != nil {
			return err
		}
		return emit(cmd, card, func(w io.Writer) {
			fmt.Fprintf(w, "%s due %s\n", card.ItemID, card.DueAt.Local().Format("2006-01-02 15:04"))
		})
	}),
}

func printCard(w io.Writer, c *spacedrep.Card, q int) {
	verdict := theme.Good.Render("recalled")
	if q < spacedrep.PassQuality {
		verdict = theme.Bad.Render("missed")
	}
	heading(w, c.ItemID, c.Topic)
	kv(w, "Result", fmt.Sprintf("%s (quality %d)", verdict, q))
	kv(w, "State", c.State)
	kv(w, "Interval", fmt.Sprintf("%d days", c.IntervalDays))
	kv(w, "Ease", fmt.Sprintf("%.2f", c.EaseFactor))
	kv(w, "Next review", c.DueAt.Local().Format("2006-01-02 15:04"))
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

func init() {
	submitCmd.Flags().Int("quality", 0, "Recall quality, 0 (blackout) to 5 (perfect)")
	submitCmd.Flags().String("attempt", "", "Derive the quality from this attempt ID")
	submitCmd.Flags().Float64("time", 0, "Seconds spent on the review")
}
