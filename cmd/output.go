package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/recall/internal/mastery"
	"github.com/abhisek/recall/internal/ui/theme"
)

// jsonOutput reports whether --json was given.
func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

// emit prints v as indented JSON when --json is set, otherwise calls
// human.
func emit(cmd *cobra.Command, v any, human func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	human(w)
	return nil
}

func heading(w io.Writer, title, sub string) {
	line := theme.Title.Render(title)
	if sub != "" {
		line += "  " + theme.Subtitle.Render(sub)
	}
	fmt.Fprintln(w, line)
}

func kv(w io.Writer, label string, value any) {
	fmt.Fprintln(w, theme.Label.Render(label)+theme.Body.Render(fmt.Sprint(value)))
}

func hint(w io.Writer, msg string) {
	fmt.Fprintln(w, theme.Hint.Render(msg))
}

func pct(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func levelBadge(m float64) string {
	l := mastery.LevelOf(m)
	return theme.ForLevel(l).Render(string(l))
}

func list(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
