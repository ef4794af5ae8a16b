package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/recall/internal/store"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the item catalog",
}

var catalogLoadCmd = &cobra.Command{
	Use:   "load <file.json>",
	Short: "Upsert catalog items from a JSON array",
	Args:  cobra.ExactArgs(1),
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var items []store.CatalogItem
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("decode catalog: %w", err)
		}
		if err := rt.engine.UpsertCatalog(cmd.Context(), items); err != nil {
			return err
		}
		return emit(cmd, map[string]int{"upserted": len(items)}, func(w io.Writer) {
			fmt.Fprintf(w, "Upserted %d items\n", len(items))
		})
	}),
}

var catalogTopicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List catalog topics",
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		doc, _ := cmd.Flags().GetString("document")
		topics, err := rt.store.CatalogRepo().Topics(cmd.Context(), doc)
		if err != nil {
			return err
		}
		return emit(cmd, topics, func(w io.Writer) {
			for _, t := range topics {
				fmt.Fprintln(w, t)
			}
			hint(w, fmt.Sprintf("%d topics", len(topics)))
		})
	}),
}

func init() {
	catalogTopicsCmd.Flags().String("document", "", "Only topics of this document")
	catalogCmd.AddCommand(catalogLoadCmd)
	catalogCmd.AddCommand(catalogTopicsCmd)
}
