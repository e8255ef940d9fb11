// History commands query the session catalog.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded capture batches and exports",
}

func init() {
	historyCmd.AddCommand(historyBatchesCmd)
	historyCmd.AddCommand(historyExportsCmd)
}

var historyBatchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List recorded capture batches",
	Long: `Batches lists capture runs recorded in the session catalog, newest
first.

Example:
  sheaf history batches
  sheaf history batches --json`,
	RunE: runHistoryBatches,
}

var historyExportsCmd = &cobra.Command{
	Use:   "exports",
	Short: "List recorded exports",
	RunE:  runHistoryExports,
}

func runHistoryBatches(cmd *cobra.Command, args []string) error {
	batches, err := sess.BatchHistory()
	if err != nil {
		return fmt.Errorf("fetch batches: %w", err)
	}

	if jsonOutput {
		out, err := json.MarshalIndent(batches, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal batches: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	if len(batches) == 0 {
		fmt.Println("No batches recorded.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDEVICE\tSTARTED\tOUTCOME\tPAGES")
	fmt.Fprintln(w, "--\t------\t-------\t-------\t-----")
	for _, b := range batches {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			shortID(b.BatchID),
			b.DeviceID,
			b.StartedAt.Format("2006-01-02 15:04:05"),
			b.Outcome,
			b.Pages,
		)
	}
	w.Flush()
	fmt.Printf("Total: %d batch(es)\n", len(batches))
	return nil
}

func runHistoryExports(cmd *cobra.Command, args []string) error {
	exports, err := sess.ExportHistory()
	if err != nil {
		return fmt.Errorf("fetch exports: %w", err)
	}

	if jsonOutput {
		out, err := json.MarshalIndent(exports, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal exports: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	if len(exports) == 0 {
		fmt.Println("No exports recorded.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tFORMAT\tPAGES\tPATH")
	fmt.Fprintln(w, "--\t-----\t------\t-----\t----")
	for _, e := range exports {
		title := e.Title
		if len(title) > 30 {
			title = title[:27] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			shortID(e.ExportID), title, e.Format, e.Pages, e.Path)
	}
	w.Flush()
	fmt.Printf("Total: %d export(s)\n", len(exports))
	return nil
}

// shortID truncates a UUID to its first 8 characters for readability.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
