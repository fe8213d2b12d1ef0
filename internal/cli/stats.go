package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/futureCreator/patchgate/internal/run"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show verdict statistics for recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.OutOrStdout())
		},
	}
}

func runStats(w io.Writer) error {
	metas, err := run.List(stateDir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(w, "No runs found.")
			return nil
		}
		return fmt.Errorf("reading runs dir: %w", err)
	}
	if len(metas) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}

	byStatus := map[string]int{}
	byReason := map[string]int{}
	for _, m := range metas {
		byStatus[m.Status]++
		if m.Reason != "" {
			byReason[string(m.Reason)]++
		}
	}

	fmt.Fprintf(w, "Runs: %d\n\n", len(metas))
	fmt.Fprintln(w, "Status")
	printCounts(w, byStatus, len(metas))
	if len(byReason) > 0 {
		fmt.Fprintln(w, "\nRejection reasons")
		printCounts(w, byReason, len(metas))
	}

	// Sort by started_at descending
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].StartedAt.After(metas[j].StartedAt)
	})
	latest := metas[0]
	fmt.Fprintf(w, "\nLatest: %s  %s  %s %s\n",
		latest.StartedAt.Format("2006-01-02 15:04"), latest.Command, latest.Status, latest.Reason)
	return nil
}

// printCounts prints keys by descending count, ties broken by name.
func printCounts(w io.Writer, counts map[string]int, total int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		fmt.Fprintf(w, "  %-26s %4d  %5.1f%%\n", k, counts[k], float64(counts[k])/float64(total)*100)
	}
}
