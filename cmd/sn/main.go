// Command sn manages durable review comment threads anchored to file
// ranges in a working tree.
//
// Threads live in a .sidenote/ directory at the workspace root: an
// append-only comment log (review.jsonl) that is the source of truth
// for comment content, a mutable index (index.json) holding thread
// identity, anchors, state, and rollup statistics, and a derived SQLite
// cache (cache.db) backing list/search queries.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sn",
	Short: "Durable review comments anchored to file ranges",
	Long: `sidenote persists threaded review comments anchored to locations in
text files.

Comments are recorded in an append-only log (review.jsonl) and indexed
in a mutable document (index.json) under .sidenote/ at the workspace
root. The log is the source of truth for comment content; the index is
a rebuildable cache of thread identity, anchors, state, and statistics.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "review", Title: "Review Commands:"},
		&cobra.Group{ID: "query", Title: "Query Commands:"},
		&cobra.Group{ID: "workspace", Title: "Workspace Commands:"},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
