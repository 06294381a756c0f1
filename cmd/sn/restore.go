package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidenote-dev/sidenote/internal/schema"
	"github.com/sidenote-dev/sidenote/internal/ui"
)

var restoreCmd = &cobra.Command{
	Use:     "restore",
	GroupID: "query",
	Short:   "Replay the stores and summarize every thread",
	Long: `Load the index and the full comment log, replay the log into ordered
per-thread comment lists, and print a summary.

This is the same startup path an embedding UI runs once at boot; the
command exists to inspect what that path would produce.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		restored, err := ws.Engine.RestoreAll()
		if err != nil {
			return err
		}

		var open, closed, comments int
		for _, thread := range restored {
			if thread.Entry.State == schema.StateClosed {
				closed++
			} else {
				open++
			}
			comments += len(thread.Comments)
			fmt.Printf("%s  %s  %s  %d comment(s)\n",
				ui.RenderAccent(thread.ThreadID),
				ui.Anchor(thread.Entry.Location, thread.Entry.Range),
				ui.RenderState(thread.Entry.State),
				len(thread.Comments))
		}

		fmt.Println(ui.Rule(60))
		fmt.Printf("Restored %d thread(s) (%d open, %d closed), %d comment(s)\n",
			len(restored), open, closed, comments)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
