package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidenote-dev/sidenote/internal/schema"
	"github.com/sidenote-dev/sidenote/internal/ui"
)

var resolveFlags rangeFlags
var reopenFlags rangeFlags

var resolveCmd = &cobra.Command{
	Use:     "resolve <file>",
	GroupID: "review",
	Short:   "Mark the thread at a file range as resolved",
	Long: `Mark the review thread anchored at the given file range as resolved.

A state change on a range with no existing thread creates one with zero
comments; state lives only in the index and writes no log row.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetState(args[0], resolveFlags.toRange(), schema.StateClosed)
	},
}

var reopenCmd = &cobra.Command{
	Use:     "reopen <file>",
	GroupID: "review",
	Short:   "Mark the thread at a file range as unresolved",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetState(args[0], reopenFlags.toRange(), schema.StateOpen)
	},
}

func runSetState(location string, rng schema.Range, state schema.ThreadState) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	thread := &cliThread{location: location, rng: rng}
	if err := ws.Engine.SetState(thread, state); err != nil {
		return err
	}

	fmt.Printf("%s Thread at %s is now %s\n",
		ui.RenderSuccess("✓"), ui.Anchor(location, rng), ui.RenderState(state))
	return nil
}

func init() {
	resolveFlags.register(resolveCmd)
	reopenFlags.register(reopenCmd)
	rootCmd.AddCommand(resolveCmd, reopenCmd)
}
