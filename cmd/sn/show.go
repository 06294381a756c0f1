package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sidenote-dev/sidenote/internal/schema"
	"github.com/sidenote-dev/sidenote/internal/ui"
)

var showFlags rangeFlags

var showCmd = &cobra.Command{
	Use:     "show <file>",
	GroupID: "query",
	Short:   "Show the thread at a file range with its comments",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		location := schema.LocationKey(args[0])
		rng := showFlags.toRange()

		restored, err := ws.Engine.RestoreAll()
		if err != nil {
			return err
		}

		for _, thread := range restored {
			if thread.Entry.Location != location || !thread.Entry.Range.Equal(rng) {
				continue
			}
			printThread(thread.Entry, thread.Comments)
			return nil
		}

		return fmt.Errorf("no thread at %s", ui.Anchor(location, rng))
	},
}

func printThread(entry schema.ThreadEntry, comments []schema.CommentLogRow) {
	fmt.Printf("%s  %s  %s\n",
		ui.RenderAccent(entry.ThreadID),
		ui.Anchor(entry.Location, entry.Range),
		ui.RenderState(entry.State))
	fmt.Println(ui.Rule(60))

	if len(comments) == 0 {
		fmt.Println(ui.RenderMuted("(no comments)"))
		return
	}
	for _, c := range comments {
		fmt.Printf("%s %s\n", ui.RenderAccent(c.Author),
			ui.RenderMuted(c.CreatedAt.Local().Format(time.RFC822)))
		fmt.Printf("%s\n\n", c.Body)
	}
}

func init() {
	showFlags.register(showCmd)
	rootCmd.AddCommand(showCmd)
}
