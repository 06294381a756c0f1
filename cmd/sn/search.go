package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidenote-dev/sidenote/internal/ui"
)

var searchCmd = &cobra.Command{
	Use:     "search <term>",
	GroupID: "query",
	Short:   "Search comment bodies",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		db, err := openRebuiltCache(ctx, ws)
		if err != nil {
			return err
		}
		defer db.Close()

		hits, err := db.SearchComments(ctx, args[0])
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println(ui.RenderMuted("No matches."))
			return nil
		}

		for _, hit := range hits {
			fmt.Printf("%s  %s  %s: %s\n",
				ui.RenderAccent(hit.ThreadID),
				ui.Anchor(hit.Location, hit.Range),
				hit.Author, hit.Body)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
