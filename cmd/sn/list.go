package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sidenote-dev/sidenote/internal/cache"
	"github.com/sidenote-dev/sidenote/internal/schema"
	"github.com/sidenote-dev/sidenote/internal/ui"
)

var listFlags struct {
	state string
	file  string
}

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "query",
	Short:   "List review threads",
	Long: `List review threads from the query cache.

The cache is rebuilt from the stores before listing, so the output
always reflects the current index and log.`,
	Args: cobra.NoArgs,
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

		filter := cache.ListFilter{Location: listFlags.file}
		if listFlags.state != "" {
			state := schema.ThreadState(listFlags.state)
			if !state.Valid() {
				return fmt.Errorf("unrecognized state %q (want open or closed)", listFlags.state)
			}
			filter.State = state
		}

		threads, err := db.ListThreads(ctx, filter)
		if err != nil {
			return err
		}
		if len(threads) == 0 {
			fmt.Println(ui.RenderMuted("No threads found."))
			return nil
		}

		for _, t := range threads {
			fmt.Printf("%s  %s  %s  %d comment(s)\n",
				ui.RenderAccent(t.ThreadID),
				ui.Anchor(t.Location, t.Range),
				ui.RenderState(t.State),
				t.CommentCount)
		}
		return nil
	},
}

// openRebuiltCache opens the workspace cache database and resyncs it
// from the stores.
func openRebuiltCache(ctx context.Context, ws *workspace) (*cache.DB, error) {
	db, err := cache.Open(filepath.Join(ws.Dir, cache.Filename))
	if err != nil {
		return nil, err
	}
	if err := db.InitSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	doc := ws.Engine.IndexStore().Load()
	rows, err := ws.Engine.LogStore().ReadAll()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.Rebuild(ctx, doc, rows); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func init() {
	listCmd.Flags().StringVar(&listFlags.state, "state", "", "Filter by state (open|closed)")
	listCmd.Flags().StringVar(&listFlags.file, "file", "", "Filter by file location")
	rootCmd.AddCommand(listCmd)
}
