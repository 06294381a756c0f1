package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sidenote-dev/sidenote/internal/config"
	"github.com/sidenote-dev/sidenote/internal/schema"
	"github.com/sidenote-dev/sidenote/internal/store"
	"github.com/sidenote-dev/sidenote/internal/ui"
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "workspace",
	Short:   "Create a .sidenote review directory here",
	Long: `Create a .sidenote directory in the current working directory with an
empty index, an empty comment log, and a starter configuration file.

Idempotent: existing store files are left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}

		dir := filepath.Join(cwd, config.DirName)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create review directory: %w", err)
		}

		indexStore := store.NewIndexStore(dir)
		if _, err := os.Stat(indexStore.Path()); os.IsNotExist(err) {
			if err := indexStore.Save(schema.NewIndexDocument()); err != nil {
				return err
			}
		}
		if err := store.NewLogStore(dir).EnsureExists(); err != nil {
			return err
		}
		if err := config.WriteStarter(dir); err != nil {
			return err
		}

		fmt.Printf("%s Initialized review workspace at %s\n", ui.RenderSuccess("✓"), dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
