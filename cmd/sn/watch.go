package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sidenote-dev/sidenote/internal/cache"
	"github.com/sidenote-dev/sidenote/internal/daemon"
)

var watchFlags struct {
	debounce time.Duration
}

var watchCmd = &cobra.Command{
	Use:     "watch",
	GroupID: "workspace",
	Short:   "Keep the query cache fresh while the stores change",
	Long: `Run a foreground daemon that watches the review directory and rebuilds
the query cache whenever index.json or review.jsonl changes, e.g. when
a second terminal adds comments.

The daemon only reads the stores and writes the cache; it never writes
the stores themselves. Logs rotate in .sidenote/daemon.log.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		db, err := cache.Open(filepath.Join(ws.Dir, cache.Filename))
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := db.InitSchema(ctx); err != nil {
			return err
		}

		logger := log.New(&lumberjack.Logger{
			Filename:   filepath.Join(ws.Dir, "daemon.log"),
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}, "[daemon] ", log.LstdFlags)

		d, err := daemon.New(ws.Dir, db, &daemon.Config{
			DebounceInterval: watchFlags.debounce,
			Logger:           logger,
		})
		if err != nil {
			return err
		}

		if err := d.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchFlags.debounce, "debounce", 200*time.Millisecond, "Quiet period before a cache rebuild")
	rootCmd.AddCommand(watchCmd)
}
