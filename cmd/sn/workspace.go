package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidenote-dev/sidenote/internal/config"
	"github.com/sidenote-dev/sidenote/internal/engine"
	"github.com/sidenote-dev/sidenote/internal/resolve"
	"github.com/sidenote-dev/sidenote/internal/schema"
)

// workspace bundles the per-invocation review directory, configuration,
// and engine shared by commands.
type workspace struct {
	Dir    string
	Config *config.Config
	Engine *engine.Engine
}

// openWorkspace locates the enclosing review directory and constructs
// the engine over it. Returns config.ErrNoWorkspace when none is found.
func openWorkspace() (*workspace, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	dir, err := config.FindReviewDir(cwd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	eng := engine.New(dir, resolve.NewResolver(), engine.Config{
		Author: cfg.Author,
		Logger: log.New(os.Stderr, "[sn] ", log.LstdFlags),
	})

	return &workspace{Dir: dir, Config: cfg, Engine: eng}, nil
}

// cliThread is the CLI's live-thread handle: an anchor addressed by
// command-line flags. It mirrors visible state onto itself so commands
// can report the post-transition state.
type cliThread struct {
	location string
	rng      schema.Range

	resolved   bool
	contextTag string
}

func (t *cliThread) Location() string {
	return t.location
}

func (t *cliThread) Range() schema.Range {
	return t.rng
}

func (t *cliThread) SetResolved(resolved bool) {
	t.resolved = resolved
}

func (t *cliThread) SetContextTag(tag string) {
	t.contextTag = tag
}

// rangeFlags holds the anchor flags shared by commands that address a
// thread by position.
type rangeFlags struct {
	startLine int
	startChar int
	endLine   int
	endChar   int
}

// register adds the anchor flags to a command. Only --start-line is
// meaningful on its own; the end position defaults to the start.
func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.startLine, "start-line", 0, "Zero-based start line of the anchor range")
	cmd.Flags().IntVar(&f.startChar, "start-char", 0, "Zero-based start character of the anchor range")
	cmd.Flags().IntVar(&f.endLine, "end-line", -1, "Zero-based end line (defaults to start line)")
	cmd.Flags().IntVar(&f.endChar, "end-char", -1, "Zero-based end character (defaults to start character)")
}

// toRange resolves defaults into a concrete range.
func (f *rangeFlags) toRange() schema.Range {
	endLine := f.endLine
	if endLine < 0 {
		endLine = f.startLine
	}
	endChar := f.endChar
	if endChar < 0 {
		endChar = f.startChar
	}
	return schema.Range{
		Start: schema.Position{Line: f.startLine, Character: f.startChar},
		End:   schema.Position{Line: endLine, Character: endChar},
	}
}
