package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sidenote-dev/sidenote/internal/ui"
)

var commentFlags struct {
	rangeFlags
	message string
}

var commentCmd = &cobra.Command{
	Use:     "comment <file>",
	GroupID: "review",
	Short:   "Add a comment to a thread at a file range",
	Long: `Add a comment to the review thread anchored at the given file range.

If no thread exists at exactly that range, a new one is started. Thread
identity is the exact (file, range) pair: a range shifted by even one
character is a different thread.

Without --message, an interactive prompt opens when running in a
terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		body := commentFlags.message
		if body == "" {
			body, err = promptForComment()
			if err != nil {
				return err
			}
		}
		if strings.TrimSpace(body) == "" {
			return fmt.Errorf("comment body is empty")
		}

		thread := &cliThread{location: args[0], rng: commentFlags.toRange()}
		result, err := ws.Engine.UpsertComment(thread, body)
		if err != nil {
			return err
		}

		anchor := ui.Anchor(thread.location, thread.rng)
		if result.NewThread {
			fmt.Printf("%s Started thread %s at %s\n",
				ui.RenderSuccess("✓"), ui.RenderAccent(result.ThreadID), anchor)
		} else {
			fmt.Printf("%s Added comment #%d to %s at %s\n",
				ui.RenderSuccess("✓"), result.Row.Seq, ui.RenderAccent(result.ThreadID), anchor)
		}
		return nil
	},
}

// promptForComment collects a comment body interactively. Refuses to
// prompt when stdin is not a terminal so scripted callers fail fast
// instead of hanging.
func promptForComment() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no --message given and stdin is not a terminal")
	}

	var body string
	form := huh.NewForm(huh.NewGroup(
		huh.NewText().
			Title("Comment").
			Description("Markdown is preserved as written.").
			Value(&body),
	))
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("comment entry cancelled: %w", err)
	}
	return body, nil
}

func init() {
	commentFlags.register(commentCmd)
	commentCmd.Flags().StringVarP(&commentFlags.message, "message", "m", "", "Comment body (prompts interactively when omitted)")
	rootCmd.AddCommand(commentCmd)
}
