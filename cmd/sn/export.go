package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sidenote-dev/sidenote/internal/schema"
)

var exportFlags struct {
	format string
}

// exportDocument is the serialized shape written by sn export.
type exportDocument struct {
	ExportedAt time.Time      `json:"exportedAt" yaml:"exportedAt"`
	Threads    []exportThread `json:"threads" yaml:"threads"`
}

type exportThread struct {
	ThreadID string             `json:"threadId" yaml:"threadId"`
	Location string             `json:"location" yaml:"location"`
	Range    string             `json:"range" yaml:"range"`
	State    schema.ThreadState `json:"state" yaml:"state"`
	Comments []exportComment    `json:"comments" yaml:"comments"`
}

type exportComment struct {
	Seq       int64     `json:"seq" yaml:"seq"`
	Author    string    `json:"author" yaml:"author"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Body      string    `json:"body" yaml:"body"`
}

var exportCmd = &cobra.Command{
	Use:     "export",
	GroupID: "query",
	Short:   "Export all threads and comments to stdout",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		restored, err := ws.Engine.RestoreAll()
		if err != nil {
			return err
		}

		doc := exportDocument{
			ExportedAt: time.Now().UTC(),
			Threads:    make([]exportThread, 0, len(restored)),
		}
		for _, thread := range restored {
			out := exportThread{
				ThreadID: thread.ThreadID,
				Location: thread.Entry.Location,
				Range:    thread.Entry.Range.String(),
				State:    thread.Entry.State,
				Comments: make([]exportComment, 0, len(thread.Comments)),
			}
			for _, c := range thread.Comments {
				out.Comments = append(out.Comments, exportComment{
					Seq:       c.Seq,
					Author:    c.Author,
					CreatedAt: c.CreatedAt,
					Body:      c.Body,
				})
			}
			doc.Threads = append(doc.Threads, out)
		}

		switch exportFlags.format {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		case "yaml":
			enc := yaml.NewEncoder(os.Stdout)
			defer enc.Close()
			return enc.Encode(doc)
		default:
			return fmt.Errorf("unrecognized format %q (want json or yaml)", exportFlags.format)
		}
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFlags.format, "format", "json", "Output format (json|yaml)")
	rootCmd.AddCommand(exportCmd)
}
