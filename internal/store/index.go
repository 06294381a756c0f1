// Package store provides the two on-disk stores backing a review
// directory: the mutable index document (index.json) and the append-only
// comment log (review.jsonl).
//
// Both stores assume a single writing process per review directory.
// Serialization of concurrent in-process writers is the engine's job,
// not the store's.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sidenote-dev/sidenote/internal/schema"
)

// IndexFilename is the index document's filename inside a review directory.
const IndexFilename = "index.json"

// IndexStore reads and writes the index document.
type IndexStore struct {
	path string
}

// NewIndexStore returns a store for the index file inside dir.
func NewIndexStore(dir string) *IndexStore {
	return &IndexStore{path: filepath.Join(dir, IndexFilename)}
}

// Path returns the absolute path of the index file.
func (s *IndexStore) Path() string {
	return s.path
}

// Load reads the persisted index document.
//
// A missing file, unparsable JSON, a non-object payload, or an
// unrecognized version tag all degrade to a fresh default document
// rather than an error. A corrupted index means "no threads known",
// never a blocked startup; the log remains authoritative for content.
func (s *IndexStore) Load() *schema.IndexDocument {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return schema.NewIndexDocument()
	}

	var doc schema.IndexDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return schema.NewIndexDocument()
	}
	if doc.Version != schema.IndexVersion {
		return schema.NewIndexDocument()
	}

	// Maps may be nil when the stored object omits them.
	if doc.Threads == nil {
		doc.Threads = make(map[string]*schema.ThreadEntry)
	}
	if doc.ByURI == nil {
		doc.ByURI = make(map[string][]string)
	}

	return &doc
}

// Save serializes the full document and replaces the previous file,
// creating parent directories as needed.
//
// The document is pretty-printed with a trailing newline so the index
// diffs cleanly under version control. The write goes through a temp
// file and rename so readers never observe a torn document.
func (s *IndexStore) Save(doc *schema.IndexDocument) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create review directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	data = append(data, '\n')

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp index: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace index: %w", err)
	}

	return nil
}
