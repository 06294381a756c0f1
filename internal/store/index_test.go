package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sidenote-dev/sidenote/internal/schema"
)

func TestIndexLoad_SelfHealing(t *testing.T) {
	tests := []struct {
		name    string
		content *string // nil means no file at all
	}{
		{"missing file", nil},
		{"unparsable JSON", strPtr("{not json")},
		{"non-object payload", strPtr(`[1, 2, 3]`)},
		{"string payload", strPtr(`"hello"`)},
		{"unrecognized version", strPtr(`{"version": 99, "lastSeq": 5, "threads": {}, "byUri": {}}`)},
		{"empty file", strPtr("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			s := NewIndexStore(dir)

			if tt.content != nil {
				if err := os.WriteFile(s.Path(), []byte(*tt.content), 0600); err != nil {
					t.Fatalf("Failed to seed index file: %v", err)
				}
			}

			doc := s.Load()
			if doc == nil {
				t.Fatal("Load() returned nil")
			}
			if doc.Version != schema.IndexVersion {
				t.Errorf("Version = %d, want %d", doc.Version, schema.IndexVersion)
			}
			if doc.LastSeq != 0 {
				t.Errorf("LastSeq = %d, want 0", doc.LastSeq)
			}
			if len(doc.Threads) != 0 {
				t.Errorf("Threads = %v, want empty", doc.Threads)
			}
			if len(doc.ByURI) != 0 {
				t.Errorf("ByURI = %v, want empty", doc.ByURI)
			}
		})
	}
}

func TestIndexLoad_NilMapsBecomeEmpty(t *testing.T) {
	dir := t.TempDir()
	s := NewIndexStore(dir)

	content := `{"version": 1, "lastSeq": 3}`
	if err := os.WriteFile(s.Path(), []byte(content), 0600); err != nil {
		t.Fatalf("Failed to seed index file: %v", err)
	}

	doc := s.Load()
	if doc.Threads == nil {
		t.Error("Threads map is nil, want empty map")
	}
	if doc.ByURI == nil {
		t.Error("ByURI map is nil, want empty map")
	}
	if doc.LastSeq != 3 {
		t.Errorf("LastSeq = %d, want 3", doc.LastSeq)
	}
}

func TestIndexSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewIndexStore(dir)

	now := time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC)
	doc := schema.NewIndexDocument()
	doc.LastSeq = 7
	doc.AddThread(&schema.ThreadEntry{
		ThreadID:     "th-abc",
		Location:     "src/main.go",
		Range:        schema.Range{Start: schema.Position{Line: 1, Character: 2}, End: schema.Position{Line: 3, Character: 4}},
		State:        schema.StateClosed,
		CreatedAt:    now,
		UpdatedAt:    now,
		CommentCount: 2,
		FirstSeq:     6,
		LastSeq:      7,
	})

	if err := s.Save(doc); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got := s.Load()
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Errorf("Load() mismatch after Save() (-want +got):\n%s", diff)
	}
}

func TestIndexSave_PrettyPrintedWithTrailingNewline(t *testing.T) {
	dir := t.TempDir()
	s := NewIndexStore(dir)

	if err := s.Save(schema.NewIndexDocument()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("Failed to read index file: %v", err)
	}
	if !bytes.HasSuffix(data, []byte("\n")) {
		t.Error("Index file does not end with a newline")
	}
	if !bytes.Contains(data, []byte("\n  ")) {
		t.Error("Index file is not indented")
	}
}

func TestIndexSave_CreatesParentDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".sidenote")
	s := NewIndexStore(dir)

	if err := s.Save(schema.NewIndexDocument()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if _, err := os.Stat(s.Path()); err != nil {
		t.Errorf("Index file not created: %v", err)
	}
}

func strPtr(s string) *string { return &s }
