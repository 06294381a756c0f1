package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFindReviewDir(t *testing.T) {
	root := t.TempDir()
	reviewDir := filepath.Join(root, DirName)
	nested := filepath.Join(root, "src", "deep", "pkg")

	if err := os.MkdirAll(reviewDir, 0755); err != nil {
		t.Fatalf("Failed to create review dir: %v", err)
	}
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("Failed to create nested dir: %v", err)
	}

	tests := []struct {
		name  string
		start string
	}{
		{"from workspace root", root},
		{"from nested directory", nested},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindReviewDir(tt.start)
			if err != nil {
				t.Fatalf("FindReviewDir(%q) failed: %v", tt.start, err)
			}
			if got != reviewDir {
				t.Errorf("FindReviewDir(%q) = %q, want %q", tt.start, got, reviewDir)
			}
		})
	}
}

func TestFindReviewDir_NoWorkspace(t *testing.T) {
	_, err := FindReviewDir(t.TempDir())
	if !errors.Is(err, ErrNoWorkspace) {
		t.Errorf("FindReviewDir() error = %v, want ErrNoWorkspace", err)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Author == "" {
		t.Error("Author is empty, want OS username fallback")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := "author: Ada Lovelace\neditor: vim\n"
	if err := os.WriteFile(filepath.Join(dir, ConfigFilename), []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Author != "Ada Lovelace" {
		t.Errorf("Author = %q, want Ada Lovelace", cfg.Author)
	}
	if cfg.Editor != "vim" {
		t.Errorf("Editor = %q, want vim", cfg.Editor)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SIDENOTE_AUTHOR", "env-author")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Author != "env-author" {
		t.Errorf("Author = %q, want env-author", cfg.Author)
	}
}

func TestWriteStarter_DoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFilename)

	if err := WriteStarter(dir); err != nil {
		t.Fatalf("WriteStarter() failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("author: existing\n"), 0600); err != nil {
		t.Fatalf("Failed to overwrite config: %v", err)
	}
	if err := WriteStarter(dir); err != nil {
		t.Fatalf("Second WriteStarter() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}
	if string(data) != "author: existing\n" {
		t.Errorf("WriteStarter() overwrote existing config: %q", data)
	}
}
