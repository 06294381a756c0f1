// Package config loads sidenote configuration and locates the review
// directory for the current workspace.
package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/spf13/viper"
)

// DirName is the review data directory created at the workspace root.
const DirName = ".sidenote"

// ConfigFilename is the per-workspace configuration file inside DirName.
const ConfigFilename = "config.yml"

// ErrNoWorkspace is returned when no enclosing directory contains a
// review data directory. Commands surface this to the user directly and
// attempt no store mutation.
var ErrNoWorkspace = errors.New("no sidenote workspace found (run 'sn init' first)")

// Config holds resolved settings for one workspace.
type Config struct {
	// Author is the display name recorded on authored comments.
	Author string `mapstructure:"author"`

	// Editor is reserved for launching an external editor on long
	// comment bodies.
	Editor string `mapstructure:"editor"`
}

// FindReviewDir walks up from start looking for a .sidenote directory
// and returns its absolute path, or ErrNoWorkspace.
func FindReviewDir(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, DirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoWorkspace
		}
		dir = parent
	}
}

// Load reads the workspace configuration from reviewDir, applying
// environment overrides (SIDENOTE_AUTHOR, SIDENOTE_EDITOR) and falling
// back to the OS username for the author. A missing config file is not
// an error.
func Load(reviewDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(reviewDir, ConfigFilename))
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SIDENOTE")
	v.AutomaticEnv()

	v.SetDefault("author", "")
	v.SetDefault("editor", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Get* (rather than Unmarshal) so AutomaticEnv overrides apply.
	cfg := Config{
		Author: v.GetString("author"),
		Editor: v.GetString("editor"),
	}

	if cfg.Author == "" {
		cfg.Author = fallbackAuthor()
	}

	return &cfg, nil
}

// WriteStarter writes a commented starter config file if none exists.
func WriteStarter(reviewDir string) error {
	path := filepath.Join(reviewDir, ConfigFilename)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	starter := "# sidenote workspace configuration\n" +
		"#\n" +
		"# author: Ada Lovelace\n" +
		"# editor: vim\n"
	if err := os.WriteFile(path, []byte(starter), 0600); err != nil {
		return fmt.Errorf("failed to write starter config: %w", err)
	}
	return nil
}

// fallbackAuthor resolves a display name when none is configured.
func fallbackAuthor() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}
