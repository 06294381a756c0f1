package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sidenote-dev/sidenote/internal/schema"
)

// LogFilename is the comment log's filename inside a review directory.
const LogFilename = "review.jsonl"

// LogStore appends to and reads the append-only comment log.
//
// The log is newline-delimited JSON, one CommentLogRow per line, UTF-8.
// Existing lines are never rewritten or reordered.
type LogStore struct {
	path string
}

// NewLogStore returns a store for the log file inside dir.
func NewLogStore(dir string) *LogStore {
	return &LogStore{path: filepath.Join(dir, LogFilename)}
}

// Path returns the absolute path of the log file.
func (s *LogStore) Path() string {
	return s.path
}

// EnsureExists idempotently guarantees the log file exists without
// altering its contents when already present.
func (s *LogStore) EnsureExists() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create review directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	return f.Close()
}

// Append serializes one row as a single line and appends it to the log,
// creating the file and directories if absent.
func (s *LogStore) Append(row schema.CommentLogRow) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create review directory: %w", err)
	}

	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal log row: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append log row: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}

	return nil
}

// ReadAll reads the entire log and returns its rows in file order.
//
// Each line is parsed independently. A line that does not parse as an
// object carrying a string threadId is silently skipped: the log is
// expected to tolerate trailing corruption from abrupt termination
// (e.g. a final line truncated mid-write). File order is not trusted
// for per-thread ordering; callers sort by Seq.
//
// A missing file yields an empty result, not an error.
func (s *LogStore) ReadAll() ([]schema.CommentLogRow, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	var rows []schema.CommentLogRow
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var row schema.CommentLogRow
		if err := json.Unmarshal(line, &row); err != nil {
			// Truncated or malformed line: skip, keep reading.
			continue
		}
		if row.ThreadID == "" {
			continue
		}

		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan log file: %w", err)
	}

	return rows, nil
}
