// Package cache provides a derived SQLite query cache over the review
// stores.
//
// The cache backs list and search queries only. It is never consulted on
// the write path and is never authoritative: a missing or stale cache
// database is fully rebuilt from index.json and review.jsonl, so losing
// it loses nothing.
//
// The database runs embedded (ncruces/go-sqlite3) with WAL mode for
// concurrent readers during a rebuild.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/sidenote-dev/sidenote/internal/schema"
)

// Filename is the cache database's filename inside a review directory.
const Filename = "cache.db"

// DB wraps the embedded SQLite connection holding the query cache.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens the cache database at the given path.
//
// The caller MUST call Close() when done.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, path: path}

	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Close closes the database, checkpointing the WAL first.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close cache database: %w", err)
	}
	db.conn = nil
	return nil
}

// InitSchema creates the cache tables and indexes. Idempotent.
func (db *DB) InitSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS threads (
		id            TEXT PRIMARY KEY,
		location      TEXT NOT NULL,
		start_line    INTEGER NOT NULL,
		start_char    INTEGER NOT NULL,
		end_line      INTEGER NOT NULL,
		end_char      INTEGER NOT NULL,
		state         TEXT NOT NULL,
		comment_count INTEGER NOT NULL,
		first_seq     INTEGER NOT NULL,
		last_seq      INTEGER NOT NULL,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS comments (
		id         TEXT PRIMARY KEY,
		thread_id  TEXT NOT NULL,
		seq        INTEGER NOT NULL,
		author     TEXT NOT NULL,
		body       TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_threads_location ON threads(location);
	CREATE INDEX IF NOT EXISTS idx_threads_state ON threads(state);
	CREATE INDEX IF NOT EXISTS idx_comments_thread ON comments(thread_id, seq);
	`
	if _, err := db.conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create cache schema: %w", err)
	}
	return nil
}

// Rebuild replaces the cache contents with the given index document and
// log rows inside a single transaction. Rows whose thread is absent
// from the index are still cached so their content stays searchable.
func (db *DB) Rebuild(ctx context.Context, doc *schema.IndexDocument, rows []schema.CommentLogRow) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rebuild transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM threads"); err != nil {
		return fmt.Errorf("failed to clear threads: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM comments"); err != nil {
		return fmt.Errorf("failed to clear comments: %w", err)
	}

	threadStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO threads (id, location, start_line, start_char, end_line, end_char,
			state, comment_count, first_seq, last_seq, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare thread insert: %w", err)
	}
	defer threadStmt.Close()

	for _, entry := range doc.Threads {
		_, err := threadStmt.ExecContext(ctx,
			entry.ThreadID, entry.Location,
			entry.Range.Start.Line, entry.Range.Start.Character,
			entry.Range.End.Line, entry.Range.End.Character,
			string(entry.State), entry.CommentCount, entry.FirstSeq, entry.LastSeq,
			entry.CreatedAt.Format(time.RFC3339Nano),
			entry.UpdatedAt.Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("failed to insert thread %s: %w", entry.ThreadID, err)
		}
	}

	commentStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO comments (id, thread_id, seq, author, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare comment insert: %w", err)
	}
	defer commentStmt.Close()

	for _, row := range rows {
		_, err := commentStmt.ExecContext(ctx,
			row.CommentID, row.ThreadID, row.Seq, row.Author, row.Body,
			row.CreatedAt.Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("failed to insert comment %s: %w", row.CommentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rebuild: %w", err)
	}
	return nil
}

// ThreadRow is one thread as returned by list queries.
type ThreadRow struct {
	ThreadID     string
	Location     string
	Range        schema.Range
	State        schema.ThreadState
	CommentCount int
	LastSeq      int64
	UpdatedAt    time.Time
}

// ListFilter narrows ListThreads output. Zero values match everything.
type ListFilter struct {
	State    schema.ThreadState
	Location string
}

// ListThreads returns cached threads matching the filter, ordered by
// location, then range start, then id.
func (db *DB) ListThreads(ctx context.Context, filter ListFilter) ([]ThreadRow, error) {
	query := `
		SELECT id, location, start_line, start_char, end_line, end_char,
			state, comment_count, last_seq, updated_at
		FROM threads WHERE 1=1`
	var args []any

	if filter.State != "" {
		query += " AND state = ?"
		args = append(args, string(filter.State))
	}
	if filter.Location != "" {
		query += " AND location = ?"
		args = append(args, schema.LocationKey(filter.Location))
	}
	query += " ORDER BY location, start_line, start_char, id"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query threads: %w", err)
	}
	defer rows.Close()

	var out []ThreadRow
	for rows.Next() {
		var tr ThreadRow
		var state, updatedAt string
		err := rows.Scan(&tr.ThreadID, &tr.Location,
			&tr.Range.Start.Line, &tr.Range.Start.Character,
			&tr.Range.End.Line, &tr.Range.End.Character,
			&state, &tr.CommentCount, &tr.LastSeq, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread row: %w", err)
		}
		tr.State = schema.ThreadState(state)
		if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			tr.UpdatedAt = ts
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate thread rows: %w", err)
	}
	return out, nil
}

// SearchHit is one comment matched by SearchComments, joined to its
// thread's anchor when the thread is known.
type SearchHit struct {
	ThreadID  string
	Location  string
	Range     schema.Range
	Seq       int64
	Author    string
	Body      string
	CreatedAt time.Time
}

// SearchComments returns comments whose body contains the term
// (case-insensitive), ordered by sequence number.
func (db *DB) SearchComments(ctx context.Context, term string) ([]SearchHit, error) {
	query := `
		SELECT c.thread_id, COALESCE(t.location, ''),
			COALESCE(t.start_line, 0), COALESCE(t.start_char, 0),
			COALESCE(t.end_line, 0), COALESCE(t.end_char, 0),
			c.seq, c.author, c.body, c.created_at
		FROM comments c
		LEFT JOIN threads t ON t.id = c.thread_id
		WHERE c.body LIKE ? ESCAPE '\'
		ORDER BY c.seq`

	rows, err := db.conn.QueryContext(ctx, query, "%"+escapeLike(term)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search comments: %w", err)
	}
	defer rows.Close()

	var out []SearchHit
	for rows.Next() {
		var hit SearchHit
		var createdAt string
		err := rows.Scan(&hit.ThreadID, &hit.Location,
			&hit.Range.Start.Line, &hit.Range.Start.Character,
			&hit.Range.End.Line, &hit.Range.End.Character,
			&hit.Seq, &hit.Author, &hit.Body, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			hit.CreatedAt = ts
		}
		out = append(out, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search hits: %w", err)
	}
	return out, nil
}

// escapeLike escapes LIKE wildcards in user-supplied search terms.
func escapeLike(term string) string {
	out := make([]byte, 0, len(term))
	for i := 0; i < len(term); i++ {
		switch term[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, term[i])
	}
	return string(out)
}
