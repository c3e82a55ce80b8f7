// Package journal keeps an append-only SQLite log of every SPARQL exchange.
//
// The journal is an audit trail. Results are never read back to answer a
// query; only metadata (hash, timing, row count, error code) and the query
// text are stored.
package journal

import (
	"context"
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial queries table
const currentSchemaVersion = 1

// DomainQuery separates query hashes from any other hash in the system.
const DomainQuery = "memq/query/v1"

// DefaultRecent is the number of entries Recent returns for n <= 0.
const DefaultRecent = 20

// Entry is one journaled exchange.
type Entry struct {
	ID        string        `json:"id"`
	QueryHash string        `json:"query_hash"`
	Query     string        `json:"query"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Rows      int           `json:"rows"`
	ErrorCode string        `json:"error_code,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Journal is the SQLite-backed log.
type Journal struct {
	db *sql.DB
}

// Open creates or opens a journal at path. ":memory:" gives a private
// in-memory journal.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	// SQLite only supports one writer at a time; a single connection also
	// keeps ":memory:" databases from splitting per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}

// QueryHash returns the domain-separated SHA-256 of a query text.
// Format: SHA256(domain + 0x00 + query)
func QueryHash(query string) string {
	h := sha256.New()
	h.Write([]byte(DomainQuery))
	h.Write([]byte{0x00})
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}

// Write appends an entry. A missing QueryHash is computed from Query.
// Writing the same ID twice is a no-op.
func (j *Journal) Write(ctx context.Context, e Entry) error {
	if e.QueryHash == "" {
		e.QueryHash = QueryHash(e.Query)
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO queries
		(id, query_hash, query, started_at, duration_ms, row_count, error_code, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.QueryHash,
		e.Query,
		e.StartedAt.UnixNano(),
		e.Duration.Milliseconds(),
		e.Rows,
		e.ErrorCode,
		e.Error,
	)
	if err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
//
// Returns an empty slice (not nil) for an empty journal.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = DefaultRecent
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, query_hash, query, started_at, duration_ms, row_count, error_code, error
		FROM queries
		ORDER BY seq DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e          Entry
			startedAt  int64
			durationMS int64
		)
		if err := rows.Scan(&e.ID, &e.QueryHash, &e.Query, &startedAt, &durationMS, &e.Rows, &e.ErrorCode, &e.Error); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.StartedAt = time.Unix(0, startedAt).UTC()
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Count returns the number of entries with the given query hash, or all
// entries when hash is empty.
func (j *Journal) Count(ctx context.Context, hash string) (int, error) {
	var (
		n   int
		err error
	)
	if hash == "" {
		err = j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM queries").Scan(&n)
	} else {
		err = j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM queries WHERE query_hash = ?", hash).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}
