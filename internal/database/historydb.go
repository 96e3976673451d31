package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/siteparser/internal/model"
)

// dbFileName is the SQLite file created inside the history directory.
const dbFileName = "siteparser.db"

// appName is used for the default XDG data directory.
const appName = "siteparser"

// HistoryDB stores finished crawl results.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file when
	// missing.
	CreateIfNotExists bool

	// EnableWAL enables write-ahead logging. Recommended; it lets reads
	// proceed while a result is being written.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// DefaultDir returns the XDG data directory used when --db-dir is set to
// "default": ~/.local/share/siteparser on Linux.
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// Open opens or creates the history database under dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	} else if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("history database not found at %s: %w", dbPath, err)
	}

	dsn := dbPath + "?mode=rwc"
	if !opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rw"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite supports a single writer; extra connections only add lock
	// contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}
	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return hdb, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the location of the database file.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

func (h *HistoryDB) createTables() error {
	const schema = `
CREATE TABLE IF NOT EXISTS crawl_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	start_url TEXT NOT NULL,
	base_url TEXT NOT NULL,
	emails_json TEXT NOT NULL,
	phones_json TEXT NOT NULL,
	pages_fetched INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_crawl_results_base_url
	ON crawl_results (base_url, created_at DESC);
`
	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// Entry is one stored crawl result.
type Entry struct {
	// ID is the row identifier, assigned on save.
	ID int64

	// StartURL is the URL the crawl was started from, as given.
	StartURL string

	// Result is the stored crawl result (without diagnostics).
	Result model.CrawlResult

	// PagesFetched is how many pages the crawl dispatched.
	PagesFetched int

	// Duration is the crawl wall-clock time.
	Duration time.Duration

	// CreatedAt is when the result was saved, UTC.
	CreatedAt time.Time
}

// SaveResult stores one finished crawl result.
func (h *HistoryDB) SaveResult(ctx context.Context, startURL string, result *model.CrawlResult, pagesFetched int, duration time.Duration) (int64, error) {
	emails, err := json.Marshal(result.Emails)
	if err != nil {
		return 0, fmt.Errorf("marshal emails: %w", err)
	}
	phones, err := json.Marshal(result.Phones)
	if err != nil {
		return 0, fmt.Errorf("marshal phones: %w", err)
	}

	res, err := h.db.ExecContext(ctx, `
INSERT INTO crawl_results (start_url, base_url, emails_json, phones_json, pages_fetched, duration_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		startURL,
		result.URL,
		string(emails),
		string(phones),
		pagesFetched,
		duration.Milliseconds(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert crawl result: %w", err)
	}
	return res.LastInsertId()
}

// ListResults returns stored results for a base URL, newest first.
func (h *HistoryDB) ListResults(ctx context.Context, baseURL string, limit int) ([]Entry, error) {
	if limit < 1 {
		limit = 10
	}
	rows, err := h.db.QueryContext(ctx, `
SELECT id, start_url, base_url, emails_json, phones_json, pages_fetched, duration_ms, created_at
FROM crawl_results
WHERE base_url = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`, baseURL, limit)
	if err != nil {
		return nil, fmt.Errorf("query crawl results: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// LatestResult returns the most recent stored result for a base URL, or
// sql.ErrNoRows when none exists.
func (h *HistoryDB) LatestResult(ctx context.Context, baseURL string) (Entry, error) {
	entries, err := h.ListResults(ctx, baseURL, 1)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, sql.ErrNoRows
	}
	return entries[0], nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		entry      Entry
		emailsJSON string
		phonesJSON string
		durationMS int64
		createdAt  string
	)
	if err := rows.Scan(
		&entry.ID,
		&entry.StartURL,
		&entry.Result.URL,
		&emailsJSON,
		&phonesJSON,
		&entry.PagesFetched,
		&durationMS,
		&createdAt,
	); err != nil {
		return Entry{}, fmt.Errorf("scan crawl result: %w", err)
	}
	if err := json.Unmarshal([]byte(emailsJSON), &entry.Result.Emails); err != nil {
		return Entry{}, fmt.Errorf("unmarshal emails: %w", err)
	}
	if err := json.Unmarshal([]byte(phonesJSON), &entry.Result.Phones); err != nil {
		return Entry{}, fmt.Errorf("unmarshal phones: %w", err)
	}
	entry.Duration = time.Duration(durationMS) * time.Millisecond
	if at, err := time.Parse(time.RFC3339, createdAt); err == nil {
		entry.CreatedAt = at
	}
	return entry, nil
}
