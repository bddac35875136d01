package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/derdiedas/go-dewiktionary"
)

// Store is a SQLite database of declension tables. It implements
// dewiktionary.Sink.
type Store struct {
	db   *sql.DB
	path string
}

// Options configures Open.
type Options struct {
	// CreateIfNotExists creates the database file (and its directory)
	// if it doesn't exist yet.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the database at path.
func Open(path string, opts Options) (*Store, error) {
	if opts.CreateIfNotExists {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found at %s: %w", path, err)
	}

	dsn := path + "?mode=rw&_pragma=busy_timeout(5000)"
	if opts.CreateIfNotExists {
		dsn = path + "?mode=rwc&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Tables are written one at a time by a single importer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, path: path}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
	}

	if err := s.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS derdiedas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nominativ_singular TEXT NOT NULL,
		genus TEXT NOT NULL,
		nominativ_plural TEXT,
		genitiv_singular TEXT,
		genitiv_plural TEXT,
		dativ_singular TEXT,
		dativ_plural TEXT,
		akkusativ_singular TEXT,
		akkusativ_plural TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_derdiedas_nominativ_singular ON derdiedas(nominativ_singular);

	CREATE TABLE IF NOT EXISTS import_runs (
		id TEXT PRIMARY KEY,
		dump TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		pages INTEGER NOT NULL DEFAULT 0,
		matched INTEGER NOT NULL DEFAULT 0,
		malformed INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Store inserts one declension table.
func (s *Store) Store(ctx context.Context, d *dewiktionary.Declension) error {
	query := `
	INSERT INTO derdiedas (genus,
		nominativ_singular, nominativ_plural,
		genitiv_singular, genitiv_plural,
		dativ_singular, dativ_plural,
		akkusativ_singular, akkusativ_plural)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	args := make([]any, 0, 9)
	for _, v := range d.Values() {
		args = append(args, v)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting %q: %w", d.NominativeSingular, err)
	}
	return nil
}

// Count returns the number of stored tables.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM derdiedas").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting declensions: %w", err)
	}
	return n, nil
}

const selectDeclension = `
	SELECT genus,
		nominativ_singular, COALESCE(nominativ_plural, ''),
		COALESCE(genitiv_singular, ''), COALESCE(genitiv_plural, ''),
		COALESCE(dativ_singular, ''), COALESCE(dativ_plural, ''),
		COALESCE(akkusativ_singular, ''), COALESCE(akkusativ_plural, '')
	FROM derdiedas`

type scanner interface {
	Scan(dest ...any) error
}

func scanDeclension(row scanner) (dewiktionary.Declension, error) {
	var d dewiktionary.Declension
	err := row.Scan(&d.Genus,
		&d.NominativeSingular, &d.NominativePlural,
		&d.GenitiveSingular, &d.GenitivePlural,
		&d.DativeSingular, &d.DativePlural,
		&d.AccusativeSingular, &d.AccusativePlural)
	return d, err
}

// List returns every stored table in the order it was inserted.
func (s *Store) List(ctx context.Context) ([]dewiktionary.Declension, error) {
	rows, err := s.db.QueryContext(ctx, selectDeclension+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing declensions: %w", err)
	}
	defer rows.Close()

	var rv []dewiktionary.Declension
	for rows.Next() {
		d, err := scanDeclension(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning declension: %w", err)
		}
		rv = append(rv, d)
	}
	return rv, rows.Err()
}

// Random returns a random stored table, or nil if there are none.
func (s *Store) Random(ctx context.Context) (*dewiktionary.Declension, error) {
	row := s.db.QueryRowContext(ctx, selectDeclension+" ORDER BY RANDOM() LIMIT 1")
	d, err := scanDeclension(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("picking a random declension: %w", err)
	}
	return &d, nil
}

// Run status values recorded in import_runs.
const (
	RunRunning  = "running"
	RunComplete = "complete"
	RunFailed   = "failed"
)

// A Run is one recorded import.
type Run struct {
	ID         string
	Dump       string
	StartedAt  time.Time
	FinishedAt time.Time
	Pages      int64
	Matched    int64
	Malformed  int64
	Status     string
	Error      string
}

// BeginRun records the start of an import of dump and returns its id.
func (s *Store) BeginRun(ctx context.Context, dump string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO import_runs (id, dump, started_at, status)
	VALUES (?, ?, ?, ?)
	`, id, dump, time.Now().UTC().Format(time.RFC3339Nano), RunRunning)
	if err != nil {
		return "", fmt.Errorf("recording import run: %w", err)
	}
	return id, nil
}

// FinishRun records the outcome of the run with the given id. A nil
// runErr marks it complete.
func (s *Store) FinishRun(ctx context.Context, id string, stats dewiktionary.Stats, runErr error) error {
	status, msg := RunComplete, ""
	if runErr != nil {
		status, msg = RunFailed, runErr.Error()
	}
	res, err := s.db.ExecContext(ctx, `
	UPDATE import_runs
	SET finished_at = ?, pages = ?, matched = ?, malformed = ?, status = ?, error = ?
	WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339Nano),
		stats.Pages, stats.Matched, stats.Malformed, status, msg, id)
	if err != nil {
		return fmt.Errorf("finishing import run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no import run %v", id)
	}
	return nil
}

// GetRun returns the run with the given id, or nil if there's none.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var r Run
	var started string
	var finished, msg sql.NullString
	err := s.db.QueryRowContext(ctx, `
	SELECT id, dump, started_at, finished_at, pages, matched, malformed, status, error
	FROM import_runs WHERE id = ?
	`, id).Scan(&r.ID, &r.Dump, &started, &finished,
		&r.Pages, &r.Matched, &r.Malformed, &r.Status, &msg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting import run: %w", err)
	}

	r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	if finished.Valid {
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished.String)
	}
	r.Error = msg.String
	return &r, nil
}
