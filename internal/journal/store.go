package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"teamdesk/internal/logging"
	"teamdesk/internal/teamdesk"
)

// timeLayout is fixed width so stored timestamps sort chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one recorded call.
type Entry struct {
	ID        int64         `json:"id" yaml:"id"`
	RequestID string        `json:"request_id" yaml:"request_id"`
	Method    string        `json:"method" yaml:"method"`
	Outcome   string        `json:"outcome" yaml:"outcome"`
	Message   string        `json:"message,omitempty" yaml:"message,omitempty"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Store persists call entries in SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Option customizes the store.
type Option func(*Store)

// WithLogger sets the logger used to report recording failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open creates or opens the journal database at path. Schema setup runs under
// a file lock so concurrent CLI invocations do not race on a fresh file.
func Open(path string, opts ...Option) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("open journal: path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock journal: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(store)
	}
	store.logger = logging.NewComponentLogger(store.logger, "journal")

	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts one entry.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO calls (request_id, method, outcome, message, started_at, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?)`,
		entry.RequestID,
		entry.Method,
		entry.Outcome,
		nullableString(entry.Message),
		entry.StartedAt.UTC().Format(timeLayout),
		entry.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert call: %w", err)
	}
	return nil
}

// ObserveCall records a client call event. Failures are logged, never
// returned, so a broken journal does not fail the call itself.
func (s *Store) ObserveCall(event teamdesk.CallEvent) {
	entry := Entry{
		RequestID: event.RequestID,
		Method:    event.Method,
		Outcome:   event.Outcome,
		Message:   event.Message,
		StartedAt: event.Started,
		Duration:  event.Duration,
	}
	if err := s.Record(context.Background(), entry); err != nil {
		s.logger.Warn("journal record failed", logging.Args(
			logging.String(logging.FieldCorrelationID, event.RequestID),
			logging.String(logging.FieldOperation, event.Method),
			logging.Error(err),
		)...)
	}
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, request_id, method, outcome, message, started_at, duration_ms
        FROM calls ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return entries, nil
}

// Prune deletes entries started before cutoff and reports how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM calls WHERE started_at < ?", cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune calls: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

// PruneRetention removes entries older than the given number of days. Zero
// keeps everything.
func (s *Store) PruneRetention(ctx context.Context, days int, now time.Time) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	return s.Prune(ctx, now.AddDate(0, 0, -days))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		entry      Entry
		message    sql.NullString
		startedAt  string
		durationMS int64
	)
	if err := row.Scan(&entry.ID, &entry.RequestID, &entry.Method, &entry.Outcome, &message, &startedAt, &durationMS); err != nil {
		return Entry{}, fmt.Errorf("scan call: %w", err)
	}
	entry.Message = message.String
	ts, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse started_at %q: %w", startedAt, err)
	}
	entry.StartedAt = ts
	entry.Duration = time.Duration(durationMS) * time.Millisecond
	return entry, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
