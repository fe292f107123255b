// Package store persists reasoning-trace records in SQLite and owns their
// translation-status lifecycle. Each write is a single statement, so a crash
// leaves the database in either the pre- or post-write state, never a hybrid.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes shape.
const schemaVersion = 1

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const recordColumns = `id, title, content, trace_source_with_think, trace_translated_with_think, translation_status, created_at, translated_at`

// ErrSchemaMismatch indicates the database was created by an incompatible version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages trace persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open initializes or connects to the trace database. Any failure here is
// fatal to the run; callers must not proceed without a store.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, openErr := sql.Open("sqlite", path)
	if openErr != nil {
		return nil, fmt.Errorf("open sqlite db %s: %w", path, openErr)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, logger: logger}
	if schemaErr := store.initSchema(context.Background()); schemaErr != nil {
		_ = db.Close()
		return nil, schemaErr
	}

	logger.Info("trace store opened", zap.String("path", path))
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	tx, beginErr := s.db.BeginTx(ctx, nil)
	if beginErr != nil {
		return fmt.Errorf("begin schema tx: %w", beginErr)
	}
	defer func() { _ = tx.Rollback() }()

	if _, execErr := tx.ExecContext(ctx, schemaSQL); execErr != nil {
		return fmt.Errorf("create schema: %w", execErr)
	}

	var version int
	readErr := tx.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case errors.Is(readErr, sql.ErrNoRows):
		if _, insertErr := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); insertErr != nil {
			return fmt.Errorf("record schema version: %w", insertErr)
		}
	case readErr != nil:
		return fmt.Errorf("read schema version: %w", readErr)
	case version != schemaVersion:
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("commit schema: %w", commitErr)
	}
	return nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// InsertGenerated creates a new pending record for a successfully generated
// trace and returns its identity. Blank required fields are rejected before
// the database is touched.
func (s *Store) InsertGenerated(ctx context.Context, title, content, trace string) (int64, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" || strings.TrimSpace(trace) == "" {
		return 0, fmt.Errorf("%w: title, content and trace must be non-empty", ErrConstraint)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, execErr := s.execWithRetry(
		ctx,
		`INSERT INTO reasoning_traces (title, content, trace_source_with_think, translation_status, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		title,
		content,
		trace,
		StatusPending,
		timestamp,
	)
	if execErr != nil {
		return 0, fmt.Errorf("insert generated trace: %w", execErr)
	}

	id, idErr := res.LastInsertId()
	if idErr != nil {
		return 0, fmt.Errorf("last insert id: %w", idErr)
	}
	return id, nil
}

// MarkTranslated records a successful translation: sets the translated trace,
// moves the record to completed and stamps translated_at. Calling it twice
// with identical content leaves the record unchanged, including the original
// translation timestamp.
func (s *Store) MarkTranslated(ctx context.Context, id int64, translated string) error {
	if strings.TrimSpace(translated) == "" {
		return fmt.Errorf("%w: translated trace must be non-empty", ErrConstraint)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, execErr := s.execWithRetry(
		ctx,
		`UPDATE reasoning_traces
         SET trace_translated_with_think = ?,
             translation_status = ?,
             translated_at = COALESCE(translated_at, ?)
         WHERE id = ?`,
		translated,
		StatusCompleted,
		timestamp,
		id,
	)
	if execErr != nil {
		return fmt.Errorf("mark translated %d: %w", id, execErr)
	}
	return requireRowAffected(res, id)
}

// MarkFailed records that translation retries were exhausted for a record.
func (s *Store) MarkFailed(ctx context.Context, id int64) error {
	res, execErr := s.execWithRetry(
		ctx,
		`UPDATE reasoning_traces SET translation_status = ? WHERE id = ?`,
		StatusFailed,
		id,
	)
	if execErr != nil {
		return fmt.Errorf("mark failed %d: %w", id, execErr)
	}
	return requireRowAffected(res, id)
}

func requireRowAffected(res sql.Result, id int64) error {
	affected, affectedErr := res.RowsAffected()
	if affectedErr != nil {
		return fmt.Errorf("rows affected: %w", affectedErr)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

// GetByID fetches a record by identifier, or nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM reasoning_traces WHERE id = ?`, id)
	record, scanErr := scanRecord(row)
	if errors.Is(scanErr, sql.ErrNoRows) {
		return nil, nil
	}
	if scanErr != nil {
		return nil, fmt.Errorf("get record %d: %w", id, scanErr)
	}
	return record, nil
}

// ListByStatus returns every record with the given status, oldest first.
// Re-scanning reflects current store state rather than a snapshot.
func (s *Store) ListByStatus(ctx context.Context, status Status) ([]*Record, error) {
	if _, ok := ParseStatus(string(status)); !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrConstraint, status)
	}

	rows, queryErr := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM reasoning_traces WHERE translation_status = ? ORDER BY created_at ASC, id ASC`,
		status,
	)
	if queryErr != nil {
		return nil, fmt.Errorf("list by status %s: %w", status, queryErr)
	}
	defer func() { _ = rows.Close() }()

	var records []*Record
	for rows.Next() {
		record, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan record: %w", scanErr)
		}
		records = append(records, record)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate records: %w", rowsErr)
	}
	return records, nil
}

// CountByStatus reports how many records sit in each lifecycle state.
func (s *Store) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, queryErr := s.db.QueryContext(
		ctx,
		`SELECT translation_status, COUNT(1) FROM reasoning_traces GROUP BY translation_status`,
	)
	if queryErr != nil {
		return nil, fmt.Errorf("count by status: %w", queryErr)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[Status]int, len(allStatuses))
	for _, status := range allStatuses {
		counts[status] = 0
	}
	for rows.Next() {
		var rawStatus string
		var count int
		if scanErr := rows.Scan(&rawStatus, &count); scanErr != nil {
			return nil, fmt.Errorf("scan status count: %w", scanErr)
		}
		status, ok := ParseStatus(rawStatus)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q in database", ErrConstraint, rawStatus)
		}
		counts[status] = count
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate status counts: %w", rowsErr)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(scanner rowScanner) (*Record, error) {
	var (
		record        Record
		rawStatus     string
		translated    sql.NullString
		createdAtText string
		translatedAt  sql.NullString
	)
	if scanErr := scanner.Scan(
		&record.ID,
		&record.Title,
		&record.Content,
		&record.TraceSourceWithThink,
		&translated,
		&rawStatus,
		&createdAtText,
		&translatedAt,
	); scanErr != nil {
		return nil, scanErr
	}

	status, ok := ParseStatus(rawStatus)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrConstraint, rawStatus)
	}
	record.Status = status

	if translated.Valid {
		value := translated.String
		record.TraceTranslatedWithThink = &value
	}

	createdAt, createdErr := time.Parse(time.RFC3339Nano, createdAtText)
	if createdErr != nil {
		return nil, fmt.Errorf("parse created_at: %w", createdErr)
	}
	record.CreatedAt = createdAt

	if translatedAt.Valid {
		parsed, translatedErr := time.Parse(time.RFC3339Nano, translatedAt.String)
		if translatedErr != nil {
			return nil, fmt.Errorf("parse translated_at: %w", translatedErr)
		}
		record.TranslatedAt = &parsed
	}
	return &record, nil
}
