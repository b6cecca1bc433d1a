package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS checks (
	id TEXT PRIMARY KEY,
	checked_at INTEGER NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	document_hash TEXT NOT NULL DEFAULT '',
	valid INTEGER NOT NULL,
	verdict TEXT NOT NULL,
	error_code TEXT NOT NULL DEFAULT '',
	line INTEGER NOT NULL DEFAULT 0,
	stage TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_checks_checked_at ON checks(checked_at);
CREATE INDEX IF NOT EXISTS idx_checks_source ON checks(source);
`

// SQLiteStore keeps records in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens or creates the history database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("db path cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &StorageError{Backend: "sqlite", Operation: "open", Cause: err}
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA busy_timeout=5000;", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, &StorageError{Backend: "sqlite", Operation: "initialize", Cause: err}
		}
	}

	s := &SQLiteStore{db: db, logger: logger.With("component", "history.sqlite")}
	s.logger.Info("History storage initialized", "path", path)
	return s, nil
}

func (s *SQLiteStore) Record(ctx context.Context, r *Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checks (id, checked_at, source, document_hash, valid, verdict, error_code, line, stage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Time.UnixNano(), r.Source, r.DocumentHash, r.Valid, r.Verdict, r.ErrorCode, r.Line, r.Stage)
	if err != nil {
		return &StorageError{Backend: "sqlite", Operation: "record", Cause: err}
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, q *Query) ([]*Record, error) {
	var (
		where []string
		args  []any
	)
	if q != nil {
		if !q.Since.IsZero() {
			where = append(where, "checked_at >= ?")
			args = append(args, q.Since.UnixNano())
		}
		if !q.Until.IsZero() {
			where = append(where, "checked_at < ?")
			args = append(args, q.Until.UnixNano())
		}
		if q.Source != "" {
			where = append(where, "source = ?")
			args = append(args, q.Source)
		}
		if q.Valid != nil {
			where = append(where, "valid = ?")
			args = append(args, *q.Valid)
		}
	}

	query := `SELECT id, checked_at, source, document_hash, valid, verdict, error_code, line, stage FROM checks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY checked_at DESC"
	if q != nil && q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Backend: "sqlite", Operation: "list", Cause: err}
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var (
			r  Record
			ns int64
		)
		if err := rows.Scan(&r.ID, &ns, &r.Source, &r.DocumentHash, &r.Valid, &r.Verdict, &r.ErrorCode, &r.Line, &r.Stage); err != nil {
			return nil, &StorageError{Backend: "sqlite", Operation: "scan", Cause: err}
		}
		r.Time = time.Unix(0, ns).UTC()
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Backend: "sqlite", Operation: "list", Cause: err}
	}
	return out, nil
}

func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM checks WHERE checked_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, &StorageError{Backend: "sqlite", Operation: "delete", Cause: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &StorageError{Backend: "sqlite", Operation: "delete", Cause: err}
	}
	return n, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM checks`).Scan(&n); err != nil {
		return 0, &StorageError{Backend: "sqlite", Operation: "count", Cause: err}
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
