package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS decision_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id  TEXT NOT NULL,
	decision    TEXT NOT NULL,
	reason      TEXT,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decision_log_request ON decision_log(request_id);
`

// SQLiteSink persists audit records to a SQLite decision log.
type SQLiteSink struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteSink opens (or creates) the database and runs migrations.
func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("db path is empty")
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Name() string { return "sqlite" }

func (s *SQLiteSink) Deliver(ctx context.Context, rec *Record) error {
	if rec == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decision_log (request_id, decision, reason, created_at) VALUES (?, ?, ?, ?)`,
		rec.RequestID, rec.Decision, rec.Reason, rec.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

func (s *SQLiteSink) Close(_ context.Context) error {
	return s.db.Close()
}

// Recent returns the newest records for a request, oldest first. Used by the
// health/inspection surface and tests.
func (s *SQLiteSink) Recent(ctx context.Context, requestID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT request_id, decision, reason, created_at
		 FROM decision_log WHERE request_id = ?
		 ORDER BY id DESC LIMIT ?`, requestID, limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var created string
		if err := rows.Scan(&rec.RequestID, &rec.Decision, &rec.Reason, &created); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}
		rec.Timestamp = ts
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	// reverse into chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
