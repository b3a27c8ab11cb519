package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (and migrates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// 单连接即可满足会话级串行写入，同时避免 SQLITE_BUSY。
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS negotiation_history (
		session_id TEXT PRIMARY KEY,
		state_json TEXT NOT NULL,
		ended INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_negotiation_history_updated ON negotiation_history(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, sessionID string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, state_json, created_at, updated_at FROM negotiation_history WHERE session_id = ?`, sessionID)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return record, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, record Record) error {
	if err := validate(record); err != nil {
		return err
	}
	record = stamp(record, s.now())

	stateJSON, err := json.Marshal(record.State)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	query := `
	INSERT INTO negotiation_history (session_id, state_json, ended, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		state_json = excluded.state_json,
		ended = excluded.ended,
		updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		record.SessionID, string(stateJSON), boolToInt(record.State.ConversationEnded),
		record.CreatedAt.UnixNano(), record.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upsert history: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM negotiation_history WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, state_json, created_at, updated_at FROM negotiation_history ORDER BY updated_at DESC, session_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		record               Record
		stateJSON            string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&record.SessionID, &stateJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan history row: %w", err)
	}
	if err := json.Unmarshal([]byte(stateJSON), &record.State); err != nil {
		return Record{}, fmt.Errorf("decode state for %s: %w", record.SessionID, err)
	}

	record.CreatedAt = time.Unix(0, createdAt)
	record.UpdatedAt = time.Unix(0, updatedAt)
	return record, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
