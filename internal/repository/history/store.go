// Package history persists negotiation transcripts and their engine state
// so sessions survive restarts.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
)

// ErrNotFound is returned when no record exists for a session.
var ErrNotFound = errors.New("history record not found")

// ErrInvalidRecord marks stored data that is not a valid transcript.
var ErrInvalidRecord = errors.New("history record is not a valid transcript")

// Record 是单个会话的持久化快照。
type Record struct {
	SessionID string            `json:"session_id"`
	State     negotiation.State `json:"state"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Store persists session records.
type Store interface {
	Load(ctx context.Context, sessionID string) (Record, error)
	Save(ctx context.Context, record Record) error
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]Record, error)
	Close() error
}

// validate 校验会话 ID 与转录角色，与原接口允许的角色保持一致。
func validate(record Record) error {
	if strings.TrimSpace(record.SessionID) == "" {
		return errors.New("session id is required")
	}
	for _, turn := range record.State.Turns {
		if _, ok := negotiation.ParseRole(string(turn.Role)); !ok {
			return ErrInvalidRecord
		}
	}
	return nil
}

// stamp fills timestamps before a save.
func stamp(record Record, now time.Time) Record {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	record.State = record.State.Clone()
	return record
}

func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].UpdatedAt.Equal(records[j].UpdatedAt) {
			return records[i].SessionID < records[j].SessionID
		}
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})
}

// Open 按驱动名创建存储："file"、"sqlite" 或 "memory"。
func Open(driver, filePath, dbPath string) (Store, error) {
	switch driver {
	case "", "file":
		return NewFileStore(filePath)
	case "sqlite":
		return NewSQLiteStore(dbPath)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown history driver %q", driver)
	}
}
