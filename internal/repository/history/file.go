package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileStore 将全部记录保存在一个 JSON 文件中，文件不存在时按需创建。
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewFileStore prepares a store at path; the file is created on first access.
func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	return &FileStore{path: path, now: time.Now}, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, sessionID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return Record{}, err
	}
	for _, record := range records {
		if record.SessionID == sessionID {
			return record, nil
		}
	}
	return Record{}, ErrNotFound
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, record Record) error {
	if err := validate(record); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range records {
		if existing.SessionID != record.SessionID {
			continue
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = existing.CreatedAt
		}
		records[i] = stamp(record, s.now())
		replaced = true
		break
	}
	if !replaced {
		records = append(records, stamp(record, s.now()))
	}
	return s.write(records)
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}
	for i, record := range records {
		if record.SessionID == sessionID {
			return s.write(append(records[:i], records[i+1:]...))
		}
	}
	return ErrNotFound
}

// List implements Store.
func (s *FileStore) List(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return nil, err
	}
	sortRecords(records)
	return records, nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) read() ([]Record, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		if err := s.write(nil); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return nil, nil
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}
	for _, record := range records {
		if err := validate(record); err != nil {
			return nil, fmt.Errorf("history file %s: %w", s.path, err)
		}
	}
	return records, nil
}

// write 先写临时文件再重命名，避免进程中断留下半截 JSON。
func (s *FileStore) write(records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".history-*.json")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp history file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}
