// Package logstore keeps check history as newline-delimited JSON in a single file.
package logstore

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/amartya2002/uptime-checker-core/model"
)

// DefaultFileName is the log file created inside the storage directory.
const DefaultFileName = "monitor-logs.jsonl"

const maxLineSize = 1 << 20

type Store struct {
	path   string
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// New returns a log store writing to dir/DefaultFileName. The file is created on first append.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:   filepath.Join(dir, DefaultFileName),
		logger: logger,
		now:    time.Now,
	}, nil
}

func (s *Store) Path() string { return s.path }

// Append stamps rec with the current UTC time and appends it as one line.
func (s *Store) Append(rec model.LogRecord) error {
	rec.Timestamp = s.now().UTC()
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode log record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("append log record: %w", err)
	}
	return f.Close()
}

// Query returns records in write order. With itemIDs, only records for those items are returned.
// A missing file yields no records; unparsable lines are skipped.
func (s *Store) Query(itemIDs ...string) ([]model.LogRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var filter map[string]struct{}
	if len(itemIDs) > 0 {
		filter = make(map[string]struct{}, len(itemIDs))
		for _, id := range itemIDs {
			filter[id] = struct{}{}
		}
	}
	return s.read(func(r model.LogRecord) bool {
		if filter == nil {
			return true
		}
		_, ok := filter[r.ItemID]
		return ok
	})
}

func (s *Store) read(keep func(model.LogRecord) bool) ([]model.LogRecord, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.LogRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	records := []model.LogRecord{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec model.LogRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			s.logger.Warn("skipping malformed log line", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		if keep(rec) {
			records = append(records, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}
	return records, nil
}

// ClearAll deletes the log file. A missing file is not an error.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove()
}

func (s *Store) remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove log file: %w", err)
	}
	return nil
}

// ClearForItem rewrites the file without itemID's records, deleting it when nothing remains.
func (s *Store) ClearForItem(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining, err := s.read(func(r model.LogRecord) bool { return r.ItemID != itemID })
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		return s.remove()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range remaining {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode log record: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write log file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace log file: %w", err)
	}
	return nil
}

// ClearForItems drops the records of every id, as after a cascading delete.
func (s *Store) ClearForItems(itemIDs []string) error {
	for _, id := range itemIDs {
		if err := s.ClearForItem(id); err != nil {
			return err
		}
	}
	return nil
}
