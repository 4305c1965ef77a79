package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"flowScope/internal/model"
)

// JsonlStorage appends queue runs and snapshots to JSONL files.
type JsonlStorage struct {
	runsPath      string
	snapshotsPath string
	mu            sync.Mutex
}

func NewJsonlStorage(runsPath, snapshotsPath string) *JsonlStorage {
	return &JsonlStorage{runsPath: runsPath, snapshotsPath: snapshotsPath}
}

// PutQueueRun appends one run record.
func (s *JsonlStorage) PutQueueRun(_ context.Context, run model.QueueRun) error {
	return s.appendLines(s.runsPath, []interface{}{run})
}

// PutSnapshots appends a batch of snapshot records.
func (s *JsonlStorage) PutSnapshots(_ context.Context, records []model.SnapshotRecord) error {
	items := make([]interface{}, 0, len(records))
	for _, record := range records {
		items = append(items, record)
	}
	return s.appendLines(s.snapshotsPath, items)
}

func (s *JsonlStorage) appendLines(path string, items []interface{}) error {
	if len(items) == 0 || path == "" {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, item := range items {
		line, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
