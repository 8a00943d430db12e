package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"crypto-sentinel/internal/domain"
)

// document is the on-disk shape: one JSON file holding every record,
// read and rewritten whole on each mutation.
type document struct {
	Signals map[string]domain.PerformanceRecord `json:"signals"`
	Created time.Time                           `json:"created"`
}

// FileStore keeps performance records in a single JSON document. A mutex
// enforces the single-writer contract within the process; writes are not
// atomic across crashes.
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

func (s *FileStore) Get(ctx context.Context, id string) (*domain.PerformanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	rec, ok := doc.Signals[id]
	if !ok {
		return nil, nil
	}
	rec.SignalID = id
	return &rec, nil
}

func (s *FileStore) Put(ctx context.Context, rec *domain.PerformanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Signals[rec.SignalID] = *rec
	return s.save(doc)
}

func (s *FileStore) ScanActive(ctx context.Context) ([]*domain.PerformanceRecord, error) {
	return s.scan(domain.StatusActive)
}

func (s *FileStore) ScanEvaluated(ctx context.Context) ([]*domain.PerformanceRecord, error) {
	return s.scan(domain.StatusEvaluated)
}

func (s *FileStore) scan(status domain.RecordStatus) ([]*domain.PerformanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []*domain.PerformanceRecord
	for id, rec := range doc.Signals {
		if rec.Status != status {
			continue
		}
		rec := rec
		rec.SignalID = id
		out = append(out, &rec)
	}
	return out, nil
}

func (s *FileStore) load() (*document, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &document{Signals: map[string]domain.PerformanceRecord{}, Created: s.now().UTC()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read performance store: %w", err)
	}

	doc := &document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("parse performance store: %w", err)
	}
	if doc.Signals == nil {
		doc.Signals = map[string]domain.PerformanceRecord{}
	}
	return doc, nil
}

func (s *FileStore) save(doc *document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode performance store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create performance store dir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write performance store: %w", err)
	}
	return nil
}
