package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/openpatterns/opf/pkg/opf/diag"
	"github.com/openpatterns/opf/pkg/opf/internalerr"
	"github.com/openpatterns/opf/pkg/opf/store"
)

// Store is an in-memory implementation of store.Store for tests and for
// runs without an archive path. Saved formats are shared, not copied.
type Store struct {
	mu      sync.RWMutex
	ids     *store.IDs
	records map[string]store.Record
	seq     map[string]int64
	next    int64
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		ids:     store.NewIDs(),
		records: make(map[string]store.Record),
		seq:     make(map[string]int64),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SavePattern implements store.Store.
func (s *Store) SavePattern(ctx context.Context, rec store.Record) (string, error) {
	if rec.Format == nil {
		return "", fmt.Errorf("%w: record without pattern", internalerr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = s.ids.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.Diagnostics = append([]diag.Diagnostic(nil), rec.Diagnostics...)

	if _, ok := s.records[rec.ID]; !ok {
		s.seq[rec.ID] = s.next
		s.next++
	}
	s.records[rec.ID] = rec
	return rec.ID, nil
}

// GetPattern implements store.Store.
func (s *Store) GetPattern(ctx context.Context, id string) (store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return store.Record{}, fmt.Errorf("pattern %s: %w", id, internalerr.ErrNotFound)
	}
	rec.Diagnostics = append([]diag.Diagnostic(nil), rec.Diagnostics...)
	return rec, nil
}

// ListPatterns implements store.Store. Newest first; ties fall back to
// reverse save order.
func (s *Store) ListPatterns(ctx context.Context, opts store.ListOptions) ([]store.Summary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = store.DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]store.Record, 0, len(s.records))
	for _, rec := range s.records {
		if opts.Style != "" && (rec.Format == nil || rec.Format.Style.Name != opts.Style) {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return s.seq[recs[i].ID] > s.seq[recs[j].ID]
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}

	out := make([]store.Summary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, store.Summarize(rec))
	}
	return out, nil
}

// DeletePattern implements store.Store.
func (s *Store) DeletePattern(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("pattern %s: %w", id, internalerr.ErrNotFound)
	}
	delete(s.records, id)
	delete(s.seq, id)
	return nil
}
