// Package reports keeps recent analysis reports in memory, addressed by a
// monotonically increasing index.
package reports

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/tradegate/internal/domain"
)

const DefaultCapacity = 500

// MemoryStore bounded, append-only report log. Once full, the oldest
// records are dropped; indexes are never reused.
type MemoryStore struct {
	mu       sync.RWMutex
	records  []domain.ReportRecord
	capacity int
	index    uint64
}

// NewMemoryStore creates a store keeping up to capacity reports.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{capacity: capacity}
}

// Save appends a report and returns its index.
func (s *MemoryStore) Save(report domain.Report) (uint64, error) {
	if s == nil {
		return 0, errors.New("report store is not initialized")
	}
	if report.Pair.From == "" || report.Pair.To == "" {
		return 0, errors.New("report pair is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.index++
	s.records = append(s.records, domain.ReportRecord{Index: s.index, Report: report})
	if over := len(s.records) - s.capacity; over > 0 {
		s.records = append(s.records[:0:0], s.records[over:]...)
	}

	return s.index, nil
}

// ReportsAfter returns the retained reports written after index, oldest first.
func (s *MemoryStore) ReportsAfter(index uint64) ([]domain.ReportRecord, error) {
	if s == nil {
		return nil, errors.New("report store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index <= index {
		return nil, nil
	}

	out := make([]domain.ReportRecord, 0, len(s.records))
	for _, r := range s.records {
		if r.Index > index {
			out = append(out, r)
		}
	}
	return out, nil
}

// Latest returns the newest retained report for pair.
func (s *MemoryStore) Latest(pair domain.Pair) (domain.Report, bool) {
	if s == nil {
		return domain.Report{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Report.Pair == pair {
			return s.records[i].Report, true
		}
	}
	return domain.Report{}, false
}

// CurrentIndex returns the index of the latest saved report.
func (s *MemoryStore) CurrentIndex() uint64 {
	if s == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}
