package history

import (
	"context"
	"sort"
	"sync"

	"github.com/matzehuels/nodehealth/pkg/errors"
	"github.com/matzehuels/nodehealth/pkg/report"
)

// DefaultMemoryReports is the number of reports a MemoryStore keeps.
const DefaultMemoryReports = 1000

// MemoryStore keeps the most recent reports in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	max     int
	reports map[string]*report.Report
	order   []string // insertion order, oldest first
}

// NewMemoryStore creates a store holding at most size reports.
// A non-positive size uses DefaultMemoryReports.
func NewMemoryStore(size int) *MemoryStore {
	if size <= 0 {
		size = DefaultMemoryReports
	}
	return &MemoryStore{max: size, reports: make(map[string]*report.Report)}
}

func (s *MemoryStore) Save(_ context.Context, rep *report.Report) error {
	if rep == nil || rep.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "report has no ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[rep.ID]; !ok {
		s.order = append(s.order, rep.ID)
	}
	s.reports[rep.ID] = rep
	for len(s.order) > s.max {
		delete(s.reports, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rep, ok := s.reports[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeReportNotFound, "report %q not found", id)
	}
	return rep, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Summary, error) {
	s.mu.RLock()
	out := make([]Summary, 0, len(s.reports))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, Summarize(s.reports[s.order[i]]))
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit = normalizeLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
