package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/metrics"
)

const memoryStoreName = "memory"

type projectionKey struct {
	period  int
	version string
}

type validationRun struct {
	summary model.ValidationSummary
	records []model.ValidationRecord
}

// MemoryStore keeps everything in process memory. It is safe for
// concurrent use.
type MemoryStore struct {
	mu sync.RWMutex

	projections map[projectionKey]map[int]model.Projection
	// versions lists each period's versions in the order first saved.
	versions map[int][]string

	recs     map[string]model.Recommendation
	recOrder []string

	validations []validationRun
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projections: make(map[projectionKey]map[int]model.Projection),
		versions:    make(map[int][]string),
		recs:        make(map[string]model.Recommendation),
	}
}

func observe(store, op string, start time.Time) {
	metrics.RecordStoreLatency(store, op, time.Since(start))
}

// SaveProjections implements Store.
func (s *MemoryStore) SaveProjections(_ context.Context, projections []model.Projection) error {
	defer observe(memoryStoreName, "save_projections", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range projections {
		key := projectionKey{period: p.Period, version: p.ModelVersion}
		byAthlete, ok := s.projections[key]
		if !ok {
			byAthlete = make(map[int]model.Projection)
			s.projections[key] = byAthlete
			s.versions[p.Period] = append(s.versions[p.Period], p.ModelVersion)
		}
		if _, exists := byAthlete[p.AthleteID]; !exists {
			byAthlete[p.AthleteID] = p
		}
	}
	return nil
}

// Projections implements Store.
func (s *MemoryStore) Projections(_ context.Context, period int, version string) ([]model.Projection, error) {
	defer observe(memoryStoreName, "projections", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if version == "" {
		vs := s.versions[period]
		if len(vs) == 0 {
			return nil, nil
		}
		version = vs[len(vs)-1]
	}
	byAthlete := s.projections[projectionKey{period: period, version: version}]
	out := make([]model.Projection, 0, len(byAthlete))
	for _, p := range byAthlete {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AthleteID < out[j].AthleteID })
	return out, nil
}

// SaveRecommendation implements Store.
func (s *MemoryStore) SaveRecommendation(_ context.Context, rec model.Recommendation) error {
	defer observe(memoryStoreName, "save_recommendation", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[rec.ID]; ok {
		return fmt.Errorf("recommendation %s: %w", rec.ID, ErrDuplicate)
	}
	s.recs[rec.ID] = rec
	s.recOrder = append(s.recOrder, rec.ID)
	return nil
}

// Recommendation implements Store.
func (s *MemoryStore) Recommendation(_ context.Context, id string) (model.Recommendation, error) {
	defer observe(memoryStoreName, "recommendation", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return model.Recommendation{}, fmt.Errorf("recommendation %s: %w", id, ErrNotFound)
	}
	return rec, nil
}

// Recommendations implements Store.
func (s *MemoryStore) Recommendations(_ context.Context, managerID, period int) ([]model.Recommendation, error) {
	defer observe(memoryStoreName, "recommendations", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Recommendation
	for _, id := range s.recOrder {
		if rec := s.recs[id]; rec.ManagerID == managerID && rec.Period == period {
			out = append(out, rec)
		}
	}
	return out, nil
}

// SaveValidation implements Store.
func (s *MemoryStore) SaveValidation(_ context.Context, summary model.ValidationSummary, records []model.ValidationRecord) error {
	defer observe(memoryStoreName, "save_validation", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validations = append(s.validations, validationRun{
		summary: summary,
		records: append([]model.ValidationRecord(nil), records...),
	})
	return nil
}

// Validations implements Store.
func (s *MemoryStore) Validations(_ context.Context, period int) ([]model.ValidationSummary, error) {
	defer observe(memoryStoreName, "validations", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ValidationSummary
	for _, v := range s.validations {
		if v.summary.Period == period {
			out = append(out, v.summary)
		}
	}
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
