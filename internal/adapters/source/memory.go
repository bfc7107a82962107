package source

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/scoring"
)

// Memory is a Source over an in-process dataset. Records without points
// but with minutes are scored on insert. It is safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	scorer   scoring.Scorer
	athletes map[int]model.Athlete
	records  []model.AthleteRecord
	fixtures map[int][]model.Fixture
	rosters  map[int]model.RosterState
}

// NewMemory creates a source holding ds.
func NewMemory(ds Dataset, opts ...Option) *Memory {
	m := &Memory{
		scorer:   scoring.NewRuleScorer(),
		athletes: make(map[int]model.Athlete),
		fixtures: make(map[int][]model.Fixture),
		rosters:  make(map[int]model.RosterState),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.PutAthletes(ds.Athletes...)
	m.AddRecords(ds.Records...)
	m.AddFixtures(ds.Fixtures...)
	for _, r := range ds.Rosters {
		m.PutRoster(r)
	}
	return m
}

// PutAthletes inserts or replaces catalogue entries.
func (m *Memory) PutAthletes(athletes ...model.Athlete) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range athletes {
		m.athletes[a.ID] = a
	}
}

// AddRecords appends closed-period records.
func (m *Memory) AddRecords(records ...model.AthleteRecord) {
	if len(records) == 0 {
		return
	}
	filled := scoring.Fill(m.scorer, append([]model.AthleteRecord(nil), records...))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, filled...)
}

// AddFixtures appends scheduled fixtures.
func (m *Memory) AddFixtures(fixtures ...model.Fixture) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range fixtures {
		m.fixtures[f.Period] = append(m.fixtures[f.Period], f)
	}
}

// PutRoster stores r as its manager's current roster.
func (m *Memory) PutRoster(r model.RosterState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rosters[r.ManagerID] = r.Clone()
}

// Athletes implements Source.
func (m *Memory) Athletes(_ context.Context) ([]model.Athlete, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Athlete, 0, len(m.athletes))
	for _, a := range m.athletes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// History implements Source.
func (m *Memory) History(_ context.Context, before int) ([]model.AthleteRecord, error) {
	return m.filter(func(r model.AthleteRecord) bool { return r.Period < before }), nil
}

// Records implements Source.
func (m *Memory) Records(_ context.Context, period int) ([]model.AthleteRecord, error) {
	return m.filter(func(r model.AthleteRecord) bool { return r.Period == period }), nil
}

func (m *Memory) filter(keep func(model.AthleteRecord) bool) []model.AthleteRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.AthleteRecord
	for _, r := range m.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Fixtures implements Source.
func (m *Memory) Fixtures(_ context.Context, period int) ([]model.Fixture, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Fixture(nil), m.fixtures[period]...), nil
}

// Roster implements Source.
func (m *Memory) Roster(_ context.Context, managerID int) (model.RosterState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rosters[managerID]
	if !ok {
		return model.RosterState{}, fmt.Errorf("manager %d: %w", managerID, ErrUnknownManager)
	}
	return r.Clone(), nil
}

// Snapshot returns a copy of everything held.
func (m *Memory) Snapshot() Dataset {
	athletes, _ := m.Athletes(context.Background())
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds := Dataset{
		Athletes: athletes,
		Records:  append([]model.AthleteRecord(nil), m.records...),
	}
	periods := make([]int, 0, len(m.fixtures))
	for p := range m.fixtures {
		periods = append(periods, p)
	}
	sort.Ints(periods)
	for _, p := range periods {
		ds.Fixtures = append(ds.Fixtures, m.fixtures[p]...)
	}
	managers := make([]int, 0, len(m.rosters))
	for id := range m.rosters {
		managers = append(managers, id)
	}
	sort.Ints(managers)
	for _, id := range managers {
		ds.Rosters = append(ds.Rosters, m.rosters[id].Clone())
	}
	return ds
}
