package predictor

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/metrics"
)

// Registry stores model sets append-only and tracks the active one.
// Readers of the active set never wait on writers.
type Registry struct {
	mu    sync.RWMutex
	sets  map[string]*ModelSet
	order []string

	active atomic.Pointer[ModelSet]

	familyMu sync.Mutex
	families map[string]*sync.Mutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sets:     make(map[string]*ModelSet),
		families: make(map[string]*sync.Mutex),
	}
}

// Register stores s. When the version already exists the stored set is
// returned and added is false; registered sets are never replaced.
func (r *Registry) Register(s *ModelSet) (stored *ModelSet, added bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sets[s.Version]; ok {
		return existing, false
	}
	r.sets[s.Version] = s
	r.order = append(r.order, s.Version)
	metrics.UpdateModelVersions(len(r.order))
	return s, true
}

// Activate makes version the active set.
func (r *Registry) Activate(version string) error {
	s, err := r.Get(version)
	if err != nil {
		return err
	}
	r.active.Store(s)
	return nil
}

// Active returns the active set, or nil before the first activation.
func (r *Registry) Active() *ModelSet { return r.active.Load() }

// Get looks up a registered version.
func (r *Registry) Get(version string) (*ModelSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sets[version]
	if !ok {
		return nil, fmt.Errorf("version %q: %w", version, model.ErrModelNotFound)
	}
	return s, nil
}

// Versions lists registered versions in registration order.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// lockFamily serialises training within one model family and returns the
// unlock func.
func (r *Registry) lockFamily(family string) func() {
	r.familyMu.Lock()
	m, ok := r.families[family]
	if !ok {
		m = &sync.Mutex{}
		r.families[family] = m
	}
	r.familyMu.Unlock()
	m.Lock()
	return m.Unlock
}
