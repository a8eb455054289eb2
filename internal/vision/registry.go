package vision

import (
	"context"
	"fmt"
	"sync"

	"github.com/your-org/vpp/internal/core"
)

// Registry is a name-keyed collection of running StreamPipelines, giving
// an HTTP control surface a single place to look one up by name instead
// of threading a *StreamPipeline through every handler.
type Registry struct {
	mu        sync.RWMutex
	pipelines map[string]*StreamPipeline
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{pipelines: make(map[string]*StreamPipeline)}
}

// Register adds sp under name, replacing any pipeline previously
// registered under that name.
func (r *Registry) Register(name string, sp *StreamPipeline) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pipelines[name] = sp
}

// Unregister removes the pipeline registered under name, if any.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pipelines, name)
}

// Names returns every registered pipeline name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.pipelines))
	for n := range r.pipelines {
		names = append(names, n)
	}
	return names
}

// Get returns the pipeline registered under name.
func (r *Registry) Get(name string) (*StreamPipeline, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sp, ok := r.pipelines[name]
	return sp, ok
}

// StageSnapshot describes one Stage's current control state.
type StageSnapshot struct {
	Name     string `json:"name"`
	Active   string `json:"active_engine"`
	Bypassed bool   `json:"bypassed"`
	Disabled bool   `json:"disabled"`
}

// Snapshot describes a pipeline's worker state and every stage's control
// state, the payload behind the pipeline-control surface's status/params
// endpoint.
type Snapshot struct {
	Name   string          `json:"name"`
	State  string          `json:"state"`
	Locked bool            `json:"locked"`
	Stages []StageSnapshot `json:"stages"`
}

// Snapshot builds a Snapshot for the named pipeline.
func (r *Registry) Snapshot(name string) (Snapshot, error) {
	sp, ok := r.Get(name)
	if !ok {
		return Snapshot{}, fmt.Errorf("pipeline %q not found", name)
	}

	out := Snapshot{Name: name, State: sp.Core.State().String(), Locked: sp.Core.Locked()}
	for _, st := range sp.Core.Stages() {
		out.Stages = append(out.Stages, StageSnapshot{
			Name:     st.Name,
			Active:   st.Active(),
			Bypassed: st.Bypassed(),
			Disabled: st.Disabled(),
		})
	}
	return out, nil
}

// Start transitions the named pipeline Idle -> Running. On a pipeline
// that is already started (Running or Halted) it only sets the retry
// signal; it does not unfreeze a Halted one.
func (r *Registry) Start(ctx context.Context, name string) core.Status {
	sp, ok := r.Get(name)
	if !ok {
		return core.ErrNotExisting
	}
	return sp.Core.Start(ctx)
}

// Stop transitions the named pipeline to Zombie -> Idle, blocking until
// its worker goroutine has exited.
func (r *Registry) Stop(name string) core.Status {
	sp, ok := r.Get(name)
	if !ok {
		return core.ErrNotExisting
	}
	sp.Core.Stop()
	return core.OK
}

// Freeze halts the named pipeline after its current pass.
func (r *Registry) Freeze(name string) core.Status {
	sp, ok := r.Get(name)
	if !ok {
		return core.ErrNotExisting
	}
	sp.Core.Freeze()
	return core.OK
}

// Unfreeze resumes a halted pipeline.
func (r *Registry) Unfreeze(name string) core.Status {
	sp, ok := r.Get(name)
	if !ok {
		return core.ErrNotExisting
	}
	sp.Core.Unfreeze()
	return core.OK
}

// Bypass sets whether the named pipeline's stage skips its active engine.
func (r *Registry) Bypass(name, stage string, bypass bool) core.Status {
	sp, ok := r.Get(name)
	if !ok {
		return core.ErrNotExisting
	}
	st, ok := sp.Core.Stage(stage)
	if !ok {
		return core.ErrNotExisting
	}
	st.Bypass(bypass)
	return core.OK
}

// UseEngine switches the named pipeline's stage to a different registered
// engine. Rejected with ErrInvalidRequest if the stage isn't runtime-
// updatable and the pipeline is running.
func (r *Registry) UseEngine(name, stage, engine string) core.Status {
	sp, ok := r.Get(name)
	if !ok {
		return core.ErrNotExisting
	}
	st, ok := sp.Core.Stage(stage)
	if !ok {
		return core.ErrNotExisting
	}
	return st.Use(engine)
}

// TrackerSnapshot reports the zones added and removed by the named
// pipeline's most recent tracker pass.
type TrackerSnapshot struct {
	Added   []uint64 `json:"added"`
	Removed []uint64 `json:"removed"`
}

// TrackerSnapshot returns the named pipeline's last tracker Added/
// Removed event.
func (r *Registry) TrackerSnapshot(name string) (TrackerSnapshot, error) {
	sp, ok := r.Get(name)
	if !ok {
		return TrackerSnapshot{}, fmt.Errorf("pipeline %q not found", name)
	}
	evt := sp.LastTrackerEvent()
	out := TrackerSnapshot{}
	for _, z := range evt.Added {
		out.Added = append(out.Added, z.UUID)
	}
	for _, z := range evt.Removed {
		out.Removed = append(out.Removed, z.UUID)
	}
	return out, nil
}
