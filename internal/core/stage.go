package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/your-org/vpp/internal/notify"
	"github.com/your-org/vpp/internal/scene"
)

// StageEvent is broadcast by a Stage after each Process call.
type StageEvent struct {
	Stage  string
	Scene  *scene.Scene
	Status Status
}

// Filter decides whether a Scene should be offered to the active engine at
// all; returning false makes Process a no-op that forwards OK.
type Filter func(s *scene.Scene) bool

// Stage holds a named registry of Engines, selects one at a time, and
// exposes bypass/disable switches, an optional input filter, and a
// broadcast channel (§4.4).
type Stage struct {
	Name    string
	Filter  Filter
	Notify  *notify.Notifier[StageEvent]

	mu          sync.Mutex
	bypassed    bool
	disabled    bool
	engines     map[string]Engine
	active      string
	activeEng   Engine
	runpdatable bool
	running     func() bool
}

// NewStage creates a named, empty Stage. runtimeUpdatable allows the
// active engine to be swapped while the owning Pipeline is running;
// otherwise such a swap is rejected with ErrInvalidRequest (§4.4).
func NewStage(name string, runtimeUpdatable bool) *Stage {
	return &Stage{
		Name:        name,
		Notify:      notify.New[StageEvent](),
		engines:     make(map[string]Engine),
		runpdatable: runtimeUpdatable,
	}
}

// BindRunning lets the owning Pipeline tell the Stage whether it is
// currently running, so Use can enforce the runtime-update rule.
func (s *Stage) BindRunning(isRunning func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = isRunning
}

// Register adds an engine under a unique name. Registering a name twice
// replaces the previous engine.
func (s *Stage) Register(id string, eng Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engines[id] = eng
}

// Use selects the active engine by its registered name. It is rejected
// with ErrInvalidRequest if the pipeline is running and this stage was not
// constructed as runtime-updatable, and with ErrNotExisting if the name
// was never registered.
func (s *Stage) Use(id string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running != nil && s.running() && !s.runpdatable {
		return ErrInvalidRequest
	}
	eng, ok := s.engines[id]
	if !ok {
		return ErrNotExisting
	}
	s.active = id
	s.activeEng = eng
	return OK
}

// Active returns the name of the currently-selected engine, or "" if none.
func (s *Stage) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Bypass sets the bypass switch: when true, Process is a no-op.
func (s *Stage) Bypass(yes bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bypassed = yes
}

// Bypassed reports the current bypass switch.
func (s *Stage) Bypassed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bypassed
}

// Disable sets the disable switch: when true, Process is a no-op.
func (s *Stage) Disable(yes bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabled = yes
}

// Disabled reports the current disable switch.
func (s *Stage) Disabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled
}

func (s *Stage) snapshot() (bypassed, disabled bool, eng Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bypassed, s.disabled, s.activeEng
}

// Prepare forwards to the active engine's Prepare, unless the stage is
// bypassed/disabled, in which case it returns OK immediately.
func (s *Stage) Prepare(ctx context.Context, sc *scene.Scene) Status {
	bypassed, disabled, eng := s.snapshot()
	if bypassed || disabled {
		return OK
	}
	if eng == nil {
		return ErrUndefined
	}
	return eng.Prepare(ctx, sc)
}

// Process runs the active engine against sc, unless bypassed/disabled or
// rejected by Filter, and broadcasts the resulting StageEvent.
func (s *Stage) Process(ctx context.Context, sc *scene.Scene) Status {
	bypassed, disabled, eng := s.snapshot()
	if bypassed || disabled {
		return OK
	}
	if s.Filter != nil && !s.Filter(sc) {
		return OK
	}
	if eng == nil {
		return ErrUndefined
	}

	status := eng.Process(ctx, sc)
	s.Notify.Signal(StageEvent{Stage: s.Name, Scene: sc, Status: status}, int(status))
	return status
}

func (s *Stage) String() string {
	return fmt.Sprintf("stage(%s, active=%s)", s.Name, s.Active())
}
