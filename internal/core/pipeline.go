package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/your-org/vpp/internal/notify"
	"github.com/your-org/vpp/internal/scene"
)

// State is one of the four worker states a Pipeline can be observed in
// (§4.3).
type State int

const (
	Idle State = iota
	Running
	Halted
	Zombie
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Zombie:
		return "zombie"
	default:
		return "unknown"
	}
}

// PipelineEvent is broadcast by a Pipeline after each completed pass.
type PipelineEvent struct {
	Scene  *scene.Scene
	Status Status
}

// Pipeline is an ordered list of Stages driven by one worker goroutine
// implementing the run/freeze/stop state machine of §4.3.
type Pipeline struct {
	Notify   *notify.Notifier[PipelineEvent]
	Finished func(s *scene.Scene, status Status)

	mu     sync.Mutex
	cond   *sync.Cond
	stages []*Stage

	locked  bool
	run     bool
	frozen  bool
	retry   bool
	zombie  bool
	running bool // true strictly while the worker goroutine is alive

	currentScene *scene.Scene
	done         chan struct{}
}

// NewPipeline returns an empty, unlocked, Idle Pipeline.
func NewPipeline() *Pipeline {
	p := &Pipeline{Notify: notify.New[PipelineEvent]()}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Add appends a stage to the pipeline. It is rejected with
// ErrInvalidRequest whenever the worker has been started and not yet
// stopped, Halted included (stages may only be added to an Idle
// pipeline), matching the "no structural changes while running" rule.
func (p *Pipeline) Add(s *Stage) Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrInvalidRequest
	}
	s.BindRunning(func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.running
	})
	p.stages = append(p.stages, s)
	return OK
}

// Lock commits the pipeline's configuration, allowing Start to succeed.
// Locking an already-locked pipeline is a no-op.
func (p *Pipeline) Lock() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locked = true
}

// Locked reports whether Lock has been called.
func (p *Pipeline) Locked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.locked
}

// State reports the pipeline's current worker state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Pipeline) stateLocked() State {
	switch {
	case !p.running && !p.zombie:
		return Idle
	case p.zombie:
		return Zombie
	case p.frozen:
		return Halted
	default:
		return Running
	}
}

// Start transitions Idle -> Running by spawning the worker goroutine.
// It is ignored (returns ErrInvalidRequest) unless the pipeline is locked.
// Calling Start again while already Running sets the retry signal, waking
// a worker that is suspended on a NotReady pass.
func (p *Pipeline) Start(ctx context.Context) Status {
	p.mu.Lock()
	if !p.locked {
		p.mu.Unlock()
		return ErrInvalidRequest
	}
	if p.run {
		p.retry = true
		p.cond.Broadcast()
		p.mu.Unlock()
		return OK
	}
	p.run = true
	p.zombie = false
	p.running = true
	p.done = make(chan struct{})
	p.mu.Unlock()

	go p.loop(ctx)
	return OK
}

// Stop transitions Running/Halted -> Zombie -> Idle: it signals the
// worker to exit at its next safe point, blocks until it does, then joins
// it (waits for the goroutine to actually return).
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.run = false
	p.frozen = false
	p.cond.Broadcast()
	done := p.done
	p.mu.Unlock()

	<-done

	p.mu.Lock()
	p.running = false
	p.zombie = false
	p.mu.Unlock()
}

// Freeze transitions Running -> Halted: the worker finishes its current
// pass, publishes the result, then waits on the condvar instead of
// starting a new pass.
func (p *Pipeline) Freeze() {
	p.mu.Lock()
	p.frozen = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Unfreeze transitions Halted -> Running.
func (p *Pipeline) Unfreeze() {
	p.mu.Lock()
	p.frozen = false
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Frozen reports whether the pipeline is currently halted.
func (p *Pipeline) Frozen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frozen
}

// Stages returns a snapshot of the pipeline's stages in insertion order,
// for introspection by a control surface (listing names, reading/setting
// bypass or active engine).
func (p *Pipeline) Stages() []*Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Stage(nil), p.stages...)
}

// Stage returns the named stage, if the pipeline has one.
func (p *Pipeline) Stage(name string) (*Stage, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, st := range p.stages {
		if st.Name == name {
			return st, true
		}
	}
	return nil, false
}

// Current returns the most recently published scene. While frozen, this
// is stable and may be read by external code (e.g. a Bridge) without
// racing the worker (§5 freezability contract).
func (p *Pipeline) Current() *scene.Scene {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentScene
}

func (p *Pipeline) loop(ctx context.Context) {
	defer close(p.done)

	sc := scene.New(0)

	for {
		p.mu.Lock()
		for p.run && p.frozen {
			p.cond.Wait()
		}
		if !p.run {
			p.zombie = true
			p.cond.Broadcast()
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		status := p.pass(ctx, sc)

		switch {
		case status == NotReady:
			if !p.awaitRetryOrStop() {
				continue // run was cleared; top of loop will exit
			}
			continue // retry requested: attempt the pass again
		case status == Retry:
			continue // re-run immediately, no broadcast, no finished hook
		case status.Fatal():
			p.Notify.Signal(PipelineEvent{Scene: sc, Status: status}, int(status))
			p.mu.Lock()
			p.run = false
			p.zombie = true
			p.cond.Broadcast()
			p.mu.Unlock()
			return
		default: // OK
			p.mu.Lock()
			p.currentScene = sc
			p.mu.Unlock()
			p.Notify.Signal(PipelineEvent{Scene: sc, Status: OK}, int(OK))
			if p.Finished != nil {
				p.Finished(sc, OK)
			}
			sc = scene.New(sc.Timestamp + 1)
		}
	}
}

// awaitRetryOrStop suspends the worker after a NotReady pass until either
// the retry signal is set (a Start() call arrived while already running)
// or the pipeline is stopped. It returns true if a retry was signalled.
func (p *Pipeline) awaitRetryOrStop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.run && !p.retry {
		p.cond.Wait()
	}
	retry := p.retry
	p.retry = false
	return retry
}

// pass runs one prepare+process cycle over every stage in insertion
// order, stopping at the first stage call that doesn't return OK. Unlike
// Task's fan-out, a pass is a sequential chain: the first non-OK status
// from any stage is the pass's status, full stop. Worst is deliberately
// not used here — it resolves concurrent workers racing to report a
// single outcome, not a sequence of dependent stages.
func (p *Pipeline) pass(ctx context.Context, sc *scene.Scene) Status {
	p.mu.Lock()
	stages := append([]*Stage(nil), p.stages...)
	p.mu.Unlock()

	for _, st := range stages {
		if status := st.Prepare(ctx, sc); status != OK {
			return status
		}
		if status := st.Process(ctx, sc); status != OK {
			return status
		}
	}
	return OK
}

func (p *Pipeline) String() string {
	return fmt.Sprintf("pipeline(stages=%d, state=%s)", len(p.stages), p.State())
}
