package core

import (
	"context"
	"testing"

	"github.com/your-org/vpp/internal/scene"
)

type fixedEngine struct {
	status Status
	calls  int
}

func (e *fixedEngine) Setup() Status { return OK }
func (e *fixedEngine) Terminate()    {}
func (e *fixedEngine) Prepare(ctx context.Context, s *scene.Scene) Status {
	return OK
}
func (e *fixedEngine) Process(ctx context.Context, s *scene.Scene) Status {
	e.calls++
	return e.status
}

func TestStageUseRejectsUnknownEngine(t *testing.T) {
	s := NewStage("s", false)
	if status := s.Use("missing"); status != ErrNotExisting {
		t.Errorf("Use(missing) = %v, want ErrNotExisting", status)
	}
}

func TestStageProcessForwardsToActiveEngine(t *testing.T) {
	s := NewStage("s", false)
	eng := &fixedEngine{status: OK}
	s.Register("e", eng)
	s.Use("e")

	status := s.Process(context.Background(), scene.New(0))
	if status != OK {
		t.Errorf("Process() = %v, want OK", status)
	}
	if eng.calls != 1 {
		t.Errorf("engine called %d times, want 1", eng.calls)
	}
}

func TestStageProcessUndefinedWithoutActiveEngine(t *testing.T) {
	s := NewStage("s", false)
	if status := s.Process(context.Background(), scene.New(0)); status != ErrUndefined {
		t.Errorf("Process() with no active engine = %v, want ErrUndefined", status)
	}
}

func TestStageBypassSkipsEngine(t *testing.T) {
	s := NewStage("s", false)
	eng := &fixedEngine{status: ErrUnknown}
	s.Register("e", eng)
	s.Use("e")
	s.Bypass(true)

	if status := s.Process(context.Background(), scene.New(0)); status != OK {
		t.Errorf("bypassed Process() = %v, want OK", status)
	}
	if eng.calls != 0 {
		t.Error("bypassed stage should not call the engine")
	}
}

func TestStageDisableSkipsEngine(t *testing.T) {
	s := NewStage("s", false)
	eng := &fixedEngine{status: ErrUnknown}
	s.Register("e", eng)
	s.Use("e")
	s.Disable(true)

	if status := s.Process(context.Background(), scene.New(0)); status != OK {
		t.Errorf("disabled Process() = %v, want OK", status)
	}
	if eng.calls != 0 {
		t.Error("disabled stage should not call the engine")
	}
}

func TestStageFilterRejectsScene(t *testing.T) {
	s := NewStage("s", false)
	eng := &fixedEngine{status: OK}
	s.Register("e", eng)
	s.Use("e")
	s.Filter = func(sc *scene.Scene) bool { return false }

	s.Process(context.Background(), scene.New(0))
	if eng.calls != 0 {
		t.Error("Filter returning false should prevent the engine from running")
	}
}

func TestStageUseRejectedWhileRunningUnlessUpdatable(t *testing.T) {
	s := NewStage("s", false)
	eng := &fixedEngine{status: OK}
	s.Register("e", eng)
	s.BindRunning(func() bool { return true })

	if status := s.Use("e"); status != ErrInvalidRequest {
		t.Errorf("Use while running (non-updatable) = %v, want ErrInvalidRequest", status)
	}
}

func TestStageUseAllowedWhileRunningIfUpdatable(t *testing.T) {
	s := NewStage("s", true)
	eng := &fixedEngine{status: OK}
	s.Register("e", eng)
	s.BindRunning(func() bool { return true })

	if status := s.Use("e"); status != OK {
		t.Errorf("Use while running (updatable) = %v, want OK", status)
	}
}

func TestStageProcessBroadcastsEvent(t *testing.T) {
	s := NewStage("s", false)
	eng := &fixedEngine{status: OK}
	s.Register("e", eng)
	s.Use("e")

	var seen StageEvent
	s.Notify.Connect(func(v StageEvent, status int) { seen = v })
	s.Process(context.Background(), scene.New(0))

	if seen.Stage != "s" {
		t.Errorf("event.Stage = %q, want %q", seen.Stage, "s")
	}
}
