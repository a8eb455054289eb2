package core

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/your-org/vpp/internal/scene"
)

type countingEngine struct {
	calls int32
}

func (e *countingEngine) Setup() Status     { return OK }
func (e *countingEngine) Terminate()        {}
func (e *countingEngine) Prepare(ctx context.Context, s *scene.Scene) Status {
	return OK
}
func (e *countingEngine) Process(ctx context.Context, s *scene.Scene) Status {
	atomic.AddInt32(&e.calls, 1)
	return OK
}

func waitForPasses(t *testing.T, eng *countingEngine, n int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&eng.calls) >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d passes, got %d", n, atomic.LoadInt32(&eng.calls))
}

func TestPipelineAddRejectedWhileRunning(t *testing.T) {
	p := NewPipeline()
	eng := &countingEngine{}
	st := NewStage("s", false)
	st.Register("e", eng)
	st.Use("e")
	p.Add(st)
	p.Lock()

	p.Start(context.Background())
	defer p.Stop()

	waitForPasses(t, eng, 1)

	if status := p.Add(NewStage("late", false)); status != ErrInvalidRequest {
		t.Errorf("Add while running = %v, want ErrInvalidRequest", status)
	}
}

func TestPipelineStartRejectedUnlocked(t *testing.T) {
	p := NewPipeline()
	if status := p.Start(context.Background()); status != ErrInvalidRequest {
		t.Errorf("Start unlocked = %v, want ErrInvalidRequest", status)
	}
}

func TestPipelineFreezeStopsProgress(t *testing.T) {
	p := NewPipeline()
	eng := &countingEngine{}
	st := NewStage("s", false)
	st.Register("e", eng)
	st.Use("e")
	p.Add(st)
	p.Lock()

	p.Start(context.Background())
	defer p.Stop()
	waitForPasses(t, eng, 1)

	p.Freeze()
	time.Sleep(20 * time.Millisecond)
	if p.State() != Halted {
		t.Errorf("State() = %v, want Halted", p.State())
	}
	stalled := atomic.LoadInt32(&eng.calls)
	time.Sleep(30 * time.Millisecond)
	if atomic.LoadInt32(&eng.calls) != stalled {
		t.Error("engine kept running while frozen")
	}

	p.Unfreeze()
	waitForPasses(t, eng, stalled+1)
}

func TestPipelineStopJoinsWorker(t *testing.T) {
	p := NewPipeline()
	eng := &countingEngine{}
	st := NewStage("s", false)
	st.Register("e", eng)
	st.Use("e")
	p.Add(st)
	p.Lock()

	p.Start(context.Background())
	waitForPasses(t, eng, 1)
	p.Stop()

	if p.State() != Idle {
		t.Errorf("State() after Stop = %v, want Idle", p.State())
	}
}

type notReadyOnceEngine struct {
	returned int32
}

func (e *notReadyOnceEngine) Setup() Status { return OK }
func (e *notReadyOnceEngine) Terminate()    {}
func (e *notReadyOnceEngine) Prepare(ctx context.Context, s *scene.Scene) Status {
	if atomic.AddInt32(&e.returned, 1) == 1 {
		return NotReady
	}
	return OK
}
func (e *notReadyOnceEngine) Process(ctx context.Context, s *scene.Scene) Status { return OK }

func TestPipelineRetryWakesSuspendedWorker(t *testing.T) {
	p := NewPipeline()
	eng := &notReadyOnceEngine{}
	st := NewStage("s", false)
	st.Register("e", eng)
	st.Use("e")
	p.Add(st)
	p.Lock()

	p.Start(context.Background())
	defer p.Stop()

	time.Sleep(20 * time.Millisecond) // let it hit NotReady once and suspend
	p.Start(context.Background())     // Start-while-running sets retry

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && atomic.LoadInt32(&eng.returned) < 2 {
		time.Sleep(time.Millisecond)
	}
	if atomic.LoadInt32(&eng.returned) < 2 {
		t.Fatal("retry signal never woke the suspended worker")
	}
}
