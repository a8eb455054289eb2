package task

import (
	"image"
	"sync/atomic"
	"testing"

	"github.com/your-org/vpp/internal/core"
)

func TestTileIteratorEmitsExpectedGrid(t *testing.T) {
	it := NewTileIterator(image.Rect(0, 0, 100, 100), 16, 16, 16, 16)
	count := 0
	for {
		_, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	if count != 36 {
		t.Fatalf("tile count = %d, want 36 (6x6 grid over a 100x100 frame)", count)
	}
}

func TestTiledSyncProcessesEveryTileOnce(t *testing.T) {
	it := NewTileIterator(image.Rect(0, 0, 100, 100), 16, 16, 16, 16)
	var calls int32
	l := NewList[image.Rectangle](Mode(0), it, func(image.Rectangle) core.Status {
		atomic.AddInt32(&calls, 1)
		return core.OK
	})
	l.Start()
	if status := l.Wait(); status != core.OK {
		t.Fatalf("Wait() = %v, want OK", status)
	}
	if calls != 36 {
		t.Fatalf("calls = %d, want 36", calls)
	}
}

func TestTiledAsyncSameCallCountWorstStatus(t *testing.T) {
	it := NewTileIterator(image.Rect(0, 0, 100, 100), 16, 16, 16, 16)
	var calls int32
	l := NewList[image.Rectangle](Mode(4), it, func(r image.Rectangle) core.Status {
		n := atomic.AddInt32(&calls, 1)
		if n == 10 {
			return core.ErrInvalidValue
		}
		return core.OK
	})
	l.Start()
	status := l.Wait()
	if status != core.ErrInvalidValue {
		t.Fatalf("status = %v, want the fatal per-tile status to win the aggregate", status)
	}
	if calls != 36 {
		t.Fatalf("calls = %d, want 36 (same as sync mode)", calls)
	}
}

func TestTileIteratorSkipsPartialTilesAtEdge(t *testing.T) {
	it := NewTileIterator(image.Rect(0, 0, 20, 20), 16, 16, 16, 16)
	count := 0
	for {
		r, ok := it.Next()
		if !ok {
			break
		}
		if r.Dx() != 16 || r.Dy() != 16 {
			t.Fatalf("emitted a partial tile %v, want only full tiles", r)
		}
		count++
	}
	if count != 1 {
		t.Fatalf("tile count = %d, want 1 (only the top-left tile fits fully in 20x20)", count)
	}
}
