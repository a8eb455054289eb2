package task

import (
	"testing"

	"github.com/your-org/vpp/internal/core"
)

func TestSingleSyncRunsInline(t *testing.T) {
	ran := false
	s := NewSingle(Mode(0))
	s.Start(func() core.Status {
		ran = true
		return core.OK
	})
	if !ran {
		t.Fatal("sync Single should run inline on Start")
	}
	if status := s.Wait(); status != core.OK {
		t.Errorf("Wait() = %v, want OK", status)
	}
}

func TestSingleLazyDefersToWait(t *testing.T) {
	ran := false
	s := NewSingle(Mode(-1))
	s.Start(func() core.Status {
		ran = true
		return core.OK
	})
	if ran {
		t.Fatal("lazy Single must not run before Wait")
	}
	s.Wait()
	if !ran {
		t.Fatal("lazy Single should run on Wait")
	}
}

func TestSingleAsyncAggregatesWorstStatus(t *testing.T) {
	results := []core.Status{core.OK, core.Retry, core.ErrInvalidValue}
	i := 0
	s := NewSingle(Mode(3))
	s.Start(func() core.Status {
		r := results[i]
		i++
		return r
	})
	if got := s.Wait(); got != core.ErrInvalidValue {
		t.Errorf("aggregate = %v, want the fatal code to win", got)
	}
}

func TestListCallsProcessExactlyOncePerItem(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	it := NewSliceIterator(items)
	l := NewList[int](Mode(0), it, func(int) core.Status { return core.OK })
	l.Start()
	l.Wait()
	if l.Calls() != len(items) {
		t.Errorf("Calls() = %d, want %d", l.Calls(), len(items))
	}
}

func TestListAsyncProcessesEveryItemExactlyOnce(t *testing.T) {
	const n = 200
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	it := NewSliceIterator(items)

	seen := make([]int32, n)
	l := NewList[int](Mode(8), it, func(i int) core.Status {
		seen[i]++
		return core.OK
	})
	l.Start()
	if status := l.Wait(); status != core.OK {
		t.Fatalf("Wait() = %v, want OK", status)
	}
	if l.Calls() != n {
		t.Fatalf("Calls() = %d, want %d", l.Calls(), n)
	}
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("item %d processed %d times, want exactly 1", i, c)
		}
	}
}

func TestListAggregatesWorstAcrossWorkers(t *testing.T) {
	items := []int{0, 1, 2, 3}
	it := NewSliceIterator(items)
	l := NewList[int](Mode(4), it, func(i int) core.Status {
		if i == 2 {
			return core.ErrNotExisting
		}
		return core.OK
	})
	l.Start()
	if got := l.Wait(); got != core.ErrNotExisting {
		t.Errorf("aggregate = %v, want the fatal code", got)
	}
}
