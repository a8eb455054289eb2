// Package task implements the parallel fan-out primitive described in
// §4.5: Single, List and Tiled, all built over one Mode-driven execution
// strategy (sync / lazy / N-way async, N capped at 16).
package task

import (
	"sync"

	"github.com/your-org/vpp/internal/core"
)

// Mode selects how a task executes: 0 is synchronous (inline), negative
// is lazy/deferred (the work only runs when Wait is called), and positive
// N spawns N parallel workers (|N| capped to 16).
type Mode int

const maxWorkers = 16

// IsLazy reports whether m defers execution to Wait.
func (m Mode) IsLazy() bool { return m < 0 }

// IsSync reports whether m runs inline on Start.
func (m Mode) IsSync() bool { return m == 0 }

// Workers returns the number of parallel workers m requests, capped at
// maxWorkers. Zero for sync/lazy modes.
func (m Mode) Workers() int {
	if m <= 0 {
		return 0
	}
	n := int(m)
	if n > maxWorkers {
		n = maxWorkers
	}
	return n
}

// aggregate folds a sequence of observed statuses into one, following the
// Task.wait() rule: the first fatal (negative) code encountered wins,
// otherwise the numeric minimum among non-negative codes wins (0/OK
// counted as 0, so any OK makes the aggregate OK).
func aggregate(results []core.Status) core.Status {
	worst := core.OK
	seenAny := false
	for _, r := range results {
		if r.Fatal() {
			return r
		}
		if !seenAny || r < worst {
			worst = r
			seenAny = true
		}
	}
	return worst
}

// Work is a single unit of work run by a Single task or by one fan-out
// worker's iteration of process().
type Work func() core.Status

// Single runs one user function to completion, honouring Mode: sync runs
// it inline, lazy defers it to Wait, and async(N) replicates it across N
// workers and aggregates their statuses.
type Single struct {
	mode Mode
	work Work

	lazyWork Work
	wg       sync.WaitGroup
	results  []core.Status
}

// NewSingle returns a Single task in the given mode.
func NewSingle(mode Mode) *Single {
	return &Single{mode: mode}
}

// Start begins running work according to the task's mode.
func (s *Single) Start(work Work) {
	switch {
	case s.mode.IsLazy():
		s.lazyWork = work
	case s.mode.IsSync():
		s.results = []core.Status{work()}
	default:
		n := s.mode.Workers()
		s.results = make([]core.Status, n)
		s.wg.Add(n)
		for i := 0; i < n; i++ {
			i := i
			go func() {
				defer s.wg.Done()
				s.results[i] = work()
			}()
		}
	}
}

// Wait blocks until the work has run (spawning it now, for lazy mode) and
// returns the aggregated status.
func (s *Single) Wait() core.Status {
	switch {
	case s.mode.IsLazy():
		if s.lazyWork == nil {
			return core.OK
		}
		return s.lazyWork()
	case s.mode.IsSync():
		if len(s.results) == 0 {
			return core.OK
		}
		return s.results[0]
	default:
		s.wg.Wait()
		return aggregate(s.results)
	}
}

// Iterator is a pull-based source of work items. Next must be safe to
// call concurrently from any worker; returning ok=false signals
// exhaustion (NotExisting) and is how a task is cooperatively cancelled.
type Iterator[T any] interface {
	Next() (item T, ok bool)
}

// Process handles one item pulled from an Iterator.
type Process[T any] func(item T) core.Status

// List pulls work items from an Iterator through Next() and runs Process
// per item, fanned out according to Mode.
type List[T any] struct {
	mode    Mode
	it      Iterator[T]
	process Process[T]

	lazyWorker Work
	wg         sync.WaitGroup
	results    []core.Status
	calls      int
	callsMu    sync.Mutex
}

// NewList returns a List task pulling from it and handing each item to
// process, in the given mode.
func NewList[T any](mode Mode, it Iterator[T], process Process[T]) *List[T] {
	return &List[T]{mode: mode, it: it, process: process}
}

func (l *List[T]) worker() core.Status {
	worst := core.OK
	seenAny := false
	fatal := core.OK
	for {
		item, ok := l.it.Next()
		if !ok {
			break
		}
		l.callsMu.Lock()
		l.calls++
		l.callsMu.Unlock()

		r := l.process(item)
		if r.Fatal() {
			if !fatal.Fatal() {
				fatal = r
			}
			continue
		}
		if !seenAny || r < worst {
			worst = r
			seenAny = true
		}
	}
	if fatal.Fatal() {
		return fatal
	}
	return worst
}

// Start begins pulling and processing items according to the task's mode.
func (l *List[T]) Start() {
	switch {
	case l.mode.IsLazy():
		l.lazyWorker = l.worker
	case l.mode.IsSync():
		l.results = []core.Status{l.worker()}
	default:
		n := l.mode.Workers()
		l.results = make([]core.Status, n)
		l.wg.Add(n)
		for i := 0; i < n; i++ {
			i := i
			go func() {
				defer l.wg.Done()
				l.results[i] = l.worker()
			}()
		}
	}
}

// Wait blocks until every worker has exhausted the iterator and returns
// the aggregated status (P4: exactly K calls to process happen for K
// items, and the aggregate is the first fatal code seen, otherwise the
// minimum of the K return codes).
func (l *List[T]) Wait() core.Status {
	switch {
	case l.mode.IsLazy():
		if l.lazyWorker == nil {
			return core.OK
		}
		return l.lazyWorker()
	case l.mode.IsSync():
		if len(l.results) == 0 {
			return core.OK
		}
		return l.results[0]
	default:
		l.wg.Wait()
		return aggregate(l.results)
	}
}

// Calls returns how many times Process has been invoked so far.
func (l *List[T]) Calls() int {
	l.callsMu.Lock()
	defer l.callsMu.Unlock()
	return l.calls
}

// SliceIterator adapts a plain slice into an Iterator[T], guarding its
// cursor with a mutex so Next is safe from concurrent workers.
type SliceIterator[T any] struct {
	mu     sync.Mutex
	items  []T
	cursor int
}

// NewSliceIterator returns an Iterator[T] pulling items in order.
func NewSliceIterator[T any](items []T) *SliceIterator[T] {
	return &SliceIterator[T]{items: items}
}

func (it *SliceIterator[T]) Next() (T, bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.cursor >= len(it.items) {
		var zero T
		return zero, false
	}
	v := it.items[it.cursor]
	it.cursor++
	return v, true
}
