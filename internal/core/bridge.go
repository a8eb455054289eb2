package core

import (
	"context"
	"sync"

	"github.com/your-org/vpp/internal/scene"
)

// Bridge plugs one Pipeline's output into another Pipeline's input. It
// maintains two scene slots indexed by (read, write): Forward writes the
// latest scene into the write slot, swapping with the read slot if the
// reader has not yet consumed the previous write; Prepare (its Engine
// side) returns NotReady until data is available, then swaps the read
// index to the latest write (§6 Scene ingress / Bridge engine).
type Bridge struct {
	mu      sync.Mutex
	slots   [2]*scene.Scene
	rd, wr  int
	pending bool
}

// NewBridge returns an empty Bridge with no scene forwarded yet.
func NewBridge() *Bridge {
	return &Bridge{rd: 0, wr: 1}
}

// Forward publishes sc as the bridge's latest output. If the reader side
// is already behind (a previous forward has not been consumed by
// Prepare), the slots are swapped immediately so the reader picks up the
// newest data rather than a stale one still pending consumption.
func (b *Bridge) Forward(sc *scene.Scene) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending {
		b.rd, b.wr = b.wr, b.rd
	}
	b.slots[b.wr] = sc
	b.pending = true
}

// Setup implements core.Engine.
func (b *Bridge) Setup() Status { return OK }

// Terminate implements core.Engine.
func (b *Bridge) Terminate() {}

// Prepare implements core.Engine: it copies the bridge's latest forwarded
// scene into s, or returns NotReady if nothing new has been forwarded
// since the last Prepare.
func (b *Bridge) Prepare(ctx context.Context, s *scene.Scene) Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.pending {
		return NotReady
	}
	b.rd, b.wr = b.wr, b.rd
	latest := b.slots[b.rd]
	*s = *latest
	b.pending = false
	return OK
}

// Process implements core.Engine as a no-op: a Bridge's work is entirely
// in Prepare.
func (b *Bridge) Process(ctx context.Context, s *scene.Scene) Status { return OK }
