package core

import (
	"context"
	"testing"

	"github.com/your-org/vpp/internal/scene"
)

func TestBridgePrepareNotReadyBeforeForward(t *testing.T) {
	b := NewBridge()
	s := scene.New(0)
	if status := b.Prepare(context.Background(), s); status != NotReady {
		t.Errorf("Prepare() before any Forward = %v, want NotReady", status)
	}
}

func TestBridgeForwardThenPrepareDeliversScene(t *testing.T) {
	b := NewBridge()
	src := scene.New(7)
	b.Forward(src)

	dst := scene.New(0)
	if status := b.Prepare(context.Background(), dst); status != OK {
		t.Fatalf("Prepare() = %v, want OK", status)
	}
	if dst.Timestamp != 7 {
		t.Errorf("dst.Timestamp = %d, want 7 (copied from forwarded scene)", dst.Timestamp)
	}
}

func TestBridgePrepareConsumesOnlyOnce(t *testing.T) {
	b := NewBridge()
	b.Forward(scene.New(1))

	dst := scene.New(0)
	b.Prepare(context.Background(), dst)

	if status := b.Prepare(context.Background(), dst); status != NotReady {
		t.Errorf("second Prepare() without a new Forward = %v, want NotReady", status)
	}
}

func TestBridgeForwardTwiceBeforePrepareKeepsLatest(t *testing.T) {
	b := NewBridge()
	b.Forward(scene.New(1))
	b.Forward(scene.New(2))

	dst := scene.New(0)
	b.Prepare(context.Background(), dst)
	if dst.Timestamp != 2 {
		t.Errorf("dst.Timestamp = %d, want 2 (the most recently forwarded scene)", dst.Timestamp)
	}
}
