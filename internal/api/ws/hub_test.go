package ws

import (
	"encoding/json"
	"testing"

	"github.com/your-org/vpp/internal/core"
	"github.com/your-org/vpp/internal/scene"
	"github.com/your-org/vpp/pkg/dto"
)

func TestObservePipelineEventEnqueuesTick(t *testing.T) {
	h := NewHub()
	sc := scene.New(42)
	sc.Mark(scene.NewZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10}))

	h.ObservePipelineEvent(core.PipelineEvent{Scene: sc, Status: core.OK}, int(core.OK))

	select {
	case data := <-h.broadcast:
		var tick dto.WSPipelineTick
		if err := json.Unmarshal(data, &tick); err != nil {
			t.Fatalf("unmarshal tick: %v", err)
		}
		if tick.Timestamp != 42 || tick.ZoneCount != 1 || tick.Status != "ok" {
			t.Errorf("got %+v, want timestamp=42 zone_count=1 status=ok", tick)
		}
	default:
		t.Fatal("expected a tick on the broadcast channel")
	}
}

func TestObservePipelineEventIgnoresEmptyScene(t *testing.T) {
	h := NewHub()
	h.ObservePipelineEvent(core.PipelineEvent{}, int(core.OK))

	select {
	case <-h.broadcast:
		t.Fatal("expected no tick for a nil scene")
	default:
	}
}
