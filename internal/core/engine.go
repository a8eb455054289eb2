package core

import (
	"context"

	"github.com/your-org/vpp/internal/scene"
)

// Engine is a unit that prepares and processes a Scene. Stages hold a
// registry of named Engines and drive one active engine at a time.
//
// The original C++ framework templates Engine over a variadic Z... extras
// pack so that tracker-specific side channels can ride alongside the
// Scene; since a Go Scene already owns its Zones directly, that pack
// collapses to nothing extra here — any stage-specific side state an
// Engine needs lives on the Engine itself.
type Engine interface {
	// Setup performs one-time initialisation (model loading, connection
	// opening). A negative Status here prevents the owning Pipeline from
	// ever transitioning to Running.
	Setup() Status
	// Terminate releases resources acquired by Setup. It is always safe
	// to call, even if Setup failed or was never called.
	Terminate()
	// Prepare readies s for Process, e.g. an Input engine populating a
	// fresh View. NotReady suspends the current pipeline pass.
	Prepare(ctx context.Context, s *scene.Scene) Status
	// Process performs the engine's actual work against s.
	Process(ctx context.Context, s *scene.Scene) Status
}

// BaseEngine provides no-op Setup/Terminate/Prepare implementations so
// concrete engines only need to implement Process, matching how most of
// the teacher's engine wrappers have no real prepare step.
type BaseEngine struct{}

func (BaseEngine) Setup() Status { return OK }
func (BaseEngine) Terminate()    {}
func (BaseEngine) Prepare(context.Context, *scene.Scene) Status { return OK }
