package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameterConfigurableLocksAfterLock(t *testing.T) {
	p := NewParameter("threshold", Configurable, Immediate, 0.3)

	require.NoError(t, p.Set(0.5))
	assert.InDelta(t, 0.5, p.Get(), 1e-9)

	p.Lock()
	err := p.Set(0.9)
	assert.Error(t, err)
	assert.InDelta(t, 0.5, p.Get(), 1e-9, "rejected set must not change the value")
}

func TestParameterSettableIgnoresLock(t *testing.T) {
	p := NewParameter("bypass", Settable, Immediate, false)
	p.Lock()
	require.NoError(t, p.Set(true))
	assert.True(t, p.Get())
}

func TestParameterLockedTraitNeverSettable(t *testing.T) {
	p := NewParameter("name", Locked, Immediate, "detector")
	assert.Error(t, p.Set("other"))
}

func TestParameterCallablePolicyRequiresLockFirst(t *testing.T) {
	p := NewParameter("recall", Settable, Callable, float32(1.0))

	assert.Error(t, p.Set(0.8), "callable policy must reject a set before locking")
	p.Lock()
	require.NoError(t, p.Set(0.8))
	assert.InDelta(t, float32(0.8), p.Get(), 1e-9)
}

func TestParameterValidatorRejectsOutOfRange(t *testing.T) {
	p := NewParameter("recall", Settable, Immediate, float32(1.0)).Validates(Range(float32(0), float32(1)))
	assert.Error(t, p.Set(1.5))
	assert.NoError(t, p.Set(0.2))
}

func TestParameterTriggerRunsOnAcceptedSet(t *testing.T) {
	var seen int
	p := NewParameter("workers", Settable, Immediate, 1).Triggers(func(v int) { seen = v })
	require.NoError(t, p.Set(4))
	assert.Equal(t, 4, seen)
}

func TestParameterSetAnyRejectsWrongType(t *testing.T) {
	p := NewParameter("threshold", Settable, Immediate, 0.3)
	var h Handle = p
	assert.Error(t, h.SetAny("not a float"))
	assert.NoError(t, h.SetAny(0.6))
}

func TestNodeResolveAndLockCascades(t *testing.T) {
	root := NewNode("pipeline", KindPipeline)
	detector := NewNode("detector", KindEngine)
	threshold := NewParameter("threshold", Configurable, Immediate, 0.3).Validates(Range(0.0, 1.0))
	detector.Expose(threshold)
	root.AddChild(detector)

	h, err := root.Resolve("detector.threshold")
	require.NoError(t, err)
	assert.Equal(t, 0.3, h.Value())

	require.NoError(t, root.Set("detector.threshold", 0.5))
	v, err := root.Get("detector.threshold")
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)

	root.Lock()
	assert.True(t, detector.Locked())
	assert.Error(t, root.Set("detector.threshold", 0.9))
}

func TestNodeResolveUnknownPath(t *testing.T) {
	root := NewNode("pipeline", KindPipeline)
	_, err := root.Resolve("missing.thing")
	assert.Error(t, err)
}

func TestNodeWalkVisitsEveryParameterByPath(t *testing.T) {
	root := NewNode("pipeline", KindPipeline)
	stage := NewNode("tracker", KindStage)
	stage.Expose(NewParameter("recall", Settable, Immediate, float32(1.0)))
	stage.Expose(NewParameter("maxMisses", Settable, Immediate, 5))
	root.AddChild(stage)

	var paths []string
	root.Walk("", func(path string, h Handle) bool {
		paths = append(paths, path)
		return true
	})
	assert.ElementsMatch(t, []string{"tracker.maxMisses", "tracker.recall"}, paths)
}
