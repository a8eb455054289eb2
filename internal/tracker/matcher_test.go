package tracker

import (
	"testing"

	"github.com/your-org/vpp/internal/scene"
)

func TestExtractPicksGlobalMaxFirst(t *testing.T) {
	scores := [][]float32{
		{0.1, 0.9},
		{0.8, 0.2},
	}
	matches := Extract(scores, 0.0, true, true)
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].Src != 0 || matches[0].Dst != 1 {
		t.Errorf("first match = %+v, want the global max at (0,1)", matches[0])
	}
}

func TestExtractRowMajorTieBreakKeepsFirstSeen(t *testing.T) {
	scores := [][]float32{
		{0.5, 0.5},
	}
	matches := Extract(scores, 0.0, true, true)
	if len(matches) != 1 || matches[0].Dst != 0 {
		t.Errorf("tie-break match = %+v, want the first-seen max at col 0", matches)
	}
}

func TestExtractStopsBelowThreshold(t *testing.T) {
	scores := [][]float32{{0.1, 0.2}}
	matches := Extract(scores, 0.5, true, true)
	if len(matches) != 0 {
		t.Errorf("len(matches) = %d, want 0 when nothing clears threshold", len(matches))
	}
}

func TestExtractExclusiveDstPreventsReuse(t *testing.T) {
	scores := [][]float32{
		{0.9, 0.1},
		{0.8, 0.1},
	}
	matches := Extract(scores, 0.0, true, false)
	dstSeen := map[int]bool{}
	for _, m := range matches {
		if dstSeen[m.Dst] {
			t.Fatalf("dst %d matched more than once with exclusiveDst set", m.Dst)
		}
		dstSeen[m.Dst] = true
	}
}

func TestExtractNonExclusiveAllowsReuse(t *testing.T) {
	scores := [][]float32{
		{0.9, 0.1},
		{0.9, 0.1},
	}
	matches := Extract(scores, 0.0, false, false)
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2 (both rows may match col 0 without exclusivity)", len(matches))
	}
}

func TestExtractEmptyScoresReturnsNil(t *testing.T) {
	if got := Extract(nil, 0, true, true); got != nil {
		t.Errorf("Extract(nil) = %v, want nil", got)
	}
}

func TestIoUMeasureMatchesBBoxIoU(t *testing.T) {
	a := scene.NewZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10})
	b := scene.NewZone(scene.BBox{X: 5, Y: 5, W: 10, H: 10})
	got := IoUMeasure(a, b)
	want := a.BBox.IoU(b.BBox)
	if got != want {
		t.Errorf("IoUMeasure = %v, want %v", got, want)
	}
}

func TestMatcherComputeRowGranularityMatchesGlobal(t *testing.T) {
	src := []*scene.Zone{
		scene.NewZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10}),
		scene.NewZone(scene.BBox{X: 50, Y: 50, W: 10, H: 10}),
	}
	dst := []*scene.Zone{
		scene.NewZone(scene.BBox{X: 1, Y: 1, W: 10, H: 10}),
		scene.NewZone(scene.BBox{X: 51, Y: 51, W: 10, H: 10}),
	}

	row := &Matcher{Granularity: GranularityRow, Workers: 4, Measure: IoUMeasure}
	global := &Matcher{Granularity: GranularityGlobal, Measure: IoUMeasure}

	rowScores := row.compute(src, dst)
	globalScores := global.compute(src, dst)

	for i := range rowScores {
		for j := range rowScores[i] {
			if rowScores[i][j] != globalScores[i][j] {
				t.Fatalf("row[%d][%d] = %v, global = %v, want equal", i, j, rowScores[i][j], globalScores[i][j])
			}
		}
	}
}

func TestMatcherMatchEndToEnd(t *testing.T) {
	m := NewMatcher()
	src := []*scene.Zone{scene.NewZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10})}
	dst := []*scene.Zone{scene.NewZone(scene.BBox{X: 1, Y: 1, W: 10, H: 10})}

	matches := m.Match(src, dst, 0.1, true, true)
	if len(matches) != 1 {
		t.Fatalf("len(matches) = %d, want 1", len(matches))
	}
	if matches[0].Src != 0 || matches[0].Dst != 0 {
		t.Errorf("match = %+v, want (0,0)", matches[0])
	}
}
