package tracker

import (
	"math"

	"github.com/your-org/vpp/internal/core"
	"github.com/your-org/vpp/internal/scene"
	"github.com/your-org/vpp/internal/task"
)

// Measure scores how likely src and dst are the same tracked object; the
// Matcher computes one such score per (src, dst) pair.
type Measure func(src, dst *scene.Zone) float32

// IoUMeasure is the default Measure, comparing bounding boxes.
func IoUMeasure(src, dst *scene.Zone) float32 {
	return src.BBox.IoU(dst.BBox)
}

// Granularity controls how a Matcher fans its (src, dst) pair evaluation
// out across workers.
type Granularity int

const (
	// GranularityMeasure runs one task per (src, dst) pair.
	GranularityMeasure Granularity = -1
	// GranularityRow runs one task per source row.
	GranularityRow Granularity = 0
	// GranularityGlobal runs the whole matrix inline, in one task.
	GranularityGlobal Granularity = 1
)

// Match is one accepted (src, dst) pairing with its score.
type Match struct {
	Src, Dst int
	Score    float32
}

// Matcher computes a similarity matrix between two slices of zones and
// greedily extracts the best pairings from it (§4.6 Matcher).
type Matcher struct {
	Granularity Granularity
	Workers     int
	Measure     Measure
}

// NewMatcher returns a Matcher defaulting to row granularity, 8 workers,
// and IoUMeasure.
func NewMatcher() *Matcher {
	return &Matcher{Granularity: GranularityRow, Workers: 8, Measure: IoUMeasure}
}

// compute fills a rows-by-cols similarity matrix, fanning out across
// workers according to m.Granularity.
func (m *Matcher) compute(src, dst []*scene.Zone) [][]float32 {
	rows, cols := len(src), len(dst)
	scores := make([][]float32, rows)
	for i := range scores {
		scores[i] = make([]float32, cols)
	}
	if rows == 0 || cols == 0 {
		return scores
	}

	measure := m.Measure
	if measure == nil {
		measure = IoUMeasure
	}

	switch m.Granularity {
	case GranularityGlobal:
		single := task.NewSingle(task.Mode(0))
		single.Start(func() core.Status {
			for i, s := range src {
				for j, d := range dst {
					scores[i][j] = measure(s, d)
				}
			}
			return core.OK
		})
		single.Wait()

	case GranularityMeasure:
		type pair struct{ i, j int }
		pairs := make([]pair, 0, rows*cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				pairs = append(pairs, pair{i, j})
			}
		}
		it := task.NewSliceIterator(pairs)
		list := task.NewList[pair](task.Mode(m.workers()), it, func(p pair) core.Status {
			scores[p.i][p.j] = measure(src[p.i], dst[p.j])
			return core.OK
		})
		list.Start()
		list.Wait()

	default: // GranularityRow
		rowIdx := make([]int, rows)
		for i := range rowIdx {
			rowIdx[i] = i
		}
		it := task.NewSliceIterator(rowIdx)
		list := task.NewList[int](task.Mode(m.workers()), it, func(i int) core.Status {
			for j, d := range dst {
				scores[i][j] = measure(src[i], d)
			}
			return core.OK
		})
		list.Start()
		list.Wait()
	}

	return scores
}

func (m *Matcher) workers() int {
	if m.Workers <= 0 {
		return 8
	}
	return m.Workers
}

// Match computes the similarity matrix between src and dst and greedily
// extracts the best pairings above threshold. If exclusiveDst is set, a
// destination may appear in at most one match; likewise exclusiveSrc for
// sources. Ties are broken in row-major scan order, keeping the first
// maximum encountered — matching cv::minMaxLoc's behaviour over a masked
// matrix in the original.
func (m *Matcher) Match(src, dst []*scene.Zone, threshold float32, exclusiveDst, exclusiveSrc bool) []Match {
	scores := m.compute(src, dst)
	return Extract(scores, threshold, exclusiveDst, exclusiveSrc)
}

// Extract greedily pulls the globally-best remaining (src, dst) pair
// from scores, repeating until the best remaining score falls below
// threshold or every row/col has been exhausted by exclusivity.
func Extract(scores [][]float32, threshold float32, exclusiveDst, exclusiveSrc bool) []Match {
	rows := len(scores)
	if rows == 0 {
		return nil
	}
	cols := len(scores[0])
	masked := make([][]bool, rows)
	for i := range masked {
		masked[i] = make([]bool, cols)
	}

	var matches []Match
	for {
		best := float32(-math.MaxFloat32)
		bi, bj := -1, -1
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				if masked[i][j] {
					continue
				}
				if scores[i][j] > best {
					best = scores[i][j]
					bi, bj = i, j
				}
			}
		}
		if bi < 0 || best < threshold {
			return matches
		}

		matches = append(matches, Match{Src: bi, Dst: bj, Score: best})
		masked[bi][bj] = true
		if exclusiveSrc {
			for j := 0; j < cols; j++ {
				masked[bi][j] = true
			}
		}
		if exclusiveDst {
			for i := 0; i < rows; i++ {
				masked[i][bj] = true
			}
		}
	}
}
