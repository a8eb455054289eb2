package vision

import (
	"context"

	"github.com/your-org/vpp/internal/core"
	"github.com/your-org/vpp/internal/scene"
)

// ClusterEngine is a generic zone-clustering Engine: it pulls zones
// matching Filter out of the scene, dilates (or contracts) each one by
// Ratio, joins whatever now overlaps, and marks the resulting clusters
// back in. Grounded on the original Engine::Clustering's dilate-and-join
// task, without the optional OpenCV similarity-clustering variant (no
// cv::groupRectangles equivalent is wired into this Go tree).
type ClusterEngine struct {
	core.BaseEngine

	// Filter selects which zones are eligible for clustering; zones not
	// matching Filter pass through untouched. Defaults to everything.
	Filter scene.ZoneFilter

	// Ratio dilates a zone's box before the join pass when positive, and
	// contracts it when negative. A zone that contracts to a degenerate
	// size is dropped rather than joined.
	Ratio float32

	// Cross dilates width by a ratio of height and height by a ratio of
	// width, instead of each dimension by its own ratio.
	Cross bool
}

// NewClusterEngine returns a ClusterEngine with the original's defaults:
// no dilation, matching every zone.
func NewClusterEngine() *ClusterEngine {
	return &ClusterEngine{
		Filter: func(*scene.Zone) bool { return true },
		Ratio:  0,
		Cross:  false,
	}
}

// Process extracts matching zones, dilates and joins them, and marks the
// resulting clusters back into s. Zones not matching Filter are left in
// place, untouched.
func (e *ClusterEngine) Process(_ context.Context, s *scene.Scene) core.Status {
	filter := e.Filter
	if filter == nil {
		filter = func(*scene.Zone) bool { return true }
	}

	toCluster := s.Extract(filter)
	clusters := make([]*scene.Zone, 0, len(toCluster))

	for _, z := range toCluster {
		b := z.BBox
		var dx, dy int
		if e.Cross {
			dx = int(float32(b.H) * e.Ratio)
			dy = int(float32(b.W) * e.Ratio)
			if b.W+dx <= 0 || b.H+dy <= 0 {
				continue
			}
		} else {
			dx = int(float32(b.W) * e.Ratio)
			dy = int(float32(b.H) * e.Ratio)
		}

		dilated := scene.BBox{
			X: b.X - dx/2,
			Y: b.Y - dy/2,
			W: b.W + dx,
			H: b.H + dy,
		}
		if !dilated.Valid() {
			continue
		}

		clone := *z
		clone.BBox = dilated
		clusters = append(clusters, &clone)
	}

	clusters = joinOverlapping(clusters)

	for _, c := range clusters {
		s.Mark(c)
	}

	return core.OK
}

// joinOverlapping repeatedly merges any two zones in place whose boxes
// overlap, until no pair does, matching the original's fixed-point
// dilate-and-join loop.
func joinOverlapping(zones []*scene.Zone) []*scene.Zone {
	for {
		joined := false
		for i := 0; i < len(zones); i++ {
			for j := i + 1; j < len(zones); j++ {
				if !zones[i].BBox.Overlaps(zones[j].BBox) {
					continue
				}
				zones[i].BBox = zones[i].BBox.Union(zones[j].BBox)
				zones[i].Merge(zones[j])
				zones = append(zones[:j], zones[j+1:]...)
				joined = true
				j--
			}
		}
		if !joined {
			break
		}
	}
	return zones
}
