// Package scene holds the pure visual data model shared by the pipeline
// core and its concrete engines: Image, View, Zone, Scene and Prediction.
// It has no dependency on the pipeline driver so that both internal/core
// and internal/vision can depend on it without a cycle.
package scene

// Prediction is a single classification result: a score together with the
// dataset and class it was drawn from.
type Prediction struct {
	Score   float32
	Dataset int16
	ID      int16
}

// GID returns the global id combining dataset and class id, matching the
// original's dataset*65536+id packing.
func GID(dataset, id int16) int32 {
	return int32(dataset)*65536 + int32(id)
}

// GID returns p's global id.
func (p Prediction) GID() int32 {
	return GID(p.Dataset, p.ID)
}

// IsA reports whether p matches the given dataset/id pair.
func (p Prediction) IsA(dataset, id int16) bool {
	return p.Dataset == dataset && p.ID == id
}

// IsIn reports whether p's global id is a member of valid.
func (p Prediction) IsIn(valid map[int32]struct{}) bool {
	_, ok := valid[p.GID()]
	return ok
}

// SortPredictions orders preds by descending score, matching the Zone
// invariant that predictions is always kept in non-increasing score order.
func SortPredictions(preds []Prediction) {
	// Insertion sort: prediction lists are tiny (single digits), and this
	// keeps equal-score entries in their original relative order, which
	// matters for the "newer wins" tie-break applied by callers that
	// append before sorting.
	for i := 1; i < len(preds); i++ {
		for j := i; j > 0 && preds[j].Score > preds[j-1].Score; j-- {
			preds[j], preds[j-1] = preds[j-1], preds[j]
		}
	}
}
