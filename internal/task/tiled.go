package task

import (
	"image"
	"sync"
)

// TileIterator walks a frame emitting rectangular tiles of (width, height)
// stepping by (strideX, strideY); only tiles that fit entirely within the
// frame are emitted (§4.5 Tiled).
type TileIterator struct {
	mu                        sync.Mutex
	frame                     image.Rectangle
	tileW, tileH              int
	strideX, strideY          int
	x, y                      int
}

// NewTileIterator returns a TileIterator over frame with the given tile
// size and stride.
func NewTileIterator(frame image.Rectangle, tileW, tileH, strideX, strideY int) *TileIterator {
	return &TileIterator{
		frame:   frame,
		tileW:   tileW,
		tileH:   tileH,
		strideX: strideX,
		strideY: strideY,
		x:       frame.Min.X,
		y:       frame.Min.Y,
	}
}

// Next returns the next tile rectangle, or ok=false once the frame has
// been fully walked.
func (t *TileIterator) Next() (image.Rectangle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		if t.y+t.tileH > t.frame.Max.Y {
			return image.Rectangle{}, false
		}
		if t.x+t.tileW > t.frame.Max.X {
			t.x = t.frame.Min.X
			t.y += t.strideY
			continue
		}
		r := image.Rect(t.x, t.y, t.x+t.tileW, t.y+t.tileH)
		t.x += t.strideX
		return r, true
	}
}
