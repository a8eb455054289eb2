package scene

import (
	"fmt"
	"image"
)

// View is a collection of Images in different modes captured at one
// instant, with cached conversions and an optional depth map + projector
// for 2D<->3D work.
type View struct {
	images     map[Mode]*Image
	boundaries image.Rectangle
	depthMode  Mode
	projector  Projector
	neighbourhood []int
}

// defaultNeighbourhood is the ring-radius search order used by DepthAt's
// hole-filling fallback (§4.2).
var defaultNeighbourhood = []int{0, 4, 8, 16, 32, 64, 128}

// NewView returns an empty View.
func NewView() *View {
	return &View{images: make(map[Mode]*Image), neighbourhood: defaultNeighbourhood}
}

// Empty reports whether no image has been registered yet.
func (v *View) Empty() bool {
	return len(v.images) == 0
}

// Frame returns the rectangle established by the first inserted image.
func (v *View) Frame() image.Rectangle {
	return v.boundaries
}

// Use registers an original colour/gray buffer under mode. The first
// inserted image fixes the View's frame. Re-inserting the same mode is a
// no-op only when the buffer is pixel-identical to what is cached;
// otherwise it fails with ErrInvalidRequest-equivalent error.
func (v *View) Use(src image.Image, mode Mode) error {
	if existing, ok := v.images[mode]; ok {
		if !imagesEqual(existing.Input(), src) {
			return fmt.Errorf("scene: mode %s already registered with different data: %w", mode, errInvalidRequest)
		}
		return nil
	}
	img, err := NewColourImage(src, mode)
	if err != nil {
		return err
	}
	if v.Empty() {
		v.boundaries = img.Frame()
	}
	v.images[mode] = img
	return nil
}

// UseDepth registers a depth plane and the projector used to convert it
// to/from 3D. A depth image can only be replaced by a strictly more
// precise form (DEPTH16 -> DEPTHF).
func (v *View) UseDepth(depth []float32, w, h int, mode Mode, p Projector) error {
	if existing, ok := v.images[v.depthMode]; ok && v.depthMode != 0 {
		if !(existing.Mode() == DEPTH16 && mode == DEPTHF) {
			return fmt.Errorf("scene: depth already set to %s, cannot replace with %s: %w", existing.Mode(), mode, errInvalidRequest)
		}
	}
	img, err := NewDepthImage(depth, w, h, mode)
	if err != nil {
		return err
	}
	if v.Empty() {
		v.boundaries = img.Frame()
	}
	v.images[mode] = img
	v.depthMode = mode
	v.projector = p
	return nil
}

var errInvalidRequest = fmt.Errorf("invalid request")

func imagesEqual(a, b image.Image) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Bounds() != b.Bounds() {
		return false
	}
	bnd := a.Bounds()
	for y := bnd.Min.Y; y < bnd.Max.Y; y++ {
		for x := bnd.Min.X; x < bnd.Max.X; x++ {
			if a.At(x, y) != b.At(x, y) {
				return false
			}
		}
	}
	return true
}

// Cached returns the already-materialised image for mode, or nil.
func (v *View) Cached(mode Mode) *Image {
	return v.images[mode]
}

// CachedColour returns whichever colour image is already cached, BGR
// preferred, or nil if none exists yet.
func (v *View) CachedColour() *Image {
	for _, m := range []Mode{BGR, HSV, YUV, YCrCb, GRAY} {
		if img, ok := v.images[m]; ok {
			return img
		}
	}
	return nil
}

// CachedDepth returns the cached depth image, or nil.
func (v *View) CachedDepth() *Image {
	if v.depthMode == 0 {
		return nil
	}
	return v.images[v.depthMode]
}

// ImageUncached returns mode's image over roi without caching the result:
// BGR is materialised from whatever colour source exists if needed, then
// the target mode is derived from BGR, but the returned sub-image is fresh
// each call.
func (v *View) ImageUncached(mode Mode, roi image.Rectangle) (*Image, error) {
	bgr, err := v.ensureBGR()
	if err != nil {
		return nil, err
	}
	if mode == BGR {
		return bgr.Translate(BGR, roi, 1, 0)
	}
	return bgr.Translate(mode, roi, 1, 0)
}

// Image returns mode's image, materialising and caching BGR (and then
// mode, if different) on first access.
func (v *View) Image(mode Mode) (*Image, error) {
	if img, ok := v.images[mode]; ok {
		return img, nil
	}
	return v.Cache(mode)
}

// Cache forces materialisation (and caching) of mode.
func (v *View) Cache(mode Mode) (*Image, error) {
	bgr, err := v.ensureBGR()
	if err != nil {
		return nil, err
	}
	if mode == BGR {
		return bgr, nil
	}
	converted, err := bgr.Translate(mode, image.Rectangle{}, 1, 0)
	if err != nil {
		return nil, err
	}
	v.images[mode] = converted
	return converted, nil
}

func (v *View) ensureBGR() (*Image, error) {
	if bgr, ok := v.images[BGR]; ok {
		return bgr, nil
	}
	src := v.CachedColour()
	if src == nil {
		return nil, fmt.Errorf("scene: no colour source registered: %w", ErrUnsupported)
	}
	bgr, err := src.Translate(BGR, image.Rectangle{}, 1, 0)
	if err != nil {
		return nil, err
	}
	v.images[BGR] = bgr
	return bgr, nil
}

// BGR is a shortcut for Image(BGR).
func (v *View) BGR() (*Image, error) { return v.Image(BGR) }

// HSV is a shortcut for Image(HSV).
func (v *View) HSV() (*Image, error) { return v.Image(HSV) }

// YUV is a shortcut for Image(YUV).
func (v *View) YUV() (*Image, error) { return v.Image(YUV) }

// YCC is a shortcut for Image(YCrCb).
func (v *View) YCC() (*Image, error) { return v.Image(YCrCb) }

// Gray is a shortcut for Image(GRAY).
func (v *View) Gray() (*Image, error) { return v.Image(GRAY) }

// DepthAt returns the depth at a single pixel, or -1 if it falls outside
// the depth frame.
func (v *View) DepthAt(x, y int) float32 {
	d := v.CachedDepth()
	if d == nil {
		return -1
	}
	return d.DepthAt(x, y)
}

// DepthRect returns the mean depth over the rectangle's positive-depth
// pixels, or -1 if none are positive.
func (v *View) DepthRect(r image.Rectangle) float32 {
	d := v.CachedDepth()
	if d == nil {
		return -1
	}
	var sum float32
	var n int
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			s := d.DepthAt(x, y)
			if s > 0 {
				sum += s
				n++
			}
		}
	}
	if n == 0 {
		return -1
	}
	return sum / float32(n)
}

// Deproject converts a pixel into a 3D point, falling back to a
// ring-neighbourhood search (radii 0,4,8,16,32,64,128) to fill holes in
// the depth map.
func (v *View) Deproject(x, y int) ([3]float32, bool) {
	d := v.CachedDepth()
	if d == nil {
		return [3]float32{}, false
	}
	for _, radius := range v.neighbourhood {
		if z, ok := meanDepthInRing(d, x, y, radius); ok {
			return v.projector.Deproject(x, y, z), true
		}
	}
	return [3]float32{}, false
}

func meanDepthInRing(d *Image, cx, cy, radius int) (float32, bool) {
	if radius == 0 {
		z := d.DepthAt(cx, cy)
		if z > 0 {
			return z, true
		}
		return 0, false
	}
	var sum float32
	var n int
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			// Ring, not disc: only the outer boundary of this radius.
			if max(abs(x-cx), abs(y-cy)) != radius {
				continue
			}
			z := d.DepthAt(x, y)
			if z > 0 {
				sum += z
				n++
			}
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float32(n), true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
