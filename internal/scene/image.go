package scene

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Mode identifies the colour/depth space an Image's pixels are encoded in.
type Mode int

const (
	// AMBIGUOUS marks an image whose colour space has not been fixed yet.
	AMBIGUOUS Mode = iota
	BGR
	HSV
	YUV
	YCrCb
	GRAY
	DEPTH16
	DEPTHF
	MOTION
)

func (m Mode) String() string {
	switch m {
	case AMBIGUOUS:
		return "ambiguous"
	case BGR:
		return "bgr"
	case HSV:
		return "hsv"
	case YUV:
		return "yuv"
	case YCrCb:
		return "ycrcb"
	case GRAY:
		return "gray"
	case DEPTH16:
		return "depth16"
	case DEPTHF:
		return "depthf"
	case MOTION:
		return "motion"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Channels returns the channel count fixed by m, or 0 if m is not a
// recognised mode.
func (m Mode) Channels() int {
	switch m {
	case BGR, HSV, YUV, YCrCb, AMBIGUOUS:
		return 3
	case MOTION:
		return 2
	case DEPTH16, DEPTHF, GRAY:
		return 1
	default:
		return 0
	}
}

func (m Mode) IsColour() bool { return m == BGR || m == HSV || m == YUV || m == YCrCb }
func (m Mode) IsDepth() bool  { return m == DEPTH16 || m == DEPTHF }
func (m Mode) IsGray() bool   { return m == GRAY }
func (m Mode) IsMotion() bool { return m == MOTION }
func (m Mode) Valid() bool    { return m.Channels() != 0 }

// ErrUnsupported is returned when a translation or extraction is requested
// between incompatible modes (e.g. colour <-> depth).
var ErrUnsupported = errors.New("scene: unsupported conversion")

// Channel names one plane of a given mode.
type Channel struct {
	Mode  Mode
	Index int
}

func (c Channel) valid() bool {
	return c.Index >= 0 && c.Index < c.Mode.Channels()
}

// Image is a typed pixel buffer plus a lazily-materialised drawable copy.
// Colour-space translation happens on demand via Translate.
type Image struct {
	mode     Mode
	frame    image.Rectangle
	original image.Image // populated when mode is a colour or gray mode
	depth    []float32   // populated when mode is a depth mode, row-major meters
	drawable *image.NRGBA
}

// NewColourImage wraps an already-decoded colour or grayscale image under
// the given mode.
func NewColourImage(src image.Image, mode Mode) (*Image, error) {
	if !mode.IsColour() && !mode.IsGray() {
		return nil, fmt.Errorf("scene: mode %s is not a colour/gray mode: %w", mode, ErrUnsupported)
	}
	return &Image{mode: mode, frame: src.Bounds(), original: src}, nil
}

// NewDepthImage wraps a row-major plane of per-pixel depth samples (in
// meters) under DEPTH16 or DEPTHF.
func NewDepthImage(depth []float32, w, h int, mode Mode) (*Image, error) {
	if !mode.IsDepth() {
		return nil, fmt.Errorf("scene: mode %s is not a depth mode: %w", mode, ErrUnsupported)
	}
	if len(depth) != w*h {
		return nil, fmt.Errorf("scene: depth plane length %d does not match %dx%d", len(depth), w, h)
	}
	return &Image{mode: mode, frame: image.Rect(0, 0, w, h), depth: depth}, nil
}

func (img *Image) Valid() bool           { return img != nil && img.mode.Valid() }
func (img *Image) Mode() Mode            { return img.mode }
func (img *Image) Frame() image.Rectangle { return img.frame }

// Input returns the original, immutable pixel buffer.
func (img *Image) Input() image.Image { return img.original }

// DepthAt returns the raw depth sample at (x,y), or -1 when out of bounds
// or unset.
func (img *Image) DepthAt(x, y int) float32 {
	if img.depth == nil || !image.Pt(x, y).In(img.frame) {
		return -1
	}
	w := img.frame.Dx()
	idx := (y-img.frame.Min.Y)*w + (x - img.frame.Min.X)
	return img.depth[idx]
}

// Drawable returns a mutable copy of the original, cloning it lazily on
// first access — a "borrow mutably, first access clones" pattern.
func (img *Image) Drawable() (*image.NRGBA, error) {
	if img.drawable != nil {
		return img.drawable, nil
	}
	if img.original == nil {
		return nil, fmt.Errorf("scene: no drawable for depth image: %w", ErrUnsupported)
	}
	img.drawable = imaging.Clone(img.original)
	return img.drawable, nil
}

// Flush discards the drawable copy, forcing the next Drawable() call to
// re-clone the original.
func (img *Image) Flush() {
	img.drawable = nil
}

// Extract returns a single-channel plane of img within roi (roi == image.Rectangle{} selects the full frame).
func (img *Image) Extract(c Channel, roi image.Rectangle) (*image.Gray, error) {
	if !c.valid() || c.Mode != img.mode {
		return nil, fmt.Errorf("scene: channel %v does not belong to mode %s: %w", c, img.mode, ErrUnsupported)
	}
	if roi == (image.Rectangle{}) {
		roi = img.frame
	}
	cropped := imaging.Crop(img.original, roi)
	gray := image.NewGray(cropped.Bounds())
	b := cropped.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := cropped.At(x, y).RGBA()
			var v uint8
			switch {
			case img.mode.IsGray():
				v = uint8(r >> 8)
			case c.Index == 0:
				v = uint8(bl >> 8) // B
			case c.Index == 1:
				v = uint8(g >> 8) // G
			default:
				v = uint8(r >> 8) // R
			}
			gray.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return gray, nil
}

// Translatable reports whether img's mode can be translated to target,
// i.e. both are colour/gray or both are depth.
func (img *Image) Translatable(target Mode) bool {
	if img.mode.IsDepth() != target.IsDepth() {
		return false
	}
	return target.Valid()
}

// Translate converts img to target mode over roi (image.Rectangle{} for
// the whole frame), applying a linear scale/offset for depth conversions.
// Colour conversion always routes through BGR as the hub mode: a direct
// one-step conversion when BGR is either side, two steps via BGR
// otherwise. A same-mode translation performs a deep ROI copy.
func (img *Image) Translate(target Mode, roi image.Rectangle, scale, offset float32) (*Image, error) {
	if !img.Translatable(target) {
		return nil, fmt.Errorf("scene: cannot translate %s -> %s: %w", img.mode, target, ErrUnsupported)
	}
	if roi == (image.Rectangle{}) {
		roi = img.frame
	}

	if img.mode.IsDepth() {
		return img.translateDepth(target, roi, scale, offset)
	}
	return img.translateColour(target, roi)
}

func (img *Image) translateDepth(target Mode, roi image.Rectangle, scale, offset float32) (*Image, error) {
	w, h := roi.Dx(), roi.Dy()
	out := make([]float32, w*h)
	srcW := img.frame.Dx()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx := roi.Min.X + x - img.frame.Min.X
			sy := roi.Min.Y + y - img.frame.Min.Y
			v := img.depth[sy*srcW+sx]
			if v >= 0 {
				v = v*scale + offset
			}
			out[y*w+x] = v
		}
	}
	return &Image{mode: target, frame: image.Rect(0, 0, w, h), depth: out}, nil
}

func (img *Image) translateColour(target Mode, roi image.Rectangle) (*Image, error) {
	cropped := imaging.Clone(imaging.Crop(img.original, roi))

	if target == img.mode {
		return &Image{mode: target, frame: cropped.Bounds(), original: cropped}, nil
	}

	// Route through BGR: colour->BGR, BGR->colour, or colour->BGR->colour.
	bgr := cropped
	if img.mode != BGR && img.mode != GRAY {
		bgr = toBGR(cropped, img.mode)
	}
	if target == BGR {
		return &Image{mode: BGR, frame: bgr.Bounds(), original: bgr}, nil
	}
	converted := fromBGR(bgr, target)
	return &Image{mode: target, frame: converted.Bounds(), original: converted}, nil
}

// toBGR converts src (assumed to already be an RGB-backed image.Image
// tagged as mode) into a canonical BGR-tagged *image.NRGBA. Because Go's
// standard image types store channels in RGB(A) order regardless of the
// logical colour space tag, the byte layout is unchanged; only HSV/YUV/
// YCrCb sources that were produced by fromBGR need the inverse transform
// applied per-pixel.
func toBGR(src image.Image, mode Mode) *image.NRGBA {
	switch mode {
	case HSV:
		return mapPixels(src, hsvToRGB)
	case YUV:
		return mapPixels(src, yuvToRGB)
	case YCrCb:
		return mapPixels(src, yCrCbToRGB)
	default:
		return imaging.Clone(src)
	}
}

func fromBGR(src image.Image, target Mode) *image.NRGBA {
	switch target {
	case HSV:
		return mapPixels(src, rgbToHSV)
	case YUV:
		return mapPixels(src, rgbToYUV)
	case YCrCb:
		return mapPixels(src, rgbToYCrCb)
	case GRAY:
		g := imaging.Grayscale(src)
		return imaging.Clone(g)
	default:
		return imaging.Clone(src)
	}
}

func mapPixels(src image.Image, f func(r, g, b uint8) (uint8, uint8, uint8)) *image.NRGBA {
	b := src.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r8, g8, b8, a8 := colorToNRGBA(src.At(x, y))
			nr, ng, nb := f(r8, g8, b8)
			out.SetNRGBA(x, y, color.NRGBA{R: nr, G: ng, B: nb, A: a8})
		}
	}
	return out
}

func colorToNRGBA(c color.Color) (r, g, b, a uint8) {
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	return nc.R, nc.G, nc.B, nc.A
}

func rgbToHSV(r, g, b uint8) (uint8, uint8, uint8) {
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255
	maxV := math.Max(rf, math.Max(gf, bf))
	minV := math.Min(rf, math.Min(gf, bf))
	delta := maxV - minV

	var h float64
	switch {
	case delta == 0:
		h = 0
	case maxV == rf:
		h = 60 * math.Mod((gf-bf)/delta, 6)
	case maxV == gf:
		h = 60 * ((bf-rf)/delta + 2)
	default:
		h = 60 * ((rf-gf)/delta + 4)
	}
	if h < 0 {
		h += 360
	}
	var s float64
	if maxV > 0 {
		s = delta / maxV
	}
	return uint8(h / 360 * 255), uint8(s * 255), uint8(maxV * 255)
}

func hsvToRGB(h, s, v uint8) (uint8, uint8, uint8) {
	hf := float64(h) / 255 * 360
	sf := float64(s) / 255
	vf := float64(v) / 255

	c := vf * sf
	x := c * (1 - math.Abs(math.Mod(hf/60, 2)-1))
	m := vf - c

	var rf, gf, bf float64
	switch {
	case hf < 60:
		rf, gf, bf = c, x, 0
	case hf < 120:
		rf, gf, bf = x, c, 0
	case hf < 180:
		rf, gf, bf = 0, c, x
	case hf < 240:
		rf, gf, bf = 0, x, c
	case hf < 300:
		rf, gf, bf = x, 0, c
	default:
		rf, gf, bf = c, 0, x
	}
	return uint8((rf + m) * 255), uint8((gf + m) * 255), uint8((bf + m) * 255)
}

func rgbToYUV(r, g, b uint8) (uint8, uint8, uint8) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	y := 0.299*rf + 0.587*gf + 0.114*bf
	u := -0.14713*rf - 0.28886*gf + 0.436*bf + 128
	v := 0.615*rf - 0.51499*gf - 0.10001*bf + 128
	return clamp8(y), clamp8(u), clamp8(v)
}

func yuvToRGB(y, u, v uint8) (uint8, uint8, uint8) {
	yf, uf, vf := float64(y), float64(u)-128, float64(v)-128
	r := yf + 1.13983*vf
	g := yf - 0.39465*uf - 0.58060*vf
	b := yf + 2.03211*uf
	return clamp8(r), clamp8(g), clamp8(b)
}

func rgbToYCrCb(r, g, b uint8) (uint8, uint8, uint8) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	y := 0.299*rf + 0.587*gf + 0.114*bf
	cr := (rf-y)*0.713 + 128
	cb := (bf-y)*0.564 + 128
	return clamp8(y), clamp8(cr), clamp8(cb)
}

func yCrCbToRGB(y, cr, cb uint8) (uint8, uint8, uint8) {
	yf, crf, cbf := float64(y), float64(cr)-128, float64(cb)-128
	r := yf + 1.403*crf
	g := yf - 0.714*crf - 0.344*cbf
	b := yf + 1.773*cbf
	return clamp8(r), clamp8(g), clamp8(b)
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
