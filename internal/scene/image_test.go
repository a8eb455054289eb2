package scene

import (
	"image"
	"image/color"
	"testing"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestNewColourImageRejectsDepthMode(t *testing.T) {
	src := solidImage(2, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	if _, err := NewColourImage(src, DEPTHF); err == nil {
		t.Fatal("expected an error constructing a colour image with a depth mode")
	}
}

func TestNewDepthImageRejectsMismatchedLength(t *testing.T) {
	if _, err := NewDepthImage(make([]float32, 3), 2, 2, DEPTHF); err == nil {
		t.Fatal("expected an error when the depth plane length doesn't match w*h")
	}
}

func TestDepthAtOutOfBoundsReturnsSentinel(t *testing.T) {
	img, err := NewDepthImage([]float32{1, 2, 3, 4}, 2, 2, DEPTHF)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.DepthAt(5, 5); got != -1 {
		t.Errorf("DepthAt(out of bounds) = %v, want -1", got)
	}
	if got := img.DepthAt(1, 1); got != 4 {
		t.Errorf("DepthAt(1,1) = %v, want 4", got)
	}
}

func TestDrawableClonesLazilyAndFlushResets(t *testing.T) {
	src := solidImage(3, 3, color.NRGBA{R: 9, G: 9, B: 9, A: 255})
	img, err := NewColourImage(src, BGR)
	if err != nil {
		t.Fatal(err)
	}
	d1, err := img.Drawable()
	if err != nil {
		t.Fatal(err)
	}
	d2, _ := img.Drawable()
	if d1 != d2 {
		t.Error("Drawable() should return the same cached copy on repeated calls")
	}
	img.Flush()
	d3, _ := img.Drawable()
	if d3 == d1 {
		t.Error("Drawable() after Flush should re-clone")
	}
}

func TestDrawableFailsForDepthImage(t *testing.T) {
	img, err := NewDepthImage([]float32{1, 2, 3, 4}, 2, 2, DEPTH16)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := img.Drawable(); err == nil {
		t.Fatal("expected an error asking for a drawable on a depth-only image")
	}
}

func TestTranslatableRejectsColourToDepth(t *testing.T) {
	src := solidImage(2, 2, color.NRGBA{A: 255})
	img, _ := NewColourImage(src, BGR)
	if img.Translatable(DEPTHF) {
		t.Error("a colour image should not be translatable to a depth mode")
	}
}

func TestTranslateDepthAppliesScaleAndOffset(t *testing.T) {
	img, err := NewDepthImage([]float32{1, 2, 3, 4}, 2, 2, DEPTHF)
	if err != nil {
		t.Fatal(err)
	}
	out, err := img.Translate(DEPTHF, image.Rectangle{}, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.DepthAt(0, 0); got != 3 { // 1*2+1
		t.Errorf("DepthAt(0,0) = %v, want 3", got)
	}
}

func TestTranslateColourRoundTripsThroughBGR(t *testing.T) {
	src := solidImage(4, 4, color.NRGBA{R: 200, G: 50, B: 10, A: 255})
	img, err := NewColourImage(src, BGR)
	if err != nil {
		t.Fatal(err)
	}
	hsv, err := img.Translate(HSV, image.Rectangle{}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if hsv.Mode() != HSV {
		t.Fatalf("Mode() = %v, want HSV", hsv.Mode())
	}
	back, err := hsv.Translate(BGR, image.Rectangle{}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := colorToNRGBA(back.Input().At(0, 0))
	if r < 190 || g > 70 || b > 30 {
		t.Errorf("round-tripped pixel = (%d,%d,%d), want roughly (200,50,10)", r, g, b)
	}
}

func TestModeChannelsAndClassification(t *testing.T) {
	if !BGR.IsColour() || BGR.Channels() != 3 {
		t.Error("BGR should be a 3-channel colour mode")
	}
	if !DEPTHF.IsDepth() || DEPTHF.Channels() != 1 {
		t.Error("DEPTHF should be a 1-channel depth mode")
	}
	var unknown Mode = 99
	if unknown.Valid() {
		t.Error("an unrecognised mode value should not be considered valid")
	}
}
