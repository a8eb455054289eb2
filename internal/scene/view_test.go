package scene

import (
	"image"
	"image/color"
	"testing"
)

func TestViewUseFixesFrameFromFirstImage(t *testing.T) {
	v := NewView()
	src := solidImage(10, 5, color.NRGBA{A: 255})
	if err := v.Use(src, BGR); err != nil {
		t.Fatal(err)
	}
	if v.Frame() != image.Rect(0, 0, 10, 5) {
		t.Errorf("Frame() = %v, want 10x5", v.Frame())
	}
	if v.Empty() {
		t.Error("View should not be empty after Use")
	}
}

func TestViewUseRejectsConflictingReinsert(t *testing.T) {
	v := NewView()
	a := solidImage(2, 2, color.NRGBA{R: 1, A: 255})
	b := solidImage(2, 2, color.NRGBA{R: 2, A: 255})
	if err := v.Use(a, BGR); err != nil {
		t.Fatal(err)
	}
	if err := v.Use(b, BGR); err == nil {
		t.Fatal("expected an error re-registering BGR with different pixel data")
	}
}

func TestViewUseSameDataIsNoop(t *testing.T) {
	v := NewView()
	a := solidImage(2, 2, color.NRGBA{R: 1, A: 255})
	if err := v.Use(a, BGR); err != nil {
		t.Fatal(err)
	}
	if err := v.Use(a, BGR); err != nil {
		t.Errorf("re-registering identical pixel data should be a no-op, got %v", err)
	}
}

func TestViewUseDepthRejectsDowngrade(t *testing.T) {
	v := NewView()
	depth := make([]float32, 4)
	if err := v.UseDepth(depth, 2, 2, DEPTHF, Projector{}); err != nil {
		t.Fatal(err)
	}
	if err := v.UseDepth(depth, 2, 2, DEPTH16, Projector{}); err == nil {
		t.Fatal("expected an error downgrading from DEPTHF to DEPTH16")
	}
}

func TestViewImageMaterialisesAndCaches(t *testing.T) {
	v := NewView()
	src := solidImage(4, 4, color.NRGBA{R: 100, G: 150, B: 200, A: 255})
	if err := v.Use(src, BGR); err != nil {
		t.Fatal(err)
	}
	hsv, err := v.Image(HSV)
	if err != nil {
		t.Fatal(err)
	}
	if hsv.Mode() != HSV {
		t.Errorf("Mode() = %v, want HSV", hsv.Mode())
	}
	if v.Cached(HSV) != hsv {
		t.Error("Image() should cache the converted result")
	}
}

func TestViewImageFailsWithoutColourSource(t *testing.T) {
	v := NewView()
	if _, err := v.Image(BGR); err == nil {
		t.Fatal("expected an error materialising BGR with no source registered")
	}
}

func TestViewDepthAtAndDepthRect(t *testing.T) {
	v := NewView()
	depth := []float32{1, 2, 3, 4}
	if err := v.UseDepth(depth, 2, 2, DEPTHF, Projector{}); err != nil {
		t.Fatal(err)
	}
	if got := v.DepthAt(0, 0); got != 1 {
		t.Errorf("DepthAt(0,0) = %v, want 1", got)
	}
	if got := v.DepthRect(image.Rect(0, 0, 2, 2)); got != 2.5 {
		t.Errorf("DepthRect(full) = %v, want mean 2.5", got)
	}
}

func TestViewDepthAtWithoutDepthReturnsSentinel(t *testing.T) {
	v := NewView()
	if got := v.DepthAt(0, 0); got != -1 {
		t.Errorf("DepthAt without a depth image = %v, want -1", got)
	}
}
