package vision

import (
	"image"
	"image/color"
	"testing"
)

func solidRGBA(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestImageToFloat32CHWSolidColourNormalises(t *testing.T) {
	img := solidRGBA(4, 4, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	data := imageToFloat32CHW(img, 2, 2, [3]float32{127.5, 127.5, 127.5}, [3]float32{127.5, 127.5, 127.5})

	if len(data) != 3*2*2 {
		t.Fatalf("len(data) = %d, want %d", len(data), 3*2*2)
	}

	// Red channel plane: (255-127.5)/127.5 ~= 1.0
	for i := 0; i < 4; i++ {
		if got := data[i]; got < 0.99 || got > 1.01 {
			t.Errorf("red plane[%d] = %v, want ~1.0", i, got)
		}
	}
	// Green/blue planes: (0-127.5)/127.5 = -1.0
	for i := 4; i < 8; i++ {
		if got := data[i]; got < -1.01 || got > -0.99 {
			t.Errorf("green plane[%d] = %v, want ~-1.0", i, got)
		}
	}
}

func TestImageToFloat32CHWYCbCrFastPath(t *testing.T) {
	img := image.NewYCbCr(image.Rect(0, 0, 4, 4), image.YCbCrSubsampleRatio420)
	for i := range img.Y {
		img.Y[i] = 200
	}
	for i := range img.Cb {
		img.Cb[i] = 128
	}
	for i := range img.Cr {
		img.Cr[i] = 128
	}

	data := imageToFloat32CHW(img, 2, 2, [3]float32{0, 0, 0}, [3]float32{1, 1, 1})
	if len(data) != 3*2*2 {
		t.Fatalf("len(data) = %d, want %d", len(data), 3*2*2)
	}
	// Grey Y=200, Cb=Cr=128 should decode to roughly R=G=B=200.
	if got := data[0]; got < 195 || got > 205 {
		t.Errorf("R[0] = %v, want ~200", got)
	}
}

func TestCropFaceSubImageSharesSourceBuffer(t *testing.T) {
	img := solidRGBA(100, 100, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	cropped := cropFace(img, [4]float32{40, 40, 60, 60})
	if cropped == nil {
		t.Fatal("cropFace returned nil")
	}
	b := cropped.Bounds()
	// 20x20 box + 10% padding each side (2px) -> 24x24.
	if b.Dx() != 24 || b.Dy() != 24 {
		t.Errorf("cropped bounds = %v, want 24x24", b)
	}
	img.Set(45, 45, color.RGBA{R: 99, A: 255})
	if r, _, _, _ := cropped.At(45, 45).RGBA(); r>>8 != 99 {
		t.Errorf("crop pixel R = %d after writing the source, want 99 (shared buffer)", r>>8)
	}
}

func TestCropFaceClampsToImageBounds(t *testing.T) {
	img := solidRGBA(50, 50, color.RGBA{A: 255})
	cropped := cropFace(img, [4]float32{0, 0, 50, 50})
	if cropped == nil {
		t.Fatal("cropFace returned nil")
	}
	b := cropped.Bounds()
	if b.Dx() > 50 || b.Dy() > 50 {
		t.Errorf("cropped bounds = %v, want clamped to 50x50", b)
	}
}

func TestCropFaceDegenerateBBoxReturnsNil(t *testing.T) {
	img := solidRGBA(50, 50, color.RGBA{A: 255})
	if got := cropFace(img, [4]float32{10, 10, 10, 10}); got != nil {
		t.Errorf("cropFace(degenerate) = %v, want nil", got)
	}
}

func TestPreprocessForDetectionProducesExpectedShape(t *testing.T) {
	img := solidRGBA(8, 8, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	data := preprocessForDetection(img, 640, 640)
	if len(data) != 3*640*640 {
		t.Errorf("len(data) = %d, want %d", len(data), 3*640*640)
	}
}
