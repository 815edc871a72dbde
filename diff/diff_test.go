package diff

import (
	"testing"

	"github.com/BasementCat/animated-badge/pixel"
)

func solidFrame(w, h int, c pixel.RGB) *pixel.Frame {
	f := pixel.NewFrame(w, h, 0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Set(x, y, c)
		}
	}
	return f
}

func TestRectsIdenticalFramesNoRegions(t *testing.T) {
	a := solidFrame(64, 64, pixel.RGB{R: 10, G: 10, B: 10})
	b := solidFrame(64, 64, pixel.RGB{R: 10, G: 10, B: 10})
	rects, err := Rects(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if len(rects) != 0 {
		t.Fatalf("expected no dirty regions for identical frames, got %+v", rects)
	}
}

func TestRectsDetectsChangedBlock(t *testing.T) {
	a := solidFrame(64, 64, pixel.RGB{R: 0, G: 0, B: 0})
	b := solidFrame(64, 64, pixel.RGB{R: 0, G: 0, B: 0})
	for y := 20; y < 40; y++ {
		for x := 20; x < 40; x++ {
			b.Set(x, y, pixel.RGB{R: 255, G: 255, B: 255})
		}
	}
	rects, err := Rects(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if len(rects) == 0 {
		t.Fatal("expected at least one dirty region")
	}
	for _, r := range rects {
		if r.W > 255 || r.H > 255 {
			t.Fatalf("rect exceeds 255 bound: %+v", r)
		}
	}
}

func TestRectsMismatchedSize(t *testing.T) {
	a := solidFrame(10, 10, pixel.RGB{})
	b := solidFrame(20, 10, pixel.RGB{})
	if _, err := Rects(a, b); err == nil {
		t.Fatal("expected error for mismatched frame sizes")
	}
}
