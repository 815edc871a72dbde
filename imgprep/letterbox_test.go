package imgprep

import (
	"image"
	"image/color"
	"testing"

	"github.com/BasementCat/animated-badge/pixel"
)

func TestLetterboxSizeWideOutputNarrowInput(t *testing.T) {
	// out_r = 2 (>=1), in_r = 1 (<=2) -> new size = (round(H*in_r), H)
	w, h := letterboxSize(100, 100, 200, 100)
	if w != 100 || h != 100 {
		t.Fatalf("got %dx%d, want 100x100", w, h)
	}
}

func TestLetterboxSizeWideOutputWideInput(t *testing.T) {
	// out_r = 1 (>=1), in_r = 2 (>1) -> new size = (W, round(W/in_r))
	w, h := letterboxSize(200, 100, 100, 100)
	if w != 100 || h != 50 {
		t.Fatalf("got %dx%d, want 100x50", w, h)
	}
}

func TestLetterboxSizeTallOutputTallInput(t *testing.T) {
	// out_r = 0.5 (<1), in_r = 0.25 (<out_r) -> new size = (round(H*in_r), H)
	w, h := letterboxSize(25, 100, 100, 200)
	if w != 50 || h != 200 {
		t.Fatalf("got %dx%d, want 50x200", w, h)
	}
}

func TestLetterboxSizeTallOutputWideInput(t *testing.T) {
	// out_r = 0.5 (<1), in_r = 2 (>=out_r) -> new size = (W, round(W/in_r))
	w, h := letterboxSize(200, 100, 100, 200)
	if w != 100 || h != 50 {
		t.Fatalf("got %dx%d, want 100x50", w, h)
	}
}

func TestCenterOffsetFloorsOddRemainder(t *testing.T) {
	x, y := centerOffset(10, 10, 3, 3)
	if x != 3 || y != 3 {
		t.Fatalf("got (%d,%d), want (3,3)", x, y)
	}
}

func TestLetterboxPadsWithBackground(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	bg := pixel.RGB{R: 1, G: 2, B: 3}
	out := letterbox(src, 4, 4, bg)
	if out.Width != 4 || out.Height != 4 {
		t.Fatalf("got %dx%d, want 4x4", out.Width, out.Height)
	}
	// Top row should be background padding (src is 4x2 scaled to fit width,
	// letterboxed into a taller square).
	top := out.At(0, 0)
	if top != bg {
		t.Fatalf("top-left = %+v, want background %+v", top, bg)
	}
}
