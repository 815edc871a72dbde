package diff

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/BasementCat/animated-badge/pixel"
)

func TestSplitBoxWidth(t *testing.T) {
	got := splitBox(0, 0, 600, 100)
	want := []pixel.Rect{
		{X: 0, Y: 0, W: 150, H: 100},
		{X: 150, Y: 0, W: 150, H: 100},
		{X: 300, Y: 0, W: 150, H: 100},
		{X: 450, Y: 0, W: 150, H: 100},
	}
	if !cmp.Equal(got, want) {
		t.Fatalf("mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
}

func TestSplitBoxNoSplitNeeded(t *testing.T) {
	got := splitBox(10, 20, 200, 200)
	want := []pixel.Rect{{X: 10, Y: 20, W: 200, H: 200}}
	if !cmp.Equal(got, want) {
		t.Fatalf("mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
}

func TestSplitBoxAllBoundedBy255(t *testing.T) {
	for _, r := range splitBox(0, 0, 1000, 1000) {
		if r.W > 255 || r.H > 255 || r.W < 1 || r.H < 1 {
			t.Fatalf("out-of-bounds rect: %+v", r)
		}
	}
}

func TestUpscaleBoxFloorCeil(t *testing.T) {
	x, y, w, h := upscaleBox(1, 2, 3, 3, 4.0)
	if x != 4 || y != 8 || w != 12 || h != 12 {
		t.Fatalf("got (%d,%d,%d,%d)", x, y, w, h)
	}
}
