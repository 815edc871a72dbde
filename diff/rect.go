// Package diff implements the frame-diff engine: given two consecutive
// frames, it produces a list of rectangular dirty regions each at most
// 255x255 — the largest box a region encoder's one-byte w/h fields can
// hold — via a connected-components pipeline over the pixel delta.
package diff

import "github.com/BasementCat/animated-badge/pixel"

// splitBox recursively halves a box's larger-than-255 axis until both
// width and height fit in a byte (split width first, then height; halves
// via floor/remainder so the two pieces always sum back to the original
// span).
func splitBox(x, y, w, h int) []pixel.Rect {
	if w > 255 {
		half := w / 2
		out := splitBox(x, y, half, h)
		out = append(out, splitBox(x+half, y, w-half, h)...)
		return out
	}
	if h > 255 {
		half := h / 2
		out := splitBox(x, y, w, half)
		out = append(out, splitBox(x, y+half, w, h-half)...)
		return out
	}
	return []pixel.Rect{{X: x, Y: y, W: w, H: h}}
}

// upscaleBox converts a bounding box computed at the reduced (scale=0.25)
// resolution back to full-frame coordinates: floor for the origin, ceil
// for the extent, so the upscaled box always fully covers the original.
func upscaleBox(x, y, w, h int, scaleUp float64) (int, int, int, int) {
	fx := floorMul(x, scaleUp)
	fy := floorMul(y, scaleUp)
	fw := ceilMul(w, scaleUp)
	fh := ceilMul(h, scaleUp)
	return fx, fy, fw, fh
}

func floorMul(v int, scale float64) int {
	f := float64(v) * scale
	i := int(f)
	if f < float64(i) {
		i--
	}
	return i
}

func ceilMul(v int, scale float64) int {
	f := float64(v) * scale
	i := int(f)
	if f > float64(i) {
		i++
	}
	return i
}

// connectedComponentStat mirrors a single row of OpenCV's
// connectedComponentsWithStats output: [x, y, w, h, area]. Label 0 (the
// background component) is skipped by callers.
type connectedComponentStat struct {
	X, Y, W, H int
}

// boxesFromStats upscales each reduced-resolution connected-component box
// to full-frame coordinates, then recursively splits any box whose width
// or height exceeds 255.
func boxesFromStats(stats []connectedComponentStat, scaleUp float64) []pixel.Rect {
	var out []pixel.Rect
	for _, s := range stats {
		x, y, w, h := upscaleBox(s.X, s.Y, s.W, s.H, scaleUp)
		out = append(out, splitBox(x, y, w, h)...)
	}
	return out
}
