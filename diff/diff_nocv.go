//go:build nocv

// This file is an opt-in fallback (build tag "nocv") for builders without
// OpenCV available, mirroring ausocean-av/filter/filters_circleci.go's
// pattern of swapping out gocv dependencies under a build tag. Unlike that
// file's NoOp stand-ins, frame-diffing is core domain logic here (not an
// external collaborator), so this fallback is a faithful, fully-working
// reimplementation of diff.go's pipeline rather than a stub. It runs the
// same stages, but downscales by nearest-neighbour sampling and labels
// components with 4-connectivity (OpenCV's default is 8), so its boxes can
// differ from diff.go's. The default build (no tags) uses diff.go instead.
package diff

import (
	pixelpkg "github.com/BasementCat/animated-badge/pixel"
)

const (
	scale   = 0.25
	scaleUp = 1 / scale
)

// Rects computes the dirty rectangles between two equal-sized RGB frames.
// See diff.go (default build) for the gocv-accelerated equivalent; this
// version walks the same stages (grayscale, absolute difference, downscale,
// morphological close, threshold, two-pass connected components, upscale,
// split) using plain slices.
func Rects(a, b *pixelpkg.Frame) ([]pixelpkg.Rect, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return nil, errMismatchedSize
	}
	w, h := a.Width, a.Height

	sub := subtractGray(a, b, w, h)

	sw, sh := int(float64(w)*scale), int(float64(h)*scale)
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	small := downscale(sub, w, h, sw, sh)

	closeMorph(small, sw, sh)
	closeMorph(small, sw, sh)

	bin := threshold(small)

	firstPass := connectedComponents(bin, sw, sh)

	refill := make([]bool, sw*sh)
	for _, s := range firstPass {
		fillRect(refill, sw, sh, s.X, s.Y, s.W, s.H)
	}
	secondPass := connectedComponents(refill, sw, sh)

	return boxesFromStats(secondPass, scaleUp), nil
}

func luma(r, g, b byte) byte {
	// Standard ITU-R BT.601 luma coefficients, rounded.
	v := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	if v > 255 {
		v = 255
	}
	return byte(v)
}

func subtractGray(a, b *pixelpkg.Frame, w, h int) []byte {
	out := make([]byte, w*h)
	for i := 0; i < w*h; i++ {
		ga := luma(a.Pix[i*3], a.Pix[i*3+1], a.Pix[i*3+2])
		gb := luma(b.Pix[i*3], b.Pix[i*3+1], b.Pix[i*3+2])
		// Absolute difference, matching diff.go's gocv.AbsDiff: a pixel that
		// got brighter and one that got dimmer both register.
		if ga > gb {
			out[i] = ga - gb
		} else {
			out[i] = gb - ga
		}
	}
	return out
}

func downscale(src []byte, w, h, sw, sh int) []byte {
	out := make([]byte, sw*sh)
	for y := 0; y < sh; y++ {
		sy := y * h / sh
		for x := 0; x < sw; x++ {
			sx := x * w / sw
			out[y*sw+x] = src[sy*w+sx]
		}
	}
	return out
}

// closeMorph applies dilate x3 then erode x3 in place, over a 3x3
// neighborhood, matching the gocv build's GetStructuringElement(MorphRect,
// 3x3) kernel.
func closeMorph(m []byte, w, h int) {
	for i := 0; i < 3; i++ {
		m = windowOp(m, w, h, maxOf)
	}
	for i := 0; i < 3; i++ {
		m = windowOp(m, w, h, minOf)
	}
}

func maxOf(a, b byte) byte {
	if a > b {
		return a
	}
	return b
}

func minOf(a, b byte) byte {
	if a < b {
		return a
	}
	return b
}

func windowOp(src []byte, w, h int, op func(a, b byte) byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := src[y*w+x]
			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w {
						continue
					}
					v = op(v, src[ny*w+nx])
				}
			}
			out[y*w+x] = v
		}
	}
	copy(src, out)
	return src
}

func threshold(m []byte) []bool {
	out := make([]bool, len(m))
	for i, v := range m {
		out[i] = v > 0
	}
	return out
}

func fillRect(mask []bool, w, h, x, y, rw, rh int) {
	for yy := y; yy < y+rh && yy < h; yy++ {
		for xx := x; xx < x+rw && xx < w; xx++ {
			mask[yy*w+xx] = true
		}
	}
}

// connectedComponents performs 4-connectivity flood fill over the binary
// mask, returning one bounding box per component (background excluded),
// in the order components are first discovered — deterministic, matching
// the "order is not load-bearing but must be deterministic" requirement.
func connectedComponents(mask []bool, w, h int) []connectedComponentStat {
	visited := make([]bool, len(mask))
	var out []connectedComponentStat
	stack := make([]int, 0, 64)

	for start := 0; start < len(mask); start++ {
		if !mask[start] || visited[start] {
			continue
		}
		minX, minY := w, h
		maxX, maxY := -1, -1
		stack = stack[:0]
		stack = append(stack, start)
		visited[start] = true
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := idx%w, idx/w
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
			neighbors := [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}}
			for _, n := range neighbors {
				nx, ny := n[0], n[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				ni := ny*w + nx
				if mask[ni] && !visited[ni] {
					visited[ni] = true
					stack = append(stack, ni)
				}
			}
		}
		out = append(out, connectedComponentStat{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1})
	}
	return out
}
