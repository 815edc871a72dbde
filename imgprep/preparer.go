// Package imgprep implements the image preparer: background color
// selection, letterbox resize, thumbnail generation, and the per-frame
// iterator that pairs each resized frame with its dirty-region list from
// the previous frame.
package imgprep

import (
	"image"
	"time"

	"golang.org/x/image/draw"

	"github.com/BasementCat/animated-badge/diff"
	"github.com/BasementCat/animated-badge/pixel"
)

// FrameSource is the minimal interface an animated source must satisfy.
// Decoding the underlying file format (GIF, APNG, ...) is an external
// collaborator's job; the preparer only pulls already-decoded frames.
type FrameSource interface {
	NFrame() int
	SeekFrame(i int) (image.Image, time.Duration, error)
}

// singleFrameSource adapts one still image.Image into a FrameSource.
type singleFrameSource struct {
	img image.Image
}

func (s singleFrameSource) NFrame() int { return 1 }

func (s singleFrameSource) SeekFrame(i int) (image.Image, time.Duration, error) {
	return s.img, 0, nil
}

// Target describes the output geometry and pixel depth requested by the
// caller (CLI -s/-S/-b flags).
type Target struct {
	W, H, T int
	BPP     int // 16 or 24, informational for the preparer; codecs enforce it
}

// Prepared is one resized, letterboxed frame paired with the dirty regions
// it introduces relative to the previously yielded frame. Diff is nil for
// the first frame (and always nil for the thumbnail).
type Prepared struct {
	Frame *pixel.Frame
	Diff  []pixel.Rect
}

// Preparer walks a FrameSource, producing a thumbnail (if requested) and a
// stream of Prepared frames.
type Preparer struct {
	src    FrameSource
	target Target
	bg     pixel.RGB
	bgSpec BGSpec
}

// New constructs a Preparer from a still image.
func New(img image.Image, target Target, bgSpec BGSpec) *Preparer {
	return NewFromSource(singleFrameSource{img: img}, target, bgSpec)
}

// NewFromSource constructs a Preparer from an arbitrary animated source.
func NewFromSource(src FrameSource, target Target, bgSpec BGSpec) *Preparer {
	return &Preparer{src: src, target: target, bgSpec: bgSpec}
}

// firstFrameRGB converts frame 0 to an RGB frame at its own source size,
// purely to drive background-color computation — it does not count as "the"
// first yielded frame, which is produced again (from the same source image)
// by Frames.
func (p *Preparer) firstFrameRGB() (*pixel.Frame, error) {
	img, _, err := p.src.SeekFrame(0)
	if err != nil {
		return nil, err
	}
	// Background color is computed on the source frame before any resize or
	// background-fill padding exists: letterboxing to the source's own size
	// adds no padding, so the border/common tally only looks at the
	// content's own pixels, regardless of what bg ends up being chosen.
	b := img.Bounds()
	return letterbox(img, b.Dx(), b.Dy(), pixel.RGB{}), nil
}

// Background resolves this preparer's background color, computing it once
// from the first frame if spec.Mode requires it.
func (p *Preparer) Background() (pixel.RGB, error) {
	if p.bgSpec.Mode == BGLiteral {
		return p.bgSpec.Literal, nil
	}
	first, err := p.firstFrameRGB()
	if err != nil {
		return pixel.RGB{}, err
	}
	return ComputeBackground(p.bgSpec, first), nil
}

// Thumbnail produces the T×T letterboxed thumbnail from the first frame,
// with duration 0.
func (p *Preparer) Thumbnail(bg pixel.RGB) (*pixel.Frame, error) {
	if p.target.T <= 0 {
		return nil, nil
	}
	img, _, err := p.src.SeekFrame(0)
	if err != nil {
		return nil, err
	}
	thumb := letterbox(img, p.target.T, p.target.T, bg)
	thumb.DurationMS = 0
	return thumb, nil
}

// Frames iterates every source frame, resizing/letterboxing each to the
// canonical (W,H) and pairing it with the dirty regions it introduces
// relative to the previously yielded frame (nil for the first frame). emit
// is called once per frame in order; iteration stops at the first error
// either emit or decoding returns.
func (p *Preparer) Frames(bg pixel.RGB, emit func(Prepared) error) error {
	var prev *pixel.Frame
	n := p.src.NFrame()
	for i := 0; i < n; i++ {
		img, dur, err := p.src.SeekFrame(i)
		if err != nil {
			return err
		}
		frame := letterbox(img, p.target.W, p.target.H, bg)
		frame.DurationMS = int(dur / time.Millisecond)

		var regions []pixel.Rect
		if prev != nil {
			regions, err = diff.Rects(prev, frame)
			if err != nil {
				return err
			}
		}
		if err := emit(Prepared{Frame: frame, Diff: regions}); err != nil {
			return err
		}
		prev = frame
	}
	return nil
}

// letterbox resizes src to fit within w×h, preserving aspect ratio, and
// pastes the result centered onto a w×h canvas filled with bg.
func letterbox(src image.Image, w, h int, bg pixel.RGB) *pixel.Frame {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	newW, newH := letterboxSize(srcW, srcH, w, h)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), src, bounds, draw.Src, nil)

	out := pixel.NewFrame(w, h, 0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(x, y, bg)
		}
	}
	offX, offY := centerOffset(w, h, newW, newH)
	for y := 0; y < newH; y++ {
		dy := y + offY
		if dy < 0 || dy >= h {
			continue
		}
		for x := 0; x < newW; x++ {
			dx := x + offX
			if dx < 0 || dx >= w {
				continue
			}
			c := scaled.RGBAAt(x, y)
			out.Set(dx, dy, pixel.RGB{R: c.R, G: c.G, B: c.B})
		}
	}
	return out
}
