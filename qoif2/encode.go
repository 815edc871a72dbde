package qoif2

import (
	"bytes"
	"io"

	"github.com/BasementCat/animated-badge/internal/pool"
	"github.com/BasementCat/animated-badge/internal/qoicore"
	"github.com/BasementCat/animated-badge/internal/wire"
	"github.com/BasementCat/animated-badge/pixel"
	"github.com/BasementCat/animated-badge/rle"
)

// FrameInput is one rendered output frame paired with the dirty regions
// that changed since the previously emitted frame; nil Diff means "emit the
// whole frame as a single block".
type FrameInput struct {
	Frame *pixel.Frame
	Diff  []pixel.Rect
}

// bigThreshold is the field width (65535) beyond which Block2's fields must
// use the 32-bit variant (F_BIG): the normal fields are 16-bit.
const bigThreshold = 65535

// Write encodes a complete QOIF2 stream: header, optional thumbnail block,
// one or more blocks per frame, and the 8-byte trailer. excludeTags
// disables individual op kinds ("index", "diff", "luma", "run"), a debug
// knob for exercising op selection that would otherwise never get chosen.
func Write(w io.Writer, width, height, bpp int, thumbnail *pixel.Frame, frames []FrameInput, excludeTags map[string]bool) error {
	wr := wire.NewWriter(w)
	wr.U32(Magic)
	wr.U32(uint32(width))
	wr.U32(uint32(height))
	wr.U8(uint8(bpp / 8))
	wr.U8(1) // colorspace
	wr.U8(headerVersion)
	if wr.Err() != nil {
		return wr.Err()
	}

	state := qoicore.NewState()

	if thumbnail != nil {
		if err := writeBlock(wr, state, bpp, thumbnail, 0, 0, thumbnail.Width, thumbnail.Height, FThumb|FStart|FEnd, 0, excludeTags); err != nil {
			return err
		}
	}

	for _, fi := range frames {
		diff := fi.Diff
		if diff == nil {
			diff = []pixel.Rect{{X: 0, Y: 0, W: fi.Frame.Width, H: fi.Frame.Height}}
		}
		for i, r := range diff {
			var flags uint8
			duration := 0
			if i == 0 {
				flags |= FStart
			}
			if i+1 == len(diff) {
				flags |= FEnd
				duration = fi.Frame.DurationMS
			}
			if err := writeBlock(wr, state, bpp, fi.Frame, r.X, r.Y, r.W, r.H, flags, duration, excludeTags); err != nil {
				return err
			}
		}
	}

	wr.Bytes(trailer[:])
	return wr.Err()
}

func writeBlock(wr *wire.Writer, state *qoicore.State, bpp int, frame *pixel.Frame, x, y, w, h int, flags uint8, durationMS int, excludeTags map[string]bool) error {
	data, err := encodeBlockData(state, bpp, frame, x, y, w, h, excludeTags)
	if err != nil {
		return err
	}

	big := x > bigThreshold || y > bigThreshold || w > bigThreshold || h > bigThreshold
	if big {
		flags |= FBig
	}

	wr.U8(flags)
	wr.U16(uint16(durationMS))
	wr.U32(uint32(len(data)))
	if big {
		wr.U32(uint32(w))
		wr.U32(uint32(h))
		wr.U32(uint32(x))
		wr.U32(uint32(y))
	} else {
		wr.U16(uint16(w))
		wr.U16(uint16(h))
		wr.U16(uint16(x))
		wr.U16(uint16(y))
	}
	wr.Bytes(data)
	return wr.Err()
}

// encodeBlockData renders the RLE-chunked, QOI-tagged op stream for the
// sub-rect (x,y,w,h) of frame. Unlike anim, blocks have no C_END marker:
// the reader instead decodes exactly w*h pixels' worth of ops.
func encodeBlockData(state *qoicore.State, bpp int, frame *pixel.Frame, x, y, w, h int, excludeTags map[string]bool) ([]byte, error) {
	buf := bytes.NewBuffer(pool.Get(w*h+8)[:0])
	wr := wire.NewWriter(buf)

	rle.Chunks(frame, x, y, w, h, maxRunChunk, true, func(c rle.Chunk) {
		if wr.Err() != nil {
			return
		}
		if c.RunLength > 1 {
			if excludeTags["run"] {
				for i := 0; i < c.RunLength; i++ {
					emitPixel(wr, state, bpp, c.Pixels[0], excludeTags)
				}
				return
			}
			emitPixel(wr, state, bpp, c.Pixels[0], excludeTags)
			repeat := c.RunLength - 1
			wr.U8(tagRun | uint8(repeat-1))
			return
		}
		for _, p := range c.Pixels {
			emitPixel(wr, state, bpp, p, excludeTags)
		}
	})
	if err := wr.Err(); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	pool.Put(buf.Bytes()[:0])
	return out, nil
}

func emitPixel(wr *wire.Writer, state *qoicore.State, bpp int, p pixel.RGB, excludeTags map[string]bool) {
	if bpp < 24 {
		px16 := pixel.RGB565(p.R, p.G, p.B)
		emitOp16(wr, state, px16, excludeTags)
		state.Observe16(px16)
		return
	}
	px := qoicore.RGBA{R: p.R, G: p.G, B: p.B, A: 255}
	emitOp8(wr, state, px, excludeTags)
	state.Observe8(px)
}

func emitOp8(wr *wire.Writer, state *qoicore.State, px qoicore.RGBA, excludeTags map[string]bool) {
	if !excludeTags["index"] {
		idx := qoicore.IndexOf8(px)
		if state.Lookup8(idx) == px {
			wr.U8(tagIndex | uint8(idx))
			return
		}
	}
	prev := state.Prev8
	if !excludeTags["diff"] {
		if dr, dg, db, ok := qoicore.DiffOp8(px.R, px.G, px.B, prev.R, prev.G, prev.B); ok {
			wr.U8(tagDiff | uint8((dr+2)<<4) | uint8((dg+2)<<2) | uint8(db+2))
			return
		}
	}
	if !excludeTags["luma"] {
		if dg, drg, dbg, ok := qoicore.LumaOp8(px.R, px.G, px.B, prev.R, prev.G, prev.B); ok {
			wr.U8(tagLuma | uint8(dg+32))
			wr.U8(uint8((drg+8)<<4) | uint8(dbg+8))
			return
		}
	}
	wr.U8(tagRGB24)
	wr.Bytes([]byte{px.R, px.G, px.B})
}

func emitOp16(wr *wire.Writer, state *qoicore.State, px16 uint16, excludeTags map[string]bool) {
	if !excludeTags["index"] {
		idx := qoicore.IndexOf16(px16)
		if state.Lookup16(idx) == px16 {
			wr.U8(tagIndex | uint8(idx))
			return
		}
	}
	prevR, prevG, prevB := pixel.Unpack565(state.Prev16)
	curR, curG, curB := pixel.Unpack565(px16)
	if !excludeTags["diff"] {
		if dr, dg, db, ok := qoicore.DiffOp565(curR, curG, curB, prevR, prevG, prevB); ok {
			wr.U8(tagDiff | uint8((dr+2)<<4) | uint8((dg+2)<<2) | uint8(db+2))
			return
		}
	}
	if !excludeTags["luma"] {
		if dg, drg, dbg, ok := qoicore.LumaOp565(curR, curG, curB, prevR, prevG, prevB); ok {
			wr.U8(tagLuma | uint8(dg+32))
			wr.U8(uint8((drg+8)<<4) | uint8(dbg+8))
			return
		}
	}
	wr.U8(tagRGB24)
	wr.U16(px16)
}
