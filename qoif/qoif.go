// Package qoif implements the canonical QOI still-image codec: the
// "Quite OK Image" format's header, INDEX/DIFF/LUMA/RUN/RGB op stream, and
// 8-byte zero-padded trailer.
package qoif

import (
	"bufio"
	"io"

	"github.com/pkg/errors"

	"github.com/BasementCat/animated-badge/internal/qoicore"
	"github.com/BasementCat/animated-badge/internal/wire"
	"github.com/BasementCat/animated-badge/pixel"
	"github.com/BasementCat/animated-badge/rle"
)

// Magic is "qoif" read as a little-endian u32.
const Magic uint32 = 0x66696f71 // "qoif" little-endian

const maxRunChunk = 63

var trailer = [8]byte{0, 0, 0, 0, 0, 0, 0, 1}

const (
	tagRGB   = 0xFE
	tagRGBA  = 0xFF
	tagIndex = 0b00 << 6
	tagDiff  = 0b01 << 6
	tagLuma  = 0b10 << 6
	tagRun   = 0b11 << 6
)

// Header is the 14-byte QOI header.
type Header struct {
	Width, Height    uint32
	Channels         uint8
	Colorspace       uint8
}

// Write encodes frame as a complete QOI stream to w.
func Write(w io.Writer, frame *pixel.Frame) error {
	wr := wire.NewWriter(w)
	wr.U32(Magic)
	wr.U32(uint32(frame.Width))
	wr.U32(uint32(frame.Height))
	wr.U8(3)
	wr.U8(1)
	if wr.Err() != nil {
		return wr.Err()
	}

	state := qoicore.NewState()
	var writeErr error
	rle.Chunks(frame, 0, 0, frame.Width, frame.Height, maxRunChunk, true, func(c rle.Chunk) {
		if writeErr != nil {
			return
		}
		if c.RunLength > 1 {
			px := qoicore.RGBA{R: c.Pixels[0].R, G: c.Pixels[0].G, B: c.Pixels[0].B, A: 255}
			writeErr = emitOp(wr, state, px)
			state.Observe8(px)
			repeat := c.RunLength - 1
			wr.U8(tagRun | uint8(repeat-1))
			return
		}
		for _, p := range c.Pixels {
			px := qoicore.RGBA{R: p.R, G: p.G, B: p.B, A: 255}
			if err := emitOp(wr, state, px); err != nil {
				writeErr = err
				return
			}
			state.Observe8(px)
		}
	})
	if writeErr != nil {
		return writeErr
	}
	if wr.Err() != nil {
		return wr.Err()
	}
	wr.Bytes(trailer[:])
	return wr.Err()
}

// emitOp chooses and writes the op (index -> diff -> luma -> rgb) for px.
// RGBA is never emitted: alpha is always 255 in this pipeline, so the RGB
// op always suffices once INDEX/DIFF/LUMA fail.
func emitOp(wr *wire.Writer, state *qoicore.State, px qoicore.RGBA) error {
	idx := qoicore.IndexOf8(px)
	if state.Lookup8(idx) == px {
		wr.U8(tagIndex | uint8(idx))
		return wr.Err()
	}
	prev := state.Prev8
	if dr, dg, db, ok := qoicore.DiffOp8(px.R, px.G, px.B, prev.R, prev.G, prev.B); ok {
		wr.U8(tagDiff | uint8((dr+2)<<4) | uint8((dg+2)<<2) | uint8(db+2))
		return wr.Err()
	}
	if dg, drg, dbg, ok := qoicore.LumaOp8(px.R, px.G, px.B, prev.R, prev.G, prev.B); ok {
		wr.U8(tagLuma | uint8(dg+32))
		wr.U8(uint8((drg+8)<<4) | uint8(dbg+8))
		return wr.Err()
	}
	wr.U8(tagRGB)
	wr.Bytes([]byte{px.R, px.G, px.B})
	return wr.Err()
}

// Read decodes a complete QOI stream from r into a Frame.
func Read(r io.Reader) (*pixel.Frame, error) {
	br := bufio.NewReader(r)

	magic, err := wire.ReadUint32(br)
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, wire.ErrBadFileType
	}
	width, err := wire.ReadUint32(br)
	if err != nil {
		return nil, err
	}
	height, err := wire.ReadUint32(br)
	if err != nil {
		return nil, err
	}
	if _, err := wire.ReadUint8(br); err != nil { // channels
		return nil, err
	}
	if _, err := wire.ReadUint8(br); err != nil { // colorspace
		return nil, err
	}

	frame := pixel.NewFrame(int(width), int(height), 0)
	state := qoicore.NewState()
	total := int(width) * int(height)

	i := 0
	for i < total {
		tagByte, err := wire.ReadUint8(br)
		if err != nil {
			return nil, err
		}
		var px qoicore.RGBA
		run := 1
		switch {
		case tagByte == tagRGB:
			var b [3]byte
			if err := wire.ReadFull(br, b[:]); err != nil {
				return nil, err
			}
			px = qoicore.RGBA{R: b[0], G: b[1], B: b[2], A: 255}
		case tagByte == tagRGBA:
			return nil, errors.New("qoif: RGBA op is not supported by this reader")
		case tagByte>>6 == 0:
			idx := int(tagByte & 0x3F)
			px = state.Lookup8(idx)
		case tagByte>>6 == 1:
			arg := tagByte & 0x3F
			dr := int(arg>>4) - 2
			dg := int((arg>>2)&3) - 2
			db := int(arg&3) - 2
			prev := state.Prev8
			px = qoicore.RGBA{
				R: uint8(qoicore.FieldApply(uint32(prev.R), dr, 8)),
				G: uint8(qoicore.FieldApply(uint32(prev.G), dg, 8)),
				B: uint8(qoicore.FieldApply(uint32(prev.B), db, 8)),
				A: 255,
			}
		case tagByte>>6 == 2:
			dg := int(tagByte&0x3F) - 32
			rb, err := wire.ReadUint8(br)
			if err != nil {
				return nil, err
			}
			dr := dg + int(rb>>4) - 8
			db := dg + int(rb&0xF) - 8
			prev := state.Prev8
			px = qoicore.RGBA{
				R: uint8(qoicore.FieldApply(uint32(prev.R), dr, 8)),
				G: uint8(qoicore.FieldApply(uint32(prev.G), dg, 8)),
				B: uint8(qoicore.FieldApply(uint32(prev.B), db, 8)),
				A: 255,
			}
		default: // tagByte>>6 == 3, RUN
			run = int(tagByte&0x3F) + 1
			px = state.Prev8
		}

		for n := 0; n < run && i < total; n++ {
			x, y := i%int(width), i/int(width)
			frame.Set(x, y, px.RGB())
			i++
		}
		state.Observe8(px)
	}

	var tr [8]byte
	_ = wire.ReadFull(br, tr[:]) // trailer, not validated beyond consuming it

	return frame, nil
}
