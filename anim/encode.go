package anim

import (
	"bytes"
	"io"

	"github.com/BasementCat/animated-badge/internal/pool"
	"github.com/BasementCat/animated-badge/internal/wire"
	"github.com/BasementCat/animated-badge/pixel"
	"github.com/BasementCat/animated-badge/rle"
)

// Write encodes a complete Anim stream to w: magic, image header, optional
// thumbnail, then one frame-group per input frame.
func Write(w io.Writer, version Version, width, height, bpp int, isAnimated bool, thumbnail *pixel.Frame, frames []FrameInput) error {
	wr := wire.NewWriter(w)

	wr.U32(Magic)
	wr.U16(uint16(version))
	wr.U16(headerOffset)

	var flags uint16
	if isAnimated {
		flags |= IFIsAnim
	}
	if thumbnail != nil {
		flags |= IFHasThumb
	}
	wr.U16(uint16(width))
	wr.U16(uint16(height))
	wr.U8(uint8(bpp))
	wr.U8(0) // reserved
	wr.U16(flags)
	if wr.Err() != nil {
		return wr.Err()
	}

	if thumbnail != nil {
		if err := writeFrameWhole(wr, version, bpp, thumbnail); err != nil {
			return err
		}
	}

	for _, fi := range frames {
		if fi.Diff == nil {
			if err := writeFrameWhole(wr, version, bpp, fi.Frame); err != nil {
				return err
			}
			continue
		}
		if err := writeFrameRegions(wr, version, bpp, fi.Frame, fi.Diff); err != nil {
			return err
		}
	}
	return wr.Err()
}

// writeFrameWhole emits a single full-frame region (x=0,y=0,w,h). A still
// image and a single-frame animation both set BEGIN|END, since every
// whole-frame emission here is self-contained.
//
// v3's region header packs w/h into a single byte each, so any dimension
// at or above 256 can't be represented literally — the format instead
// defines w=0,h=0 to mean "use the image header's width/height" for
// exactly this case. The sentinel is emitted only when a dimension
// overflows, so a smaller frame such as the thumbnail keeps its own size
// on the wire; a v3 frame that overflows a byte is always read back at
// the image header's size.
func writeFrameWhole(wr *wire.Writer, version Version, bpp int, frame *pixel.Frame) error {
	data, err := encodeFrameData(version, bpp, frame, 0, 0, frame.Width, frame.Height)
	if err != nil {
		return err
	}
	w, h := frame.Width, frame.Height
	if version == V3 && (w > 255 || h > 255) {
		w, h = 0, 0
	}
	writeFrameHeader(wr, version, 0, 0, w, h, durationFor(version, frame.DurationMS), FFBegin|FFEnd, len(data))
	wr.Bytes(data)
	return wr.Err()
}

// writeFrameRegions emits one frame header+chunk-stream per dirty region,
// tagging the first BEGIN and the last END (with the duration attached only
// to the END region), matching process_frame's diff branch.
func writeFrameRegions(wr *wire.Writer, version Version, bpp int, frame *pixel.Frame, diff []pixel.Rect) error {
	for i, r := range diff {
		data, err := encodeFrameData(version, bpp, frame, r.X, r.Y, r.W, r.H)
		if err != nil {
			return err
		}
		var fflags uint8
		duration := 0
		if i == 0 {
			fflags |= FFBegin
		}
		if i+1 == len(diff) {
			fflags |= FFEnd
			duration = durationFor(version, frame.DurationMS)
		}
		writeFrameHeader(wr, version, r.X, r.Y, r.W, r.H, duration, fflags, len(data))
		wr.Bytes(data)
		if wr.Err() != nil {
			return wr.Err()
		}
	}
	return nil
}

// durationFor converts a frame's duration in milliseconds to the wire
// format's native duration unit: v3 stores centiseconds, v4 milliseconds.
func durationFor(version Version, ms int) int {
	if version == V3 {
		return ms / 10
	}
	return ms
}

func writeFrameHeader(wr *wire.Writer, version Version, x, y, w, h, duration int, flags uint8, datalen int) {
	wr.U16(uint16(x))
	wr.U16(uint16(y))
	if version == V3 {
		wr.U8(uint8(w))
		wr.U8(uint8(h))
		wr.U8(uint8(duration))
	} else {
		wr.U16(uint16(w))
		wr.U16(uint16(h))
		wr.U16(uint16(duration))
	}
	wr.U8(flags)
	wr.U32(uint32(datalen))
}

// encodeFrameData renders the RLE-chunked pixel stream for the sub-rect
// (x,y,w,h) of frame, terminated by a C_END chunk, buffered so its total
// length is known before the caller writes the frame header.
func encodeFrameData(version Version, bpp int, frame *pixel.Frame, x, y, w, h int) ([]byte, error) {
	buf := bytes.NewBuffer(pool.Get(w * h * 3)[:0])
	wr := wire.NewWriter(buf)

	rle.Chunks(frame, x, y, w, h, version.maxChunkSize(), false, func(c rle.Chunk) {
		if wr.Err() != nil {
			return
		}
		if c.RunLength > 0 {
			writeChunkHeader(wr, version, CRLE, c.RunLength)
			writePixel(wr, bpp, c.Pixels[0])
			return
		}
		writeChunkHeader(wr, version, CRaw, len(c.Pixels))
		for _, p := range c.Pixels {
			writePixel(wr, bpp, p)
		}
	})
	writeChunkHeader(wr, version, CEnd, 0)
	if err := wr.Err(); err != nil {
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	pool.Put(buf.Bytes()[:0])
	return out, nil
}

func writeChunkHeader(wr *wire.Writer, version Version, command uint8, datalen int) {
	wr.U8(command)
	if version == V3 {
		wr.U8(uint8(datalen))
	} else {
		wr.U16(uint16(datalen))
	}
}

func writePixel(wr *wire.Writer, bpp int, p pixel.RGB) {
	if bpp == 16 {
		wr.U16(pixel.RGB565(p.R, p.G, p.B))
		return
	}
	wr.Bytes([]byte{p.R, p.G, p.B})
}
