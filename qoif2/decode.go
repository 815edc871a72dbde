package qoif2

import (
	"bufio"
	"io"
	"strconv"

	"github.com/BasementCat/animated-badge/internal/qoicore"
	"github.com/BasementCat/animated-badge/internal/wire"
	"github.com/BasementCat/animated-badge/pixel"
)

// DecodedFrame is one fully-reconstructed rendered frame, patched together
// from the blocks between an F_START and F_END flag (inclusive), mirroring
// anim's BEGIN..END grouping.
type DecodedFrame struct {
	Frame      *pixel.Frame
	DurationMS int
}

// Result is a fully-decoded QOIF2 stream.
type Result struct {
	Header    Header
	Thumbnail *pixel.Frame
	Frames    []DecodedFrame
}

// Read decodes a complete QOIF2 stream from r.
func Read(r io.Reader) (*Result, error) {
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
	channels, err := wire.ReadUint8(br)
	if err != nil {
		return nil, err
	}
	if _, err := wire.ReadUint8(br); err != nil { // colorspace
		return nil, err
	}
	version, err := wire.ReadUint8(br)
	if err != nil {
		return nil, err
	}
	if version != headerVersion {
		return nil, wire.NewValidationError("qoif2", "version", strconv.Itoa(int(headerVersion)), strconv.Itoa(int(version)))
	}

	header := Header{Width: int(width), Height: int(height), Channels: int(channels)}
	state := qoicore.NewState()

	result := &Result{Header: header}

	// The thumbnail block, when present, is tagged F_THUMB|F_START|F_END and
	// always comes first. It's routed to Result.Thumbnail separately from
	// the main canvas-patching loop below rather than folded into the frame
	// sequence, since it's a fixed-size preview rather than frame 0 of the
	// animation (Open Question, recorded in DESIGN.md).
	var canvas *pixel.Frame
	for {
		block, atTrailer, err := readBlock(br, header, state)
		if atTrailer {
			break
		}
		if err != nil {
			return nil, err
		}

		if block.isThumb() {
			thumb := pixel.NewFrame(block.W, block.H, 0)
			copy(thumb.Pix, pixelsToBytes(block.Pix))
			result.Thumbnail = thumb
			continue
		}

		if canvas == nil {
			canvas = pixel.NewFrame(header.Width, header.Height, 0)
		}
		patchBlock(canvas, block)
		if block.isEnd() {
			out := pixel.NewFrame(canvas.Width, canvas.Height, block.DurationMS)
			copy(out.Pix, canvas.Pix)
			result.Frames = append(result.Frames, DecodedFrame{Frame: out, DurationMS: block.DurationMS})
		}
	}

	return result, nil
}

func patchBlock(canvas *pixel.Frame, b Block) {
	i := 0
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			canvas.Set(b.X+x, b.Y+y, b.Pix[i])
			i++
		}
	}
}

func pixelsToBytes(px []pixel.RGB) []byte {
	out := make([]byte, len(px)*3)
	for i, p := range px {
		out[i*3], out[i*3+1], out[i*3+2] = p.R, p.G, p.B
	}
	return out
}

// readBlock reads one Block-1/Block-2 header plus its op stream. Since
// QOIF2 has no per-block terminator chunk (unlike anim's C_END), the stream
// position after the header's datalen bytes is the only way to know a block
// ended; atTrailer reports that the 8-byte fixed trailer was found instead
// of another block header, via a buffered peek-and-maybe-rewind.
func readBlock(br *bufio.Reader, header Header, state *qoicore.State) (Block, bool, error) {
	peek, err := br.Peek(len(trailer))
	if err == nil && bytesEqual(peek, trailer[:]) {
		_, _ = br.Discard(len(trailer))
		return Block{}, true, nil
	}

	flags, err := wire.ReadUint8(br)
	if err == wire.ErrEndOfFile {
		return Block{}, true, nil
	}
	if err != nil {
		return Block{}, false, err
	}
	durRaw, err := wire.ReadUint16(br)
	if err != nil {
		return Block{}, false, err
	}
	datalen, err := wire.ReadUint32(br)
	if err != nil {
		return Block{}, false, err
	}

	var w, h, x, y int
	if flags&FBig != 0 {
		w32, err := wire.ReadUint32(br)
		if err != nil {
			return Block{}, false, err
		}
		h32, err := wire.ReadUint32(br)
		if err != nil {
			return Block{}, false, err
		}
		x32, err := wire.ReadUint32(br)
		if err != nil {
			return Block{}, false, err
		}
		y32, err := wire.ReadUint32(br)
		if err != nil {
			return Block{}, false, err
		}
		w, h, x, y = int(w32), int(h32), int(x32), int(y32)
	} else {
		w16, err := wire.ReadUint16(br)
		if err != nil {
			return Block{}, false, err
		}
		h16, err := wire.ReadUint16(br)
		if err != nil {
			return Block{}, false, err
		}
		x16, err := wire.ReadUint16(br)
		if err != nil {
			return Block{}, false, err
		}
		y16, err := wire.ReadUint16(br)
		if err != nil {
			return Block{}, false, err
		}
		w, h, x, y = int(w16), int(h16), int(x16), int(y16)
	}

	if x < 0 || x >= header.Width || y < 0 || y >= header.Height {
		if !(flags&FThumb != 0) {
			return Block{}, false, wire.NewValidationError("qoif2", "block x/y", "within image bounds", strconv.Itoa(x)+","+strconv.Itoa(y))
		}
	}

	lr := io.LimitReader(br, int64(datalen))
	pix, err := readBlockData(lr, header, state, w*h)
	if err != nil {
		return Block{}, false, err
	}

	return Block{
		X: x, Y: y, W: w, H: h,
		DurationMS: int(durRaw),
		Flags:      flags,
		Pix:        pix,
	}, false, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// readBlockData decodes exactly total pixels' worth of QOI-style ops from a
// reader bounded to one block's datalen bytes.
func readBlockData(r io.Reader, header Header, state *qoicore.State, total int) ([]pixel.RGB, error) {
	out := make([]pixel.RGB, 0, total)
	sixteen := header.Channels == 2

	for len(out) < total {
		tagByte, err := wire.ReadUint8(r)
		if err != nil {
			return nil, err
		}

		run := 1
		var px pixel.RGB

		switch {
		case tagByte == tagRGB24 && sixteen:
			v, err := wire.ReadUint16(r)
			if err != nil {
				return nil, err
			}
			px = pixel.RGB565To888(v)
			state.Observe16(v)
		case tagByte == tagRGB24:
			var b [3]byte
			if err := wire.ReadFull(r, b[:]); err != nil {
				return nil, err
			}
			px = pixel.RGB{R: b[0], G: b[1], B: b[2]}
			state.Observe8(qoicore.RGBA{R: b[0], G: b[1], B: b[2], A: 255})
		case tagByte == tagRGBA:
			return nil, wire.NewValidationError("qoif2", "op tag", "not RGBA (read-only, unsupported)", strconv.Itoa(int(tagByte)))
		case tagByte>>6 == 0b00: // INDEX
			idx := int(tagByte & 0x3F)
			if sixteen {
				v := state.Lookup16(idx)
				px = pixel.RGB565To888(v)
				state.Observe16(v)
			} else {
				p := state.Lookup8(idx)
				px = p.RGB()
				state.Observe8(p)
			}
		case tagByte>>6 == 0b01: // DIFF
			arg := tagByte & 0x3F
			dr := int(arg>>4) - 2
			dg := int((arg>>2)&3) - 2
			db := int(arg&3) - 2
			if sixteen {
				pr, pg, pb := pixel.Unpack565(state.Prev16)
				nr := qoicore.FieldApply(uint32(pr), dr, 5)
				ng := qoicore.FieldApply(uint32(pg), dg, 6)
				nb := qoicore.FieldApply(uint32(pb), db, 5)
				v := pixel.Pack565(uint16(nr), uint16(ng), uint16(nb))
				px = pixel.RGB565To888(v)
				state.Observe16(v)
			} else {
				prev := state.Prev8
				p := qoicore.RGBA{
					R: uint8(qoicore.FieldApply(uint32(prev.R), dr, 8)),
					G: uint8(qoicore.FieldApply(uint32(prev.G), dg, 8)),
					B: uint8(qoicore.FieldApply(uint32(prev.B), db, 8)),
					A: 255,
				}
				px = p.RGB()
				state.Observe8(p)
			}
		case tagByte>>6 == 0b10: // LUMA
			dg := int(tagByte&0x3F) - 32
			rb, err := wire.ReadUint8(r)
			if err != nil {
				return nil, err
			}
			drg := int(rb>>4) - 8
			dbg := int(rb&0xF) - 8
			dr := dg + drg
			db := dg + dbg
			if sixteen {
				pr, pg, pb := pixel.Unpack565(state.Prev16)
				nr := qoicore.FieldApply(uint32(pr), dr, 5)
				ng := qoicore.FieldApply(uint32(pg), dg, 6)
				nb := qoicore.FieldApply(uint32(pb), db, 5)
				v := pixel.Pack565(uint16(nr), uint16(ng), uint16(nb))
				px = pixel.RGB565To888(v)
				state.Observe16(v)
			} else {
				prev := state.Prev8
				p := qoicore.RGBA{
					R: uint8(qoicore.FieldApply(uint32(prev.R), dr, 8)),
					G: uint8(qoicore.FieldApply(uint32(prev.G), dg, 8)),
					B: uint8(qoicore.FieldApply(uint32(prev.B), db, 8)),
					A: 255,
				}
				px = p.RGB()
				state.Observe8(p)
			}
		default: // RUN
			run = int(tagByte&0x3F) + 1
			if sixteen {
				px = pixel.RGB565To888(state.Prev16)
			} else {
				px = state.Prev8.RGB()
			}
		}

		for n := 0; n < run && len(out) < total; n++ {
			out = append(out, px)
		}
	}

	return out, nil
}
