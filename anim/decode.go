package anim

import (
	"io"
	"strconv"

	"github.com/BasementCat/animated-badge/internal/wire"
	"github.com/BasementCat/animated-badge/pixel"
)

// DecodedFrame is one fully-reconstructed rendered frame: either a whole
// still image, or the result of patching a sequence of BEGIN..END dirty
// regions onto the running canvas.
type DecodedFrame struct {
	Frame      *pixel.Frame
	DurationMS int
}

// Result is a fully-decoded Anim stream.
type Result struct {
	Version   Version
	Header    Header
	Thumbnail *pixel.Frame
	Frames    []DecodedFrame
}

type rawRegion struct {
	x, y, w, h int
	duration   int
	flags      uint8
	pix        []pixel.RGB // row-major, w*h pixels
}

// Read decodes a complete Anim stream from r.
func Read(r io.Reader) (*Result, error) {
	magic, err := wire.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, wire.ErrBadFileType
	}
	versionRaw, err := wire.ReadUint16(r)
	if err != nil {
		return nil, err
	}
	version := Version(versionRaw)
	if version != V3 && version != V4 {
		return nil, wire.ErrBadFileType
	}
	offset, err := wire.ReadUint16(r)
	if err != nil {
		return nil, err
	}
	if offset != headerOffset {
		return nil, wire.NewValidationError("anim", "offset", strconv.Itoa(headerOffset), strconv.Itoa(int(offset)))
	}

	width, err := wire.ReadUint16(r)
	if err != nil {
		return nil, err
	}
	height, err := wire.ReadUint16(r)
	if err != nil {
		return nil, err
	}
	bpp, err := wire.ReadUint8(r)
	if err != nil {
		return nil, err
	}
	if bpp != 16 && bpp != 24 {
		return nil, wire.NewValidationError("anim", "bpp", "16 or 24", strconv.Itoa(int(bpp)))
	}
	reserved, err := wire.ReadUint8(r)
	if err != nil {
		return nil, err
	}
	if reserved != 0 {
		return nil, wire.NewValidationError("anim", "reserved", "0", strconv.Itoa(int(reserved)))
	}
	flags, err := wire.ReadUint16(r)
	if err != nil {
		return nil, err
	}

	header := Header{Width: int(width), Height: int(height), BPP: int(bpp), Flags: flags}

	var regions []rawRegion
	for {
		reg, err := readRegion(r, version, header)
		if err == wire.ErrEndOfFile {
			break
		}
		if err != nil {
			return nil, err
		}
		regions = append(regions, reg)
	}

	result := &Result{Version: version, Header: header}

	if header.hasThumb() && len(regions) > 0 {
		t := regions[0]
		regions = regions[1:]
		thumb := pixel.NewFrame(t.w, t.h, 0)
		copy(thumb.Pix, pixelsToBytes(t.pix))
		result.Thumbnail = thumb
	}

	if !header.isAnim() {
		for _, reg := range regions {
			durationMS := normalizeDuration(version, reg.duration)
			f := pixel.NewFrame(reg.w, reg.h, durationMS)
			copy(f.Pix, pixelsToBytes(reg.pix))
			result.Frames = append(result.Frames, DecodedFrame{Frame: f, DurationMS: durationMS})
		}
		return result, nil
	}

	canvas := pixel.NewFrame(header.Width, header.Height, 0)
	for _, reg := range regions {
		patchRegion(canvas, reg)
		if reg.flags&FFEnd != 0 {
			durationMS := normalizeDuration(version, reg.duration)
			out := pixel.NewFrame(canvas.Width, canvas.Height, durationMS)
			copy(out.Pix, canvas.Pix)
			result.Frames = append(result.Frames, DecodedFrame{Frame: out, DurationMS: durationMS})
		}
	}
	return result, nil
}

func normalizeDuration(version Version, native int) int {
	if version == V3 {
		return native * 10
	}
	return native
}

func patchRegion(canvas *pixel.Frame, reg rawRegion) {
	i := 0
	for y := 0; y < reg.h; y++ {
		for x := 0; x < reg.w; x++ {
			canvas.Set(reg.x+x, reg.y+y, reg.pix[i])
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

// readRegion reads one frame header plus its chunk stream, returning
// wire.ErrEndOfFile when the stream is exhausted — the expected terminator
// for a region loop, not an error.
func readRegion(r io.Reader, version Version, header Header) (rawRegion, error) {
	x16, err := wire.ReadUint16(r)
	if err == wire.ErrEndOfFile {
		return rawRegion{}, err
	}
	if err != nil {
		return rawRegion{}, err
	}
	y16, err := wire.ReadUint16(r)
	if err != nil {
		return rawRegion{}, err
	}

	var w, h, duration int
	var flags uint8
	if version == V3 {
		wB, err := wire.ReadUint8(r)
		if err != nil {
			return rawRegion{}, err
		}
		hB, err := wire.ReadUint8(r)
		if err != nil {
			return rawRegion{}, err
		}
		durB, err := wire.ReadUint8(r)
		if err != nil {
			return rawRegion{}, err
		}
		flagsB, err := wire.ReadUint8(r)
		if err != nil {
			return rawRegion{}, err
		}
		w, h, duration, flags = int(wB), int(hB), int(durB), flagsB
		if w == 0 {
			w = header.Width
		}
		if h == 0 {
			h = header.Height
		}
	} else {
		w16, err := wire.ReadUint16(r)
		if err != nil {
			return rawRegion{}, err
		}
		h16, err := wire.ReadUint16(r)
		if err != nil {
			return rawRegion{}, err
		}
		dur16, err := wire.ReadUint16(r)
		if err != nil {
			return rawRegion{}, err
		}
		flagsB, err := wire.ReadUint8(r)
		if err != nil {
			return rawRegion{}, err
		}
		w, h, duration, flags = int(w16), int(h16), int(dur16), flagsB
		if w == 0 || h == 0 {
			return rawRegion{}, wire.NewValidationError("anim", "frame w/h", "nonzero", "0")
		}
	}

	datalen, err := wire.ReadUint32(r)
	if err != nil {
		return rawRegion{}, err
	}

	x, y := int(x16), int(y16)
	if x < 0 || x >= header.Width {
		return rawRegion{}, wire.NewValidationError("anim", "frame x", "within image width", strconv.Itoa(x))
	}
	if y < 0 || y >= header.Height {
		return rawRegion{}, wire.NewValidationError("anim", "frame y", "within image height", strconv.Itoa(y))
	}

	pix, consumed, err := readFrameData(r, version, header.BPP, w*h)
	if err != nil {
		return rawRegion{}, err
	}
	if consumed != int(datalen) {
		return rawRegion{}, wire.NewValidationError("anim", "frame datalen", strconv.Itoa(int(datalen)), strconv.Itoa(consumed))
	}

	return rawRegion{x: x, y: y, w: w, h: h, duration: duration, flags: flags, pix: pix}, nil
}

// readFrameData reads chunks until C_END, returning exactly total pixels
// (row-major) and the number of bytes consumed (for datalen validation).
func readFrameData(r io.Reader, version Version, bpp int, total int) ([]pixel.RGB, int, error) {
	out := make([]pixel.RGB, 0, total)
	consumed := 0
	for len(out) < total {
		command, err := wire.ReadUint8(r)
		if err != nil {
			return nil, 0, err
		}
		consumed++
		var datalen int
		if version == V3 {
			b, err := wire.ReadUint8(r)
			if err != nil {
				return nil, 0, err
			}
			datalen = int(b)
			consumed++
		} else {
			v, err := wire.ReadUint16(r)
			if err != nil {
				return nil, 0, err
			}
			datalen = int(v)
			consumed += 2
		}

		switch command {
		case CRaw:
			for i := 0; i < datalen; i++ {
				p, n, err := readPixel(r, bpp)
				if err != nil {
					return nil, 0, err
				}
				out = append(out, p)
				consumed += n
			}
		case CRLE:
			p, n, err := readPixel(r, bpp)
			if err != nil {
				return nil, 0, err
			}
			consumed += n
			for i := 0; i < datalen; i++ {
				out = append(out, p)
			}
		case CEnd:
			if datalen != 0 {
				return nil, 0, wire.NewValidationError("anim", "END datalen", "0", strconv.Itoa(datalen))
			}
			return nil, 0, wire.NewValidationError("anim", "region pixel count", strconv.Itoa(total), strconv.Itoa(len(out)))
		default:
			return nil, 0, wire.NewValidationError("anim", "chunk command", "1, 2, or 255", strconv.Itoa(int(command)))
		}
	}
	// The loop ends once total pixels have been read; in a well-formed
	// stream the next chunk is C_END with datalen 0, read and checked here.
	// An END chunk met inside the loop means the region ended short and is
	// rejected above.
	command, err := wire.ReadUint8(r)
	if err != nil {
		return nil, 0, err
	}
	consumed++
	var endLen int
	if version == V3 {
		b, err := wire.ReadUint8(r)
		if err != nil {
			return nil, 0, err
		}
		endLen = int(b)
		consumed++
	} else {
		v, err := wire.ReadUint16(r)
		if err != nil {
			return nil, 0, err
		}
		endLen = int(v)
		consumed += 2
	}
	if command != CEnd || endLen != 0 {
		return nil, 0, wire.NewValidationError("anim", "chunk command", "255 (END)", strconv.Itoa(int(command)))
	}
	return out, consumed, nil
}

func readPixel(r io.Reader, bpp int) (pixel.RGB, int, error) {
	if bpp == 16 {
		v, err := wire.ReadUint16(r)
		if err != nil {
			return pixel.RGB{}, 0, err
		}
		return pixel.RGB565To888(v), 2, nil
	}
	var b [3]byte
	if err := wire.ReadFull(r, b[:]); err != nil {
		return pixel.RGB{}, 0, err
	}
	return pixel.RGB{R: b[0], G: b[1], B: b[2]}, 3, nil
}

