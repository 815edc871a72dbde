// Package anim implements the Anim container format, in both its v3 and
// v4 wire shapes: a fixed image header followed by one or more frame
// groups, each an RLE-chunked pixel stream over a dirty region. See
// DESIGN.md for the reference material this is grounded on.
package anim

import (
	"github.com/BasementCat/animated-badge/pixel"
)

// Magic is the fixed 4-byte file magic, read/written as a little-endian u32.
const Magic uint32 = 0x676d4941

// Image-header flags.
const (
	IFIsAnim   uint16 = 1
	IFHasThumb uint16 = 2
)

// Frame-header flags. BEGIN/END are only meaningful when IFIsAnim is set:
// each "rendered" frame of the source animation is written as one or more
// dirty-region frames, the first tagged BEGIN and the last tagged END.
const (
	FFBegin uint8 = 1
	FFEnd   uint8 = 128
)

// Chunk commands.
const (
	CRaw uint8 = 1
	CRLE uint8 = 2
	CEnd uint8 = 255
)

// Version selects the v3 or v4 wire shape. They share the magic block and
// image header; only the frame header and chunk header widths differ.
type Version uint16

const (
	V3 Version = 3
	V4 Version = 4
)

// maxChunkSize returns the chunk-length cap: v3's 1-byte chunk length field
// caps at 255, v4's 2-byte field is capped lower (5000) to bound per-chunk
// memory rather than exhausting the field width.
func (v Version) maxChunkSize() int {
	if v == V3 {
		return 255
	}
	return 5000
}

// magicHeaderSize is the size of the magic+version+offset block: 4+2+2.
const magicHeaderSize = 8

// imageHeaderSize is the size of the fixed image header: 2+2+1+1+2.
const imageHeaderSize = 8

// headerOffset is the value stored in the magic block's header_offset
// field. The format fixes it at 12, although the magic block and image
// header together occupy magicHeaderSize+imageHeaderSize = 16 bytes;
// neither Write nor Read seeks by it.
const headerOffset = 12

// frameHeaderSize returns the size of one frame header for this version.
func (v Version) frameHeaderSize() int {
	if v == V3 {
		return 2 + 2 + 1 + 1 + 1 + 1 + 4 // x,y,w,h,duration,flags,datalen
	}
	return 2 + 2 + 2 + 2 + 2 + 1 + 4 // x,y,w,h,duration,flags,datalen
}

// chunkHeaderSize returns the size of one chunk header for this version.
func (v Version) chunkHeaderSize() int {
	if v == V3 {
		return 1 + 1 // command, datalen(u8)
	}
	return 1 + 2 // command, datalen(u16)
}

// FrameInput is one rendered output frame paired with the dirty regions
// that changed since the previously emitted frame. Diff is nil for a frame
// that must be written whole (the first frame of an animation, or any
// still image).
type FrameInput struct {
	Frame *pixel.Frame
	Diff  []pixel.Rect
}

// Header is the fixed-size image header.
type Header struct {
	Width, Height int
	BPP           int // 16 or 24
	Flags         uint16
}

func (h Header) isAnim() bool   { return h.Flags&IFIsAnim != 0 }
func (h Header) hasThumb() bool { return h.Flags&IFHasThumb != 0 }
