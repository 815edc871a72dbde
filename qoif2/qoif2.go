// Package qoif2 implements the extended QOIF container (".qox"): QOI-style
// pixel ops grouped into blocks that carry animation timing/flags, with an
// optional 16bpp RGB565 mode alongside the usual 24bpp RGB.
package qoif2

import "github.com/BasementCat/animated-badge/pixel"

// Magic is "qoiF" read as a little-endian u32.
const Magic uint32 = 0x46696f71

const headerVersion uint8 = 2

var trailer = [8]byte{0, 0, 0, 0, 0, 0, 0, 1}

// Block-1 (common) header flags.
const (
	FThumb uint8 = 1
	FStart uint8 = 2
	FEnd   uint8 = 4
	FBig   uint8 = 8
)

const (
	tagRGB24 = 0xFE
	tagRGBA  = 0xFF
	tagIndex = 0b00 << 6
	tagDiff  = 0b01 << 6
	tagLuma  = 0b10 << 6
	tagRun   = 0b11 << 6
)

const maxRunChunk = 63

// Header is the 15-byte QOIF2 header: magic, width, height, channels,
// colorspace, version.
type Header struct {
	Width, Height int
	Channels      int // 2 (RGB565), 3 (RGB), or 4 (RGBA, read-only)
}

// BPP returns the pixel depth implied by Channels.
func (h Header) BPP() int { return h.Channels * 8 }

// Block is one decoded image-data block: a rectangular region of pixels
// plus the flags/duration that group blocks into rendered frames and mark
// the optional thumbnail.
type Block struct {
	X, Y, W, H int
	DurationMS int
	Flags      uint8
	Pix        []pixel.RGB // row-major, W*H pixels
}

func (b Block) isThumb() bool { return b.Flags&FThumb != 0 }
func (b Block) isStart() bool { return b.Flags&FStart != 0 }
func (b Block) isEnd() bool   { return b.Flags&FEnd != 0 }
