// Package qoicore holds the QOI-family running state machine shared by the
// qoif and qoif2 codecs: a single State value, held by both encoder and
// decoder, tracking the 64-slot pixel cache and previous-pixel register.
package qoicore

import "github.com/BasementCat/animated-badge/pixel"

// RGBA is a 4-channel pixel with alpha, used internally by the cache
// (alpha is part of the 8-bit cache-index formula even though every
// format this spec supports keeps alpha pinned to 255).
type RGBA struct {
	R, G, B, A uint8
}

// RGB drops the alpha channel, which every format here pins to 255.
func (p RGBA) RGB() pixel.RGB { return pixel.RGB{R: p.R, G: p.G, B: p.B} }

// cacheIndex8 implements the QOI 8-bit cache key formula:
// (r*3 + g*5 + b*7 + a*11) mod 64.
func cacheIndex8(p RGBA) int {
	return int((uint32(p.R)*3 + uint32(p.G)*5 + uint32(p.B)*7 + uint32(p.A)*11) % 64)
}

// cacheIndex16 implements the 16bpp cache key: (px16*6311) mod 64.
func cacheIndex16(px16 uint16) int {
	return int((uint32(px16) * 6311) % 64)
}

// State is the running QOI encode/decode state: a 64-slot cache of
// recently seen pixels plus the previous pixel register. It is reset on
// construction and never reset mid-stream — in QOIF2 a single State
// spans every block in the file.
type State struct {
	Cache8  [64]RGBA
	Cache16 [64]uint16
	Prev8   RGBA
	Prev16  uint16
}

// NewState returns a fresh state with prev pixel defaulted to opaque black,
// matching the QOI reference decoder/encoder's initial previous-pixel value.
func NewState() *State {
	return &State{Prev8: RGBA{A: 255}}
}

// Observe8 updates the cache and previous-pixel register after a pixel has
// been emitted (encoder) or decoded (reader) — called for every pixel,
// including pixels emitted under a RUN tag, so the cache always reflects
// every pixel actually written to the canvas.
func (s *State) Observe8(p RGBA) {
	s.Cache8[cacheIndex8(p)] = p
	s.Prev8 = p
}

// Lookup8 returns the cached pixel at idx (0-63).
func (s *State) Lookup8(idx int) RGBA { return s.Cache8[idx] }

// IndexOf8 returns the cache slot a pixel would occupy.
func IndexOf8(p RGBA) int { return cacheIndex8(p) }

// Observe16 is Observe8's 16bpp-mode equivalent.
func (s *State) Observe16(px16 uint16) {
	s.Cache16[cacheIndex16(px16)] = px16
	s.Prev16 = px16
}

// Lookup16 returns the cached 16bpp pixel at idx.
func (s *State) Lookup16(idx int) uint16 { return s.Cache16[idx] }

// IndexOf16 returns the cache slot a 16bpp pixel would occupy.
func IndexOf16(px16 uint16) int { return cacheIndex16(px16) }
