// Package rle implements the RLE chunker: it groups a linear pixel stream
// into (run_length, pixel_group) pairs bounded by a configurable maximum
// chunk size.
package rle

import "github.com/BasementCat/animated-badge/pixel"

// Chunk is one emitted unit: either a raw run (RunLength == 0, Pixels holds
// the literal pixel sequence) or an RLE run (RunLength > 0, Pixels holds
// exactly one pixel repeated RunLength times).
type Chunk struct {
	RunLength int
	Pixels    []pixel.RGB
}

// Chunks walks the sub-rectangle (x,y,w,h) of f in row-major order and
// yields RLE/raw chunks via emit. maxChunkSize == 0 means unbounded.
//
// When onlyChunkRLE is false, every buffered group — raw or RLE — is
// size-capped at maxChunkSize; when true, only RLE runs are capped and raw
// buffers are emitted whole. An RLE group is always subject to the cap
// regardless of onlyChunkRLE, since an uncapped run's length field would
// otherwise overflow the wire format's run-length encoding.
func Chunks(f *pixel.Frame, x, y, w, h, maxChunkSize int, onlyChunkRLE bool, emit func(Chunk)) {
	total := 0
	expected := w * h

	var raw []pixel.RGB
	flushRaw := func() {
		if len(raw) == 0 {
			return
		}
		for _, group := range chunkSlice(raw, maxChunkSize, onlyChunkRLE, false) {
			total += len(group)
			emit(Chunk{RunLength: 0, Pixels: group})
		}
		raw = nil
	}

	i := 0
	pixels := make([]pixel.RGB, 0, expected)
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			pixels = append(pixels, f.At(xx, yy))
		}
	}

	for i < len(pixels) {
		j := i + 1
		for j < len(pixels) && pixels[j] == pixels[i] {
			j++
		}
		runLen := j - i
		if runLen > 3 {
			flushRaw()
			for _, group := range chunkSlice(pixels[i:j], maxChunkSize, onlyChunkRLE, true) {
				if len(group) == 0 {
					continue
				}
				total += len(group)
				emit(Chunk{RunLength: len(group), Pixels: []pixel.RGB{group[0]}})
			}
		} else {
			raw = append(raw, pixels[i:j]...)
		}
		i = j
	}
	flushRaw()

	if total != expected {
		panic("rle: emitted pixel count mismatch")
	}
}

// chunkSlice splits data into groups of at most maxChunkSize, honoring the
// onlyChunkRLE/isRLE interplay described on Chunks.
func chunkSlice(data []pixel.RGB, maxChunkSize int, onlyChunkRLE, isRLE bool) [][]pixel.RGB {
	if maxChunkSize <= 0 || (onlyChunkRLE && !isRLE) {
		return [][]pixel.RGB{data}
	}
	var out [][]pixel.RGB
	for len(data) > maxChunkSize {
		out = append(out, data[:maxChunkSize])
		data = data[maxChunkSize:]
	}
	if len(data) > 0 {
		out = append(out, data)
	}
	return out
}
