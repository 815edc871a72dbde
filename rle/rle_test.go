package rle

import (
	"testing"

	"github.com/BasementCat/animated-badge/pixel"
)

func solid(w, h int, c pixel.RGB) *pixel.Frame {
	f := pixel.NewFrame(w, h, 0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Set(x, y, c)
		}
	}
	return f
}

func TestChunksTotalPixelCount(t *testing.T) {
	f := solid(10, 10, pixel.RGB{R: 1, G: 2, B: 3})
	total := 0
	Chunks(f, 0, 0, 10, 10, 63, true, func(c Chunk) {
		if c.RunLength > 0 {
			total += c.RunLength
		} else {
			total += len(c.Pixels)
		}
	})
	if total != 100 {
		t.Fatalf("total = %d, want 100", total)
	}
}

func TestChunksSolidRunIsOneRLEGroupUnderCap(t *testing.T) {
	f := solid(8, 8, pixel.RGB{R: 9, G: 9, B: 9})
	var chunks []Chunk
	Chunks(f, 0, 0, 8, 8, 0, false, func(c Chunk) { chunks = append(chunks, c) })
	if len(chunks) != 1 || chunks[0].RunLength != 64 {
		t.Fatalf("got %+v, want single RLE chunk of 64", chunks)
	}
}

func TestChunksShortRunsStayRaw(t *testing.T) {
	f := pixel.NewFrame(4, 1, 0)
	colors := []pixel.RGB{{R: 1}, {R: 2}, {R: 3}, {R: 1}}
	for i, c := range colors {
		f.Set(i, 0, c)
	}
	var chunks []Chunk
	Chunks(f, 0, 0, 4, 1, 0, false, func(c Chunk) { chunks = append(chunks, c) })
	if len(chunks) != 1 || chunks[0].RunLength != 0 || len(chunks[0].Pixels) != 4 {
		t.Fatalf("got %+v, want one raw chunk of 4 pixels", chunks)
	}
}

func TestChunksRLEAlwaysSplitByMaxChunkSize(t *testing.T) {
	f := solid(100, 1, pixel.RGB{R: 7})
	var chunks []Chunk
	Chunks(f, 0, 0, 100, 1, 63, true, func(c Chunk) { chunks = append(chunks, c) })
	if len(chunks) != 2 {
		t.Fatalf("expected run split into 2 chunks by max_chunk_size, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].RunLength != 63 || chunks[1].RunLength != 37 {
		t.Fatalf("got run lengths %d, %d, want 63, 37", chunks[0].RunLength, chunks[1].RunLength)
	}
}

func TestChunksRawBufferCappedWhenNotOnlyChunkRLE(t *testing.T) {
	f := pixel.NewFrame(6, 1, 0)
	colors := []pixel.RGB{{R: 1}, {R: 2}, {R: 1}, {R: 2}, {R: 1}, {R: 2}}
	for i, c := range colors {
		f.Set(i, 0, c)
	}
	var chunks []Chunk
	Chunks(f, 0, 0, 6, 1, 4, false, func(c Chunk) { chunks = append(chunks, c) })
	if len(chunks) != 2 {
		t.Fatalf("expected raw buffer split at max_chunk_size=4, got %+v", chunks)
	}
}
