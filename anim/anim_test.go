package anim

import (
	"bytes"
	"testing"

	"github.com/BasementCat/animated-badge/pixel"
)

// TestWriteV3StaticHeader checks a 240x320 @16bpp static image with a
// thumbnail produces the exact 16-byte magic+header prefix (magic LE,
// version=3, offset=12, width=240, height=320, bpp=16, reserved=0,
// flags=IF_HAS_THUMB=2).
func TestWriteV3StaticHeader(t *testing.T) {
	f := pixel.NewFrame(240, 320, 0)
	thumb := pixel.NewFrame(8, 8, 0)

	var buf bytes.Buffer
	frames := []FrameInput{{Frame: f, Diff: nil}}
	if err := Write(&buf, V3, 240, 320, 16, false, thumb, frames); err != nil {
		t.Fatal(err)
	}
	got := buf.Bytes()[:16]
	want := []byte{
		0x41, 0x49, 0x6d, 0x67, // magic
		0x03, 0x00, // version
		0x0c, 0x00, // offset = 12
		0xf0, 0x00, // width 240
		0x40, 0x01, // height 320
		0x10, // bpp 16
		0x00, // reserved
		0x02, 0x00, // flags = IF_HAS_THUMB
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x\nwant % x", got, want)
	}
}

// TestRoundTripV3LargeDimensions covers width/height at or beyond 256, the
// point where v3's one-byte region w/h fields can no longer hold the value
// literally and the writer must fall back to the w=0,h=0 "use the image
// header's width/height" sentinel instead.
func TestRoundTripV3LargeDimensions(t *testing.T) {
	w, h := 320, 240
	f := pixel.NewFrame(w, h, 80)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Set(x, y, pixel.RGB{R: uint8(x), G: uint8(y), B: 1})
		}
	}

	var buf bytes.Buffer
	if err := Write(&buf, V3, w, h, 24, false, nil, []FrameInput{{Frame: f}}); err != nil {
		t.Fatal(err)
	}
	res, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(res.Frames))
	}
	if !bytes.Equal(res.Frames[0].Frame.Pix, f.Pix) {
		t.Fatal("pixel mismatch after round-trip at dimensions >= 256")
	}
}

func TestRoundTripSingleFrameV3(t *testing.T) {
	w, h := 6, 4
	f := pixel.NewFrame(w, h, 150)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Set(x, y, pixel.RGB{R: uint8(x * 10), G: uint8(y * 10), B: 5})
		}
	}

	var buf bytes.Buffer
	if err := Write(&buf, V3, w, h, 24, false, nil, []FrameInput{{Frame: f}}); err != nil {
		t.Fatal(err)
	}
	res, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(res.Frames))
	}
	if !bytes.Equal(res.Frames[0].Frame.Pix, f.Pix) {
		t.Fatal("pixel mismatch after round-trip")
	}
	if res.Frames[0].DurationMS != 150 {
		t.Fatalf("duration = %d, want 150 (v3 stores whole centiseconds, truncating ms/10)", res.Frames[0].DurationMS)
	}
}

func TestRoundTripAnimatedV4WithDiffRegions(t *testing.T) {
	w, h := 10, 10
	first := pixel.NewFrame(w, h, 100)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			first.Set(x, y, pixel.RGB{R: 1, G: 2, B: 3})
		}
	}
	second := pixel.NewFrame(w, h, 200)
	copy(second.Pix, first.Pix)
	for y := 2; y < 5; y++ {
		for x := 2; x < 5; x++ {
			second.Set(x, y, pixel.RGB{R: 200, G: 0, B: 0})
		}
	}

	frames := []FrameInput{
		{Frame: first, Diff: nil},
		{Frame: second, Diff: []pixel.Rect{{X: 2, Y: 2, W: 3, H: 3}}},
	}

	var buf bytes.Buffer
	if err := Write(&buf, V4, w, h, 24, true, nil, frames); err != nil {
		t.Fatal(err)
	}
	res, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(res.Frames))
	}
	if !bytes.Equal(res.Frames[0].Frame.Pix, first.Pix) {
		t.Fatal("first frame mismatch")
	}
	if !bytes.Equal(res.Frames[1].Frame.Pix, second.Pix) {
		t.Fatal("second (patched) frame mismatch")
	}
	if res.Frames[1].DurationMS != 200 {
		t.Fatalf("duration = %d, want 200", res.Frames[1].DurationMS)
	}
}

func TestThumbnailRoundTrip(t *testing.T) {
	w, h, tsz := 8, 8, 4
	f := pixel.NewFrame(w, h, 0)
	thumb := pixel.NewFrame(tsz, tsz, 0)
	for y := 0; y < tsz; y++ {
		for x := 0; x < tsz; x++ {
			thumb.Set(x, y, pixel.RGB{R: 9, G: 8, B: 7})
		}
	}

	var buf bytes.Buffer
	if err := Write(&buf, V4, w, h, 24, false, thumb, []FrameInput{{Frame: f}}); err != nil {
		t.Fatal(err)
	}
	res, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if res.Thumbnail == nil {
		t.Fatal("expected thumbnail, got nil")
	}
	if !bytes.Equal(res.Thumbnail.Pix, thumb.Pix) {
		t.Fatal("thumbnail mismatch")
	}
}

func TestReadBadMagic(t *testing.T) {
	data := []byte{0, 0, 0, 0, 3, 0, 12, 0}
	if _, err := Read(bytes.NewReader(data)); err == nil {
		t.Fatal("expected error for bad magic")
	}
}
