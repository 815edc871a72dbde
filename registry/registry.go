// Package registry is the explicit format dispatch table: every format a
// plain struct literal in a slice, looked up by name or probed in order,
// rather than discovered via reflection or init-time side effects.
package registry

import (
	"fmt"
	"io"

	"github.com/BasementCat/animated-badge/anim"
	"github.com/BasementCat/animated-badge/internal/wire"
	"github.com/BasementCat/animated-badge/pixel"
	"github.com/BasementCat/animated-badge/qoif"
	"github.com/BasementCat/animated-badge/qoif2"
)

// FrameInput is one output frame plus the dirty regions that changed since
// the previous frame; nil Diff means "whole frame".
type FrameInput struct {
	Frame *pixel.Frame
	Diff  []pixel.Rect
}

// Image is a codec-agnostic view of a prepared (possibly animated) image,
// the shape every format's Write adapter consumes.
type Image struct {
	Width, Height int
	BPP           int
	Thumbnail     *pixel.Frame
	Frames        []FrameInput
}

// DecodedFrame is one fully-reconstructed rendered frame.
type DecodedFrame struct {
	Frame      *pixel.Frame
	DurationMS int
}

// Decoded is a codec-agnostic view of a fully-read stream.
type Decoded struct {
	Width, Height int
	Thumbnail     *pixel.Frame
	Frames        []DecodedFrame
}

// Entry pairs a format's name/extension with its writer and reader.
// Write's excludeTags argument, when non-nil, is the debug "exclude tags"
// knob; only qoif2 honors it (anim3, anim4 and qoif ignore it).
type Entry struct {
	Name  string
	Ext   string
	Write func(w io.Writer, img Image, excludeTags map[string]bool) error
	Read  func(r io.Reader) (*Decoded, error)
}

// All is the explicit format table, in the order converter's -h/usage text
// and unconverter's probe loop present them.
var All = []Entry{
	{Name: "anim3", Ext: "sda", Write: writeAnim(anim.V3), Read: readAnim(anim.V3)},
	{Name: "anim4", Ext: "sda", Write: writeAnim(anim.V4), Read: readAnim(anim.V4)},
	{Name: "qoif", Ext: "qoi", Write: writeQOIF, Read: readQOIF},
	{Name: "qoif2", Ext: "qox", Write: writeQOIF2, Read: readQOIF2},
}

// Get looks up a format by name.
func Get(name string) (Entry, bool) {
	for _, e := range All {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Names returns every registered format name, for flag usage text.
func Names() []string {
	names := make([]string, len(All))
	for i, e := range All {
		names[i] = e.Name
	}
	return names
}

// Dispatch tries each registered reader against r in turn, rewinding to the
// start before each attempt, and returns the first that accepts the magic.
// Requires a seekable source since a rejected reader may have consumed
// bytes past the magic before failing.
func Dispatch(r io.ReadSeeker) (Entry, *Decoded, error) {
	for _, e := range All {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return Entry{}, nil, err
		}
		decoded, err := e.Read(r)
		if err == nil {
			return e, decoded, nil
		}
		if err != wire.ErrBadFileType {
			return Entry{}, nil, err
		}
	}
	return Entry{}, nil, fmt.Errorf("registry: no reader accepted the input")
}

func writeAnim(version anim.Version) func(io.Writer, Image, map[string]bool) error {
	return func(w io.Writer, img Image, _ map[string]bool) error {
		frames := make([]anim.FrameInput, len(img.Frames))
		for i, f := range img.Frames {
			frames[i] = anim.FrameInput{Frame: f.Frame, Diff: f.Diff}
		}
		return anim.Write(w, version, img.Width, img.Height, img.BPP, len(img.Frames) > 1, img.Thumbnail, frames)
	}
}

func readAnim(version anim.Version) func(io.Reader) (*Decoded, error) {
	return func(r io.Reader) (*Decoded, error) {
		res, err := anim.Read(r)
		if err != nil {
			return nil, err
		}
		if res.Version != version {
			return nil, wire.ErrBadFileType
		}
		return &Decoded{
			Width:     res.Header.Width,
			Height:    res.Header.Height,
			Thumbnail: res.Thumbnail,
			Frames:    toDecodedFrames(res.Frames),
		}, nil
	}
}

func toDecodedFrames(in []anim.DecodedFrame) []DecodedFrame {
	out := make([]DecodedFrame, len(in))
	for i, f := range in {
		out[i] = DecodedFrame{Frame: f.Frame, DurationMS: f.DurationMS}
	}
	return out
}

func writeQOIF(w io.Writer, img Image, _ map[string]bool) error {
	if len(img.Frames) == 0 {
		return fmt.Errorf("qoif: no frame to write")
	}
	return qoif.Write(w, img.Frames[0].Frame)
}

func readQOIF(r io.Reader) (*Decoded, error) {
	f, err := qoif.Read(r)
	if err != nil {
		return nil, err
	}
	return &Decoded{
		Width:  f.Width,
		Height: f.Height,
		Frames: []DecodedFrame{{Frame: f, DurationMS: f.DurationMS}},
	}, nil
}

func writeQOIF2(w io.Writer, img Image, excludeTags map[string]bool) error {
	frames := make([]qoif2.FrameInput, len(img.Frames))
	for i, f := range img.Frames {
		frames[i] = qoif2.FrameInput{Frame: f.Frame, Diff: f.Diff}
	}
	return qoif2.Write(w, img.Width, img.Height, img.BPP, img.Thumbnail, frames, excludeTags)
}

func readQOIF2(r io.Reader) (*Decoded, error) {
	res, err := qoif2.Read(r)
	if err != nil {
		return nil, err
	}
	frames := make([]DecodedFrame, len(res.Frames))
	for i, f := range res.Frames {
		frames[i] = DecodedFrame{Frame: f.Frame, DurationMS: f.DurationMS}
	}
	return &Decoded{
		Width:     res.Header.Width,
		Height:    res.Header.Height,
		Thumbnail: res.Thumbnail,
		Frames:    frames,
	}, nil
}
