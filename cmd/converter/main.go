// Command converter encodes PNG/JPEG/GIF images into one of this module's
// microcontroller-targeted binary formats, using a flag-per-concern CLI in
// the style of a typical single-purpose image-conversion tool.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/BasementCat/animated-badge/imgprep"
	"github.com/BasementCat/animated-badge/internal/wire"
	"github.com/BasementCat/animated-badge/pixel"
	"github.com/BasementCat/animated-badge/registry"
)

// size is a named target geometry: output width/height plus thumbnail side.
type size struct{ w, h, t int }

var sizes = map[string]size{
	"small":  {128, 128, 64},
	"medium": {240, 320, 80},
	"large":  {320, 480, 80},
}

// stringList implements flag.Value for a repeatable -f flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// formatArgs implements flag.Value for repeatable -F KEY=VALUE pairs
// (stdlib flag has no nargs=2 equivalent to argparse's --format-args KEY
// VALUE, so this uses a single KEY=VALUE token per -F instead).
type formatArgs map[string]string

func (f formatArgs) String() string {
	var parts []string
	for k, v := range f {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}
func (f formatArgs) Set(v string) error {
	k, val, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("format-args must be KEY=VALUE, got %q", v)
	}
	f[k] = val
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "converter: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("converter", flag.ContinueOnError)
	inputDir := fs.String("i", ".", "process images in this directory")
	outputDir := fs.String("o", ".", "output directory, existing files may be overwritten")
	bpp := fs.Int("b", 16, "bits per pixel: 16 or 24")
	sizeName := fs.String("s", "medium", "target image size: small, medium, or large")
	customSize := fs.String("S", "", "custom WIDTH,HEIGHT,THUMB, overrides -s")
	noThumbnail := fs.Bool("T", false, "don't generate thumbnails")
	bgColor := fs.String("B", "000000", "background color: RRGGBB, 0xRRGGBB, #RRGGBB, common, or edge")
	logFile := fs.String("log-file", "", "rotating log file for batch failures (default: stderr)")
	var filenames stringList
	fs.Var(&filenames, "f", "image/GIF filename to convert (repeatable); default: scan -i for images")
	fArgs := formatArgs{}
	fs.Var(fArgs, "F", "KEY=VALUE format-specific debug argument (repeatable)")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: converter [options] <format>\nformat is one of: %s\n\n", strings.Join(registry.Names(), ", "))
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("missing output format")
	}
	entry, ok := registry.Get(fs.Arg(0))
	if !ok {
		return fmt.Errorf("unknown format %q, want one of: %s", fs.Arg(0), strings.Join(registry.Names(), ", "))
	}
	if *bpp != 16 && *bpp != 24 {
		return fmt.Errorf("-b must be 16 or 24")
	}

	logger := newLogger(*logFile)

	w, h, t, err := resolveSize(*sizeName, *customSize)
	if err != nil {
		return err
	}
	bgSpec, err := parseColor(*bgColor)
	if err != nil {
		return fmt.Errorf("-B: %w", err)
	}
	if *noThumbnail {
		t = 0
	}

	inputs, err := gatherFilenames(*inputDir, filenames)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no files to convert")
	}

	excludeTags := map[string]bool{}
	if v, ok := fArgs["exclude"]; ok {
		for _, tag := range strings.Split(v, ",") {
			excludeTags[strings.TrimSpace(tag)] = true
		}
	}

	target := imgprep.Target{W: w, H: h, T: t, BPP: *bpp}
	for _, in := range inputs {
		if err := convertOne(in, *outputDir, entry, target, *bpp, bgSpec, excludeTags); err != nil {
			logger.Printf("failed to convert %s: %v", in, err)
		}
	}
	return nil
}

func newLogger(path string) *log.Logger {
	if path == "" {
		return log.New(os.Stderr, "", log.LstdFlags)
	}
	return log.New(&lumberjack.Logger{Filename: path, MaxSize: 10, MaxBackups: 3}, "", log.LstdFlags)
}

func resolveSize(name, custom string) (w, h, t int, err error) {
	if custom != "" {
		parts := strings.Split(custom, ",")
		if len(parts) != 3 {
			return 0, 0, 0, fmt.Errorf("-S must be WIDTH,HEIGHT,THUMB")
		}
		vals := make([]int, 3)
		for i, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || v < 1 {
				return 0, 0, 0, fmt.Errorf("-S: all of WIDTH,HEIGHT,THUMB must be >0")
			}
			vals[i] = v
		}
		return vals[0], vals[1], vals[2], nil
	}
	sz, ok := sizes[name]
	if !ok {
		return 0, 0, 0, fmt.Errorf("-s: unknown size %q", name)
	}
	return sz.w, sz.h, sz.t, nil
}

// parseColor implements convert.py's _parse_color: a literal hex triple
// (optionally prefixed "0x" or "#"), or the mode keywords "common"/"edge".
func parseColor(v string) (imgprep.BGSpec, error) {
	lower := strings.ToLower(v)
	if lower == "common" {
		return imgprep.BGSpec{Mode: imgprep.BGCommon}, nil
	}
	if lower == "edge" {
		return imgprep.BGSpec{Mode: imgprep.BGEdge}, nil
	}
	hex := v
	switch {
	case strings.HasPrefix(lower, "0x"):
		hex = v[2:]
	case strings.HasPrefix(v, "#"):
		hex = v[1:]
	}
	if len(hex) != 6 {
		return imgprep.BGSpec{}, fmt.Errorf("wrong length for color %q", v)
	}
	rv, err := strconv.ParseUint(hex[0:2], 16, 8)
	if err != nil {
		return imgprep.BGSpec{}, err
	}
	gv, err := strconv.ParseUint(hex[2:4], 16, 8)
	if err != nil {
		return imgprep.BGSpec{}, err
	}
	bv, err := strconv.ParseUint(hex[4:6], 16, 8)
	if err != nil {
		return imgprep.BGSpec{}, err
	}
	return imgprep.BGSpec{Mode: imgprep.BGLiteral, Literal: pixel.RGB{R: uint8(rv), G: uint8(gv), B: uint8(bv)}}, nil
}

// gatherFilenames returns the explicit filenames (MIME-filtered, warning on
// rejects) or, absent any, every image/* file found by globbing dir.
func gatherFilenames(dir string, explicit stringList) ([]string, error) {
	if len(explicit) > 0 {
		var out []string
		for _, fn := range explicit {
			ok, err := looksLikeImage(fn)
			if err != nil {
				return nil, err
			}
			if !ok {
				fmt.Fprintf(os.Stderr, "converter: %s does not appear to be an image, skipping\n", fn)
				continue
			}
			out = append(out, fn)
		}
		return out, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, fn := range matches {
		ok, err := looksLikeImage(fn)
		if err != nil || !ok {
			continue
		}
		out = append(out, fn)
	}
	return out, nil
}

func looksLikeImage(fn string) (bool, error) {
	f, err := os.Open(fn)
	if err != nil {
		return false, err
	}
	defer f.Close()
	var buf [512]byte
	n, _ := f.Read(buf[:])
	return strings.HasPrefix(http.DetectContentType(buf[:n]), "image/"), nil
}

func convertOne(inputPath, outputDir string, entry registry.Entry, target imgprep.Target, bpp int, bgSpec imgprep.BGSpec, excludeTags map[string]bool) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf [512]byte
	n, _ := f.Read(buf[:])
	isGIF := http.DetectContentType(buf[:n]) == "image/gif"
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}

	var prep *imgprep.Preparer
	if isGIF {
		g, err := gif.DecodeAll(f)
		if err != nil {
			return err
		}
		prep = imgprep.NewFromSource(newGIFSource(g), target, bgSpec)
	} else {
		img, _, err := image.Decode(f)
		if err != nil {
			return err
		}
		prep = imgprep.New(img, target, bgSpec)
	}

	bg, err := prep.Background()
	if err != nil {
		return err
	}
	thumb, err := prep.Thumbnail(bg)
	if err != nil {
		return err
	}

	var frames []registry.FrameInput
	if err := prep.Frames(bg, func(p imgprep.Prepared) error {
		frames = append(frames, registry.FrameInput{Frame: p.Frame, Diff: p.Diff})
		return nil
	}); err != nil {
		return err
	}

	img := registry.Image{Width: target.W, Height: target.H, BPP: bpp, Thumbnail: thumb, Frames: frames}

	outPath := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))+"."+entry.Ext)
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	return entry.Write(wire.RetryWriter{W: out}, img, excludeTags)
}

// gifSource adapts a decoded *gif.GIF into imgprep.FrameSource, compositing
// each frame onto a persistent canvas per its disposal method up front so
// SeekFrame is a pure, repeatable lookup (the preparer may request frame 0
// more than once, for background/thumbnail computation as well as the main
// frame pass).
type gifSource struct {
	frames []image.Image
	delays []time.Duration
}

func newGIFSource(g *gif.GIF) *gifSource {
	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	canvas := image.NewRGBA(bounds)
	s := &gifSource{frames: make([]image.Image, len(g.Image)), delays: make([]time.Duration, len(g.Image))}
	for i, src := range g.Image {
		draw.Draw(canvas, src.Bounds(), src, src.Bounds().Min, draw.Over)
		out := image.NewRGBA(bounds)
		copy(out.Pix, canvas.Pix)
		s.frames[i] = out
		s.delays[i] = time.Duration(g.Delay[i]) * 10 * time.Millisecond
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground {
			draw.Draw(canvas, src.Bounds(), image.Transparent, image.Point{}, draw.Src)
		}
	}
	return s
}

func (s *gifSource) NFrame() int { return len(s.frames) }

func (s *gifSource) SeekFrame(i int) (image.Image, time.Duration, error) {
	return s.frames[i], s.delays[i], nil
}
