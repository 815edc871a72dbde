// Command unconverter decodes one of this module's binary formats back to a
// human-inspectable rendering. Probing which format a file is in, and the
// low-level frame decode, are this module's job; laying the decoded frames
// out for a person to look at is handed off to the standard library's
// image/png encoder, writing one PNG per decoded frame rather than
// composing a debug grid.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/BasementCat/animated-badge/pixel"
	"github.com/BasementCat/animated-badge/registry"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "unconverter: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("unconverter", flag.ContinueOnError)
	outDir := fs.String("o", ".", "directory to write rendered frames into")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: unconverter [options] <filename>\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("missing filename")
	}
	path := fs.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	entry, decoded, err := registry.Dispatch(f)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	fmt.Printf("%s: format=%s %dx%d frames=%d thumbnail=%v\n", path, entry.Name, decoded.Width, decoded.Height, len(decoded.Frames), decoded.Thumbnail != nil)

	if decoded.Thumbnail != nil {
		if err := writePNG(filepath.Join(*outDir, base+".thumb.png"), decoded.Thumbnail); err != nil {
			return err
		}
	}
	for i, fr := range decoded.Frames {
		name := fmt.Sprintf("%s.%04d.png", base, i)
		if err := writePNG(filepath.Join(*outDir, name), fr.Frame); err != nil {
			return err
		}
	}
	return nil
}

func writePNG(path string, frame *pixel.Frame) error {
	img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			c := frame.At(x, y)
			i := img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, 255
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, img)
}
