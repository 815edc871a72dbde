//go:build !nocv

package diff

import (
	"image"

	"gocv.io/x/gocv"

	pixelpkg "github.com/BasementCat/animated-badge/pixel"
)

const (
	scale   = 0.25
	scaleUp = 1 / scale
)

// Rects computes the dirty rectangles between two equal-sized RGB frames:
// grayscale, absolute difference, downscale, morphological close (dilate/erode x3,
// twice), threshold, two passes of connected-components analysis (the
// second pass over a mask built by filling the first pass's bounding
// boxes, to merge nearby blobs before computing the boxes actually
// returned), upscale, and recursive split of any box wider or taller
// than 255 (the region encoders' one-byte w/h fields can't hold more).
//
// Grounded on ausocean-av/filter/{diff,mog,motion}.go for the gocv call
// shapes (CvtColor, Resize, GetStructuringElement, Dilate, Erode,
// Threshold); connected-components analysis itself has no analogue in the
// pack's motion filters (they use FindContours instead) but is the direct
// binding for OpenCV's connectedComponentsWithStats.
func Rects(a, b *pixelpkg.Frame) ([]pixelpkg.Rect, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return nil, errMismatchedSize
	}

	m1, err := gocv.NewMatFromBytes(a.Height, a.Width, gocv.MatTypeCV8UC3, a.Pix)
	if err != nil {
		return nil, err
	}
	defer m1.Close()
	m2, err := gocv.NewMatFromBytes(b.Height, b.Width, gocv.MatTypeCV8UC3, b.Pix)
	if err != nil {
		return nil, err
	}
	defer m2.Close()

	gray1 := gocv.NewMat()
	defer gray1.Close()
	gray2 := gocv.NewMat()
	defer gray2.Close()
	gocv.CvtColor(m1, &gray1, gocv.ColorRGBToGray)
	gocv.CvtColor(m2, &gray2, gocv.ColorRGBToGray)

	// Absolute difference, so a pixel that got brighter and one that got
	// dimmer both register as changed.
	sub := gocv.NewMat()
	defer sub.Close()
	gocv.AbsDiff(gray1, gray2, &sub)

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(sub, &small, image.Point{}, scale, scale, gocv.InterpolationDefault)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()

	closeMorph := func(m *gocv.Mat) {
		gocv.Dilate(*m, m, kernel)
		gocv.Dilate(*m, m, kernel)
		gocv.Dilate(*m, m, kernel)
		gocv.Erode(*m, m, kernel)
		gocv.Erode(*m, m, kernel)
		gocv.Erode(*m, m, kernel)
	}
	closeMorph(&small)
	closeMorph(&small)

	bin := gocv.NewMat()
	defer bin.Close()
	gocv.Threshold(small, &bin, 0, 255, gocv.ThresholdBinary)

	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()
	gocv.ConnectedComponentsWithStats(bin, &labels, &stats, &centroids)

	firstPass := statsFromMat(&stats)

	// Re-fill a blank mask with the first-pass boxes and re-run
	// connected-components, merging intersecting/adjacent blobs before
	// computing the boxes this function actually returns.
	refill := gocv.NewMatWithSize(small.Rows(), small.Cols(), gocv.MatTypeCV8U)
	defer refill.Close()
	for _, s := range firstPass {
		gocv.Rectangle(&refill, image.Rect(s.X, s.Y, s.X+s.W, s.Y+s.H), color255, -1)
	}

	labels2 := gocv.NewMat()
	defer labels2.Close()
	stats2 := gocv.NewMat()
	defer stats2.Close()
	centroids2 := gocv.NewMat()
	defer centroids2.Close()
	gocv.ConnectedComponentsWithStats(refill, &labels2, &stats2, &centroids2)

	secondPass := statsFromMat(&stats2)
	return boxesFromStats(secondPass, scaleUp), nil
}

var color255 = gocv.NewScalar(255, 255, 255, 0)

// statsFromMat reads an OpenCV connected-components stats matrix (one row
// per label: CC_STAT_LEFT, TOP, WIDTH, HEIGHT, AREA) and skips label 0,
// which OpenCV always assigns to the background component.
func statsFromMat(stats *gocv.Mat) []connectedComponentStat {
	var out []connectedComponentStat
	rows := stats.Rows()
	for i := 1; i < rows; i++ {
		out = append(out, connectedComponentStat{
			X: int(stats.GetIntAt(i, 0)),
			Y: int(stats.GetIntAt(i, 1)),
			W: int(stats.GetIntAt(i, 2)),
			H: int(stats.GetIntAt(i, 3)),
		})
	}
	return out
}
