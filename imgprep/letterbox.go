package imgprep

// letterboxSize computes the resized (pre-padding) dimensions that fit an
// image of aspect ratio srcW/srcH within (outW, outH) without cropping,
// preserving aspect ratio.
func letterboxSize(srcW, srcH, outW, outH int) (newW, newH int) {
	outRatio := float64(outW) / float64(outH)
	inRatio := float64(srcW) / float64(srcH)

	if outRatio >= 1 {
		if inRatio <= outRatio {
			return roundInt(float64(outH) * inRatio), outH
		}
		return outW, roundInt(float64(outW) / inRatio)
	}
	if inRatio >= outRatio {
		return outW, roundInt(float64(outW) / inRatio)
	}
	return roundInt(float64(outH) * inRatio), outH
}

func roundInt(v float64) int {
	return int(v + 0.5)
}

// centerOffset returns the top-left placement of a (innerW,innerH) image
// centered within (outerW,outerH), using floor division.
func centerOffset(outerW, outerH, innerW, innerH int) (int, int) {
	return (outerW - innerW) / 2, (outerH - innerH) / 2
}
