package imgprep

import "github.com/BasementCat/animated-badge/pixel"

// BGMode selects how the background color is determined.
type BGMode int

const (
	// BGLiteral uses a fixed RGB triple.
	BGLiteral BGMode = iota
	// BGCommon picks the most frequent pixel across the whole image.
	BGCommon
	// BGEdge picks the most frequent pixel on the 1-pixel border of the
	// first frame only.
	BGEdge
)

// BGSpec is the background-color specification passed to the preparer.
type BGSpec struct {
	Mode    BGMode
	Literal pixel.RGB
}

// pixelCount tracks frequency plus first-occurrence order, so ties can be
// broken deterministically.
type pixelCount struct {
	color pixel.RGB
	count int
	first int
}

// mostCommon returns the most frequent color; ties are broken toward the
// earliest-seen color among those tied for the highest count, so the
// result doesn't depend on map/slice iteration order.
func mostCommon(counts []pixelCount) pixel.RGB {
	best := counts[0]
	for _, c := range counts[1:] {
		if c.count > best.count || (c.count == best.count && c.first < best.first) {
			best = c
		}
	}
	return best.color
}

func tally(frame *pixel.Frame, xs, ys []int) []pixelCount {
	index := map[pixel.RGB]int{}
	var counts []pixelCount
	seq := 0
	for _, y := range ys {
		for _, x := range xs {
			c := frame.At(x, y)
			if i, ok := index[c]; ok {
				counts[i].count++
				continue
			}
			index[c] = len(counts)
			counts = append(counts, pixelCount{color: c, count: 1, first: seq})
			seq++
		}
	}
	return counts
}

func rangeInts(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// ComputeBackground resolves the background color for the given first
// frame according to spec.Mode.
func ComputeBackground(spec BGSpec, firstFrame *pixel.Frame) pixel.RGB {
	switch spec.Mode {
	case BGLiteral:
		return spec.Literal
	case BGCommon:
		w, h := firstFrame.Width, firstFrame.Height
		counts := tally(firstFrame, rangeInts(w), rangeInts(h))
		return mostCommon(counts)
	case BGEdge:
		w, h := firstFrame.Width, firstFrame.Height
		// Top and bottom rows (full width), then left/right columns
		// excluding corners already covered by the rows.
		top := tally(firstFrame, rangeInts(w), []int{0})
		bottom := tally(firstFrame, rangeInts(w), []int{h - 1})
		var left, right []pixelCount
		if h > 2 {
			left = tally(firstFrame, []int{0}, rangeInts(h)[1:h-1])
			right = tally(firstFrame, []int{w - 1}, rangeInts(h)[1:h-1])
		}
		merged := mergeCounts(top, bottom, left, right)
		return mostCommon(merged)
	}
	return pixel.RGB{}
}

// mergeCounts combines several independently-tallied count sets,
// preserving first-occurrence order across the whole merged sequence.
func mergeCounts(sets ...[]pixelCount) []pixelCount {
	index := map[pixel.RGB]int{}
	var out []pixelCount
	seq := 0
	for _, set := range sets {
		for _, c := range set {
			if i, ok := index[c.color]; ok {
				out[i].count += c.count
				continue
			}
			index[c.color] = len(out)
			out = append(out, pixelCount{color: c.color, count: c.count, first: seq})
			seq++
		}
	}
	return out
}
