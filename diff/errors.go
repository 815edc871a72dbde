package diff

import "errors"

// errMismatchedSize is returned when the two frames passed to Rects are
// not the same size; diffing is only defined for equal-sized frames.
var errMismatchedSize = errors.New("diff: frames have mismatched dimensions")
