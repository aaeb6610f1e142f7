package thumb

import "math"

// FitWithin returns the largest size that fits inside boxW x boxH while
// preserving the srcW:srcH aspect ratio. When the source is wider than the
// box, width is pinned to the box width; otherwise height is pinned to the
// box height. Dimensions are rounded to the nearest pixel and never drop
// below 1. Callers must apply orientation before measuring so rotated
// originals are fitted post-rotation.
func FitWithin(srcW, srcH, boxW, boxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 || boxW <= 0 || boxH <= 0 {
		return 0, 0
	}

	srcAspect := float64(srcW) / float64(srcH)
	boxAspect := float64(boxW) / float64(boxH)

	var w, h int
	if srcAspect > boxAspect {
		w = boxW
		h = int(math.Round(float64(boxW) / srcAspect))
	} else {
		h = boxH
		w = int(math.Round(float64(boxH) * srcAspect))
	}

	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
