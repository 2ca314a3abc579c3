package gallery

import (
	"math"
	"time"
)

const (
	MinScale     = 0.5
	MaxScale     = 3.0
	DefaultScale = 1.0

	// TapThreshold is the longest touch still treated as a tap.
	TapThreshold = 200 * time.Millisecond
)

type Gesture int

const (
	GestureNone Gesture = iota
	GestureTap
	GestureScale
)

// ClampScale keeps scale within [MinScale, MaxScale]. Unset or invalid scales read as the default.
func ClampScale(scale float64) float64 {
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return DefaultScale
	}

	return math.Min(MaxScale, math.Max(MinScale, scale))
}

/*
ApplyZoom multiplies scale by factor and clamps the result. Factors that
are not finite and positive leave the scale unchanged.
*/
func ApplyZoom(scale, factor float64) float64 {
	scale = ClampScale(scale)

	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return scale
	}

	return ClampScale(scale * factor)
}

/*
ClassifyGesture decides what a finished touch means. A pinch in progress
always wins; a short touch is a tap; anything else is ignored.
*/
func ClassifyGesture(duration time.Duration, scaling bool, scaleFactor float64) Gesture {
	if scaling {
		if scaleFactor > 0 && scaleFactor != 1 {
			return GestureScale
		}

		return GestureNone
	}

	if duration >= 0 && duration < TapThreshold {
		return GestureTap
	}

	return GestureNone
}
