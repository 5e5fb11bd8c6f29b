package segmentation

import (
	"irisrec/internal/logging"
	"irisrec/pkg/pupil"
)

const (
	// SmallestIris is the smallest iris diameter the contour search handles.
	SmallestIris = 99

	// MaxPupilRatio and MinPupilRatio bound the pupil to iris diameter ratio.
	MaxPupilRatio float32 = 0.7
	MinPupilRatio float32 = 0.2
)

// RangeError reports a minimum diameter larger than its maximum.
type RangeError = pupil.RangeError

// Bounds are the expected pupil and iris diameters in pixels. A zero
// maximum is replaced by a default derived from the image size.
type Bounds struct {
	MinIris  int
	MaxIris  int
	MinPupil int
	MaxPupil int
}

// Resolve clamps the bounds to what a width x height image can hold and
// forces them odd: minima are rounded down and maxima up. Every replaced
// value is reported as a warning.
func (b Bounds) Resolve(width, height int, log logging.Logger) (Bounds, error) {
	side := min(width, height)

	if b.MaxIris == 0 {
		b.MaxIris = side
	} else if b.MaxIris > side {
		log.Warning(component, "maximum iris diameter replaced", map[string]interface{}{
			"requested": b.MaxIris,
			"replaced":  side,
			"reason":    "image is too small",
			"width":     width,
			"height":    height,
		})
		b.MaxIris = side
	}

	maxPupil := int(MaxPupilRatio * float32(b.MaxIris))
	if b.MaxPupil == 0 {
		b.MaxPupil = maxPupil
	} else if b.MaxPupil > maxPupil {
		log.Warning(component, "maximum pupil diameter replaced", map[string]interface{}{
			"requested": b.MaxPupil,
			"replaced":  maxPupil,
			"reason":    "pupil to iris ratio is generally lower",
			"maxIris":   b.MaxIris,
		})
		b.MaxPupil = maxPupil
	}

	if b.MinIris < SmallestIris {
		log.Warning(component, "minimum iris diameter replaced", map[string]interface{}{
			"requested": b.MinIris,
			"replaced":  SmallestIris,
			"reason":    "smallest size for detecting the iris",
		})
		b.MinIris = SmallestIris
	}

	minPupil := int(float32(b.MinIris) * MinPupilRatio)
	if b.MinPupil < minPupil {
		log.Warning(component, "minimum pupil diameter replaced", map[string]interface{}{
			"requested": b.MinPupil,
			"replaced":  minPupil,
			"reason":    "pupil to iris ratio is generally higher",
			"minIris":   b.MinIris,
		})
		b.MinPupil = minPupil
	}

	if b.MinIris > b.MaxIris {
		return b, &RangeError{Name: "iris diameter", Min: b.MinIris, Max: b.MaxIris}
	}

	if b.MinIris%2 == 0 {
		b.MinIris--
	}
	if b.MaxIris%2 == 0 {
		b.MaxIris++
	}
	if b.MinPupil%2 == 0 {
		b.MinPupil--
	}
	if b.MaxPupil%2 == 0 {
		b.MaxPupil++
	}
	return b, nil
}
