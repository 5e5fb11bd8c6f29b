package segmentation

import "irisrec/pkg/geometry"

// thetaStep returns the angular step in degrees that samples a circle of
// the given radius about once per pixel, scaled by factor.
func thetaStep(radius int, factor float64) float32 {
	return float32(360.0 / float64(geometry.Pi) / float64(radius) * factor)
}

// uniformThetas samples [0, 360) degrees with a constant step and returns
// the angles in radians.
func uniformThetas(step float32) []float32 {
	var thetas []float32
	for t := float32(0); t < 360; t += step {
		thetas = append(thetas, geometry.Radians(t))
	}
	return thetas
}

// pupilCoarseThetas skips one extra step inside (45, 135) degrees, the part
// of the pupil most often covered by the upper eyelid.
func pupilCoarseThetas(step float32) []float32 {
	var thetas []float32
	for t := float32(0); t < 360; t += step {
		if t > 45 && t < 135 {
			t += step
		}
		thetas = append(thetas, geometry.Radians(t))
	}
	return thetas
}

// irisCoarseThetas samples the two lower sectors (180, 225) and (315, 360)
// densely and the rest of the circle with a triple step.
func irisCoarseThetas(step float32) []float32 {
	var thetas []float32
	for t := float32(0); t < 360; t += step {
		if t < 180 || (t > 225 && t < 315) {
			t += 2 * step
		}
		thetas = append(thetas, geometry.Radians(t))
	}
	return thetas
}
