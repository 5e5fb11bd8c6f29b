// Package interpolation provides angular interpolation over coarse boundary
// contours and their persisted text form.
package interpolation

import (
	"errors"
	"fmt"
	"image"

	"irisrec/pkg/geometry"
)

// twoPi is one full turn expressed with the float32 angle constant.
const twoPi = 2 * geometry.Pi

// ErrInvalidContour is returned by Validate for malformed contours.
var ErrInvalidContour = errors.New("invalid contour")

// Contour is a coarse boundary estimate: Points[i] was found at angle
// Thetas[i] (radians). Thetas are sorted ascending in [0, 2*Pi).
type Contour struct {
	Points []image.Point
	Thetas []float32
}

// Len returns the number of samples.
func (c Contour) Len() int { return len(c.Points) }

// Empty reports whether the contour carries no samples.
func (c Contour) Empty() bool { return len(c.Points) == 0 }

// Validate checks that the contour can be interpolated.
func (c Contour) Validate() error {
	if len(c.Points) == 0 {
		return fmt.Errorf("%w: no samples", ErrInvalidContour)
	}
	if len(c.Points) != len(c.Thetas) {
		return fmt.Errorf("%w: %d points but %d thetas", ErrInvalidContour, len(c.Points), len(c.Thetas))
	}
	for i, t := range c.Thetas {
		if t < 0 || t >= twoPi {
			return fmt.Errorf("%w: theta %d out of range: %v", ErrInvalidContour, i, t)
		}
		if i > 0 && t <= c.Thetas[i-1] {
			return fmt.Errorf("%w: thetas not strictly increasing at %d", ErrInvalidContour, i)
		}
	}
	return nil
}

// Interpolate returns the boundary point at theta by linear interpolation
// between the two samples bracketing it. Angles before the first sample or
// at/after the last one interpolate across the 0/2*Pi wrap between the last
// and the first sample. The contour must be valid.
func Interpolate(c Contour, theta float32) image.Point {
	thetas := c.Thetas
	last := len(thetas) - 1

	var i1, i2 int
	var frac float32

	switch {
	case theta < thetas[0]:
		i1, i2 = last, 0
		lo := thetas[i1] - twoPi
		frac = (theta - lo) / (thetas[i2] - lo)
	case theta >= thetas[last]:
		i1, i2 = last, 0
		frac = (theta - thetas[i1]) / (thetas[i2] + twoPi - thetas[i1])
	default:
		for thetas[i1+1] <= theta {
			i1++
		}
		i2 = i1 + 1
		frac = (theta - thetas[i1]) / (thetas[i2] - thetas[i1])
	}

	p1, p2 := c.Points[i1], c.Points[i2]
	return image.Point{
		X: int((1-frac)*float32(p1.X) + frac*float32(p2.X)),
		Y: int((1-frac)*float32(p1.Y) + frac*float32(p2.Y)),
	}
}
