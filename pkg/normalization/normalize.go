// Package normalization unrolls the iris ring into a fixed size rectangle
// (Daugman's rubber sheet). Column j samples the angle j/width*2*Pi and row i
// the point at fraction i/height of the way from the pupil boundary to the
// iris boundary.
package normalization

import (
	"fmt"
	"image"

	"irisrec/pkg/geometry"
	"irisrec/pkg/imgbuf"
	"irisrec/pkg/interpolation"
)

// boundary returns the pupil and iris boundary points for an angle.
type boundary func(theta float32) (pupil, iris image.Point)

// FromCircles normalizes src between two circular boundaries.
func FromCircles(src *imgbuf.Gray, width, height int, pupil, iris geometry.Circle) *imgbuf.Gray {
	return sheet(src, width, height, func(theta float32) (image.Point, image.Point) {
		return geometry.PolarToCartesian(pupil.Center, pupil.Radius, theta),
			geometry.PolarToCartesian(iris.Center, iris.Radius, theta)
	})
}

// FromContours normalizes src between the coarse pupil and iris contours,
// interpolating each boundary at the column angles.
func FromContours(src *imgbuf.Gray, width, height int, pupil, iris interpolation.Contour) (*imgbuf.Gray, error) {
	if err := pupil.Validate(); err != nil {
		return nil, fmt.Errorf("pupil contour: %w", err)
	}
	if err := iris.Validate(); err != nil {
		return nil, fmt.Errorf("iris contour: %w", err)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid normalized size %dx%d", width, height)
	}

	return sheet(src, width, height, func(theta float32) (image.Point, image.Point) {
		return interpolation.Interpolate(pupil, theta), interpolation.Interpolate(iris, theta)
	}), nil
}

func sheet(src *imgbuf.Gray, width, height int, at boundary) *imgbuf.Gray {
	dst := imgbuf.NewGray(width, height)

	for j := 0; j < width; j++ {
		theta := float32(j) / float32(width) * 2 * geometry.Pi
		p, q := at(theta)

		for i := 0; i < height; i++ {
			rho := float32(i) / float32(height)
			x := int((1-rho)*float32(p.X) + rho*float32(q.X))
			y := int((1-rho)*float32(p.Y) + rho*float32(q.Y))

			// Pixels outside the source stay black
			if src.InBounds(x, y) {
				dst.Set(j, i, src.At(x, y))
			}
		}
	}
	return dst
}
