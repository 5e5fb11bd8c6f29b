// Package geometry holds the circle model of the pupil and iris boundaries
// and the polar coordinate conventions shared by every stage of the pipeline.
package geometry

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// Pi is the single precision value of pi used for all angle sampling.
// Theta schedules, unwrapping and normalization all depend on this exact
// constant, so it must not be replaced by math.Pi.
const Pi float32 = 3.14159

var (
	// ErrNegativeRadius is returned when a circle is given a negative radius.
	ErrNegativeRadius = errors.New("circle with negative radius")

	// ErrDegenerateFit is returned when a point set does not define a circle,
	// either because there are fewer than three points or because they are
	// collinear.
	ErrDegenerateFit = errors.New("degenerate circle fit")
)

// Circle approximates a pupil or iris boundary.
type Circle struct {
	Center image.Point
	Radius int
}

// NewCircle builds a circle, rejecting negative radii.
func NewCircle(center image.Point, radius int) (Circle, error) {
	var c Circle
	if err := c.Set(center, radius); err != nil {
		return Circle{}, err
	}
	return c, nil
}

// Set updates the circle in place.
func (c *Circle) Set(center image.Point, radius int) error {
	if radius < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeRadius, radius)
	}
	c.Center = center
	c.Radius = radius
	return nil
}

func (c Circle) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.Center.X, c.Center.Y, c.Radius)
}

// Fit computes the least-squares circle through points using the closed
// form of R. Bullock, "Least-Squares Circle Fit" (2006).
//
// Sums are accumulated in single precision and the center and radius are
// truncated to integers.
func Fit(points []image.Point) (Circle, error) {
	if len(points) < 3 {
		return Circle{}, fmt.Errorf("%w: %d points", ErrDegenerateFit, len(points))
	}
	n := float32(len(points))

	// Centroid
	var mx, my float32
	for _, p := range points {
		mx += float32(p.X)
		my += float32(p.Y)
	}
	mx /= n
	my /= n

	// Moments in centered (u,v) coordinates
	var suu, svv, suv, suuu, svvv, suuv, suvv float32
	for _, p := range points {
		u := float32(p.X) - mx
		v := float32(p.Y) - my
		suu += u * u
		svv += v * v
		suv += u * v
		suuu += u * u * u
		svvv += v * v * v
		suuv += u * u * v
		suvv += u * v * v
	}

	den := suv*suv - suu*svv
	if den == 0 {
		return Circle{}, fmt.Errorf("%w: collinear points", ErrDegenerateFit)
	}
	uc := 0.5 * (suv*(svvv+suuv) - svv*(suuu+suvv)) / den
	vc := 0.5 * (suv*(suuu+suvv) - suu*(svvv+suuv)) / den

	r := float32(math.Sqrt(float64(uc*uc + vc*vc + (suu+svv)/n)))
	return NewCircle(image.Point{X: int(uc + mx), Y: int(vc + my)}, int(r))
}

// PolarToCartesian returns the pixel at distance radius from center along
// theta. The y axis points down, so positive angles turn counter-clockwise
// on screen. Coordinates are truncated toward zero.
func PolarToCartesian(center image.Point, radius int, theta float32) image.Point {
	r := float32(radius)
	cos := float32(math.Cos(float64(theta)))
	sin := float32(math.Sin(float64(theta)))
	return image.Point{
		X: int(float32(center.X) + r*cos),
		Y: int(float32(center.Y) - r*sin),
	}
}

// Radians converts an angle in degrees to radians with Pi.
func Radians(degrees float32) float32 {
	return degrees * Pi / 180
}
