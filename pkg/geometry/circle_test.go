package geometry

import (
	"errors"
	"image"
	"math"
	"testing"
)

// sampleCircle returns n integer points on the circle (cx, cy, r).
func sampleCircle(cx, cy, r float64, n int) []image.Point {
	points := make([]image.Point, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		points[i] = image.Point{
			X: int(math.Round(cx + r*math.Cos(a))),
			Y: int(math.Round(cy + r*math.Sin(a))),
		}
	}
	return points
}

func TestFitRecoversCircle(t *testing.T) {
	cases := []struct {
		cx, cy, r float64
	}{
		{100, 80, 30},
		{50, 50, 12},
		{320, 240, 110},
	}

	for _, tc := range cases {
		c, err := Fit(sampleCircle(tc.cx, tc.cy, tc.r, 360))
		if err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
		if abs(c.Center.X-int(tc.cx)) > 1 || abs(c.Center.Y-int(tc.cy)) > 1 {
			t.Errorf("Expected center (%v,%v), got %v", tc.cx, tc.cy, c.Center)
		}
		if abs(c.Radius-int(tc.r)) > 1 {
			t.Errorf("Expected radius %v, got %d", tc.r, c.Radius)
		}
	}
}

func TestFitExactPoints(t *testing.T) {
	// Points exactly on the circle centered at (10,10) with radius 5
	points := []image.Point{{15, 10}, {10, 15}, {5, 10}, {10, 5}, {13, 14}, {7, 6}}
	c, err := Fit(points)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if c.Center != (image.Point{X: 10, Y: 10}) || c.Radius != 5 {
		t.Errorf("Expected (10,10,5), got %v", c)
	}
}

func TestFitDegenerate(t *testing.T) {
	collinear := []image.Point{{0, 0}, {1, 1}, {2, 2}, {3, 3}}
	if _, err := Fit(collinear); !errors.Is(err, ErrDegenerateFit) {
		t.Errorf("Expected ErrDegenerateFit for collinear points, got %v", err)
	}

	if _, err := Fit([]image.Point{{0, 0}, {4, 2}}); !errors.Is(err, ErrDegenerateFit) {
		t.Errorf("Expected ErrDegenerateFit for two points, got %v", err)
	}
}

func TestNegativeRadius(t *testing.T) {
	if _, err := NewCircle(image.Point{}, -1); !errors.Is(err, ErrNegativeRadius) {
		t.Errorf("Expected ErrNegativeRadius, got %v", err)
	}

	c := Circle{Center: image.Point{X: 1, Y: 2}, Radius: 3}
	if err := c.Set(image.Point{X: 9, Y: 9}, -4); err == nil {
		t.Error("Expected error from Set with negative radius")
	}
	if c.Radius != 3 || c.Center.X != 1 {
		t.Errorf("Circle was modified by a rejected Set: %v", c)
	}
}

func TestPolarToCartesian(t *testing.T) {
	center := image.Point{X: 50, Y: 50}

	if p := PolarToCartesian(center, 10, 0); p != (image.Point{X: 60, Y: 50}) {
		t.Errorf("Expected (60,50) at theta=0, got %v", p)
	}

	// The y axis points down: 90 degrees is above the center
	if p := PolarToCartesian(center, 10, Radians(90)); p.Y != 40 || abs(p.X-50) > 0 {
		t.Errorf("Expected (50,40) at theta=90deg, got %v", p)
	}

	// Truncation toward zero, not rounding
	if p := PolarToCartesian(image.Point{}, 3, Radians(45)); p != (image.Point{X: 2, Y: -2}) {
		t.Errorf("Expected truncated (2,-2), got %v", p)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
