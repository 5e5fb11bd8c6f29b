// Package raster draws filled polygons, circles and rectangles into 8-bit
// image buffers. Everything is clipped to the image.
package raster

import (
	"image"
	"math"

	"irisrec/pkg/imgbuf"
)

// Filled is passed as thickness to draw a filled shape.
const Filled = -1

// FillRect sets every pixel of r (half-open, as image.Rectangle) to v.
func FillRect(dst *imgbuf.Gray, r image.Rectangle, v uint8) {
	r = r.Intersect(dst.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := dst.Row(y)[r.Min.X:r.Max.X]
		for x := range row {
			row[x] = v
		}
	}
}

// FillConvexPoly fills the polygon through points, boundary included. For a
// non-convex outline each scanline is filled between its outermost edge
// crossings.
func FillConvexPoly(dst *imgbuf.Gray, points []image.Point, v uint8) {
	if len(points) == 0 {
		return
	}
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	minY = max(minY, 0)
	maxY = min(maxY, dst.Height-1)

	n := len(points)
	for y := minY; y <= maxY; y++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		fy := float64(y)
		for i := 0; i < n; i++ {
			p1, p2 := points[i], points[(i+1)%n]
			if (y < p1.Y && y < p2.Y) || (y > p1.Y && y > p2.Y) {
				continue
			}
			if p1.Y == p2.Y {
				lo = math.Min(lo, float64(min(p1.X, p2.X)))
				hi = math.Max(hi, float64(max(p1.X, p2.X)))
				continue
			}
			x := float64(p1.X) + (fy-float64(p1.Y))*float64(p2.X-p1.X)/float64(p2.Y-p1.Y)
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
		}
		if lo > hi {
			continue
		}
		x0 := max(int(math.Round(lo)), 0)
		x1 := min(int(math.Round(hi)), dst.Width-1)
		row := dst.Row(y)
		for x := x0; x <= x1; x++ {
			row[x] = v
		}
	}
}

// Circle draws a circle of the given radius. A negative thickness fills the
// disk; thickness 1 draws a one pixel outline; larger values draw a ring of
// that width centred on the radius.
func Circle(dst *imgbuf.Gray, center image.Point, radius int, v uint8, thickness int) {
	switch {
	case radius < 0:
		return
	case thickness < 0:
		fillDisk(dst, center, radius, v)
	case thickness <= 1:
		outline(dst, center, radius, v)
	default:
		ring(dst, center, radius, v, float64(thickness)/2)
	}
}

func fillDisk(dst *imgbuf.Gray, c image.Point, r int, v uint8) {
	for dy := -r; dy <= r; dy++ {
		y := c.Y + dy
		if y < 0 || y >= dst.Height {
			continue
		}
		dx := int(math.Sqrt(float64(r*r - dy*dy)))
		x0 := max(c.X-dx, 0)
		x1 := min(c.X+dx, dst.Width-1)
		row := dst.Row(y)
		for x := x0; x <= x1; x++ {
			row[x] = v
		}
	}
}

func ring(dst *imgbuf.Gray, c image.Point, r int, v uint8, half float64) {
	ext := r + int(math.Ceil(half))
	for dy := -ext; dy <= ext; dy++ {
		for dx := -ext; dx <= ext; dx++ {
			d := math.Sqrt(float64(dx*dx + dy*dy))
			if math.Abs(d-float64(r)) <= half {
				set(dst, c.X+dx, c.Y+dy, v)
			}
		}
	}
}

// outline draws the midpoint circle.
func outline(dst *imgbuf.Gray, c image.Point, r int, v uint8) {
	x, y := r, 0
	err := 1 - r
	for x >= y {
		set(dst, c.X+x, c.Y+y, v)
		set(dst, c.X+y, c.Y+x, v)
		set(dst, c.X-y, c.Y+x, v)
		set(dst, c.X-x, c.Y+y, v)
		set(dst, c.X-x, c.Y-y, v)
		set(dst, c.X-y, c.Y-x, v)
		set(dst, c.X+y, c.Y-x, v)
		set(dst, c.X+x, c.Y-y, v)
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2*(y-x) + 1
		}
	}
}

func set(dst *imgbuf.Gray, x, y int, v uint8) {
	if dst.InBounds(x, y) {
		dst.Set(x, y, v)
	}
}
