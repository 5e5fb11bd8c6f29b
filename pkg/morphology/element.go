// Package morphology implements binary and grayscale morphology on 8-bit
// images: dilation, erosion, morphological gradient and reconstruction by
// dilation.
package morphology

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// run is a horizontal segment of a structuring element, with offsets
// relative to the anchor.
type run struct {
	dy     int
	x0, x1 int // inclusive
}

// Element is a flat structuring element.
type Element struct {
	Width  int
	Height int
	Anchor image.Point
	on     []bool
	runs   []run
}

// NewRect returns a fully set width x height element with the given anchor.
func NewRect(width, height int, anchor image.Point) *Element {
	e := newElement(width, height, anchor)
	for i := range e.on {
		e.on[i] = true
	}
	e.buildRuns()
	return e
}

// NewEllipse returns an ellipse inscribed in a width x height box, anchored
// at its center. Row half-widths are rounded, so the 3x3 ellipse is a cross.
func NewEllipse(width, height int) *Element {
	return NewEllipseAnchored(width, height, image.Point{X: width / 2, Y: height / 2})
}

// NewEllipseAnchored is NewEllipse with an explicit anchor.
func NewEllipseAnchored(width, height int, anchor image.Point) *Element {
	e := newElement(width, height, anchor)
	r := height / 2
	c := width / 2
	var invR2 float64
	if r > 0 {
		invR2 = 1 / float64(r*r)
	}
	for i := 0; i < height; i++ {
		dy := i - r
		if dy < -r || dy > r {
			continue
		}
		dx := int(math.RoundToEven(float64(c) * math.Sqrt(float64(r*r-dy*dy)*invR2)))
		j1 := max(c-dx, 0)
		j2 := min(c+dx+1, width)
		for j := j1; j < j2; j++ {
			e.on[i*width+j] = true
		}
	}
	e.buildRuns()
	return e
}

func newElement(width, height int, anchor image.Point) *Element {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("morphology: invalid element size %dx%d", width, height))
	}
	if anchor.X < 0 || anchor.X >= width || anchor.Y < 0 || anchor.Y >= height {
		panic(fmt.Sprintf("morphology: anchor %v outside %dx%d element", anchor, width, height))
	}
	return &Element{
		Width:  width,
		Height: height,
		Anchor: anchor,
		on:     make([]bool, width*height),
	}
}

func (e *Element) buildRuns() {
	e.runs = e.runs[:0]
	for y := 0; y < e.Height; y++ {
		x := 0
		for x < e.Width {
			if !e.on[y*e.Width+x] {
				x++
				continue
			}
			start := x
			for x < e.Width && e.on[y*e.Width+x] {
				x++
			}
			e.runs = append(e.runs, run{
				dy: y - e.Anchor.Y,
				x0: start - e.Anchor.X,
				x1: x - 1 - e.Anchor.X,
			})
		}
	}
}

// Contains reports whether the element cell (x, y) is set.
func (e *Element) Contains(x, y int) bool {
	if x < 0 || x >= e.Width || y < 0 || y >= e.Height {
		return false
	}
	return e.on[y*e.Width+x]
}

// String renders the element as rows of '#' and '.'.
func (e *Element) String() string {
	var sb strings.Builder
	for y := 0; y < e.Height; y++ {
		for x := 0; x < e.Width; x++ {
			if e.on[y*e.Width+x] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func imageRect(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}
