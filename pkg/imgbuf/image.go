// Package imgbuf provides the owned image buffers used throughout the iris
// pipeline: 8-bit single channel images for grayscale data and binary masks,
// and 32-bit float images for gradients and cost matrices.
//
// Both buffer types store pixels row-major with an explicit stride, so a view
// returned by SubImage shares memory with its parent exactly like a region of
// interest.
package imgbuf

import (
	"image"
	"image/color"
	"math"
)

// Gray is an 8-bit single channel image.
type Gray struct {
	// Width and Height are the dimensions in pixels
	Width  int
	Height int

	// Stride is the distance in bytes between vertically adjacent pixels
	Stride int

	// Pix holds the pixel data, row-major
	Pix []uint8
}

// NewGray allocates a zeroed Gray image.
func NewGray(width, height int) *Gray {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Gray{
		Width:  width,
		Height: height,
		Stride: width,
		Pix:    make([]uint8, width*height),
	}
}

// NewGrayFilled allocates a Gray image with every pixel set to v.
func NewGrayFilled(width, height int, v uint8) *Gray {
	g := NewGray(width, height)
	g.Fill(v)
	return g
}

// Bounds returns the image rectangle anchored at the origin.
func (g *Gray) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// InBounds reports whether (x, y) addresses a pixel of g.
func (g *Gray) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// At returns the pixel at (x, y). No bounds checking beyond the slice's own.
func (g *Gray) At(x, y int) uint8 {
	return g.Pix[y*g.Stride+x]
}

// Set writes the pixel at (x, y).
func (g *Gray) Set(x, y int, v uint8) {
	g.Pix[y*g.Stride+x] = v
}

// Row returns the pixels of row y.
func (g *Gray) Row(y int) []uint8 {
	off := y * g.Stride
	return g.Pix[off : off+g.Width]
}

// Fill sets every pixel to v.
func (g *Gray) Fill(v uint8) {
	for y := 0; y < g.Height; y++ {
		row := g.Row(y)
		for x := range row {
			row[x] = v
		}
	}
}

// Clone returns a compact deep copy of g.
func (g *Gray) Clone() *Gray {
	c := NewGray(g.Width, g.Height)
	for y := 0; y < g.Height; y++ {
		copy(c.Row(y), g.Row(y))
	}
	return c
}

// SubImage returns a view of the part of g inside r. The rectangle is
// clipped to the image bounds; the view shares pixels with g.
func (g *Gray) SubImage(r image.Rectangle) *Gray {
	r = r.Intersect(g.Bounds())
	if r.Empty() {
		return &Gray{}
	}
	off := r.Min.Y*g.Stride + r.Min.X
	end := (r.Max.Y-1)*g.Stride + r.Max.X
	return &Gray{
		Width:  r.Dx(),
		Height: r.Dy(),
		Stride: g.Stride,
		Pix:    g.Pix[off:end],
	}
}

// SameSize reports whether g and o have identical dimensions.
func (g *Gray) SameSize(o *Gray) bool {
	return g.Width == o.Width && g.Height == o.Height
}

// ToImage converts g into a standard library image.
func (g *Gray) ToImage() *image.Gray {
	img := image.NewGray(g.Bounds())
	for y := 0; y < g.Height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+g.Width], g.Row(y))
	}
	return img
}

// ToFloat converts g to a float image.
func (g *Gray) ToFloat() *Float {
	f := NewFloat(g.Width, g.Height)
	for y := 0; y < g.Height; y++ {
		src := g.Row(y)
		dst := f.Row(y)
		for x, v := range src {
			dst[x] = float32(v)
		}
	}
	return f
}

// FromImage converts any image to an 8-bit grayscale buffer using the
// standard luminance model.
func FromImage(img image.Image) *Gray {
	b := img.Bounds()
	g := NewGray(b.Dx(), b.Dy())

	// Fast path for images that are already gray
	if src, ok := img.(*image.Gray); ok {
		for y := 0; y < g.Height; y++ {
			off := (y+b.Min.Y-src.Rect.Min.Y)*src.Stride + (b.Min.X - src.Rect.Min.X)
			copy(g.Row(y), src.Pix[off:off+g.Width])
		}
		return g
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			g.Set(x-b.Min.X, y-b.Min.Y, c.Y)
		}
	}
	return g
}

// Float is a 32-bit float single channel image.
type Float struct {
	Width  int
	Height int
	Stride int
	Pix    []float32
}

// NewFloat allocates a zeroed float image.
func NewFloat(width, height int) *Float {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Float{
		Width:  width,
		Height: height,
		Stride: width,
		Pix:    make([]float32, width*height),
	}
}

// At returns the value at (x, y).
func (f *Float) At(x, y int) float32 {
	return f.Pix[y*f.Stride+x]
}

// Set writes the value at (x, y).
func (f *Float) Set(x, y int, v float32) {
	f.Pix[y*f.Stride+x] = v
}

// Row returns the values of row y.
func (f *Float) Row(y int) []float32 {
	off := y * f.Stride
	return f.Pix[off : off+f.Width]
}

// Clone returns a compact deep copy of f.
func (f *Float) Clone() *Float {
	c := NewFloat(f.Width, f.Height)
	for y := 0; y < f.Height; y++ {
		copy(c.Row(y), f.Row(y))
	}
	return c
}

// MinMax returns the extreme values of f together with the location of the
// first occurrence of each, scanning rows top to bottom.
func (f *Float) MinMax() (minVal, maxVal float32, minLoc, maxLoc image.Point) {
	if f.Width == 0 || f.Height == 0 {
		return 0, 0, image.Point{}, image.Point{}
	}
	minVal = f.At(0, 0)
	maxVal = minVal
	for y := 0; y < f.Height; y++ {
		for x, v := range f.Row(y) {
			if v < minVal {
				minVal = v
				minLoc = image.Point{X: x, Y: y}
			}
			if v > maxVal {
				maxVal = v
				maxLoc = image.Point{X: x, Y: y}
			}
		}
	}
	return minVal, maxVal, minLoc, maxLoc
}

// ToGray converts f to 8 bits, rounding half to even and saturating.
func (f *Float) ToGray() *Gray {
	g := NewGray(f.Width, f.Height)
	for y := 0; y < f.Height; y++ {
		src := f.Row(y)
		dst := g.Row(y)
		for x, v := range src {
			dst[x] = SaturateUint8(float64(v))
		}
	}
	return g
}

// SaturateUint8 rounds v half to even and clamps it into [0, 255].
func SaturateUint8(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	r := math.RoundToEven(v)
	if r <= 0 {
		return 0
	}
	if r >= 255 {
		return 255
	}
	return uint8(r)
}
