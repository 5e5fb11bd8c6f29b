// Package visualization renders segmentation results over the eye image.
package visualization

import (
	"fmt"
	"image"
	"image/color"

	"irisrec/pkg/geometry"
	"irisrec/pkg/imgbuf"
	"irisrec/pkg/raster"
)

var (
	// Rejected marks iris pixels excluded by the mask.
	Rejected = color.RGBA{R: 255, A: 255}

	// Boundary is the colour of the pupil and iris circles.
	Boundary = color.RGBA{G: 255, A: 255}
)

// RenderSegmentation draws src in colour, paints red the pixels between the
// pupil and iris circles that mask rejects, and outlines both circles in
// green.
func RenderSegmentation(src, mask *imgbuf.Gray, pupil, iris geometry.Circle) (*image.RGBA, error) {
	if mask != nil && !mask.SameSize(src) {
		return nil, fmt.Errorf("mask is %dx%d, image is %dx%d", mask.Width, mask.Height, src.Width, src.Height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, src.Width, src.Height))
	for y := 0; y < src.Height; y++ {
		row := src.Row(y)
		for x, v := range row {
			dst.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	// Ring between the circles, minus what the mask keeps
	ring := imgbuf.NewGray(src.Width, src.Height)
	raster.Circle(ring, iris.Center, iris.Radius, 255, raster.Filled)
	raster.Circle(ring, pupil.Center, pupil.Radius, 0, raster.Filled)
	if mask != nil {
		ring = imgbuf.SubSaturate(ring, mask)
	}
	paint(dst, ring, Rejected)

	outlines := imgbuf.NewGray(src.Width, src.Height)
	raster.Circle(outlines, pupil.Center, pupil.Radius, 255, 1)
	raster.Circle(outlines, iris.Center, iris.Radius, 255, 1)
	paint(dst, outlines, Boundary)

	return dst, nil
}

// paint sets c on dst wherever where is non-zero.
func paint(dst *image.RGBA, where *imgbuf.Gray, c color.RGBA) {
	for y := 0; y < where.Height; y++ {
		for x, v := range where.Row(y) {
			if v != 0 {
				dst.SetRGBA(x, y, c)
			}
		}
	}
}
