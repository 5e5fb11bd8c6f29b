package imgbuf

import (
	"image"

	"golang.org/x/image/draw"
)

// Resize scales g to width x height with bilinear interpolation.
func Resize(g *Gray, width, height int) *Gray {
	dst := image.NewGray(image.Rect(0, 0, width, height))
	src := g.ToImage()
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return FromImage(dst)
}
