// Package contour finds closed boundaries around a center point. The ring
// between two radii is unwrapped into a rectangular polar image, smoothed,
// reduced to radial gradients and searched for the maximum weight path with
// a dynamic program that forces the path to close on itself.
package contour

import (
	"image"

	"irisrec/pkg/filter"
	"irisrec/pkg/geometry"
	"irisrec/pkg/imgbuf"
	"irisrec/pkg/smoothing"
)

// Position returns the cartesian pixel sampled by row of an unwrapped image
// at angle theta.
func Position(center image.Point, minRadius, row int, theta float32) image.Point {
	return geometry.PolarToCartesian(center, minRadius+row, theta)
}

// Unwrap samples the ring between minRadius and maxRadius around center.
// Column j holds the samples along thetas[j] and row i the samples at radius
// minRadius+i. Positions falling outside src are left at zero.
func Unwrap(src *imgbuf.Gray, center image.Point, minRadius, maxRadius int, thetas []float32) *imgbuf.Gray {
	dst := imgbuf.NewGray(len(thetas), maxRadius-minRadius+1)
	for j, theta := range thetas {
		for i := 0; i < dst.Height; i++ {
			p := Position(center, minRadius, i, theta)
			if src.InBounds(p.X, p.Y) {
				dst.Set(j, i, src.At(p.X, p.Y))
			}
		}
	}
	return dst
}

// VerticalGradients keeps the positive vertical Sobel response of src
// (dark above bright) and rescales it linearly to [0, 255]. A response with
// no dynamic range gives a black image.
func VerticalGradients(src *imgbuf.Gray) *imgbuf.Gray {
	dy := filter.SobelDy(src)
	for i, v := range dy.Pix {
		if v <= 0 {
			dy.Pix[i] = 0
		}
	}

	minVal, maxVal, _, _ := dy.MinMax()
	dst := imgbuf.NewGray(src.Width, src.Height)
	if maxVal == minVal {
		return dst
	}

	span := float64(maxVal) - float64(minVal)
	alpha := float32(255 / span)
	beta := float32(-255 * float64(minVal) / span)
	for y := 0; y < dst.Height; y++ {
		in, out := dy.Row(y), dst.Row(y)
		for x, v := range in {
			out[x] = imgbuf.SaturateUint8(float64(v*alpha + beta))
		}
	}
	return dst
}

// Find returns the boundary point found along each of thetas, searching
// radii minRadius to maxRadius around center. When mask is not nil, only
// gradients at positions where the mask is set are considered.
func Find(src *imgbuf.Gray, center image.Point, thetas []float32, minRadius, maxRadius int, mask *imgbuf.Gray) []image.Point {
	unwrapped := Unwrap(src, center, minRadius, maxRadius, thetas)
	unwrapped = smoothing.Anisotropic(unwrapped, smoothing.DefaultIterations, smoothing.DefaultLambda)
	gradients := VerticalGradients(unwrapped)

	if mask != nil {
		maskUnwrapped := Unwrap(mask, center, minRadius, maxRadius, thetas)
		kept := imgbuf.NewGray(gradients.Width, gradients.Height)
		imgbuf.MaskCopy(kept, gradients, maskUnwrapped)
		gradients = kept
	}

	path := RunViterbi(gradients)
	points := make([]image.Point, len(path))
	for i, row := range path {
		points[i] = Position(center, minRadius, row, thetas[i])
	}
	return points
}
