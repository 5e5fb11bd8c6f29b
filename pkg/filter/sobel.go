package filter

import (
	"irisrec/pkg/imgbuf"

	"gonum.org/v1/gonum/mat"
)

var (
	// SobelX is the 3x3 horizontal derivative kernel.
	SobelX = mat.NewDense(3, 3, []float64{
		-1, 0, 1,
		-2, 0, 2,
		-1, 0, 1,
	})

	// SobelY is the 3x3 vertical derivative kernel.
	SobelY = mat.NewDense(3, 3, []float64{
		-1, -2, -1,
		0, 0, 0,
		1, 2, 1,
	})
)

// SobelDx returns the horizontal derivative of src.
func SobelDx(src *imgbuf.Gray) *imgbuf.Float {
	return Filter2DGray(src, SobelX)
}

// SobelDy returns the vertical derivative of src. Positive values mark
// transitions from dark (top) to bright (bottom).
func SobelDy(src *imgbuf.Gray) *imgbuf.Float {
	return Filter2DGray(src, SobelY)
}
