// Package filter provides linear filtering on image buffers: Sobel
// derivatives and general 2D correlation with real valued kernels.
//
// Borders are extended by reflection without repeating the edge pixel
// (dcb|abcd|cba), and all accumulation is done in single precision.
package filter

import (
	"irisrec/pkg/imgbuf"

	"gonum.org/v1/gonum/mat"
)

// tap is one non-zero kernel coefficient at offset (dx, dy) from the anchor.
type tap struct {
	dx, dy int
	w      float32
}

// Kernel is a correlation kernel reduced to its non-zero taps.
type Kernel struct {
	Rows, Cols int
	taps       []tap
}

// NewKernel extracts the non-zero coefficients of k, anchored at its center.
// Coefficients are rounded to single precision.
func NewKernel(k mat.Matrix) *Kernel {
	rows, cols := k.Dims()
	ax, ay := cols/2, rows/2
	kern := &Kernel{Rows: rows, Cols: cols}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := float32(k.At(i, j))
			if v == 0 {
				continue
			}
			kern.taps = append(kern.taps, tap{dx: j - ax, dy: i - ay, w: v})
		}
	}
	return kern
}

// Taps returns the number of non-zero coefficients.
func (k *Kernel) Taps() int { return len(k.taps) }

// Filter2D correlates src with kernel k:
//
//	dst(x, y) = sum k(i, j) * src(x + j - cols/2, y + i - rows/2)
func Filter2D(src *imgbuf.Float, k mat.Matrix) *imgbuf.Float {
	return NewKernel(k).Apply(src)
}

// Filter2DGray is Filter2D on an 8-bit image.
func Filter2DGray(src *imgbuf.Gray, k mat.Matrix) *imgbuf.Float {
	return NewKernel(k).Apply(src.ToFloat())
}

// Apply correlates src with the kernel.
func (k *Kernel) Apply(src *imgbuf.Float) *imgbuf.Float {
	ax, ay := k.Cols/2, k.Rows/2
	padded := PadReflect101(src, ay, k.Rows-1-ay, ax, k.Cols-1-ax)

	dst := imgbuf.NewFloat(src.Width, src.Height)
	for y := 0; y < src.Height; y++ {
		out := dst.Row(y)
		for _, t := range k.taps {
			in := padded.Row(y + ay + t.dy)[ax+t.dx:]
			for x := range out {
				out[x] += t.w * in[x]
			}
		}
	}
	return dst
}

// Reflect101 maps an out of range index into [0, n) by reflection about the
// edge pixels.
func Reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// PadReflect101 returns a copy of src extended by the given margins with
// reflected borders.
func PadReflect101(src *imgbuf.Float, top, bottom, left, right int) *imgbuf.Float {
	w := src.Width + left + right
	h := src.Height + top + bottom
	dst := imgbuf.NewFloat(w, h)
	for y := 0; y < h; y++ {
		in := src.Row(Reflect101(y-top, src.Height))
		out := dst.Row(y)
		copy(out[left:left+src.Width], in)
		for x := 0; x < left; x++ {
			out[x] = in[Reflect101(x-left, src.Width)]
		}
		for x := left + src.Width; x < w; x++ {
			out[x] = in[Reflect101(x-left, src.Width)]
		}
	}
	return dst
}
