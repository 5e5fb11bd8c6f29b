// Package smoothing implements the edge preserving anisotropic diffusion of
// Gross and Brajovic (2003), used to clean unwrapped iris rings before the
// contour search.
package smoothing

import (
	"irisrec/pkg/imgbuf"
)

const (
	// DefaultIterations is the iteration count used by contour extraction.
	DefaultIterations = 100

	// DefaultLambda is the diffusion weight used by contour extraction.
	DefaultLambda float32 = 1
)

// Anisotropic smooths src with the given number of iterations and diffusion
// weight lambda.
//
// Each iteration updates the interior pixels in two checkerboard half-passes.
// Every half-pass computes the Weber contrast coefficients
//
//	rho = min(Sn, Sc) / max(1, |Sn - Sc|)
//
// from the source buffer S and writes
//
//	D(i,j) = (Sc + lambda * sum(rho * Dn)) / (1 + lambda * sum(rho))
//
// into the light buffer D, after which D is copied back into S. The border
// of D is held at zero; the border of the result repeats the adjacent
// interior row or column.
func Anisotropic(src *imgbuf.Gray, iterations int, lambda float32) *imgbuf.Gray {
	w, h := src.Width, src.Height
	dst := src.Clone()
	if w < 3 || h < 3 {
		return dst
	}

	tfs := src.ToFloat()
	tfd := src.ToFloat()
	zeroBorder(tfd)

	for k := 0; k < iterations; k++ {
		halfPass(tfs, tfd, lambda, 0)
		copyFloat(tfs, tfd)
		halfPass(tfs, tfd, lambda, 1)
		copyFloat(tfs, tfd)
	}
	if iterations > 0 {
		dst = tfd.ToGray()
	}

	// Borders of the result
	for y := 0; y < h; y++ {
		row := dst.Row(y)
		row[0] = row[1]
		row[w-1] = row[w-2]
	}
	copy(dst.Row(0), dst.Row(1))
	copy(dst.Row(h-1), dst.Row(h-2))

	return dst
}

// halfPass updates one checkerboard parity of the interior of tfd. parity 0
// starts row i at column 2-i%2, parity 1 at column 1+i%2.
func halfPass(tfs, tfd *imgbuf.Float, lambda float32, parity int) {
	w, h := tfs.Width, tfs.Height
	for i := 1; i < h-1; i++ {
		sUp, s, sDown := tfs.Row(i-1), tfs.Row(i), tfs.Row(i+1)
		dUp, d, dDown := tfd.Row(i-1), tfd.Row(i), tfd.Row(i+1)

		start := 2 - i%2
		if parity == 1 {
			start = 1 + i%2
		}
		for j := start; j < w-1; j += 2 {
			sc := s[j]
			rn := weber(sUp[j], sc)
			rs := weber(sDown[j], sc)
			re := weber(s[j-1], sc)
			rw := weber(s[j+1], sc)

			d[j] = (sc + lambda*(rn*dUp[j]+rs*dDown[j]+re*d[j-1]+rw*d[j+1])) /
				(1 + lambda*(rn+rs+re+rw))
		}
	}
}

// weber returns the Weber contrast coefficient between a neighbour and the
// center value.
func weber(n, c float32) float32 {
	diff := n - c
	if diff < 0 {
		diff = -diff
	}
	if diff < 1 {
		diff = 1
	}
	return min(n, c) / diff
}

func zeroBorder(f *imgbuf.Float) {
	top, bottom := f.Row(0), f.Row(f.Height-1)
	for x := range top {
		top[x] = 0
		bottom[x] = 0
	}
	for y := 0; y < f.Height; y++ {
		row := f.Row(y)
		row[0] = 0
		row[f.Width-1] = 0
	}
}

func copyFloat(dst, src *imgbuf.Float) {
	for y := 0; y < src.Height; y++ {
		copy(dst.Row(y), src.Row(y))
	}
}
