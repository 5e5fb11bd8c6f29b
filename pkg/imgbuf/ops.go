package imgbuf

import "fmt"

// mustMatch panics when the images differ in size. Pixel-wise operations on
// mismatched buffers are programming errors, the same as an out of range
// slice index.
func mustMatch(op string, a, b *Gray) {
	if !a.SameSize(b) {
		panic(fmt.Sprintf("imgbuf: %s on mismatched sizes %dx%d and %dx%d",
			op, a.Width, a.Height, b.Width, b.Height))
	}
}

func combine(op string, a, b *Gray, fn func(x, y uint8) uint8) *Gray {
	mustMatch(op, a, b)
	dst := NewGray(a.Width, a.Height)
	for y := 0; y < a.Height; y++ {
		ra, rb, rd := a.Row(y), b.Row(y), dst.Row(y)
		for x := range rd {
			rd[x] = fn(ra[x], rb[x])
		}
	}
	return dst
}

// Xor returns the bitwise exclusive or of a and b.
func Xor(a, b *Gray) *Gray {
	return combine("xor", a, b, func(x, y uint8) uint8 { return x ^ y })
}

// And returns the bitwise and of a and b.
func And(a, b *Gray) *Gray {
	return combine("and", a, b, func(x, y uint8) uint8 { return x & y })
}

// Min returns the per-pixel minimum of a and b.
func Min(a, b *Gray) *Gray {
	return combine("min", a, b, func(x, y uint8) uint8 {
		if x < y {
			return x
		}
		return y
	})
}

// SubSaturate returns a - b clamped at zero.
func SubSaturate(a, b *Gray) *Gray {
	return combine("sub", a, b, func(x, y uint8) uint8 {
		if x < y {
			return 0
		}
		return x - y
	})
}

// Copy copies src into dst. Both must have the same size; dst may be a view.
func Copy(dst, src *Gray) {
	mustMatch("copy", dst, src)
	for y := 0; y < src.Height; y++ {
		copy(dst.Row(y), src.Row(y))
	}
}

// Equal reports whether a and b have the same size and pixels.
func Equal(a, b *Gray) bool {
	if !a.SameSize(b) {
		return false
	}
	for y := 0; y < a.Height; y++ {
		ra, rb := a.Row(y), b.Row(y)
		for x := range ra {
			if ra[x] != rb[x] {
				return false
			}
		}
	}
	return true
}

// Sum returns the sum of all pixel values.
func Sum(g *Gray) uint64 {
	var s uint64
	for y := 0; y < g.Height; y++ {
		for _, v := range g.Row(y) {
			s += uint64(v)
		}
	}
	return s
}

// CountNonZero returns the number of non-zero pixels.
func CountNonZero(g *Gray) int {
	n := 0
	for y := 0; y < g.Height; y++ {
		for _, v := range g.Row(y) {
			if v != 0 {
				n++
			}
		}
	}
	return n
}

// MaskCopy copies the pixels of src into dst where mask is non-zero.
func MaskCopy(dst, src, mask *Gray) {
	mustMatch("mask copy", dst, src)
	mustMatch("mask copy", dst, mask)
	for y := 0; y < src.Height; y++ {
		rs, rd, rm := src.Row(y), dst.Row(y), mask.Row(y)
		for x := range rd {
			if rm[x] != 0 {
				rd[x] = rs[x]
			}
		}
	}
}
