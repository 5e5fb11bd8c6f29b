// Package matching compares iris codes with a masked Hamming distance,
// searching small circular shifts to absorb eye rotation.
package matching

import (
	"errors"
	"fmt"
	"image"

	"irisrec/pkg/encoding"
	"irisrec/pkg/imgbuf"
)

// MaxShift is the largest column shift tried in each direction.
const MaxShift = 10

var (
	// ErrEmptyMask is returned when no pixel is valid in both codes.
	ErrEmptyMask = errors.New("no pixel to compare")

	// ErrSizeMismatch is returned when codes, masks and points disagree in size.
	ErrSizeMismatch = errors.New("size mismatch")
)

// Match returns the fraction of differing bits between codeA and codeB,
// minimized over column shifts of codeA in [-MaxShift, MaxShift]. Only
// pixels set in maskA, maskB and points are compared; the combined mask is
// repeated for each filter band of the codes. A nil mask means every
// pixel is valid.
//
// The score is 0 for identical codes and about 0.5 for unrelated ones.
func Match(codeA, codeB, maskA, maskB, points *imgbuf.Gray) (float64, error) {
	if points == nil {
		return 0, fmt.Errorf("%w: application points missing", ErrSizeMismatch)
	}
	if !codeA.SameSize(codeB) {
		return 0, fmt.Errorf("%w: codes are %dx%d and %dx%d", ErrSizeMismatch,
			codeA.Width, codeA.Height, codeB.Width, codeB.Height)
	}
	if codeA.Width != points.Width || codeA.Height < points.Height {
		return 0, fmt.Errorf("%w: code %dx%d for normalized size %dx%d", ErrSizeMismatch,
			codeA.Width, codeA.Height, points.Width, points.Height)
	}
	if codeA.Width < MaxShift {
		return 0, fmt.Errorf("%w: code width %d is below the shift range %d", ErrSizeMismatch, codeA.Width, MaxShift)
	}

	maskA = orAllOn(maskA, points)
	maskB = orAllOn(maskB, points)
	if !maskA.SameSize(points) || !maskB.SameSize(points) {
		return 0, fmt.Errorf("%w: normalized masks do not match the application points", ErrSizeMismatch)
	}

	mask := combinedMask(maskA, maskB, points, codeA.Height)
	total := imgbuf.CountNonZero(mask)
	if total == 0 {
		return 0, ErrEmptyMask
	}

	shifted := encoding.WrapPad(codeA, MaxShift)
	score := float32(1)
	for s := -MaxShift; s <= MaxShift; s++ {
		diff := 0
		for y := 0; y < codeB.Height; y++ {
			a := shifted.Row(y)[MaxShift+s:]
			b, m := codeB.Row(y), mask.Row(y)
			for x, v := range b {
				if m[x] != 0 && a[x] != v {
					diff++
				}
			}
		}
		score = min(score, float32(float64(diff)/float64(total)))
	}
	return float64(score), nil
}

func orAllOn(mask, points *imgbuf.Gray) *imgbuf.Gray {
	if mask != nil {
		return mask
	}
	return imgbuf.NewGrayFilled(points.Width, points.Height, 255)
}

// combinedMask builds maskA AND maskB restricted to points, repeated once
// per full band of a code of the given height. Remaining rows are off.
func combinedMask(maskA, maskB, points *imgbuf.Gray, height int) *imgbuf.Gray {
	band := imgbuf.And(maskA, maskB)
	for y := 0; y < band.Height; y++ {
		row, pts := band.Row(y), points.Row(y)
		for x := range row {
			if pts[x] == 0 {
				row[x] = 0
			}
		}
	}

	mask := imgbuf.NewGray(points.Width, height)
	for n := 0; n < height/points.Height; n++ {
		top := n * points.Height
		imgbuf.Copy(mask.SubImage(image.Rect(0, top, points.Width, top+points.Height)), band)
	}
	return mask
}
