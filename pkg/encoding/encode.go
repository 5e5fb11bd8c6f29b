// Package encoding turns a normalized iris into a binary iris code: the
// sign of its response to each filter of a bank, one band per filter
// stacked vertically.
package encoding

import (
	"fmt"

	"irisrec/pkg/filter"
	"irisrec/pkg/imgbuf"
)

// WrapPad extends src by width columns on each side, continuing the image
// circularly: the left margin repeats the last columns and the right margin
// the first ones. The normalized iris is periodic in the angle, so this is
// its natural border. width must not exceed src.Width.
func WrapPad(src *imgbuf.Gray, width int) *imgbuf.Gray {
	dst := imgbuf.NewGray(src.Width+2*width, src.Height)
	for y := 0; y < src.Height; y++ {
		in, out := src.Row(y), dst.Row(y)
		copy(out[width:], in)
		for j := 0; j < width; j++ {
			out[j] = in[src.Width-width+j]
			out[dst.Width-width+j] = in[j]
		}
	}
	return dst
}

// Encode computes the iris code of normalized. The result is
// normalized.Width wide and len(bank) times normalized.Height high.
func Encode(normalized *imgbuf.Gray, bank Bank) (*imgbuf.Gray, error) {
	if len(bank) == 0 {
		return nil, ErrEmptyBank
	}

	w, h := normalized.Width, normalized.Height
	margin := bank.MaxWidth()
	if margin > w {
		return nil, fmt.Errorf("%w: width %d, filter margin %d", ErrTooNarrow, w, margin)
	}
	padded := WrapPad(normalized, margin).ToFloat()

	code := imgbuf.NewGray(w, len(bank)*h)
	for f, k := range bank {
		response := filter.Filter2D(padded, k)
		for y := 0; y < h; y++ {
			in := response.Row(y)[margin : margin+w]
			out := code.Row(f*h + y)
			for x, v := range in {
				if v > 0 {
					out[x] = 255
				}
			}
		}
	}
	return code, nil
}
