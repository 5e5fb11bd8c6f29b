package pupil

import (
	"irisrec/pkg/filter"
	"irisrec/pkg/imgbuf"
)

// diskSum evaluates the correlation of an image with binary masks through
// row prefix sums, so the cost per pixel grows with the mask height rather
// than its area.
type diskSum struct {
	width, height int
	margin        int
	stride        int // prefix row length: padded width + 1
	prefix        []float64
}

// newDiskSum prepares prefix sums of src extended by margin pixels of
// reflected border on every side.
func newDiskSum(src *imgbuf.Gray, margin int) *diskSum {
	padded := filter.PadReflect101(src.ToFloat(), margin, margin, margin, margin)
	d := &diskSum{
		width:  src.Width,
		height: src.Height,
		margin: margin,
		stride: padded.Width + 1,
	}
	d.prefix = make([]float64, padded.Height*d.stride)
	for y := 0; y < padded.Height; y++ {
		row := d.prefix[y*d.stride : (y+1)*d.stride]
		var acc float64
		for x, v := range padded.Row(y) {
			acc += float64(v)
			row[x+1] = acc
		}
	}
	return d
}

// correlate returns, for every pixel, the sum of the image under mask
// centred on that pixel. The mask must be square with an odd side no larger
// than 2*margin+1.
func (d *diskSum) correlate(mask *imgbuf.Gray) []float64 {
	c := (mask.Width - 1) / 2
	type span struct{ dy, dx0, dx1 int }
	var spans []span
	for i := 0; i < mask.Height; i++ {
		row := mask.Row(i)
		for j := 0; j < len(row); j++ {
			if row[j] == 0 {
				continue
			}
			start := j
			for j < len(row) && row[j] != 0 {
				j++
			}
			spans = append(spans, span{dy: i - c, dx0: start - c, dx1: j - 1 - c})
		}
	}

	out := make([]float64, d.width*d.height)
	for y := 0; y < d.height; y++ {
		dst := out[y*d.width : (y+1)*d.width]
		for _, s := range spans {
			row := d.prefix[(y+s.dy+d.margin)*d.stride:]
			lo := s.dx0 + d.margin
			hi := s.dx1 + d.margin + 1
			for x := range dst {
				dst[x] += row[x+hi] - row[x+lo]
			}
		}
	}
	return out
}
