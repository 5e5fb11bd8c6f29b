package morphology

import (
	"fmt"

	"irisrec/pkg/imgbuf"
)

// Dilate returns the grayscale dilation of src by e. Neighbours outside the
// image are ignored.
func Dilate(src *imgbuf.Gray, e *Element) *imgbuf.Gray {
	dst := imgbuf.NewGray(src.Width, src.Height)
	apply(dst, src, e, true)
	return dst
}

// Erode returns the grayscale erosion of src by e. Neighbours outside the
// image are ignored.
func Erode(src *imgbuf.Gray, e *Element) *imgbuf.Gray {
	dst := imgbuf.NewGray(src.Width, src.Height)
	apply(dst, src, e, false)
	return dst
}

// Gradient returns Dilate(src, e) - Erode(src, e).
func Gradient(src *imgbuf.Gray, e *Element) *imgbuf.Gray {
	return imgbuf.SubSaturate(Dilate(src, e), Erode(src, e))
}

// apply computes the maximum (dilate) or minimum (erode) of src over the
// runs of e.
func apply(dst, src *imgbuf.Gray, e *Element, dilate bool) {
	w, h := src.Width, src.Height
	var init uint8
	if !dilate {
		init = 255
	}
	for y := 0; y < h; y++ {
		out := dst.Row(y)
		for x := range out {
			out[x] = init
		}
		for _, r := range e.runs {
			sy := y + r.dy
			if sy < 0 || sy >= h {
				continue
			}
			in := src.Row(sy)
			for x := 0; x < w; x++ {
				lo := max(x+r.x0, 0)
				hi := min(x+r.x1, w-1)
				if lo > hi {
					continue
				}
				m := out[x]
				if dilate {
					for _, v := range in[lo : hi+1] {
						if v > m {
							m = v
						}
					}
				} else {
					for _, v := range in[lo : hi+1] {
						if v < m {
							m = v
						}
					}
				}
				out[x] = m
			}
		}
	}
}

// Reconstruct performs morphological reconstruction by dilation of marker
// under mask: the marker is repeatedly dilated with the 3x3 ellipse and
// clipped to the mask until it stops changing. When mask has no set pixel
// the marker is returned unchanged.
func Reconstruct(marker, mask *imgbuf.Gray) (*imgbuf.Gray, error) {
	if !marker.SameSize(mask) {
		return nil, fmt.Errorf("reconstruct: marker is %dx%d but mask is %dx%d",
			marker.Width, marker.Height, mask.Width, mask.Height)
	}

	dst := marker.Clone()
	if imgbuf.Sum(mask) == 0 {
		return dst, nil
	}

	se := NewEllipse(3, 3)
	tmp := imgbuf.NewGray(dst.Width, dst.Height)
	for {
		apply(tmp, dst, se, true)

		changed := false
		for y := 0; y < dst.Height; y++ {
			rt, rm, rd := tmp.Row(y), mask.Row(y), dst.Row(y)
			for x := range rd {
				v := rt[x]
				if rm[x] < v {
					v = rm[x]
				}
				if v != rd[x] {
					changed = true
				}
				rd[x] = v
			}
		}
		if !changed {
			return dst, nil
		}
	}
}

// FillWhiteHoles suppresses bright regions that are not connected to the
// border of src, such as specular reflections inside the pupil.
//
// src is framed by a one pixel border of zeros and a 255 marker rectangle
// is drawn through (1,1)-(w+1,h+1); the framed image is then reconstructed
// from that marker and the frame removed. src may be a view.
func FillWhiteHoles(src *imgbuf.Gray) *imgbuf.Gray {
	w, h := src.Width, src.Height
	mask := imgbuf.NewGray(w+2, h+2)
	imgbuf.Copy(mask.SubImage(imageRect(1, 1, w, h)), src)

	marker := imgbuf.NewGray(w+2, h+2)
	for x := 1; x <= w+1; x++ {
		marker.Set(x, 1, 255)
		marker.Set(x, h+1, 255)
	}
	for y := 1; y <= h+1; y++ {
		marker.Set(1, y, 255)
		marker.Set(w+1, y, 255)
	}

	result, _ := Reconstruct(marker, mask)
	return result.SubImage(imageRect(1, 1, w, h)).Clone()
}
