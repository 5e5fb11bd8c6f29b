// Package pupil locates the pupil in an eye image by correlating ring shaped
// tangential filters with the normalized gradient field of a down-sampled
// copy of the image.
package pupil

import (
	"errors"
	"fmt"
	"image"
	"math"

	"irisrec/internal/logging"
	"irisrec/pkg/filter"
	"irisrec/pkg/geometry"
	"irisrec/pkg/imgbuf"
	"irisrec/pkg/morphology"
	"irisrec/pkg/raster"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// SmallestDiameter is the pupil diameter, in pixels, the image is
	// down-sampled to before searching.
	SmallestDiameter = 11

	// MaxRatio bounds the pupil diameter relative to the image size.
	MaxRatio float32 = 0.7

	// minSearchRadius is the first radius tried on the down-sampled image.
	minSearchRadius = (SmallestDiameter - 1) / 2

	component = "pupil"
)

// ErrNotFound is returned when no candidate circle scores above zero.
var ErrNotFound = errors.New("pupil not found")

// RangeError reports a minimum diameter that is not below the maximum.
type RangeError struct {
	Name string
	Min  int
	Max  int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid %s range: minimum %d should be lower than maximum %d", e.Name, e.Min, e.Max)
}

// Detect returns the pupil circle of src. Diameters are in pixels of src;
// a zero maxDiameter selects MaxRatio of the smaller image side.
//
// The image is scaled so that minDiameter maps to SmallestDiameter pixels.
// For every candidate radius the score of each position is the mean
// alignment between the gradient directions and the radial directions on a
// ring of that radius, plus the darkness 1 - mean/255 of the disk. The
// position and radius with the highest score win.
func Detect(src *imgbuf.Gray, minDiameter, maxDiameter int, log logging.Logger) (geometry.Circle, error) {
	side := min(src.Width, src.Height)
	limit := float32(side) * MaxRatio

	if maxDiameter == 0 {
		maxDiameter = int(limit)
	} else if float32(maxDiameter) > limit {
		replaced := int(math.Floor(float64(limit)))
		log.Warning(component, "maximum pupil diameter too large for the image", map[string]interface{}{
			"requested": maxDiameter,
			"replaced":  replaced,
			"width":     src.Width,
			"height":    src.Height,
		})
		maxDiameter = replaced
	}

	if minDiameter < SmallestDiameter {
		log.Warning(component, "minimum pupil diameter below the smallest detectable size", map[string]interface{}{
			"requested": minDiameter,
			"replaced":  SmallestDiameter,
		})
		minDiameter = SmallestDiameter
	}

	if minDiameter >= maxDiameter {
		return geometry.Circle{}, &RangeError{Name: "pupil diameter", Min: minDiameter, Max: maxDiameter}
	}

	// Down-sample so that the smallest pupil has a fixed size
	scale := float32(SmallestDiameter) / float32(minDiameter)
	rw := int(float32(src.Width) * scale)
	rh := int(float32(src.Height) * scale)
	if rw < 2 || rh < 2 {
		return geometry.Circle{}, fmt.Errorf("%w: image %dx%d too small", ErrNotFound, src.Width, src.Height)
	}
	resized := imgbuf.Resize(src, rw, rh)

	maxDiameter = int(float32(maxDiameter) * scale)
	minDiameter = int(float32(minDiameter) * scale)
	if maxDiameter%2 == 0 {
		maxDiameter++
	}
	if minDiameter%2 == 0 {
		minDiameter--
	}

	filled := morphology.FillWhiteHoles(resized)
	gh, gv := normalizedGradients(filled)

	filterSize := maxDiameter
	if filterSize%2 == 0 {
		filterSize--
	}
	fh, fv := tangentialFilters(filterSize)
	disk := newDiskSum(filled, (filterSize-1)/2)

	var (
		best  float64
		found bool
		pupil geometry.Circle
	)
	feature := make([]float64, rw*rh)
	for r := minSearchRadius; r < (maxDiameter-1)/2; r++ {
		ring := imgbuf.NewGray(filterSize, filterSize)
		c := (filterSize - 1) / 2
		raster.Circle(ring, image.Point{X: c, Y: c}, r, 1, 2)
		ringCount := float64(imgbuf.CountNonZero(ring))
		if ringCount == 0 {
			continue
		}

		ah := filter.Filter2D(gh, masked(fh, ring))
		av := filter.Filter2D(gv, masked(fv, ring))

		diskMask := imgbuf.NewGray(filterSize, filterSize)
		raster.Circle(diskMask, image.Point{X: c, Y: c}, r, 1, raster.Filled)
		sums := disk.correlate(diskMask)
		diskCount := float64(imgbuf.CountNonZero(diskMask))

		for i := range feature {
			contour := float64(ah.Pix[i]+av.Pix[i]) / ringCount
			darkness := 1 - sums[i]/diskCount/255
			feature[i] = contour + darkness
		}

		idx := floats.MaxIdx(feature)
		if feature[idx] > best {
			best = feature[idx]
			pupil = geometry.Circle{Center: image.Point{X: idx % rw, Y: idx / rw}, Radius: r}
			found = true
		}
	}
	if !found {
		return geometry.Circle{}, ErrNotFound
	}

	// Back to the original resolution, truncating
	offset := float32((1/float64(scale) - 1) / 2)
	x := int(float32(pupil.Center.X*(src.Width-1))/float32(rw-1) + offset)
	y := int(float32(pupil.Center.Y*(src.Height-1))/float32(rh-1) + offset)
	radius := int(float32(pupil.Radius) / scale)

	log.Debug(component, "pupil detected", map[string]interface{}{
		"x":      x,
		"y":      y,
		"radius": radius,
		"score":  best,
	})
	return geometry.NewCircle(image.Point{X: x, Y: y}, radius)
}

// normalizedGradients returns the Sobel gradient field of src divided by
// its magnitude. Pixels with no gradient are zero in both components.
func normalizedGradients(src *imgbuf.Gray) (gh, gv *imgbuf.Float) {
	gh = filter.SobelDx(src)
	gv = filter.SobelDy(src)
	for i := range gh.Pix {
		h, v := gh.Pix[i], gv.Pix[i]
		n := float32(math.Sqrt(float64(h*h + v*v)))
		if n == 0 {
			gh.Pix[i], gv.Pix[i] = 0, 0
			continue
		}
		gh.Pix[i] = h / n
		gv.Pix[i] = v / n
	}
	return gh, gv
}

// tangentialFilters returns the size x size unit radial direction fields:
// fh holds the column component and fv the row component of the unit vector
// from the center to each cell. Both are zero at the center.
func tangentialFilters(size int) (fh, fv *mat.Dense) {
	fh = mat.NewDense(size, size, nil)
	fv = mat.NewDense(size, size, nil)
	c := float32((size - 1) / 2)
	for i := 0; i < size; i++ {
		x := float32(i) - c
		for j := 0; j < size; j++ {
			y := float32(j) - c
			if x == 0 && y == 0 {
				continue
			}
			n := float32(math.Sqrt(float64(x*x + y*y)))
			fh.Set(i, j, float64(y/n))
			fv.Set(i, j, float64(x/n))
		}
	}
	return fh, fv
}

// masked returns the coefficients of f where mask is set.
func masked(f *mat.Dense, mask *imgbuf.Gray) *mat.Dense {
	rows, cols := f.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if mask.At(j, i) != 0 {
				out.Set(i, j, f.At(i, j))
			}
		}
	}
	return out
}
