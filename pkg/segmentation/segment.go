// Package segmentation locates the pupil and iris boundaries of an eye image
// and builds the mask of usable iris pixels.
//
// The pupil is first detected as a circle, then refined by successive
// contour searches: an accurate and a coarse pupil contour, a coarse iris
// contour and an accurate iris contour restricted to a band around the
// coarse one. The coarse contours and their angles are kept for
// normalization. The final mask is the ring between the accurate contours
// minus pixels whose intensity is far from the iris texture statistics.
package segmentation

import (
	"fmt"
	"image"
	"math"

	"irisrec/internal/logging"
	"irisrec/pkg/contour"
	"irisrec/pkg/geometry"
	"irisrec/pkg/imgbuf"
	"irisrec/pkg/interpolation"
	"irisrec/pkg/morphology"
	"irisrec/pkg/pupil"
	"irisrec/pkg/raster"

	"gonum.org/v1/gonum/stat"
)

const component = "segmentation"

const (
	// pupilMargin is the radial search half-width around the pupil circle.
	pupilMargin = 20

	// irisInnerMargin and irisOuterMargin bound the accurate iris search.
	irisInnerMargin = 50
	irisOuterMargin = 20

	// noiseDeviation is the number of standard deviations beyond which an
	// iris pixel is considered noise.
	noiseDeviation = 2.35
)

// Stage identifies a step of the segmentation.
type Stage int

const (
	PupilDetected Stage = iota
	PupilAccurateContour
	PupilCoarseContour
	IrisCoarseContour
	IrisAccurateContour
	MaskRefined
)

func (s Stage) String() string {
	switch s {
	case PupilDetected:
		return "pupil detected"
	case PupilAccurateContour:
		return "pupil accurate contour"
	case PupilCoarseContour:
		return "pupil coarse contour"
	case IrisCoarseContour:
		return "iris coarse contour"
	case IrisAccurateContour:
		return "iris accurate contour"
	case MaskRefined:
		return "mask refined"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StageError wraps a failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("segmentation failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Result holds everything segmentation produces for one eye.
type Result struct {
	// Pupil and Iris are fitted on the coarse contours
	Pupil geometry.Circle
	Iris  geometry.Circle

	PupilContour interpolation.Contour
	IrisContour  interpolation.Contour

	// Mask is 255 on iris pixels, 0 elsewhere
	Mask *imgbuf.Gray
}

// Segment runs the full segmentation of src.
func Segment(src *imgbuf.Gray, bounds Bounds, log logging.Logger) (*Result, error) {
	b, err := bounds.Resolve(src.Width, src.Height, log)
	if err != nil {
		return nil, err
	}

	res := &Result{}

	// Pupil detection
	p, err := pupil.Detect(src, b.MinPupil, b.MaxPupil, log)
	if err != nil {
		return nil, &StageError{Stage: PupilDetected, Err: err}
	}
	stageDone(log, PupilDetected, p)

	work := fillAroundPupil(src, p.Center, b.MaxIris)

	// Pupil accurate contour
	thetas := uniformThetas(thetaStep(p.Radius, 1))
	pupilAccurate := contour.Find(work, p.Center, thetas, p.Radius-pupilMargin, p.Radius+pupilMargin, nil)
	if p, err = geometry.Fit(pupilAccurate); err != nil {
		return nil, &StageError{Stage: PupilAccurateContour, Err: err}
	}
	stageDone(log, PupilAccurateContour, p)

	// Pupil coarse contour
	thetas = pupilCoarseThetas(thetaStep(p.Radius, 2))
	res.PupilContour = interpolation.Contour{
		Points: contour.Find(work, p.Center, thetas, p.Radius-pupilMargin, p.Radius+pupilMargin, nil),
		Thetas: thetas,
	}
	if res.Pupil, err = geometry.Fit(res.PupilContour.Points); err != nil {
		return nil, &StageError{Stage: PupilCoarseContour, Err: err}
	}
	p = res.Pupil
	stageDone(log, PupilCoarseContour, p)

	maskPupil := imgbuf.NewGray(src.Width, src.Height)
	raster.FillConvexPoly(maskPupil, pupilAccurate, 255)

	// Iris coarse contour
	minRadius := max(int(float32(p.Radius)/MaxPupilRatio), b.MinIris/2)
	maxRadius := min(int(float32(p.Radius)/MinPupilRatio), 3*b.MaxIris/4)
	if minRadius > maxRadius {
		return nil, &StageError{Stage: IrisCoarseContour,
			Err: fmt.Errorf("empty iris search range [%d, %d]", minRadius, maxRadius)}
	}
	thetas = irisCoarseThetas(thetaStep(minRadius, 1))
	res.IrisContour = interpolation.Contour{
		Points: contour.Find(work, p.Center, thetas, minRadius, maxRadius, nil),
		Thetas: thetas,
	}
	if res.Iris, err = geometry.Fit(res.IrisContour.Points); err != nil {
		return nil, &StageError{Stage: IrisCoarseContour, Err: err}
	}
	stageDone(log, IrisCoarseContour, res.Iris)

	maskIris := imgbuf.NewGray(src.Width, src.Height)
	raster.FillConvexPoly(maskIris, res.IrisContour.Points, 255)

	// Iris accurate contour, searched between the dilated coarse iris and
	// the pupil grown 19 rows upward and 1 row downward, 10 columns each side
	band := imgbuf.Xor(
		morphology.Dilate(maskIris, morphology.NewEllipse(21, 21)),
		morphology.Dilate(maskPupil, morphology.NewRect(21, 21, image.Point{X: 10, Y: 1})),
	)
	r := res.Iris.Radius
	thetas = uniformThetas(thetaStep(r, 1))
	irisAccurate := contour.Find(work, p.Center, thetas, r-irisInnerMargin, r+irisOuterMargin, band)
	stageDone(log, IrisAccurateContour, res.Iris)

	// Mask between the accurate contours
	maskIris.Fill(0)
	raster.FillConvexPoly(maskIris, irisAccurate, 255)
	mask := imgbuf.Xor(maskIris, maskPupil)

	res.Mask = removeNoise(src, mask, p, log)
	log.Debug(component, "stage complete", map[string]interface{}{
		"stage":  MaskRefined.String(),
		"pixels": imgbuf.CountNonZero(res.Mask),
	})
	return res, nil
}

func stageDone(log logging.Logger, s Stage, c geometry.Circle) {
	log.Debug(component, "stage complete", map[string]interface{}{
		"stage":  s.String(),
		"x":      c.Center.X,
		"y":      c.Center.Y,
		"radius": c.Radius,
	})
}

// fillAroundPupil returns a copy of src in which white holes are filled
// inside the square of side 3/4 maxIris centred on the pupil.
func fillAroundPupil(src *imgbuf.Gray, center image.Point, maxIris int) *imgbuf.Gray {
	work := src.Clone()
	half := 3.0 / 4.0 * float64(maxIris) / 2.0
	side := int(3.0 / 4.0 * float64(maxIris))
	x := int(float64(center.X) - half)
	y := int(float64(center.Y) - half)

	roi := work.SubImage(image.Rect(x, y, x+side, y+side))
	if roi.Width > 0 && roi.Height > 0 {
		imgbuf.Copy(roi, morphology.FillWhiteHoles(roi))
	}
	return work
}

// removeNoise drops from mask the pixels whose intensity deviates from the
// iris texture by more than noiseDeviation standard deviations and that
// are connected to the mask edge. Statistics are taken on a safe area below
// the pupil center, away from eyelids and eyelashes.
func removeNoise(src, mask *imgbuf.Gray, p geometry.Circle, log logging.Logger) *imgbuf.Gray {
	w, h := src.Width, src.Height

	safe := mask.Clone()
	raster.FillRect(safe, image.Rect(0, 0, w, p.Center.Y+1), 0)
	raster.FillRect(safe, image.Rect(0, p.Center.Y+p.Radius, w, h), 0)
	safe = morphology.Erode(safe, morphology.NewEllipse(11, 11))

	var values []float64
	for y := 0; y < h; y++ {
		rs, rm := src.Row(y), safe.Row(y)
		for x, m := range rm {
			if m != 0 {
				values = append(values, float64(rs[x]))
			}
		}
	}

	var mean, std float64
	if len(values) > 0 {
		mean = stat.Mean(values, nil)
		std = math.Sqrt(stat.Moment(2, values, nil))
	} else {
		log.Warning(component, "empty safe area for noise statistics", map[string]interface{}{
			"pupilX":      p.Center.X,
			"pupilY":      p.Center.Y,
			"pupilRadius": p.Radius,
		})
	}

	level := int(imgbuf.SaturateUint8(mean))
	threshold := math.Floor(noiseDeviation * std)
	noise := imgbuf.NewGray(w, h)
	for y := 0; y < h; y++ {
		rs, rm, rn := src.Row(y), mask.Row(y), noise.Row(y)
		for x, v := range rs {
			d := int(v) - level
			if d < 0 {
				d = -d
			}
			if float64(d) > threshold {
				rn[x] = 255 & rm[x]
			}
		}
	}

	edges := morphology.Gradient(mask, morphology.NewEllipse(3, 3))
	noise, _ = morphology.Reconstruct(edges, noise)
	return imgbuf.Xor(mask, noise)
}
