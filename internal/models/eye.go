package models

import (
	"image"

	"irisrec/pkg/geometry"
	"irisrec/pkg/imgbuf"
	"irisrec/pkg/interpolation"
)

// Eye holds one eye image and every artefact computed or loaded for it.
// A nil image means the artefact is absent.
type Eye struct {
	// Name is the image file name without directory and extension
	Name string

	// Original is the grayscale eye image
	Original *imgbuf.Gray

	// Segmented is the colour overlay of the segmentation
	Segmented *image.RGBA

	// Mask marks the usable iris pixels of Original with 255
	Mask *imgbuf.Gray

	// Pupil and Iris are the circles fitted on the coarse contours
	Pupil geometry.Circle
	Iris  geometry.Circle

	// PupilContour and IrisContour drive normalization
	PupilContour interpolation.Contour
	IrisContour  interpolation.Contour

	// Normalized and NormalizedMask are the unrolled image and mask
	Normalized     *imgbuf.Gray
	NormalizedMask *imgbuf.Gray

	// IrisCode is the stacked binary filter response of Normalized
	IrisCode *imgbuf.Gray
}

// HasContours reports whether both coarse contours are present.
func (e *Eye) HasContours() bool {
	return !e.PupilContour.Empty() && !e.IrisContour.Empty()
}

// InitMask replaces the mask with an all-valid one the size of Original.
func (e *Eye) InitMask() {
	if e.Original == nil {
		return
	}
	e.Mask = imgbuf.NewGrayFilled(e.Original.Width, e.Original.Height, 255)
}
