package pipeline

import (
	"irisrec/pkg/config"
	"irisrec/pkg/segmentation"
)

// Params holds the per-eye processing parameters resolved from the
// configuration.
type Params struct {
	// Bounds are the expected pupil and iris diameters
	Bounds segmentation.Bounds

	// Width and Height are the size of the normalized iris
	Width  int
	Height int

	// UseMask keeps the segmentation mask; when false an all-valid mask is
	// used instead
	UseMask bool
}

// ParamsFromConfig extracts the processing parameters from cfg.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		Bounds: segmentation.Bounds{
			MinIris:  cfg.Segmentation.MinIrisDiameter,
			MaxIris:  cfg.Segmentation.MaxIrisDiameter,
			MinPupil: cfg.Segmentation.MinPupilDiameter,
			MaxPupil: cfg.Segmentation.MaxPupilDiameter,
		},
		Width:   cfg.Normalization.Width,
		Height:  cfg.Normalization.Height,
		UseMask: cfg.Processing.UseMask,
	}
}
