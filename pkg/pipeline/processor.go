// Package pipeline runs the recognition steps on a list of eye images:
// segmentation, normalization, encoding and pairwise matching. Each step
// can be computed or its result loaded from disk, and every artefact can be
// saved, as selected by the configuration.
//
// Eyes are processed one at a time. A failure on one eye is logged and the
// batch continues with the next one.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"irisrec/internal/logging"
	"irisrec/internal/models"
	"irisrec/pkg/config"
	"irisrec/pkg/encoding"
	"irisrec/pkg/geometry"
	"irisrec/pkg/imgbuf"
	"irisrec/pkg/interpolation"
	"irisrec/pkg/matching"
	"irisrec/pkg/normalization"
	"irisrec/pkg/segmentation"
	"irisrec/pkg/visualization"
)

const component = "pipeline"

var (
	// ErrMissingOriginal is returned when segmentation or normalization is
	// requested without a directory of original images.
	ErrMissingOriginal = errors.New("original image is not loaded")

	// ErrMissingContours is returned when normalizing an eye whose contours
	// were neither computed nor loaded.
	ErrMissingContours = errors.New("contours are not computed nor loaded")

	// ErrMissingNormalized is returned when encoding an eye without a
	// normalized image.
	ErrMissingNormalized = errors.New("normalized image is not computed nor loaded")

	// ErrMissingIrisCode is returned when matching an eye without an iris code.
	ErrMissingIrisCode = errors.New("iris code is not computed nor loaded")
)

// Summary reports the outcome of a batch.
type Summary struct {
	Total   int
	Failed  int
	Matched int
	Elapsed time.Duration
}

// Processor applies the configured steps to eye images.
type Processor struct {
	cfg    *config.Config
	params Params
	log    logging.Logger

	// bank and points are read only once loaded
	bank   encoding.Bank
	points *imgbuf.Gray
}

// New creates a processor for cfg. Shared inputs (filter bank and
// application points) are loaded by Run, or set with SetBank and SetPoints.
func New(cfg *config.Config, log logging.Logger) (*Processor, error) {
	if cfg.Normalization.Width <= 0 || cfg.Normalization.Height <= 0 {
		return nil, fmt.Errorf("invalid normalized size %dx%d", cfg.Normalization.Width, cfg.Normalization.Height)
	}
	return &Processor{
		cfg:    cfg,
		params: ParamsFromConfig(cfg),
		log:    log,
	}, nil
}

// SetBank sets the filter bank used for encoding.
func (p *Processor) SetBank(bank encoding.Bank) { p.bank = bank }

// SetPoints sets the application points used for matching.
func (p *Processor) SetPoints(points *imgbuf.Gray) { p.points = points }

// Analyze segments, normalizes and, when a filter bank is set, encodes src.
// It does not touch the filesystem.
func (p *Processor) Analyze(name string, src *imgbuf.Gray) (*models.Eye, error) {
	eye := &models.Eye{Name: name, Original: src}
	if err := p.segment(eye); err != nil {
		return nil, err
	}
	if err := p.normalize(eye); err != nil {
		return nil, err
	}
	if p.bank != nil {
		if err := p.encode(eye); err != nil {
			return nil, err
		}
	}
	return eye, nil
}

func (p *Processor) segment(eye *models.Eye) error {
	if eye.Original == nil {
		return ErrMissingOriginal
	}

	res, err := segmentation.Segment(eye.Original, p.params.Bounds, p.log)
	if err != nil {
		return fmt.Errorf("cannot segment %s: %w", eye.Name, err)
	}
	eye.Pupil, eye.Iris = res.Pupil, res.Iris
	eye.PupilContour, eye.IrisContour = res.PupilContour, res.IrisContour
	eye.Mask = res.Mask

	eye.Segmented, err = visualization.RenderSegmentation(eye.Original, eye.Mask, eye.Pupil, eye.Iris)
	if err != nil {
		return fmt.Errorf("cannot draw segmentation of %s: %w", eye.Name, err)
	}

	if !p.params.UseMask {
		eye.InitMask()
	}
	return nil
}

func (p *Processor) normalize(eye *models.Eye) error {
	if eye.Original == nil {
		return ErrMissingOriginal
	}
	if !eye.HasContours() {
		return ErrMissingContours
	}

	var err error
	eye.Normalized, err = normalization.FromContours(eye.Original, p.params.Width, p.params.Height,
		eye.PupilContour, eye.IrisContour)
	if err != nil {
		return fmt.Errorf("cannot normalize %s: %w", eye.Name, err)
	}

	if eye.Mask == nil {
		eye.InitMask()
	}
	eye.NormalizedMask, err = normalization.FromContours(eye.Mask, p.params.Width, p.params.Height,
		eye.PupilContour, eye.IrisContour)
	if err != nil {
		return fmt.Errorf("cannot normalize mask of %s: %w", eye.Name, err)
	}
	return nil
}

func (p *Processor) encode(eye *models.Eye) error {
	if eye.Normalized == nil {
		return ErrMissingNormalized
	}
	code, err := encoding.Encode(eye.Normalized, p.bank)
	if err != nil {
		return fmt.Errorf("cannot encode %s: %w", eye.Name, err)
	}
	eye.IrisCode = code
	return nil
}

// Match compares the iris codes of two eyes. Missing normalized masks are
// treated as all valid; without application points every normalized pixel
// is used.
func (p *Processor) Match(a, b *models.Eye) (float64, error) {
	if a.IrisCode == nil {
		return 0, fmt.Errorf("%s: %w", a.Name, ErrMissingIrisCode)
	}
	if b.IrisCode == nil {
		return 0, fmt.Errorf("%s: %w", b.Name, ErrMissingIrisCode)
	}

	points := p.points
	if points == nil {
		points = imgbuf.NewGrayFilled(p.params.Width, p.params.Height, 255)
	}
	score, err := matching.Match(a.IrisCode, b.IrisCode, a.NormalizedMask, b.NormalizedMask, points)
	if err != nil {
		return 0, fmt.Errorf("cannot match %s and %s: %w", a.Name, b.Name, err)
	}
	return score, nil
}

// ProcessEye loads, computes and saves the artefacts of the eye image
// fileName as configured.
func (p *Processor) ProcessEye(fileName string) (*models.Eye, error) {
	cfg := p.cfg
	eye := &models.Eye{Name: shortName(fileName)}

	// The original image is needed only to segment or normalize
	if cfg.Processing.Segmentation || cfg.Processing.Normalization {
		if cfg.Inputs.OriginalImages == "" {
			return nil, ErrMissingOriginal
		}
		src, err := imgbuf.Load(filepath.Join(cfg.Inputs.OriginalImages, fileName))
		if err != nil {
			return nil, err
		}
		eye.Original = src
	}

	// Segmentation
	if cfg.Processing.Segmentation {
		if err := p.segment(eye); err != nil {
			return nil, err
		}
		if dir := cfg.Outputs.SegmentedImages; dir != "" {
			p.save(eye, "segmented image", func() error {
				return imgbuf.Save(artefactPath(dir, eye.Name, cfg.Suffixes.Segmented), eye.Segmented)
			})
		}
	}
	if dir := cfg.Inputs.Parameters; dir != "" {
		if err := p.loadParameters(eye, artefactPath(dir, eye.Name, cfg.Suffixes.Parameters)); err != nil {
			return nil, fmt.Errorf("cannot load parameters of %s: %w", eye.Name, err)
		}
	}
	if dir := cfg.Inputs.Masks; dir != "" {
		eye.Mask = p.loadImage(eye, "mask", artefactPath(dir, eye.Name, cfg.Suffixes.Mask))
	}

	// Normalization
	if cfg.Processing.Normalization {
		if err := p.normalize(eye); err != nil {
			return nil, err
		}
	}
	if dir := cfg.Inputs.NormalizedImages; dir != "" {
		eye.Normalized = p.loadImage(eye, "normalized image", artefactPath(dir, eye.Name, cfg.Suffixes.NormalizedImage))
	}
	if dir := cfg.Inputs.NormalizedMasks; dir != "" {
		eye.NormalizedMask = p.loadImage(eye, "normalized mask", artefactPath(dir, eye.Name, cfg.Suffixes.NormalizedMask))
	}

	// Encoding
	if cfg.Processing.Encoding {
		if err := p.encode(eye); err != nil {
			return nil, err
		}
	}
	if dir := cfg.Inputs.IrisCodes; dir != "" {
		eye.IrisCode = p.loadImage(eye, "iris code", artefactPath(dir, eye.Name, cfg.Suffixes.IrisCode))
	}

	p.saveArtefacts(eye)
	return eye, nil
}

func (p *Processor) saveArtefacts(eye *models.Eye) {
	out, suffix := p.cfg.Outputs, p.cfg.Suffixes

	if out.Parameters != "" {
		if eye.HasContours() {
			p.save(eye, "parameters", func() error {
				return interpolation.SaveParameters(artefactPath(out.Parameters, eye.Name, suffix.Parameters),
					eye.PupilContour, eye.IrisContour)
			})
		} else {
			p.notAvailable(eye, "parameters")
		}
	}
	p.saveImage(eye, "mask", eye.Mask, out.Masks, suffix.Mask)
	p.saveImage(eye, "normalized image", eye.Normalized, out.NormalizedImages, suffix.NormalizedImage)
	p.saveImage(eye, "normalized mask", eye.NormalizedMask, out.NormalizedMasks, suffix.NormalizedMask)
	p.saveImage(eye, "iris code", eye.IrisCode, out.IrisCodes, suffix.IrisCode)
}

func (p *Processor) saveImage(eye *models.Eye, what string, g *imgbuf.Gray, dir, suffix string) {
	if dir == "" {
		return
	}
	if g == nil {
		p.notAvailable(eye, what)
		return
	}
	p.save(eye, what, func() error {
		return imgbuf.SaveGray(artefactPath(dir, eye.Name, suffix), g)
	})
}

func (p *Processor) save(eye *models.Eye, what string, write func() error) {
	if err := write(); err != nil {
		p.log.Error(component, err, map[string]interface{}{
			"eye":      eye.Name,
			"artefact": what,
		})
	}
}

func (p *Processor) notAvailable(eye *models.Eye, what string) {
	p.log.Warning(component, "cannot save artefact because it is neither computed nor loaded", map[string]interface{}{
		"eye":      eye.Name,
		"artefact": what,
	})
}

func (p *Processor) loadImage(eye *models.Eye, what, path string) *imgbuf.Gray {
	g, err := imgbuf.Load(path)
	if err != nil {
		p.log.Error(component, err, map[string]interface{}{
			"eye":      eye.Name,
			"artefact": what,
		})
		return nil
	}
	return g
}

// loadParameters reads the coarse contours and refits both circles on them.
// Unlike image artefacts, a missing or malformed parameter file fails the eye.
func (p *Processor) loadParameters(eye *models.Eye, path string) error {
	pupil, iris, err := interpolation.LoadParameters(path)
	if err != nil {
		return err
	}
	eye.PupilContour, eye.IrisContour = pupil, iris

	if c, err := geometry.Fit(pupil.Points); err == nil {
		eye.Pupil = c
	}
	if c, err := geometry.Fit(iris.Points); err == nil {
		eye.Iris = c
	}
	return nil
}

// Run processes every image of the configured list. With matching enabled,
// consecutive images are processed in pairs and their score is written to
// the score file. Only failures to read the shared inputs or to create the
// score file are returned.
func (p *Processor) Run() (Summary, error) {
	start := time.Now()
	cfg := p.cfg

	names, err := config.LoadImageList(cfg.Inputs.ListOfImages)
	if err != nil {
		return Summary{}, err
	}
	if err := p.loadShared(); err != nil {
		return Summary{}, err
	}
	if err := p.createOutputDirs(); err != nil {
		return Summary{}, err
	}

	var scores *matching.ScoreWriter
	if cfg.Processing.Matching && cfg.Outputs.MatchingScores != "" {
		f, err := os.Create(cfg.Outputs.MatchingScores)
		if err != nil {
			return Summary{}, fmt.Errorf("cannot create the file for matching scores %s: %w", cfg.Outputs.MatchingScores, err)
		}
		defer f.Close()
		scores = matching.NewScoreWriter(f)
	}

	summary := Summary{Total: len(names)}
	for i := 0; i < len(names); i++ {
		eye := p.processLogged(names, i, &summary)

		if !cfg.Processing.Matching || i == len(names)-1 {
			continue
		}

		// The partner is processed even when the first eye failed, so
		// pairs stay aligned with the list
		i++
		other := p.processLogged(names, i, &summary)
		if eye == nil || other == nil {
			continue
		}

		score, err := p.Match(eye, other)
		if err != nil {
			p.log.Error(component, err, map[string]interface{}{
				"eye":   names[i-1],
				"other": names[i],
			})
			continue
		}
		summary.Matched++
		p.log.Info(component, "eyes matched", map[string]interface{}{
			"eye":   names[i-1],
			"other": names[i],
			"score": score,
		})
		if scores != nil {
			if err := scores.Write(names[i-1], names[i], score); err != nil {
				p.log.Error(component, err, nil)
			}
		}
	}

	if scores != nil {
		if err := scores.Flush(); err != nil {
			p.log.Error(component, err, map[string]interface{}{"file": cfg.Outputs.MatchingScores})
		}
	}

	summary.Elapsed = time.Since(start)
	return summary, nil
}

func (p *Processor) processLogged(names []string, i int, summary *Summary) *models.Eye {
	p.log.Info(component, "processing eye", map[string]interface{}{
		"eye":   names[i],
		"index": i + 1,
		"total": len(names),
	})
	eye, err := p.ProcessEye(names[i])
	if err != nil {
		summary.Failed++
		p.log.Error(component, err, map[string]interface{}{"eye": names[i]})
		return nil
	}
	return eye
}

func (p *Processor) loadShared() error {
	cfg := p.cfg
	if cfg.Processing.Encoding && cfg.Encoding.Filters != "" {
		bank, err := encoding.LoadBank(cfg.Encoding.Filters)
		if err != nil {
			return err
		}
		p.bank = bank
	}
	if cfg.Processing.Matching && cfg.Encoding.ApplicationPoints != "" {
		points, err := matching.LoadApplicationPoints(cfg.Encoding.ApplicationPoints,
			p.params.Width, p.params.Height, p.log)
		if err != nil {
			return err
		}
		p.points = points
	}
	return nil
}

func (p *Processor) createOutputDirs() error {
	out := p.cfg.Outputs
	for _, dir := range []string{out.SegmentedImages, out.Parameters, out.Masks,
		out.NormalizedImages, out.NormalizedMasks, out.IrisCodes} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return nil
}

// shortName strips the directory and extension of an image file name.
func shortName(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func artefactPath(dir, name, suffix string) string {
	return filepath.Join(dir, name+suffix)
}
