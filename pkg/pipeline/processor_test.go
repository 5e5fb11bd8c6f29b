package pipeline

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"irisrec/internal/logging"
	"irisrec/internal/models"
	"irisrec/pkg/config"
	"irisrec/pkg/imgbuf"
	"irisrec/pkg/raster"

	"gonum.org/v1/gonum/mat"
)

// createEye draws a flat iris and pupil centred in a bright background
func createEye(size, pupilRadius, irisRadius int) *imgbuf.Gray {
	g := imgbuf.NewGrayFilled(size, size, 200)
	c := image.Point{X: size / 2, Y: size / 2}
	raster.Circle(g, c, irisRadius, 120, raster.Filled)
	raster.Circle(g, c, pupilRadius, 30, raster.Filled)
	return g
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func newTestConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Inputs.ListOfImages = filepath.Join(dir, "list.txt")
	cfg.Normalization.Width = 64
	cfg.Normalization.Height = 16
	return cfg
}

func TestProcessEyeMissingOriginal(t *testing.T) {
	cfg := newTestConfig(t.TempDir())
	cfg.Processing.Segmentation = true

	p, err := New(cfg, logging.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := p.ProcessEye("eye.bmp"); !errors.Is(err, ErrMissingOriginal) {
		t.Errorf("Expected ErrMissingOriginal, got %v", err)
	}
}

func TestProcessEyeMissingContours(t *testing.T) {
	dir := t.TempDir()
	if err := imgbuf.SaveGray(filepath.Join(dir, "eye.bmp"), imgbuf.NewGray(20, 20)); err != nil {
		t.Fatalf("Failed to save image: %v", err)
	}

	cfg := newTestConfig(dir)
	cfg.Processing.Normalization = true
	cfg.Inputs.OriginalImages = dir

	p, _ := New(cfg, logging.Nop())
	if _, err := p.ProcessEye("eye.bmp"); !errors.Is(err, ErrMissingContours) {
		t.Errorf("Expected ErrMissingContours, got %v", err)
	}
}

func TestProcessEyeMissingNormalized(t *testing.T) {
	cfg := newTestConfig(t.TempDir())
	cfg.Processing.Encoding = true

	p, _ := New(cfg, logging.Nop())
	p.SetBank([]*mat.Dense{mat.NewDense(1, 1, []float64{1})})
	if _, err := p.ProcessEye("eye.bmp"); !errors.Is(err, ErrMissingNormalized) {
		t.Errorf("Expected ErrMissingNormalized, got %v", err)
	}
}

func TestProcessEyeMalformedParameters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "eye_para.txt"), "3\n2\n1 2 oops\n")

	cfg := newTestConfig(dir)
	cfg.Inputs.Parameters = dir

	p, _ := New(cfg, logging.Nop())
	eye, err := p.ProcessEye("eye.bmp")
	if err == nil {
		t.Fatal("Expected error for malformed parameter file")
	}
	if eye != nil {
		t.Errorf("Expected no eye on failure, got %+v", eye)
	}
	if !strings.Contains(err.Error(), "parameters of eye") {
		t.Errorf("Expected error to name the eye, got %v", err)
	}

	// A missing parameter file fails the eye too
	cfg.Suffixes.Parameters = "_missing.txt"
	if _, err := p.ProcessEye("eye.bmp"); err == nil {
		t.Error("Expected error for missing parameter file")
	}
}

func TestMatchMissingIrisCode(t *testing.T) {
	p, _ := New(newTestConfig(t.TempDir()), logging.Nop())
	a := &models.Eye{Name: "a", IrisCode: imgbuf.NewGray(64, 16)}
	b := &models.Eye{Name: "b"}
	if _, err := p.Match(a, b); !errors.Is(err, ErrMissingIrisCode) {
		t.Errorf("Expected ErrMissingIrisCode, got %v", err)
	}
}

func TestNewRejectsInvalidSize(t *testing.T) {
	cfg := newTestConfig(t.TempDir())
	cfg.Normalization.Width = 0
	if _, err := New(cfg, logging.Nop()); err == nil {
		t.Error("Expected error for zero normalized width")
	}
}

func TestRunMissingList(t *testing.T) {
	p, _ := New(newTestConfig(t.TempDir()), logging.Nop())
	if _, err := p.Run(); err == nil {
		t.Error("Expected error for missing list of images")
	}
}

// TestRunEncodesLoadedNormalizedImages exercises the load, encode, save and
// match path without segmentation.
func TestRunEncodesLoadedNormalizedImages(t *testing.T) {
	dir := t.TempDir()
	normDir := filepath.Join(dir, "norm")
	codeDir := filepath.Join(dir, "codes")
	if err := os.MkdirAll(normDir, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	norm := imgbuf.NewGray(64, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 64; x++ {
			norm.Set(x, y, uint8((x*7+y*13)%256))
		}
	}
	for _, name := range []string{"a", "b", "c"} {
		if err := imgbuf.SaveGray(filepath.Join(normDir, name+"_imno.bmp"), norm); err != nil {
			t.Fatalf("Failed to save normalized image: %v", err)
		}
	}

	writeFile(t, filepath.Join(dir, "list.txt"), "a.bmp b.bmp\nc.bmp\n")
	writeFile(t, filepath.Join(dir, "filters.txt"), "2\n1 3\n-1 0 1\n3 3\n0 1 0 1 -4 1 0 1 0\n")
	writeFile(t, filepath.Join(dir, "points.txt"), "3\n0 0\n5 10\n99 99\n")

	cfg := newTestConfig(dir)
	cfg.Processing.Encoding = true
	cfg.Processing.Matching = true
	cfg.Inputs.NormalizedImages = normDir
	cfg.Outputs.IrisCodes = codeDir
	cfg.Outputs.MatchingScores = filepath.Join(dir, "scores.txt")
	cfg.Encoding.Filters = filepath.Join(dir, "filters.txt")
	cfg.Encoding.ApplicationPoints = filepath.Join(dir, "points.txt")

	p, _ := New(cfg, logging.Nop())
	summary, err := p.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Total != 3 || summary.Failed != 0 || summary.Matched != 1 {
		t.Errorf("Unexpected summary %+v", summary)
	}

	code, err := imgbuf.Load(filepath.Join(codeDir, "a_code.bmp"))
	if err != nil {
		t.Fatalf("Expected iris code to be saved: %v", err)
	}
	if code.Width != 64 || code.Height != 32 {
		t.Errorf("Expected 64x32 iris code, got %dx%d", code.Width, code.Height)
	}

	scores, _ := os.ReadFile(filepath.Join(dir, "scores.txt"))
	if got := string(scores); got != "a.bmp b.bmp 0\n" {
		t.Errorf("Expected a single zero score, got %q", got)
	}
}

func TestShortName(t *testing.T) {
	cases := map[string]string{
		"eye.bmp":          "eye",
		"dir/sub/eye.tiff": "eye",
		"eye":              "eye",
		"eye.v2.bmp":       "eye.v2",
	}
	for in, want := range cases {
		if got := shortName(in); got != want {
			t.Errorf("shortName(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestRunFullPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full pipeline in short mode")
	}

	dir := t.TempDir()
	imgDir := filepath.Join(dir, "images")
	outDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(imgDir, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	src := createEye(240, 25, 80)
	for _, name := range []string{"left.bmp", "right.bmp"} {
		if err := imgbuf.SaveGray(filepath.Join(imgDir, name), src); err != nil {
			t.Fatalf("Failed to save eye: %v", err)
		}
	}
	writeFile(t, filepath.Join(dir, "list.txt"), "left.bmp right.bmp")
	writeFile(t, filepath.Join(dir, "filters.txt"), "1\n3 3\n-1 0 1 -2 0 2 -1 0 1\n")

	cfg := newTestConfig(dir)
	cfg.Processing.Segmentation = true
	cfg.Processing.Normalization = true
	cfg.Processing.Encoding = true
	cfg.Processing.Matching = true
	cfg.Inputs.OriginalImages = imgDir
	cfg.Outputs.SegmentedImages = outDir
	cfg.Outputs.Parameters = outDir
	cfg.Outputs.Masks = outDir
	cfg.Outputs.NormalizedImages = outDir
	cfg.Outputs.NormalizedMasks = outDir
	cfg.Outputs.IrisCodes = outDir
	cfg.Outputs.MatchingScores = filepath.Join(dir, "scores.txt")
	cfg.Encoding.Filters = filepath.Join(dir, "filters.txt")
	cfg.Encoding.ApplicationPoints = ""
	cfg.Segmentation.MaxIrisDiameter = 0

	p, _ := New(cfg, logging.Nop())
	summary, err := p.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Failed != 0 || summary.Matched != 1 {
		t.Fatalf("Unexpected summary %+v", summary)
	}

	for _, suffix := range []string{"_segm.bmp", "_para.txt", "_mask.bmp", "_imno.bmp", "_mano.bmp", "_code.bmp"} {
		if _, err := os.Stat(filepath.Join(outDir, "left"+suffix)); err != nil {
			t.Errorf("Expected artefact left%s: %v", suffix, err)
		}
	}

	scores, _ := os.ReadFile(filepath.Join(dir, "scores.txt"))
	if got := strings.TrimSpace(string(scores)); got != "left.bmp right.bmp 0" {
		t.Errorf("Expected identical eyes to score 0, got %q", got)
	}

	// The first row samples the pupil contour, which lies partly on dark
	// pupil pixels; every other row is iris
	norm, err := imgbuf.Load(filepath.Join(outDir, "left_imno.bmp"))
	if err != nil {
		t.Fatalf("Failed to load normalized image: %v", err)
	}
	dark := 0
	for _, v := range norm.Row(0) {
		if v <= 60 {
			dark++
		}
	}
	if 2*dark < norm.Width {
		t.Errorf("Expected the top row to be mostly pupil, got %d dark of %d", dark, norm.Width)
	}
	for y := 1; y < norm.Height; y++ {
		for x, v := range norm.Row(y) {
			if v < 110 || v > 130 {
				t.Errorf("Expected iris intensity at (%d,%d), got %d", x, y, v)
			}
		}
	}
}
