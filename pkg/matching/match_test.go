package matching

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"irisrec/pkg/imgbuf"
)

type recorder struct {
	warnings []string
}

func (r *recorder) Info(component, message string, fields map[string]interface{})  {}
func (r *recorder) Debug(component, message string, fields map[string]interface{}) {}
func (r *recorder) Error(component string, err error, fields map[string]interface{}) {
}
func (r *recorder) Warning(component, message string, fields map[string]interface{}) {
	r.warnings = append(r.warnings, message)
}

// createCode returns a pseudo random binary code of the given size
func createCode(width, height int, seed uint32) *imgbuf.Gray {
	g := imgbuf.NewGray(width, height)
	state := seed
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			state = state*1664525 + 1013904223
			if state>>31 == 1 {
				g.Set(x, y, 255)
			}
		}
	}
	return g
}

// shiftColumns rotates every row of g right by s columns
func shiftColumns(g *imgbuf.Gray, s int) *imgbuf.Gray {
	dst := imgbuf.NewGray(g.Width, g.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			dst.Set((x+s+g.Width)%g.Width, y, g.At(x, y))
		}
	}
	return dst
}

func TestMatchSelf(t *testing.T) {
	code := createCode(64, 32, 1)
	points := imgbuf.NewGrayFilled(64, 16, 255)

	score, err := Match(code, code, nil, nil, points)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if score != 0 {
		t.Errorf("Expected 0 for identical codes, got %v", score)
	}
}

func TestMatchShiftTolerance(t *testing.T) {
	code := createCode(64, 16, 7)
	points := imgbuf.NewGrayFilled(64, 16, 255)

	for _, s := range []int{-MaxShift, -3, 4, MaxShift} {
		score, err := Match(shiftColumns(code, s), code, nil, nil, points)
		if err != nil {
			t.Fatalf("Match failed: %v", err)
		}
		if score != 0 {
			t.Errorf("Shift %d: expected 0, got %v", s, score)
		}
	}

	score, _ := Match(shiftColumns(code, MaxShift+5), code, nil, nil, points)
	if score == 0 {
		t.Error("Expected a non-zero score beyond the shift range")
	}
}

func TestMatchUnrelatedCodes(t *testing.T) {
	points := imgbuf.NewGrayFilled(128, 16, 255)
	score, err := Match(createCode(128, 32, 3), createCode(128, 32, 11), nil, nil, points)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if score < 0.35 || score > 0.55 {
		t.Errorf("Expected a score near 0.5 for unrelated codes, got %v", score)
	}
}

func TestMatchSymmetricWithFullMask(t *testing.T) {
	a := createCode(64, 16, 5)
	b := createCode(64, 16, 9)
	points := imgbuf.NewGrayFilled(64, 16, 255)

	ab, err := Match(a, b, nil, nil, points)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	ba, _ := Match(b, a, nil, nil, points)
	if ab != ba {
		t.Errorf("Expected symmetric scores, got %v and %v", ab, ba)
	}
}

func TestMatchMaskedPixelsIgnored(t *testing.T) {
	code := createCode(32, 8, 2)
	other := code.Clone()
	// Corrupt the left half, then mask it out
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			other.Set(x, y, ^other.At(x, y))
		}
	}
	maskB := imgbuf.NewGray(32, 8)
	for y := 0; y < 8; y++ {
		for x := 16; x < 32; x++ {
			maskB.Set(x, y, 255)
		}
	}

	score, err := Match(code, other, nil, maskB, imgbuf.NewGrayFilled(32, 8, 255))
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if score != 0 {
		t.Errorf("Expected masked corruption to be ignored, got %v", score)
	}
}

func TestMatchEmptyMask(t *testing.T) {
	code := createCode(16, 4, 1)
	points := imgbuf.NewGray(16, 4)
	if _, err := Match(code, code, nil, nil, points); !errors.Is(err, ErrEmptyMask) {
		t.Errorf("Expected ErrEmptyMask, got %v", err)
	}
}

func TestMatchSizeMismatch(t *testing.T) {
	points := imgbuf.NewGrayFilled(16, 4, 255)
	if _, err := Match(createCode(16, 4, 1), createCode(16, 8, 1), nil, nil, points); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Expected ErrSizeMismatch for different codes, got %v", err)
	}
	if _, err := Match(createCode(12, 4, 1), createCode(12, 4, 1), nil, nil, points); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Expected ErrSizeMismatch for code and points, got %v", err)
	}
	if _, err := Match(createCode(16, 4, 1), createCode(16, 4, 1), imgbuf.NewGray(8, 4), nil, points); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Expected ErrSizeMismatch for mask, got %v", err)
	}
}

func TestMatchNarrowCode(t *testing.T) {
	code := createCode(8, 4, 1)
	points := imgbuf.NewGrayFilled(8, 4, 255)
	if _, err := Match(code, code, nil, nil, points); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Expected ErrSizeMismatch for code narrower than the shift range, got %v", err)
	}

	code = createCode(MaxShift, 4, 1)
	points = imgbuf.NewGrayFilled(MaxShift, 4, 255)
	if score, err := Match(code, code, nil, nil, points); err != nil || score != 0 {
		t.Errorf("Expected score 0 at the minimum width, got %v (%v)", score, err)
	}
}

func TestReadApplicationPoints(t *testing.T) {
	rec := &recorder{}
	points, err := ReadApplicationPoints(strings.NewReader("4\n0 0\n3 7\n4 0\n1 -1\n"), 8, 4, rec)
	if err != nil {
		t.Fatalf("ReadApplicationPoints failed: %v", err)
	}
	if points.At(0, 0) != 255 || points.At(7, 3) != 255 {
		t.Error("Expected listed points to be on")
	}
	if n := imgbuf.CountNonZero(points); n != 2 {
		t.Errorf("Expected 2 points on, got %d", n)
	}
	if len(rec.warnings) != 2 {
		t.Errorf("Expected 2 warnings for out of range points, got %v", rec.warnings)
	}

	if _, err := ReadApplicationPoints(strings.NewReader("2\n0 0\n"), 8, 4, rec); err == nil {
		t.Error("Expected error for truncated file")
	}
}

func TestLoadApplicationPointsMissing(t *testing.T) {
	if _, err := LoadApplicationPoints(filepath.Join(t.TempDir(), "points.txt"), 8, 4, &recorder{}); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestScoreWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.txt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	w := NewScoreWriter(f)
	w.Write("eye1.bmp", "eye2.bmp", 0.25)
	w.Write("eye3.bmp", "eye4.bmp", 0)
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	f.Close()

	data, _ := os.ReadFile(path)
	want := "eye1.bmp eye2.bmp 0.25\neye3.bmp eye4.bmp 0\n"
	if string(data) != want {
		t.Errorf("Expected %q, got %q", want, string(data))
	}
}

func BenchmarkMatch(b *testing.B) {
	a := createCode(512, 128, 1)
	c := createCode(512, 128, 2)
	points := imgbuf.NewGrayFilled(512, 64, 255)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Match(a, c, nil, nil, points)
	}
}
