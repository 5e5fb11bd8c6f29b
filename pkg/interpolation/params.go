package interpolation

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
)

// WriteParameters writes the pupil and iris coarse contours in the
// parameter text format: the two sample counts on their own lines, then
// the pupil "x y theta" triples on one line and the iris triples on the
// next. Thetas use the shortest float32 representation so that reading
// the file back yields identical values.
func WriteParameters(w io.Writer, pupil, iris Contour) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n%d\n", pupil.Len(), iris.Len())
	writeTriples(bw, pupil)
	bw.WriteByte('\n')
	writeTriples(bw, iris)
	bw.WriteByte('\n')
	return bw.Flush()
}

func writeTriples(w *bufio.Writer, c Contour) {
	for i, p := range c.Points {
		w.WriteString(strconv.Itoa(p.X))
		w.WriteByte(' ')
		w.WriteString(strconv.Itoa(p.Y))
		w.WriteByte(' ')
		w.WriteString(strconv.FormatFloat(float64(c.Thetas[i]), 'g', -1, 32))
		w.WriteByte(' ')
	}
}

// ReadParameters parses the format produced by WriteParameters. Tokens are
// whitespace separated, so line layout is not significant.
func ReadParameters(r io.Reader) (pupil, iris Contour, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)
	tr := tokenReader{sc: sc}

	np := tr.readInt("pupil count")
	ni := tr.readInt("iris count")
	if tr.err != nil {
		return Contour{}, Contour{}, tr.err
	}
	if np < 0 || ni < 0 {
		return Contour{}, Contour{}, fmt.Errorf("negative contour size %d/%d", np, ni)
	}

	pupil = tr.contour(np, "pupil")
	iris = tr.contour(ni, "iris")
	if tr.err != nil {
		return Contour{}, Contour{}, tr.err
	}
	return pupil, iris, nil
}

// SaveParameters writes the contours to path.
func SaveParameters(path string, pupil, iris Contour) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot save the parameters in %s: %w", path, err)
	}
	if err := WriteParameters(f, pupil, iris); err != nil {
		f.Close()
		return fmt.Errorf("error while saving parameters in %s: %w", path, err)
	}
	return f.Close()
}

// LoadParameters reads the contours stored at path.
func LoadParameters(path string) (pupil, iris Contour, err error) {
	f, err := os.Open(path)
	if err != nil {
		return Contour{}, Contour{}, fmt.Errorf("cannot load the parameters in %s: %w", path, err)
	}
	defer f.Close()

	pupil, iris, err = ReadParameters(f)
	if err != nil {
		return Contour{}, Contour{}, fmt.Errorf("error while loading parameters in %s: %w", path, err)
	}
	return pupil, iris, nil
}

// tokenReader keeps the first error so parsing code reads linearly.
type tokenReader struct {
	sc  *bufio.Scanner
	err error
}

func (t *tokenReader) next(what string) string {
	if t.err != nil {
		return ""
	}
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			t.err = err
		} else {
			t.err = fmt.Errorf("unexpected end of file reading %s", what)
		}
		return ""
	}
	return t.sc.Text()
}

func (t *tokenReader) readInt(what string) int {
	s := t.next(what)
	if t.err != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		t.err = fmt.Errorf("invalid %s %q: %w", what, s, err)
	}
	return v
}

func (t *tokenReader) readFloat(what string) float32 {
	s := t.next(what)
	if t.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		t.err = fmt.Errorf("invalid %s %q: %w", what, s, err)
	}
	return float32(v)
}

func (t *tokenReader) contour(n int, name string) Contour {
	c := Contour{
		Points: make([]image.Point, n),
		Thetas: make([]float32, n),
	}
	for i := 0; i < n && t.err == nil; i++ {
		c.Points[i].X = t.readInt(name + " x")
		c.Points[i].Y = t.readInt(name + " y")
		c.Thetas[i] = t.readFloat(name + " theta")
	}
	return c
}
