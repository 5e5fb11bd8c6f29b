package encoding

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmptyBank is returned when encoding with no filters.
	ErrEmptyBank = errors.New("empty filter bank")

	// ErrTooNarrow is returned when an image is narrower than the circular
	// margin it must be padded with.
	ErrTooNarrow = errors.New("image narrower than its circular margin")
)

// Bank is an ordered set of real valued filters. It is read only once
// loaded and may be shared between goroutines.
type Bank []*mat.Dense

// MaxWidth returns the wrap padding needed on each side of the normalized
// image so that the widest filter never reads across the padded edge.
func (b Bank) MaxWidth() int {
	cols := 0
	for _, f := range b {
		if _, c := f.Dims(); c > cols {
			cols = c
		}
	}
	return (cols - 1) / 2
}

// ReadBank parses a filter bank: the number of filters, then for each
// filter its rows and columns followed by the coefficients in row-major
// order. Coefficients are rounded to single precision.
func ReadBank(r io.Reader) (Bank, error) {
	br := bufio.NewReader(r)

	var n int
	if _, err := fmt.Fscan(br, &n); err != nil {
		return nil, fmt.Errorf("reading number of filters: %w", err)
	}
	if n < 0 {
		return nil, fmt.Errorf("invalid number of filters %d", n)
	}

	bank := make(Bank, 0, n)
	for f := 0; f < n; f++ {
		var rows, cols int
		if _, err := fmt.Fscan(br, &rows, &cols); err != nil {
			return nil, fmt.Errorf("reading size of filter %d: %w", f, err)
		}
		if rows <= 0 || cols <= 0 {
			return nil, fmt.Errorf("invalid size %dx%d for filter %d", rows, cols, f)
		}

		data := make([]float64, rows*cols)
		for i := range data {
			var v float32
			if _, err := fmt.Fscan(br, &v); err != nil {
				return nil, fmt.Errorf("reading coefficient %d of filter %d: %w", i, f, err)
			}
			data[i] = float64(v)
		}
		bank = append(bank, mat.NewDense(rows, cols, data))
	}
	return bank, nil
}

// LoadBank reads the filter bank stored at path.
func LoadBank(path string) (Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load the filters in %s: %w", path, err)
	}
	defer f.Close()

	bank, err := ReadBank(f)
	if err != nil {
		return nil, fmt.Errorf("error while loading filters in %s: %w", path, err)
	}
	return bank, nil
}
