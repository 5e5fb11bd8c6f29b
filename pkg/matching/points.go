package matching

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"irisrec/internal/logging"
	"irisrec/pkg/imgbuf"
)

const component = "matching"

// ReadApplicationPoints parses a list of normalized image positions trusted
// for matching: the number of points, then one "row col" pair per point.
// The result is a width x height mask with 255 on the listed points. Points
// outside the normalized image are reported and skipped.
func ReadApplicationPoints(r io.Reader, width, height int, log logging.Logger) (*imgbuf.Gray, error) {
	br := bufio.NewReader(r)

	var n int
	if _, err := fmt.Fscan(br, &n); err != nil {
		return nil, fmt.Errorf("reading number of points: %w", err)
	}

	points := imgbuf.NewGray(width, height)
	skipped := 0
	for p := 0; p < n; p++ {
		var row, col int
		if _, err := fmt.Fscan(br, &row, &col); err != nil {
			return nil, fmt.Errorf("reading point %d: %w", p, err)
		}
		if !points.InBounds(col, row) {
			log.Warning(component, "application point exceeds normalized image", map[string]interface{}{
				"row":    row,
				"col":    col,
				"width":  width,
				"height": height,
			})
			skipped++
			continue
		}
		points.Set(col, row, 255)
	}

	log.Debug(component, "application points loaded", map[string]interface{}{
		"points":  n - skipped,
		"skipped": skipped,
	})
	return points, nil
}

// LoadApplicationPoints reads the application points stored at path.
func LoadApplicationPoints(path string, width, height int, log logging.Logger) (*imgbuf.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load the application points in %s: %w", path, err)
	}
	defer f.Close()

	points, err := ReadApplicationPoints(f, width, height, log)
	if err != nil {
		return nil, fmt.Errorf("error while loading application points in %s: %w", path, err)
	}
	return points, nil
}
