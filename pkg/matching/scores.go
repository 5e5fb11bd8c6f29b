package matching

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// ScoreWriter writes one "nameA nameB score" line per compared pair.
type ScoreWriter struct {
	w *bufio.Writer
}

// NewScoreWriter returns a ScoreWriter writing to w.
func NewScoreWriter(w io.Writer) *ScoreWriter {
	return &ScoreWriter{w: bufio.NewWriter(w)}
}

// Write records the score of a pair. Scores keep six significant digits.
func (s *ScoreWriter) Write(nameA, nameB string, score float64) error {
	_, err := fmt.Fprintf(s.w, "%s %s %s\n", nameA, nameB, strconv.FormatFloat(score, 'g', 6, 32))
	if err != nil {
		return fmt.Errorf("error while saving result of matching: %w", err)
	}
	return nil
}

// Flush writes any buffered lines to the underlying writer.
func (s *ScoreWriter) Flush() error {
	return s.w.Flush()
}
