package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestWarningFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.DebugLevel)

	log.Warning("segmentation", "bound replaced", map[string]interface{}{
		"requested": 500,
		"replaced":  239,
	})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected a JSON line, got %q: %v", buf.String(), err)
	}
	if entry["level"] != "warn" {
		t.Errorf("Expected level warn, got %v", entry["level"])
	}
	if entry["component"] != "segmentation" {
		t.Errorf("Expected component segmentation, got %v", entry["component"])
	}
	if entry["replaced"] != float64(239) {
		t.Errorf("Expected replaced=239, got %v", entry["replaced"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("Expected a timestamp")
	}
}

func TestErrorCarriesErr(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.InfoLevel)
	log.Error("pipeline", errors.New("no original image"), map[string]interface{}{"eye": "S1001L01"})

	out := buf.String()
	if !strings.Contains(out, "no original image") || !strings.Contains(out, "S1001L01") {
		t.Errorf("Unexpected error entry: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.WarnLevel)
	log.Info("pipeline", "hidden", nil)
	log.Debug("pipeline", "hidden", nil)
	if buf.Len() != 0 {
		t.Errorf("Expected nothing below warn level, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestNopDiscards(t *testing.T) {
	// Must not panic
	Nop().Warning("pupil", "ignored", map[string]interface{}{"a": 1})
}
