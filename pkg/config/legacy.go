package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type kind int

const (
	boolKey kind = iota
	intKey
	stringKey
)

// option binds one legacy key to a field of Config.
type option struct {
	key  string
	kind kind
	bind func(c *Config) interface{}
}

// legacyOptions lists every key of the legacy configuration format.
var legacyOptions = []option{
	{"Process segmentation", boolKey, func(c *Config) interface{} { return &c.Processing.Segmentation }},
	{"Process normalization", boolKey, func(c *Config) interface{} { return &c.Processing.Normalization }},
	{"Process encoding", boolKey, func(c *Config) interface{} { return &c.Processing.Encoding }},
	{"Process matching", boolKey, func(c *Config) interface{} { return &c.Processing.Matching }},
	{"Use the mask provided by osiris", boolKey, func(c *Config) interface{} { return &c.Processing.UseMask }},

	{"List of images", stringKey, func(c *Config) interface{} { return &c.Inputs.ListOfImages }},
	{"Load original images", stringKey, func(c *Config) interface{} { return &c.Inputs.OriginalImages }},
	{"Load parameters", stringKey, func(c *Config) interface{} { return &c.Inputs.Parameters }},
	{"Load masks", stringKey, func(c *Config) interface{} { return &c.Inputs.Masks }},
	{"Load normalized images", stringKey, func(c *Config) interface{} { return &c.Inputs.NormalizedImages }},
	{"Load normalized masks", stringKey, func(c *Config) interface{} { return &c.Inputs.NormalizedMasks }},
	{"Load iris codes", stringKey, func(c *Config) interface{} { return &c.Inputs.IrisCodes }},

	{"Save segmented images", stringKey, func(c *Config) interface{} { return &c.Outputs.SegmentedImages }},
	{"Save contours parameters", stringKey, func(c *Config) interface{} { return &c.Outputs.Parameters }},
	{"Save masks of iris", stringKey, func(c *Config) interface{} { return &c.Outputs.Masks }},
	{"Save normalized images", stringKey, func(c *Config) interface{} { return &c.Outputs.NormalizedImages }},
	{"Save normalized masks", stringKey, func(c *Config) interface{} { return &c.Outputs.NormalizedMasks }},
	{"Save iris codes", stringKey, func(c *Config) interface{} { return &c.Outputs.IrisCodes }},
	{"Save matching scores", stringKey, func(c *Config) interface{} { return &c.Outputs.MatchingScores }},

	{"Minimum diameter for pupil", intKey, func(c *Config) interface{} { return &c.Segmentation.MinPupilDiameter }},
	{"Maximum diameter for pupil", intKey, func(c *Config) interface{} { return &c.Segmentation.MaxPupilDiameter }},
	{"Minimum diameter for iris", intKey, func(c *Config) interface{} { return &c.Segmentation.MinIrisDiameter }},
	{"Maximum diameter for iris", intKey, func(c *Config) interface{} { return &c.Segmentation.MaxIrisDiameter }},
	{"Width of normalized image", intKey, func(c *Config) interface{} { return &c.Normalization.Width }},
	{"Height of normalized image", intKey, func(c *Config) interface{} { return &c.Normalization.Height }},

	{"Gabor filters", stringKey, func(c *Config) interface{} { return &c.Encoding.Filters }},
	{"Application points", stringKey, func(c *Config) interface{} { return &c.Encoding.ApplicationPoints }},

	{"Suffix for segmented images", stringKey, func(c *Config) interface{} { return &c.Suffixes.Segmented }},
	{"Suffix for parameters", stringKey, func(c *Config) interface{} { return &c.Suffixes.Parameters }},
	{"Suffix for masks of iris", stringKey, func(c *Config) interface{} { return &c.Suffixes.Mask }},
	{"Suffix for normalized images", stringKey, func(c *Config) interface{} { return &c.Suffixes.NormalizedImage }},
	{"Suffix for normalized masks", stringKey, func(c *Config) interface{} { return &c.Suffixes.NormalizedMask }},
	{"Suffix for iris codes", stringKey, func(c *Config) interface{} { return &c.Suffixes.IrisCode }},
}

func findOption(key string) (option, bool) {
	for _, o := range legacyOptions {
		if o.key == key {
			return o, true
		}
	}
	return option{}, false
}

// ReadLegacy parses the legacy format on top of the defaults. Each line is
// "key = value"; text after '#' is a comment and lines without '=' or with
// an empty key or value are ignored. Unknown keys are returned, not fatal.
func ReadLegacy(r io.Reader) (*Config, []string, error) {
	cfg := DefaultConfig()
	var unknown []string

	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}

		o, found := findOption(key)
		if !found {
			unknown = append(unknown, key)
			continue
		}
		if err := o.set(cfg, value); err != nil {
			return nil, unknown, fmt.Errorf("line %d: %w", n, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, unknown, err
	}
	return cfg, unknown, nil
}

func (o option) set(cfg *Config, value string) error {
	switch o.kind {
	case boolKey:
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("option %q: %w", o.key, err)
		}
		*o.bind(cfg).(*bool) = b
	case intKey:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("option %q: cannot convert %q into an integer", o.key, value)
		}
		*o.bind(cfg).(*int) = v
	case stringKey:
		*o.bind(cfg).(*string) = strings.ReplaceAll(value, `\`, "/")
	}
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "on", "y", "1":
		return true, nil
	case "no", "false", "off", "n", "0":
		return false, nil
	}
	return false, fmt.Errorf("cannot convert %q into a boolean", s)
}

// LoadLegacy reads a legacy configuration file. Unlike LoadConfig, a
// missing file is an error. The unknown keys found are returned so the
// caller can report them.
func LoadLegacy(path string) (*Config, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read configuration file %s: %w", path, err)
	}
	defer f.Close()

	cfg, unknown, err := ReadLegacy(f)
	if err != nil {
		return nil, unknown, fmt.Errorf("error parsing configuration file %s: %w", path, err)
	}
	return cfg, unknown, nil
}
