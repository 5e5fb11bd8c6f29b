// Package config provides configuration loading and management for irisrec.
// It handles loading configuration from YAML files, reading the legacy
// "key = value" text format, and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"irisrec/internal/logging"
	"irisrec/pkg/matching"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing selects the steps to run on every eye
	Processing struct {
		Segmentation  bool `yaml:"segmentation"`
		Normalization bool `yaml:"normalization"`
		Encoding      bool `yaml:"encoding"`
		Matching      bool `yaml:"matching"`

		// UseMask keeps the mask computed by segmentation. When false the
		// mask is replaced by an all-valid one.
		UseMask bool `yaml:"useMask"`
	} `yaml:"processing"`

	// Inputs are the list of images and the directories artefacts are
	// loaded from. An empty directory disables loading that artefact.
	Inputs struct {
		ListOfImages     string `yaml:"listOfImages"`
		OriginalImages   string `yaml:"originalImages"`
		Parameters       string `yaml:"parameters"`
		Masks            string `yaml:"masks"`
		NormalizedImages string `yaml:"normalizedImages"`
		NormalizedMasks  string `yaml:"normalizedMasks"`
		IrisCodes        string `yaml:"irisCodes"`
	} `yaml:"inputs"`

	// Outputs are the directories artefacts are saved to, and the file
	// receiving matching scores. Empty disables saving.
	Outputs struct {
		SegmentedImages  string `yaml:"segmentedImages"`
		Parameters       string `yaml:"parameters"`
		Masks            string `yaml:"masks"`
		NormalizedImages string `yaml:"normalizedImages"`
		NormalizedMasks  string `yaml:"normalizedMasks"`
		IrisCodes        string `yaml:"irisCodes"`
		MatchingScores   string `yaml:"matchingScores"`
	} `yaml:"outputs"`

	// Segmentation bounds, in pixels. Zero maxima are derived from the
	// image size.
	Segmentation struct {
		MinPupilDiameter int `yaml:"minPupilDiameter"`
		MaxPupilDiameter int `yaml:"maxPupilDiameter"`
		MinIrisDiameter  int `yaml:"minIrisDiameter"`
		MaxIrisDiameter  int `yaml:"maxIrisDiameter"`
	} `yaml:"segmentation"`

	// Normalization is the size of the unrolled iris
	Normalization struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"normalization"`

	// Encoding parameters
	Encoding struct {
		// Filters is the filter bank file
		Filters string `yaml:"filters"`

		// ApplicationPoints lists the normalized positions used for matching
		ApplicationPoints string `yaml:"applicationPoints"`
	} `yaml:"encoding"`

	// Suffixes appended to the eye name to build artefact file names
	Suffixes struct {
		Segmented       string `yaml:"segmented"`
		Parameters      string `yaml:"parameters"`
		Mask            string `yaml:"mask"`
		NormalizedImage string `yaml:"normalizedImage"`
		NormalizedMask  string `yaml:"normalizedMask"`
		IrisCode        string `yaml:"irisCode"`
	} `yaml:"suffixes"`

	// Logging parameters
	Logging struct {
		// Level is one of debug, info, warn, error or disabled
		Level string `yaml:"level"`

		// Console selects human readable output instead of JSON lines
		Console bool `yaml:"console"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.UseMask = true

	cfg.Segmentation.MinPupilDiameter = 21
	cfg.Segmentation.MaxPupilDiameter = 91
	cfg.Segmentation.MinIrisDiameter = 99
	cfg.Segmentation.MaxIrisDiameter = 399

	cfg.Normalization.Width = 512
	cfg.Normalization.Height = 64

	cfg.Encoding.Filters = "./filters.txt"
	cfg.Encoding.ApplicationPoints = "./points.txt"

	cfg.Suffixes.Segmented = "_segm.bmp"
	cfg.Suffixes.Parameters = "_para.txt"
	cfg.Suffixes.Mask = "_mask.bmp"
	cfg.Suffixes.NormalizedImage = "_imno.bmp"
	cfg.Suffixes.NormalizedMask = "_mano.bmp"
	cfg.Suffixes.IrisCode = "_code.bmp"

	cfg.Logging.Level = "info"
	cfg.Logging.Console = true

	return cfg
}

// Load reads a configuration file, choosing the format from its extension:
// .yaml and .yml files are YAML, anything else is the legacy text format.
// Unknown legacy options are reported as warnings.
func Load(path string, log logging.Logger) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadConfig(path)
	}

	cfg, unknown, err := LoadLegacy(path)
	if err != nil {
		return nil, err
	}
	for _, key := range unknown {
		log.Warning("config", "unknown option in configuration file", map[string]interface{}{
			"key":  key,
			"file": path,
		})
	}
	return cfg, nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Validate checks the values no processing step can recover from.
func (c *Config) Validate() error {
	if c.Normalization.Width <= 0 || c.Normalization.Height <= 0 {
		return fmt.Errorf("invalid normalized size %dx%d", c.Normalization.Width, c.Normalization.Height)
	}
	if c.Processing.Matching && c.Normalization.Width < matching.MaxShift {
		return fmt.Errorf("normalized width %d is below the matching shift range %d", c.Normalization.Width, matching.MaxShift)
	}
	if c.Inputs.ListOfImages == "" {
		return fmt.Errorf("no list of images")
	}
	return nil
}

// LoadImageList reads the whitespace separated image file names in path.
func LoadImageList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load the list of images in %s: %w", path, err)
	}
	return strings.Fields(string(data)), nil
}
