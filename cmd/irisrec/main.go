package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"irisrec/internal/logging"
	"irisrec/pkg/config"
	"irisrec/pkg/pipeline"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "irisrec.yaml", "Configuration file (.yaml/.yml, or legacy key = value text)")
	logLevel := flag.String("log-level", "", "Log level overriding the configuration (debug, info, warn, error, disabled)")
	writeDefault := flag.String("write-default-config", "", "Write a default YAML configuration to this path and exit")
	flag.Parse()

	if *writeDefault != "" {
		if err := config.CreateDefaultConfigFile(*writeDefault); err != nil {
			log.Fatalf("Failed to write default configuration: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *writeDefault)
		return
	}

	// The configuration is loaded before its logging section is known
	bootLog := logging.NewConsole(logging.ParseLevel(*logLevel))
	cfg, err := config.Load(*configPath, bootLog)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	level := cfg.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	}
	var logger logging.Logger
	if cfg.Logging.Console {
		logger = logging.NewConsole(logging.ParseLevel(level))
	} else {
		logger = logging.New(os.Stderr, logging.ParseLevel(level))
	}

	fmt.Println("================================")
	fmt.Println("IRIS RECOGNITION")
	fmt.Println("Segmentation, normalization, encoding and matching of eye images")
	fmt.Println("================================")
	printConfiguration(cfg)

	processor, err := pipeline.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create processor: %v", err)
	}

	fmt.Println("\nStart processing")
	startTime := time.Now()
	summary, err := processor.Run()
	if err != nil {
		log.Fatalf("Processing failed: %v", err)
	}
	processingTime := time.Since(startTime)

	fmt.Printf("\nEnd processing in %.2f seconds\n", processingTime.Seconds())
	fmt.Printf("- Images: %d\n", summary.Total)
	fmt.Printf("- Failed: %d\n", summary.Failed)
	if cfg.Processing.Matching {
		fmt.Printf("- Matched pairs: %d\n", summary.Matched)
	}
}

// printConfiguration shows the steps and the directories in use.
func printConfiguration(cfg *config.Config) {
	var steps []string
	if cfg.Processing.Segmentation {
		steps = append(steps, "segmentation")
	}
	if cfg.Processing.Normalization {
		steps = append(steps, "normalization")
	}
	if cfg.Processing.Encoding {
		steps = append(steps, "encoding")
	}
	if cfg.Processing.Matching {
		steps = append(steps, "matching")
	}

	fmt.Printf("\nProcess: %s\n", strings.Join(steps, " | "))
	if !cfg.Processing.UseMask {
		fmt.Println("Segmentation masks are not used")
	}
	fmt.Printf("List of images: %s\n", cfg.Inputs.ListOfImages)

	show := func(label, value string) {
		if value != "" {
			fmt.Printf("%s: %s\n", label, value)
		}
	}
	show("Original images loaded from", cfg.Inputs.OriginalImages)
	show("Parameters loaded from", cfg.Inputs.Parameters)
	show("Masks loaded from", cfg.Inputs.Masks)
	show("Normalized images loaded from", cfg.Inputs.NormalizedImages)
	show("Normalized masks loaded from", cfg.Inputs.NormalizedMasks)
	show("Iris codes loaded from", cfg.Inputs.IrisCodes)
	show("Segmented images saved to", cfg.Outputs.SegmentedImages)
	show("Parameters saved to", cfg.Outputs.Parameters)
	show("Masks saved to", cfg.Outputs.Masks)
	show("Normalized images saved to", cfg.Outputs.NormalizedImages)
	show("Normalized masks saved to", cfg.Outputs.NormalizedMasks)
	show("Iris codes saved to", cfg.Outputs.IrisCodes)
	show("Matching scores saved to", cfg.Outputs.MatchingScores)

	if cfg.Processing.Segmentation {
		s := cfg.Segmentation
		fmt.Printf("Pupil diameter: [%d, %d], iris diameter: [%d, %d]\n",
			s.MinPupilDiameter, s.MaxPupilDiameter, s.MinIrisDiameter, s.MaxIrisDiameter)
	}
	if cfg.Processing.Normalization {
		fmt.Printf("Normalized size: %dx%d\n", cfg.Normalization.Width, cfg.Normalization.Height)
	}
}
