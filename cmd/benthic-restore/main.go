// Command benthic-restore restores true scene color in underwater
// images by inverting a physical light-transport model: it estimates
// and subtracts veiling backscatter, then inverts wavelength-dependent
// attenuation using a paired depth map.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"benthic-restore/pipeline"
)

type jobConfig struct {
	Images            string `yaml:"images"`
	Depth             string `yaml:"depth"`
	Output            string `yaml:"output"`
	Height            int    `yaml:"height"`
	Width             int    `yaml:"width"`
	Depth16U          bool   `yaml:"depth_16u"`
	MaskMaxDepth      bool   `yaml:"mask_max_depth"`
	SaveIntermediates bool   `yaml:"save_intermediates"`
	BSParams          string `yaml:"bs_params"`
	DAParams          string `yaml:"da_params"`
	Workers           int    `yaml:"workers"`
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	images := flag.String("images", "", "path to the input images folder")
	depth := flag.String("depth", "", "path to the input depth folder")
	output := flag.String("output", "", "path to the output folder")
	height := flag.Int("height", 1242, "target height of image and depth frames")
	width := flag.Int("width", 1952, "target width of image and depth frames")
	depth16u := flag.Bool("depth-16u", false, "depth files are 16-bit unsigned millimeters instead of floating-point meters")
	maskMaxDepth := flag.Bool("mask-max-depth", false, "replace zero depth values with the frame maximum before filtering")
	saveIntermediates := flag.Bool("save-intermediates", false, "also write direct, backscatter, and transmission images")
	bsParams := flag.String("bs-params", "", "path to the backscatter parameter artifact")
	daParams := flag.String("da-params", "", "path to the attenuation parameter artifact")
	workers := flag.Int("workers", 0, "worker count, 0 for one per CPU")
	configPath := flag.String("config", "", "optional YAML job file; explicit flags take precedence")
	debugFlag := flag.Bool("debug", false, "debug logging level")
	human := flag.Bool("human", false, "human-readable console logging")
	flag.Parse()

	cfg := jobConfig{
		Images:            *images,
		Depth:             *depth,
		Output:            *output,
		Height:            *height,
		Width:             *width,
		Depth16U:          *depth16u,
		MaskMaxDepth:      *maskMaxDepth,
		SaveIntermediates: *saveIntermediates,
		BSParams:          *bsParams,
		DAParams:          *daParams,
		Workers:           *workers,
	}
	if *configPath != "" {
		if err := applyConfigFile(*configPath, &cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debugFlag {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if *human {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if cfg.Images == "" || cfg.Depth == "" || cfg.Output == "" {
		log.Fatal().Msg("images, depth, and output are all required")
	}
	if cfg.BSParams == "" || cfg.DAParams == "" {
		log.Fatal().Msg("bs-params and da-params are both required")
	}

	runner, err := pipeline.NewRunner(pipeline.Options{
		ImageDir:              cfg.Images,
		DepthDir:              cfg.Depth,
		OutputDir:             cfg.Output,
		Height:                cfg.Height,
		Width:                 cfg.Width,
		MillimeterDepth:       cfg.Depth16U,
		MaskMaxDepth:          cfg.MaskMaxDepth,
		SaveIntermediates:     cfg.SaveIntermediates,
		BackscatterParamsPath: cfg.BSParams,
		AttenuationParamsPath: cfg.DAParams,
		Workers:               cfg.Workers,
		Logger:                log.Logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("setup failed")
	}

	report, err := runner.Run()
	if err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
	if report.Failed > 0 {
		log.Warn().Int("failed", report.Failed).Msg("some frames failed")
		os.Exit(1)
	}
}

// applyConfigFile fills cfg fields from a YAML job file, keeping any
// value already set by an explicit flag.
func applyConfigFile(path string, cfg *jobConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var file jobConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["images"] {
		cfg.Images = file.Images
	}
	if !set["depth"] {
		cfg.Depth = file.Depth
	}
	if !set["output"] {
		cfg.Output = file.Output
	}
	if !set["height"] && file.Height != 0 {
		cfg.Height = file.Height
	}
	if !set["width"] && file.Width != 0 {
		cfg.Width = file.Width
	}
	if !set["depth-16u"] {
		cfg.Depth16U = file.Depth16U
	}
	if !set["mask-max-depth"] {
		cfg.MaskMaxDepth = file.MaskMaxDepth
	}
	if !set["save-intermediates"] {
		cfg.SaveIntermediates = file.SaveIntermediates
	}
	if !set["bs-params"] {
		cfg.BSParams = file.BSParams
	}
	if !set["da-params"] {
		cfg.DAParams = file.DAParams
	}
	if !set["workers"] && file.Workers != 0 {
		cfg.Workers = file.Workers
	}
	return nil
}
