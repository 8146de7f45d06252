// Package pipeline runs the batch restoration job: it pairs image and
// depth files, preprocesses depth, evaluates the restoration models
// per frame on a bounded worker pool, and writes the outputs.
package pipeline

import (
	"fmt"

	"github.com/rs/zerolog"

	"benthic-restore/restore"
)

// Options configures a batch run. The two parameter artifact paths are
// required; everything the models need is loaded once up front.
type Options struct {
	ImageDir  string
	DepthDir  string
	OutputDir string

	Height int
	Width  int

	// MillimeterDepth selects 16-bit unsigned millimeter depth files
	// (scaled by 1/1000) instead of floating-point meters.
	MillimeterDepth bool
	// MaskMaxDepth replaces sentinel-zero depth values with the
	// frame's observed maximum before outlier filtering.
	MaskMaxDepth bool

	SaveIntermediates bool

	BackscatterParamsPath string
	AttenuationParamsPath string

	// Workers bounds the frame-level parallelism; 0 means one worker
	// per available CPU.
	Workers int

	Logger zerolog.Logger
}

// Runner owns the loaded models and preprocessing configuration for
// one batch run. The parameter sets are read-only after construction,
// so a single Runner is safe to share across its workers.
type Runner struct {
	opts   Options
	bs     *restore.BackscatterModel
	da     *restore.DeattenuationModel
	depth  *DepthPreprocessor
	writer *Writer
	log    zerolog.Logger
}

// Report summarizes a finished run.
type Report struct {
	Processed int
	Failed    int
	NaNZeroed int
}

// NewRunner validates the options and loads both parameter artifacts.
// A missing or shape-incompatible artifact fails here, before any
// frame is touched.
func NewRunner(opts Options) (*Runner, error) {
	if opts.ImageDir == "" || opts.DepthDir == "" || opts.OutputDir == "" {
		return nil, fmt.Errorf("image, depth, and output directories are all required")
	}
	if opts.Height <= 0 || opts.Width <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", opts.Height, opts.Width)
	}

	bsParams, err := restore.LoadBackscatterParams(opts.BackscatterParamsPath)
	if err != nil {
		return nil, fmt.Errorf("backscatter parameters: %w", err)
	}
	daParams, err := restore.LoadAttenuationParams(opts.AttenuationParamsPath)
	if err != nil {
		return nil, fmt.Errorf("attenuation parameters: %w", err)
	}

	return &Runner{
		opts: opts,
		bs:   restore.NewBackscatterModel(bsParams),
		da:   restore.NewDeattenuationModel(daParams),
		depth: &DepthPreprocessor{
			Height:       opts.Height,
			Width:        opts.Width,
			Millimeter:   opts.MillimeterDepth,
			MaskMaxDepth: opts.MaskMaxDepth,
		},
		writer: &Writer{
			Dir:               opts.OutputDir,
			SaveIntermediates: opts.SaveIntermediates,
		},
		log: opts.Logger,
	}, nil
}
