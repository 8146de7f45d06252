package pipeline

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"benthic-restore/restore"
)

// Run processes every paired frame and returns the aggregate report.
// Mismatched image/depth counts abort before any frame is processed;
// after that, a frame failure is logged and counted but never stops
// the run. Frames are independent, so they are fanned out to a
// bounded worker pool and outputs are keyed by filename rather than
// sequence position.
func (r *Runner) Run() (Report, error) {
	images, err := listFrameFiles(r.opts.ImageDir)
	if err != nil {
		return Report{}, err
	}
	depths, err := listFrameFiles(r.opts.DepthDir)
	if err != nil {
		return Report{}, err
	}
	if len(images) != len(depths) {
		return Report{}, fmt.Errorf("found %d images but %d depth files", len(images), len(depths))
	}
	if err := r.writer.EnsureDir(); err != nil {
		return Report{}, err
	}

	workers := r.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(images) && len(images) > 0 {
		workers = len(images)
	}

	r.log.Info().
		Int("frames", len(images)).
		Int("workers", workers).
		Str("output", r.opts.OutputDir).
		Msg("starting batch run")

	var (
		mu     sync.Mutex
		report Report
		wg     sync.WaitGroup
	)
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				nanZeroed, timings, err := r.processFrame(images[i], depths[i])
				mu.Lock()
				if err != nil {
					report.Failed++
					mu.Unlock()
					r.log.Error().Err(err).Str("frame", images[i]).Msg("frame failed")
					continue
				}
				report.Processed++
				report.NaNZeroed += nanZeroed
				mu.Unlock()
				r.logTimings(images[i], timings)
			}
		}()
	}
	for i := range images {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	r.log.Info().
		Int("processed", report.Processed).
		Int("failed", report.Failed).
		Int("nan_zeroed", report.NaNZeroed).
		Msg("batch run finished")

	return report, nil
}

// processFrame runs the three model stages for one image/depth pair
// and writes the outputs.
func (r *Runner) processFrame(imageName, depthName string) (int, StageTimings, error) {
	var timings StageTimings

	start := time.Now()
	img, err := loadImage(filepath.Join(r.opts.ImageDir, imageName), r.opts.Height, r.opts.Width)
	if err != nil {
		return 0, timings, err
	}
	timings.Load = time.Since(start)

	start = time.Now()
	depth, err := r.depth.Load(filepath.Join(r.opts.DepthDir, depthName))
	if err != nil {
		return 0, timings, err
	}
	timings.Depth = time.Since(start)

	start = time.Now()
	direct, backscatter, err := r.bs.Estimate(img, depth)
	if err != nil {
		return 0, timings, fmt.Errorf("backscatter stage: %w", err)
	}
	timings.Backscatter = time.Since(start)

	start = time.Now()
	directN := restore.NormalizeExposure(direct)
	timings.Normalize = time.Since(start)

	start = time.Now()
	res, err := r.da.Restore(directN, depth)
	if err != nil {
		return 0, timings, fmt.Errorf("deattenuation stage: %w", err)
	}
	timings.Deattenuate = time.Since(start)

	if res.NaNZeroed > 0 {
		r.log.Warn().
			Str("frame", imageName).
			Int("nan_zeroed", res.NaNZeroed).
			Msg("NaN values in restored image zeroed")
	}

	start = time.Now()
	err = r.writer.WriteFrame(imageName, FrameOutputs{
		Direct:       directN,
		Backscatter:  backscatter,
		Transmission: res.Transmission,
		Corrected:    res.Restored,
	})
	if err != nil {
		return 0, timings, err
	}
	timings.Write = time.Since(start)

	return res.NaNZeroed, timings, nil
}
