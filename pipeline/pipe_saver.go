package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"

	"benthic-restore/internal/imgconv"
	"benthic-restore/restore"
)

// Writer stores frame outputs as 8-bit PNGs. The corrected image is
// always written; direct, backscatter, and transmission images only
// when intermediates are requested.
type Writer struct {
	Dir               string
	SaveIntermediates bool
}

// FrameOutputs bundles everything the pipeline produces for one frame.
type FrameOutputs struct {
	Direct       restore.Frame
	Backscatter  restore.Frame
	Transmission restore.Frame
	Corrected    restore.Frame
}

// EnsureDir creates the output directory if needed.
func (w *Writer) EnsureDir() error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// WriteFrame writes the outputs for one input filename. direct,
// backscatter, and corrected are clamped to [0,1] by the 8-bit
// conversion; transmission is rescaled by its own maximum so its
// spatial structure stays visible.
func (w *Writer) WriteFrame(name string, out FrameOutputs) error {
	if err := w.writeImage(outputPath(w.Dir, name, "corrected"), out.Corrected); err != nil {
		return err
	}
	if !w.SaveIntermediates {
		return nil
	}
	if err := w.writeImage(outputPath(w.Dir, name, "direct"), out.Direct); err != nil {
		return err
	}
	if err := w.writeImage(outputPath(w.Dir, name, "backscatter"), out.Backscatter); err != nil {
		return err
	}
	return w.writeImage(outputPath(w.Dir, name, "f"), rescaleByMax(out.Transmission))
}

func (w *Writer) writeImage(path string, frame restore.Frame) error {
	mat, err := imgconv.FrameToMat8U(frame)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer mat.Close()
	if ok := gocv.IMWrite(path, mat); !ok {
		return fmt.Errorf("failed to write %s", path)
	}
	return nil
}

// outputPath derives the artifact path for one input filename and
// suffix, e.g. frame01.png -> <dir>/frame01-corrected.png.
func outputPath(dir, name, suffix string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(dir, stem+"-"+suffix+".png")
}

// rescaleByMax divides a frame by its global maximum, mapping it onto
// [0,1] for visualization.
func rescaleByMax(frame restore.Frame) restore.Frame {
	var max float32
	for c := range frame.Ch {
		for _, v := range frame.Ch[c] {
			if v > max {
				max = v
			}
		}
	}
	if max <= 0 {
		return frame
	}
	out := restore.NewFrame(frame.Height, frame.Width)
	for c := range frame.Ch {
		for i, v := range frame.Ch[c] {
			out.Ch[c][i] = v / max
		}
	}
	return out
}
