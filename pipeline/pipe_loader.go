package pipeline

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"benthic-restore/internal/imgconv"
	"benthic-restore/restore"
)

// loadImage decodes an RGB image, resizes it to the target resolution
// with area interpolation, and scales it to [0,1] float planes.
func loadImage(path string, height, width int) (restore.Frame, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return restore.Frame{}, fmt.Errorf("failed to decode image %s", path)
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(mat, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationArea)

	scaled := gocv.NewMat()
	defer scaled.Close()
	resized.ConvertToWithParams(&scaled, gocv.MatTypeCV32F, 1.0/255.0, 0)

	frame, err := imgconv.MatToFrame(scaled)
	if err != nil {
		return restore.Frame{}, fmt.Errorf("image %s: %w", path, err)
	}
	return frame, nil
}

// listFrameFiles returns the sorted regular-file names of a directory.
// os.ReadDir sorts by name, which is the pairing order.
func listFrameFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
