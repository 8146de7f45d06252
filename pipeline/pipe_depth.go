package pipeline

import (
	"fmt"
	"image"
	"math"
	"sort"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"benthic-restore/internal/imgconv"
	"benthic-restore/restore"
)

// depthPercentile is the fraction of extreme values discarded on each
// side of the depth distribution before hole filling.
const depthPercentile = 0.0001

const millimetersPerMeter = 1000

// DepthPreprocessor turns a raw depth file into a clean depth field:
// resize to the target resolution, scale to meters, drop percentile
// outliers to the zero sentinel, and close small sentinel holes with a
// 3x3 morphological kernel.
type DepthPreprocessor struct {
	Height int
	Width  int
	// Millimeter marks 16-bit unsigned millimeter encodings.
	Millimeter bool
	// MaskMaxDepth replaces exact-zero values with the frame maximum
	// before outlier filtering.
	MaskMaxDepth bool
}

// Load reads and preprocesses one depth file.
func (p *DepthPreprocessor) Load(path string) (restore.DepthField, error) {
	mat := gocv.IMRead(path, gocv.IMReadUnchanged)
	defer mat.Close()
	if mat.Empty() {
		return restore.DepthField{}, fmt.Errorf("failed to decode depth file %s", path)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if mat.Channels() == 1 {
		mat.CopyTo(&gray)
	} else {
		gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
	}

	f32 := gocv.NewMat()
	defer f32.Close()
	gray.ConvertTo(&f32, gocv.MatTypeCV32F)

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(f32, &resized, image.Pt(p.Width, p.Height), 0, 0, gocv.InterpolationArea)

	pix, err := resized.DataPtrFloat32()
	if err != nil {
		return restore.DepthField{}, fmt.Errorf("depth file %s: %w", path, err)
	}
	if p.Millimeter {
		for i := range pix {
			pix[i] /= millimetersPerMeter
		}
	}
	if p.MaskMaxDepth {
		replaceSentinelWithMax(pix)
	}
	percentileClip(pix, depthPercentile)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(resized, &closed, gocv.MorphClose, kernel)

	depth, err := imgconv.MatToDepth(closed)
	if err != nil {
		return restore.DepthField{}, fmt.Errorf("depth file %s: %w", path, err)
	}
	return depth, nil
}

// replaceSentinelWithMax substitutes the observed maximum for every
// exact-zero value, for sensors that report dropouts where the scene
// is actually far away.
func replaceSentinelWithMax(pix []float32) {
	var max float32
	for _, v := range pix {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return
	}
	for i, v := range pix {
		if v == 0 {
			pix[i] = max
		}
	}
}

// percentileClip zeroes values below the perc or above the 1-perc
// quantile, plus any NaN, marking them as invalid returns.
func percentileClip(pix []float32, perc float64) {
	finite := make([]float64, 0, len(pix))
	for _, v := range pix {
		if !math.IsNaN(float64(v)) {
			finite = append(finite, float64(v))
		}
	}
	if len(finite) == 0 {
		for i := range pix {
			pix[i] = 0
		}
		return
	}
	sort.Float64s(finite)
	low := stat.Quantile(perc, stat.Empirical, finite, nil)
	high := stat.Quantile(1-perc, stat.Empirical, finite, nil)
	for i, v := range pix {
		f := float64(v)
		if math.IsNaN(f) || f < low || f > high {
			pix[i] = 0
		}
	}
}
