package restore

import "math"

// BackscatterParams holds the calibrated constants of the veiling-light
// model: two per-channel asymptotic radiances and two depth-to-channel
// projection weights. Values come from a calibration artifact and are
// read-only during inference.
type BackscatterParams struct {
	BInf              [3]float32
	JPrime            [3]float32
	BackscatterWeight [3]float32
	ResidualWeight    [3]float32
}

// BackscatterModel estimates the veiling light scattered back toward
// the camera by the water column and subtracts it from the input image.
type BackscatterModel struct {
	params BackscatterParams
}

// NewBackscatterModel creates a model around an immutable parameter set.
func NewBackscatterModel(params BackscatterParams) *BackscatterModel {
	return &BackscatterModel{params: params}
}

// Estimate computes the per-pixel backscatter radiance from depth and
// removes it from the image. The returned backscatter lies in (0,1)
// wherever depth is valid and is exactly 0 at pixels with depth <= 0.
// The direct signal is the raw difference and may be negative; the
// exposure normalizer resolves that downstream.
func (m *BackscatterModel) Estimate(img Frame, depth DepthField) (direct, backscatter Frame, err error) {
	if err := checkShapes(img, depth); err != nil {
		return Frame{}, Frame{}, err
	}

	direct = NewFrame(img.Height, img.Width)
	backscatter = NewFrame(img.Height, img.Width)

	p := m.params
	for c := 0; c < 3; c++ {
		bInf := float64(p.BInf[c])
		jPrime := float64(p.JPrime[c])
		wb := float64(p.BackscatterWeight[c])
		wr := float64(p.ResidualWeight[c])
		src := img.Ch[c]
		dst := direct.Ch[c]
		bs := backscatter.Ch[c]
		for i, d := range depth.Pix {
			if d <= 0 {
				// No measured distance, no veiling light to model.
				dst[i] = src[i]
				continue
			}
			dm := float64(d)
			betaB := relu(wb * dm)
			betaR := relu(wr * dm)
			bc := bInf*(1-math.Exp(-betaB)) + jPrime*math.Exp(-betaR)
			b := float32(sigmoid(bc))
			bs[i] = b
			dst[i] = src[i] - b
		}
	}
	return direct, backscatter, nil
}

func relu(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
