package restore

import "math"

// maxExponent caps the transmission inversion factor at exp(ln 3) = 3x.
// Without it, near-zero transmission would send the correction to
// infinity.
var maxExponent = math.Log(3)

// AttenuationParams holds the calibrated constants of the attenuation
// model: a depth-to-6-channel projection, a 6-element combination
// coefficient (two per output channel), and a global white-balance
// gain.
type AttenuationParams struct {
	AttenuationWeight [6]float32
	AttenuationCoef   [6]float32
	WhiteBalance      float32
}

// DeattenuationModel inverts wavelength-dependent attenuation using
// depth, recovering true scene color from the normalized direct signal.
type DeattenuationModel struct {
	params AttenuationParams
}

// NewDeattenuationModel creates a model around an immutable parameter set.
func NewDeattenuationModel(params AttenuationParams) *DeattenuationModel {
	return &DeattenuationModel{params: params}
}

// RestoreResult carries the outputs of one deattenuation pass. NaNZeroed
// counts restored-image entries that came out NaN and were replaced with
// zero; callers decide whether to treat a nonzero count as fatal.
type RestoreResult struct {
	Transmission Frame
	Restored     Frame
	NaNZeroed    int
}

// Restore computes the per-pixel transmission inversion factor and
// applies it to the normalized direct signal. The factor lies in [1,3]
// wherever depth is valid and is exactly 1 at pixels with depth <= 0.
func (m *DeattenuationModel) Restore(directN Frame, depth DepthField) (RestoreResult, error) {
	if err := checkShapes(directN, depth); err != nil {
		return RestoreResult{}, err
	}

	res := RestoreResult{
		Transmission: NewFrame(directN.Height, directN.Width),
		Restored:     NewFrame(directN.Height, directN.Width),
	}

	p := m.params
	var k [6]float64
	for i, v := range p.AttenuationCoef {
		k[i] = relu(float64(v))
	}
	wb := float64(p.WhiteBalance)

	for c := 0; c < 3; c++ {
		w0 := float64(p.AttenuationWeight[2*c])
		w1 := float64(p.AttenuationWeight[2*c+1])
		k0 := k[2*c]
		k1 := k[2*c+1]
		src := directN.Ch[c]
		tr := res.Transmission.Ch[c]
		dst := res.Restored.Ch[c]
		for i, d := range depth.Pix {
			dm := float64(d)
			betaD := relu(w0*dm)*k0 + relu(w1*dm)*k1
			e := betaD * dm
			if e < 0 {
				e = 0
			} else if e > maxExponent {
				e = maxExponent
			}
			f := math.Exp(e)
			// Identity transmission at invalid depth, written as
			// f*(inv/f + pos) so no division-by-zero branch is
			// needed; the exponent floor keeps f >= 1 always.
			var inv, pos float64
			if d <= 0 {
				inv = 1
			} else {
				pos = 1
			}
			f = f * (inv/f + pos)
			tr[i] = float32(f)
			j := f * float64(src[i]) * wb
			if math.IsNaN(j) {
				res.NaNZeroed++
				j = 0
			}
			dst[i] = float32(j)
		}
	}
	return res, nil
}
