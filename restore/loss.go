package restore

import (
	"gonum.org/v1/gonum/stat"
)

// The loss functions are the calibration objectives an external
// optimizer minimizes when fitting the model parameters to a scene.
// They are pure, mean-reduced scalars and are not evaluated during
// inference.

// BackscatterLoss scores the direct signal left after backscatter
// subtraction. Negative residuals mean the backscatter estimate
// exceeded the true veiling light, the harder error, so they are
// weighted CostRatio times more heavily than positive residuals.
type BackscatterLoss struct {
	CostRatio float64
}

// smoothL1Beta is the quadratic-to-linear transition point of the
// smooth L1 term.
const smoothL1Beta = 0.2

// NewBackscatterLoss returns the loss with the default cost ratio of 1000.
func NewBackscatterLoss() BackscatterLoss {
	return BackscatterLoss{CostRatio: 1000}
}

// Eval returns CostRatio*smoothL1(relu(-direct)) + l1(relu(direct)),
// both terms mean-reduced over all channels and pixels. The result is
// nonnegative and zero exactly when direct is elementwise zero.
func (l BackscatterLoss) Eval(direct Frame) float64 {
	var neg, pos float64
	n := 0
	for c := range direct.Ch {
		for _, v := range direct.Ch[c] {
			x := float64(v)
			if x < 0 {
				neg += smoothL1(-x)
			} else {
				pos += x
			}
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return l.CostRatio*neg/float64(n) + pos/float64(n)
}

func smoothL1(x float64) float64 {
	if x < smoothL1Beta {
		return 0.5 * x * x / smoothL1Beta
	}
	return x - 0.5*smoothL1Beta
}

// DeattenuationLoss scores a restored image against three unsupervised
// objectives: stay inside [0,1], pull each channel's mean brightness
// toward the target intensity, and keep per-channel spatial contrast
// close to that of the pre-normalization direct signal so the
// intensity term cannot flatten detail.
type DeattenuationLoss struct {
	TargetIntensity float64
}

// NewDeattenuationLoss returns the loss targeting mid-gray brightness.
func NewDeattenuationLoss() DeattenuationLoss {
	return DeattenuationLoss{TargetIntensity: 0.5}
}

// DeattenuationLossTerms carries the three additive terms separately
// so an optimizer can report them individually.
type DeattenuationLossTerms struct {
	Saturation       float64
	Intensity        float64
	SpatialVariation float64
}

// Total sums the three terms.
func (t DeattenuationLossTerms) Total() float64 {
	return t.Saturation + t.Intensity + t.SpatialVariation
}

// Eval computes the three terms over the restored image and the
// pre-normalization direct signal. Each term is nonnegative; the
// saturation term is zero exactly when restored lies elementwise in
// [0,1].
func (l DeattenuationLoss) Eval(direct, restored Frame) DeattenuationLossTerms {
	var terms DeattenuationLossTerms

	var satSum float64
	n := 0
	for c := range restored.Ch {
		for _, v := range restored.Ch[c] {
			x := float64(v)
			var excess float64
			if x < 0 {
				excess = -x
			} else if x > 1 {
				excess = x - 1
			}
			satSum += excess * excess
			n++
		}
	}
	if n > 0 {
		terms.Saturation = satSum / float64(n)
	}

	var intSum, varSum float64
	for c := 0; c < 3; c++ {
		meanJ, stdJ := channelStats(restored.Ch[c])
		_, stdD := channelStats(direct.Ch[c])
		dInt := meanJ - l.TargetIntensity
		intSum += dInt * dInt
		dVar := stdJ - stdD
		varSum += dVar * dVar
	}
	terms.Intensity = intSum / 3
	terms.SpatialVariation = varSum / 3

	return terms
}

func channelStats(ch []float32) (mean, std float64) {
	buf := make([]float64, len(ch))
	for i, v := range ch {
		buf[i] = float64(v)
	}
	return stat.MeanStdDev(buf, nil)
}
