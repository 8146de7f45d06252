package restore

import "gonum.org/v1/gonum/stat"

// meanFloor is the smallest mean used when reconstructing the
// normalized signal, one 8-bit quantization step. It prevents a
// degenerate all-zero reconstruction when a channel mean sits at or
// near zero.
const meanFloor = 1.0 / 255.0

const zClip = 5.0

// NormalizeExposure rescales the direct signal channel by channel
// before attenuation inversion. Each channel is z-scored over its
// spatial extent, the z-scores are clipped to [-5,5], and the channel
// is reconstructed around max(mean, 1/255) and clamped to [0,1]. This
// is a statistics-based rescaling, not a learned transform; it
// deliberately decouples backscatter-stage statistics from
// attenuation-stage statistics.
func NormalizeExposure(direct Frame) Frame {
	out := NewFrame(direct.Height, direct.Width)
	buf := make([]float64, direct.Pixels())

	for c := 0; c < 3; c++ {
		src := direct.Ch[c]
		for i, v := range src {
			buf[i] = float64(v)
		}
		mean, std := stat.MeanStdDev(buf, nil)
		floor := mean
		if floor < meanFloor {
			floor = meanFloor
		}
		dst := out.Ch[c]
		for i, v := range src {
			z := 0.0
			if std > 0 {
				z = (float64(v) - mean) / std
			}
			if z > zClip {
				z = zClip
			} else if z < -zClip {
				z = -zClip
			}
			dst[i] = float32(clamp01(z*std + floor))
		}
	}
	return out
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
