package restore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBackscatterParams() BackscatterParams {
	return BackscatterParams{
		BInf:              [3]float32{0.4, 0.5, 0.6},
		JPrime:            [3]float32{0.1, 0.2, 0.3},
		BackscatterWeight: [3]float32{0.5, 0.7, 0.9},
		ResidualWeight:    [3]float32{0.3, 0.4, 0.5},
	}
}

func constantFrame(h, w int, value float32) Frame {
	f := NewFrame(h, w)
	for c := range f.Ch {
		for i := range f.Ch[c] {
			f.Ch[c][i] = value
		}
	}
	return f
}

func constantDepth(h, w int, value float32) DepthField {
	d := NewDepthField(h, w)
	for i := range d.Pix {
		d.Pix[i] = value
	}
	return d
}

func TestBackscatterModel_Estimate(t *testing.T) {
	t.Parallel()
	model := NewBackscatterModel(testBackscatterParams())

	t.Run("invalid depth contributes no veiling light", func(t *testing.T) {
		t.Parallel()
		img := constantFrame(2, 3, 0.5)
		depth := NewDepthField(2, 3)
		depth.Pix[0] = 2.0
		depth.Pix[3] = -1.0 // negative treated like the zero sentinel

		direct, backscatter, err := model.Estimate(img, depth)
		require.NoError(t, err)

		for c := 0; c < 3; c++ {
			for i := range depth.Pix {
				if depth.Pix[i] <= 0 {
					assert.Zero(t, backscatter.Ch[c][i])
					assert.Equal(t, img.Ch[c][i], direct.Ch[c][i])
				}
			}
		}
	})

	t.Run("estimate stays in open unit interval at valid depth", func(t *testing.T) {
		t.Parallel()
		img := constantFrame(3, 3, 0.8)
		depth := constantDepth(3, 3, 4.5)

		_, backscatter, err := model.Estimate(img, depth)
		require.NoError(t, err)

		for c := 0; c < 3; c++ {
			for _, b := range backscatter.Ch[c] {
				assert.Greater(t, b, float32(0))
				assert.Less(t, b, float32(1))
			}
		}
	})

	t.Run("constant depth yields spatially uniform estimate", func(t *testing.T) {
		t.Parallel()
		img := constantFrame(4, 5, 0.3)
		depth := constantDepth(4, 5, 2.5)

		_, backscatter, err := model.Estimate(img, depth)
		require.NoError(t, err)

		for c := 0; c < 3; c++ {
			first := backscatter.Ch[c][0]
			for _, b := range backscatter.Ch[c] {
				assert.Equal(t, first, b)
			}
		}
	})

	t.Run("direct may go negative", func(t *testing.T) {
		t.Parallel()
		img := constantFrame(2, 2, 0.0)
		depth := constantDepth(2, 2, 10)

		direct, _, err := model.Estimate(img, depth)
		require.NoError(t, err)
		assert.Less(t, direct.Ch[0][0], float32(0))
	})

	t.Run("rejects mismatched shapes", func(t *testing.T) {
		t.Parallel()
		img := constantFrame(2, 2, 0.5)
		depth := constantDepth(3, 3, 1)

		_, _, err := model.Estimate(img, depth)
		require.Error(t, err)
	})
}
