package restore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackscatterLoss(t *testing.T) {
	t.Parallel()
	loss := NewBackscatterLoss()
	require.Equal(t, float64(1000), loss.CostRatio)

	t.Run("zero exactly for an all-zero residual", func(t *testing.T) {
		t.Parallel()
		assert.Zero(t, loss.Eval(NewFrame(3, 3)))
	})

	t.Run("positive for any nonzero residual", func(t *testing.T) {
		t.Parallel()
		pos := NewFrame(2, 2)
		pos.Ch[0][0] = 0.3
		assert.Greater(t, loss.Eval(pos), 0.0)

		neg := NewFrame(2, 2)
		neg.Ch[2][3] = -0.3
		assert.Greater(t, loss.Eval(neg), 0.0)
	})

	t.Run("over-subtraction costs far more than under-subtraction", func(t *testing.T) {
		t.Parallel()
		pos := constantFrame(2, 2, 0.1)
		neg := constantFrame(2, 2, -0.1)
		assert.Greater(t, loss.Eval(neg), 100*loss.Eval(pos))
	})

	t.Run("matches the closed form on a small input", func(t *testing.T) {
		t.Parallel()
		in := NewFrame(1, 1)
		in.Ch[0][0] = -0.1 // smooth L1: 0.5*0.01/0.2 = 0.025
		in.Ch[1][0] = 0.2  // plain L1
		in.Ch[2][0] = 0

		want := (1000*0.025 + 0.2) / 3
		assert.InDelta(t, want, loss.Eval(in), 1e-5)
	})

	t.Run("smooth L1 goes linear past beta", func(t *testing.T) {
		t.Parallel()
		in := NewFrame(1, 1)
		in.Ch[0][0] = -0.5 // past beta: 0.5 - 0.1 = 0.4
		want := 1000 * 0.4 / 3
		assert.InDelta(t, want, loss.Eval(in), 1e-5)
	})
}

func TestDeattenuationLoss(t *testing.T) {
	t.Parallel()
	loss := NewDeattenuationLoss()

	t.Run("saturation term zero iff restored lies in unit range", func(t *testing.T) {
		t.Parallel()
		direct := constantFrame(2, 2, 0.4)

		inRange := constantFrame(2, 2, 0.7)
		assert.Zero(t, loss.Eval(direct, inRange).Saturation)

		over := constantFrame(2, 2, 0.7)
		over.Ch[0][0] = 1.5
		assert.Greater(t, loss.Eval(direct, over).Saturation, 0.0)

		under := constantFrame(2, 2, 0.7)
		under.Ch[1][1] = -0.25
		assert.Greater(t, loss.Eval(direct, under).Saturation, 0.0)
	})

	t.Run("intensity term zero at mid-gray", func(t *testing.T) {
		t.Parallel()
		direct := constantFrame(2, 2, 0.4)
		mid := constantFrame(2, 2, 0.5)
		assert.Zero(t, loss.Eval(direct, mid).Intensity)

		bright := constantFrame(2, 2, 0.9)
		assert.Greater(t, loss.Eval(direct, bright).Intensity, 0.0)
	})

	t.Run("spatial variation term zero when contrast is preserved", func(t *testing.T) {
		t.Parallel()
		direct := NewFrame(1, 4)
		for c := range direct.Ch {
			copy(direct.Ch[c], []float32{0.1, 0.3, 0.5, 0.7})
		}
		terms := loss.Eval(direct, direct)
		assert.InDelta(t, 0, terms.SpatialVariation, 1e-12)

		flat := constantFrame(1, 4, 0.4)
		assert.Greater(t, loss.Eval(direct, flat).SpatialVariation, 0.0)
	})

	t.Run("total sums the three terms", func(t *testing.T) {
		t.Parallel()
		direct := NewFrame(1, 4)
		copy(direct.Ch[0], []float32{0.1, 0.2, 0.3, 0.4})
		copy(direct.Ch[1], []float32{0.2, 0.3, 0.4, 0.5})
		copy(direct.Ch[2], []float32{0.3, 0.4, 0.5, 0.6})
		restored := constantFrame(1, 4, 1.2)

		terms := loss.Eval(direct, restored)
		assert.InDelta(t, terms.Saturation+terms.Intensity+terms.SpatialVariation, terms.Total(), 1e-15)
		assert.Greater(t, terms.Total(), 0.0)
	})
}
