package restore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const backscatterArtifact = `{
  "tensors": {
    "B_inf":              {"shape": [3, 1, 1],    "data": [0.4, 0.5, 0.6]},
    "J_prime":            {"shape": [3, 1, 1],    "data": [0.1, 0.2, 0.3]},
    "backscatter_weight": {"shape": [3, 1, 1, 1], "data": [0.5, 0.7, 0.9]},
    "residual_weight":    {"shape": [3, 1, 1, 1], "data": [0.3, 0.4, 0.5]}
  }
}`

const attenuationArtifact = `{
  "tensors": {
    "attenuation_weight": {"shape": [6, 1, 1, 1], "data": [0.2, 0.1, 0.3, 0.15, 0.25, 0.05]},
    "attenuation_coef":   {"shape": [6, 1, 1],    "data": [0.5, 0.4, 0.6, 0.3, 0.7, 0.2]},
    "wb":                 {"shape": [1, 1, 1],    "data": [1.25]}
  }
}`

func writeArtifact(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadBackscatterParams(t *testing.T) {
	t.Parallel()

	t.Run("loads a complete artifact", func(t *testing.T) {
		t.Parallel()
		p, err := LoadBackscatterParams(writeArtifact(t, "bs.json", backscatterArtifact))
		require.NoError(t, err)
		assert.Equal(t, [3]float32{0.4, 0.5, 0.6}, p.BInf)
		assert.Equal(t, [3]float32{0.1, 0.2, 0.3}, p.JPrime)
		assert.Equal(t, [3]float32{0.5, 0.7, 0.9}, p.BackscatterWeight)
		assert.Equal(t, [3]float32{0.3, 0.4, 0.5}, p.ResidualWeight)
	})

	t.Run("fails on a missing tensor", func(t *testing.T) {
		t.Parallel()
		path := writeArtifact(t, "bs.json", `{"tensors": {"B_inf": {"shape": [3,1,1], "data": [0.1, 0.2, 0.3]}}}`)
		_, err := LoadBackscatterParams(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing tensor")
	})

	t.Run("fails on a wrong shape", func(t *testing.T) {
		t.Parallel()
		path := writeArtifact(t, "bs.json", `{
  "tensors": {
    "B_inf":              {"shape": [3, 1],       "data": [0.4, 0.5, 0.6]},
    "J_prime":            {"shape": [3, 1, 1],    "data": [0.1, 0.2, 0.3]},
    "backscatter_weight": {"shape": [3, 1, 1, 1], "data": [0.5, 0.7, 0.9]},
    "residual_weight":    {"shape": [3, 1, 1, 1], "data": [0.3, 0.4, 0.5]}
  }
}`)
		_, err := LoadBackscatterParams(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "shape")
	})

	t.Run("fails on a missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadBackscatterParams(filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, err)
	})
}

func TestLoadAttenuationParams(t *testing.T) {
	t.Parallel()

	t.Run("loads a complete artifact", func(t *testing.T) {
		t.Parallel()
		p, err := LoadAttenuationParams(writeArtifact(t, "da.json", attenuationArtifact))
		require.NoError(t, err)
		assert.Equal(t, [6]float32{0.2, 0.1, 0.3, 0.15, 0.25, 0.05}, p.AttenuationWeight)
		assert.Equal(t, [6]float32{0.5, 0.4, 0.6, 0.3, 0.7, 0.2}, p.AttenuationCoef)
		assert.Equal(t, float32(1.25), p.WhiteBalance)
	})

	t.Run("fails on a data/shape size mismatch", func(t *testing.T) {
		t.Parallel()
		path := writeArtifact(t, "da.json", `{
  "tensors": {
    "attenuation_weight": {"shape": [6, 1, 1, 1], "data": [0.2, 0.1]},
    "attenuation_coef":   {"shape": [6, 1, 1],    "data": [0.5, 0.4, 0.6, 0.3, 0.7, 0.2]},
    "wb":                 {"shape": [1, 1, 1],    "data": [1.0]}
  }
}`)
		_, err := LoadAttenuationParams(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "values")
	})

	t.Run("fails on malformed JSON", func(t *testing.T) {
		t.Parallel()
		_, err := LoadAttenuationParams(writeArtifact(t, "da.json", "not json"))
		require.Error(t, err)
	})
}
