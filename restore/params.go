package restore

import (
	"encoding/json"
	"fmt"
	"os"
)

// Parameter artifacts are JSON files of named tensors produced by the
// calibration step. Every tensor the model needs must be present with
// exactly the published shape; anything else is a fatal load error.

type tensor struct {
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
}

type artifact struct {
	Tensors map[string]tensor `json:"tensors"`
}

// LoadBackscatterParams reads a backscatter calibration artifact.
// Required tensors: B_inf [3,1,1], J_prime [3,1,1],
// backscatter_weight [3,1,1,1], residual_weight [3,1,1,1].
func LoadBackscatterParams(path string) (BackscatterParams, error) {
	art, err := loadArtifact(path)
	if err != nil {
		return BackscatterParams{}, err
	}

	var p BackscatterParams
	fields := []struct {
		name  string
		shape []int
		dst   *[3]float32
	}{
		{"B_inf", []int{3, 1, 1}, &p.BInf},
		{"J_prime", []int{3, 1, 1}, &p.JPrime},
		{"backscatter_weight", []int{3, 1, 1, 1}, &p.BackscatterWeight},
		{"residual_weight", []int{3, 1, 1, 1}, &p.ResidualWeight},
	}
	for _, f := range fields {
		data, err := art.tensorData(f.name, f.shape)
		if err != nil {
			return BackscatterParams{}, fmt.Errorf("%s: %w", path, err)
		}
		copy(f.dst[:], data)
	}
	return p, nil
}

// LoadAttenuationParams reads an attenuation calibration artifact.
// Required tensors: attenuation_weight [6,1,1,1], attenuation_coef
// [6,1,1], wb [1,1,1].
func LoadAttenuationParams(path string) (AttenuationParams, error) {
	art, err := loadArtifact(path)
	if err != nil {
		return AttenuationParams{}, err
	}

	var p AttenuationParams
	w, err := art.tensorData("attenuation_weight", []int{6, 1, 1, 1})
	if err != nil {
		return AttenuationParams{}, fmt.Errorf("%s: %w", path, err)
	}
	copy(p.AttenuationWeight[:], w)

	coef, err := art.tensorData("attenuation_coef", []int{6, 1, 1})
	if err != nil {
		return AttenuationParams{}, fmt.Errorf("%s: %w", path, err)
	}
	copy(p.AttenuationCoef[:], coef)

	wb, err := art.tensorData("wb", []int{1, 1, 1})
	if err != nil {
		return AttenuationParams{}, fmt.Errorf("%s: %w", path, err)
	}
	p.WhiteBalance = wb[0]

	return p, nil
}

func loadArtifact(path string) (*artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter artifact: %w", err)
	}
	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("failed to parse parameter artifact %s: %w", path, err)
	}
	if art.Tensors == nil {
		return nil, fmt.Errorf("parameter artifact %s has no tensors", path)
	}
	return &art, nil
}

func (a *artifact) tensorData(name string, shape []int) ([]float32, error) {
	t, ok := a.Tensors[name]
	if !ok {
		return nil, fmt.Errorf("missing tensor %q", name)
	}
	if !shapeEqual(t.Shape, shape) {
		return nil, fmt.Errorf("tensor %q has shape %v, want %v", name, t.Shape, shape)
	}
	want := 1
	for _, s := range shape {
		want *= s
	}
	if len(t.Data) != want {
		return nil, fmt.Errorf("tensor %q has %d values, want %d", name, len(t.Data), want)
	}
	return t.Data, nil
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
