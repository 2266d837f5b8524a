package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"farmsight/pkg/features"
)

// LinearArtifact is the on-disk form of a fitted linear regression.
type LinearArtifact struct {
	Version      string    `json:"version"`
	Intercept    float64   `json:"intercept"`
	Columns      []string  `json:"columns"`
	Coefficients []float64 `json:"coefficients"`
}

// LinearModel predicts intercept + w·x. It is read-only after load and safe
// for concurrent use.
type LinearModel struct {
	version string
	cols    []string
	w       []float64
	b       float64
}

// LoadLinear reads and validates a JSON artifact.
func LoadLinear(path string) (*LinearModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model artifact: %w", err)
	}
	defer f.Close()

	var a LinearArtifact
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("decode model artifact %s: %w", path, err)
	}
	m, err := NewLinear(a)
	if err != nil {
		return nil, fmt.Errorf("model artifact %s: %w", path, err)
	}
	return m, nil
}

func NewLinear(a LinearArtifact) (*LinearModel, error) {
	if len(a.Columns) == 0 {
		return nil, errors.New("no columns")
	}
	if len(a.Columns) != len(a.Coefficients) {
		return nil, fmt.Errorf("%d columns but %d coefficients", len(a.Columns), len(a.Coefficients))
	}
	for i, w := range a.Coefficients {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("coefficient %d (%s) is not finite", i, a.Columns[i])
		}
	}
	m := &LinearModel{
		version: a.Version,
		cols:    append([]string(nil), a.Columns...),
		w:       append([]float64(nil), a.Coefficients...),
		b:       a.Intercept,
	}
	return m, nil
}

func (m *LinearModel) Name() string      { return "linear" }
func (m *LinearModel) Version() string   { return m.version }
func (m *LinearModel) Columns() []string { return m.cols }

func (m *LinearModel) Predict(ctx context.Context, row features.FeatureRow) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(row.Values) != len(m.w) {
		return 0, fmt.Errorf("%w: row has %d values, model has %d coefficients", ErrColumnMismatch, len(row.Values), len(m.w))
	}
	sum := m.b
	for j, v := range row.Values {
		sum += m.w[j] * v
	}
	return sum, nil
}
