// Package model holds the trained yield model. It is only ever used for
// inference: a Predictor takes a feature row that already matches the
// model's columns and returns one scalar.
package model

import (
	"context"
	"errors"
	"fmt"

	"farmsight/pkg/features"
)

var ErrColumnMismatch = errors.New("model columns do not match the expected column schema")

type Predictor interface {
	Predict(ctx context.Context, row features.FeatureRow) (float64, error)
	// Name identifies the predictor in logs and metrics.
	Name() string
}

// Describer is implemented by predictors that know which columns they were
// fit on, so startup can cross-check them against the reference schema.
type Describer interface {
	Columns() []string
	Version() string
}

// CheckSchema fails when p knows its columns and they differ from s.
func CheckSchema(p Predictor, s *features.Schema) error {
	d, ok := p.(Describer)
	if !ok {
		return nil
	}
	if !s.Equal(d.Columns()) {
		return &MismatchError{ModelColumns: d.Columns(), SchemaColumns: s.Columns}
	}
	return nil
}

type MismatchError struct {
	ModelColumns  []string
	SchemaColumns []string
}

func (e *MismatchError) Error() string {
	for i := 0; i < len(e.ModelColumns) && i < len(e.SchemaColumns); i++ {
		if e.ModelColumns[i] != e.SchemaColumns[i] {
			return fmt.Sprintf("%v: position %d is %q in the model, %q in the schema",
				ErrColumnMismatch, i, e.ModelColumns[i], e.SchemaColumns[i])
		}
	}
	return fmt.Sprintf("%v: model has %d columns, schema has %d",
		ErrColumnMismatch, len(e.ModelColumns), len(e.SchemaColumns))
}

func (e *MismatchError) Unwrap() error { return ErrColumnMismatch }
