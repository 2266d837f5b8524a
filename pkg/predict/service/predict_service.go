package service

import (
	"context"
	"errors"

	"farmsight/entities"
	"farmsight/pkg/features"
)

// ErrNotReady is returned when no expected column schema is loaded.
var ErrNotReady = errors.New("prediction service not ready")

type PredictService interface {
	// PredictInput predicts from a client supplied record in either the
	// 7-field or the 10-field layout.
	PredictInput(ctx context.Context, rec features.RawRecord) (*Result, error)
	// PredictStored predicts from a stored crop record and, when persist is
	// set, writes the result back to it.
	PredictStored(ctx context.Context, id string, persist bool) (*Result, *entities.CropRecord, error)
	Schema() (*SchemaInfo, error)
	// ReloadSchema rereads the reference dataset. The current schema is kept
	// when the new one does not load or does not match the model.
	ReloadSchema() (*SchemaInfo, error)
	// Ready reports whether a schema is loaded and the predictor is set.
	Ready() error
}

type Result struct {
	PredictedYield float64  `json:"predicted_yield"`
	Predictor      string   `json:"predictor"`
	SchemaVersion  string   `json:"schema_version"`
	UnknownCrops   []string `json:"unknown_crops,omitempty"`
}

type SchemaInfo struct {
	Path        string   `json:"path"`
	Version     string   `json:"version"`
	ColumnCount int      `json:"column_count"`
	Columns     []string `json:"columns"`
	Crops       []string `json:"crops"`
}

// InfoOf describes s for API responses.
func InfoOf(path string, s *features.Schema) *SchemaInfo {
	crops := s.Categories(features.CropPrefix)
	if crops == nil {
		crops = []string{}
	}
	return &SchemaInfo{
		Path:        path,
		Version:     s.Version,
		ColumnCount: s.Len(),
		Columns:     s.Columns,
		Crops:       crops,
	}
}
