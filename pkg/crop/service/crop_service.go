package service

import (
	"context"
	"errors"

	"farmsight/entities"
	"farmsight/pkg/crop/repository"
)

var (
	ErrDuplicateName = errors.New("crop with this name already exists")
	ErrInvalid       = errors.New("invalid crop record")
)

type CropService interface {
	Create(ctx context.Context, in CropInput) (*entities.CropRecord, error)
	Get(ctx context.Context, id string) (*entities.CropRecord, error)
	List(ctx context.Context, f repository.ListFilter) ([]entities.CropRecord, error)
	Update(ctx context.Context, id string, p CropPatch) (*entities.CropRecord, error)
	Delete(ctx context.Context, id string) error
	SetPredictedYield(ctx context.Context, id string, y float64) (*entities.CropRecord, error)
}

// CropInput is a create request. Fertilizer may be given as one total or as
// N/P/K components, which are summed.
type CropInput struct {
	CropName       string   `json:"crop_name"`
	CropYear       int      `json:"crop_year"`
	Season         string   `json:"season"`
	SoilType       string   `json:"soil_type"`
	Area           float64  `json:"area"`
	AnnualRainfall float64  `json:"annual_rainfall"`
	Fertilizer     *float64 `json:"fertilizer"`
	FertilizerN    *float64 `json:"fertilizer_n"`
	FertilizerP    *float64 `json:"fertilizer_p"`
	FertilizerK    *float64 `json:"fertilizer_k"`
	Pesticide      float64  `json:"pesticide"`
	Tags           []string `json:"tags"`
}

// CropPatch is a partial update; nil fields are left alone.
type CropPatch struct {
	CropName       *string   `json:"crop_name"`
	CropYear       *int      `json:"crop_year"`
	Season         *string   `json:"season"`
	SoilType       *string   `json:"soil_type"`
	Area           *float64  `json:"area"`
	AnnualRainfall *float64  `json:"annual_rainfall"`
	Fertilizer     *float64  `json:"fertilizer"`
	FertilizerN    *float64  `json:"fertilizer_n"`
	FertilizerP    *float64  `json:"fertilizer_p"`
	FertilizerK    *float64  `json:"fertilizer_k"`
	Pesticide      *float64  `json:"pesticide"`
	PredictedYield *float64  `json:"predicted_yield"`
	Tags           *[]string `json:"tags"`
}
