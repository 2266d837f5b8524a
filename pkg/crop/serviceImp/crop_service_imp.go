package serviceImp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"farmsight/entities"
	"farmsight/pkg/crop/repository"
	"farmsight/pkg/crop/service"
	"farmsight/pkg/features"
)

type cropSvc struct {
	r   repository.CropRepository
	now func() time.Time
}

func NewCropService(r repository.CropRepository) service.CropService {
	return &cropSvc{r: r, now: func() time.Time { return time.Now().UTC() }}
}

func (s *cropSvc) Create(ctx context.Context, in service.CropInput) (*entities.CropRecord, error) {
	fert, err := fertilizerTotal(in.Fertilizer, in.FertilizerN, in.FertilizerP, in.FertilizerK)
	if err != nil {
		return nil, err
	}
	c := &entities.CropRecord{
		CropName:       strings.TrimSpace(in.CropName),
		CropYear:       in.CropYear,
		Season:         strings.TrimSpace(in.Season),
		SoilType:       strings.TrimSpace(in.SoilType),
		Area:           in.Area,
		AnnualRainfall: in.AnnualRainfall,
		Fertilizer:     fert,
		Pesticide:      in.Pesticide,
		Tags:           in.Tags,
		CreatedAt:      s.now(),
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if err := validate(c); err != nil {
		return nil, err
	}

	if err := s.nameFree(ctx, c.CropName, ""); err != nil {
		return nil, err
	}

	if err := s.r.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create crop record: %w", err)
	}
	log.Info().Str("id", c.ID).Str("crop", c.CropName).Msg("crop record created")
	return c, nil
}

func (s *cropSvc) Get(ctx context.Context, id string) (*entities.CropRecord, error) {
	return s.r.FindByID(ctx, id)
}

func (s *cropSvc) List(ctx context.Context, f repository.ListFilter) ([]entities.CropRecord, error) {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = 100
	}
	return s.r.List(ctx, f)
}

func (s *cropSvc) Update(ctx context.Context, id string, p service.CropPatch) (*entities.CropRecord, error) {
	cur, err := s.r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// apply only the fields that were sent
	if p.CropName != nil {
		cur.CropName = strings.TrimSpace(*p.CropName)
	}
	if p.CropYear != nil {
		cur.CropYear = *p.CropYear
	}
	if p.Season != nil {
		cur.Season = strings.TrimSpace(*p.Season)
	}
	if p.SoilType != nil {
		cur.SoilType = strings.TrimSpace(*p.SoilType)
	}
	if p.Area != nil {
		cur.Area = *p.Area
	}
	if p.AnnualRainfall != nil {
		cur.AnnualRainfall = *p.AnnualRainfall
	}
	if p.Fertilizer != nil || p.FertilizerN != nil || p.FertilizerP != nil || p.FertilizerK != nil {
		fert, err := fertilizerTotal(p.Fertilizer, p.FertilizerN, p.FertilizerP, p.FertilizerK)
		if err != nil {
			return nil, err
		}
		cur.Fertilizer = fert
	}
	if p.Pesticide != nil {
		cur.Pesticide = *p.Pesticide
	}
	if p.PredictedYield != nil {
		cur.PredictedYield = p.PredictedYield
	}
	if p.Tags != nil {
		cur.Tags = *p.Tags
		if cur.Tags == nil {
			cur.Tags = []string{}
		}
	}
	if err := validate(cur); err != nil {
		return nil, err
	}
	if p.CropName != nil {
		if err := s.nameFree(ctx, cur.CropName, cur.ID); err != nil {
			return nil, err
		}
	}
	now := s.now()
	cur.UpdatedAt = &now
	if err := s.r.Update(ctx, cur); err != nil {
		return nil, fmt.Errorf("update crop record: %w", err)
	}
	return cur, nil
}

func (s *cropSvc) Delete(ctx context.Context, id string) error {
	if err := s.r.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Str("id", id).Msg("crop record deleted")
	return nil
}

func (s *cropSvc) SetPredictedYield(ctx context.Context, id string, y float64) (*entities.CropRecord, error) {
	return s.Update(ctx, id, service.CropPatch{PredictedYield: &y})
}

// nameFree fails with ErrDuplicateName when another record, other than
// selfID, already uses name.
func (s *cropSvc) nameFree(ctx context.Context, name, selfID string) error {
	other, err := s.r.FindByName(ctx, name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID == selfID:
		return nil
	}
	return fmt.Errorf("%w: %q", service.ErrDuplicateName, name)
}

// fertilizerTotal takes either a total or all three N/P/K parts.
func fertilizerTotal(total, n, p, k *float64) (float64, error) {
	parts := 0
	for _, v := range []*float64{n, p, k} {
		if v != nil {
			if *v < 0 {
				return 0, fmt.Errorf("%w: fertilizer components must not be negative", service.ErrInvalid)
			}
			parts++
		}
	}
	switch {
	case total != nil && parts == 0:
		return *total, nil
	case total == nil && parts == 3:
		return features.SumFertilizer(*n, *p, *k), nil
	case total != nil:
		return 0, fmt.Errorf("%w: give fertilizer or fertilizer_n/p/k, not both", service.ErrInvalid)
	case parts > 0:
		return 0, fmt.Errorf("%w: fertilizer_n, fertilizer_p and fertilizer_k must be given together", service.ErrInvalid)
	default:
		return 0, fmt.Errorf("%w: fertilizer is required", service.ErrInvalid)
	}
}

func validate(c *entities.CropRecord) error {
	switch {
	case c.CropName == "":
		return fmt.Errorf("%w: crop_name is required", service.ErrInvalid)
	case c.Area <= 0:
		return fmt.Errorf("%w: area must be greater than 0", service.ErrInvalid)
	case c.AnnualRainfall < 0:
		return fmt.Errorf("%w: annual_rainfall must not be negative", service.ErrInvalid)
	case c.Fertilizer < 0:
		return fmt.Errorf("%w: fertilizer must not be negative", service.ErrInvalid)
	case c.Pesticide < 0:
		return fmt.Errorf("%w: pesticide must not be negative", service.ErrInvalid)
	}
	return nil
}
