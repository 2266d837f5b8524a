package serviceImp

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"farmsight/entities"
	cropService "farmsight/pkg/crop/service"
	"farmsight/pkg/features"
	"farmsight/pkg/metrics"
	"farmsight/pkg/model"
	"farmsight/pkg/predict/service"
)

type predictSvc struct {
	schemas *features.SchemaStore
	tr      *features.Transformer
	model   model.Predictor
	crops   cropService.CropService
	m       *metrics.PredictionMetrics
	timeout time.Duration
}

// NewPredictService wires the schema store, transformer and predictor
// together. crops may be nil when stored-record prediction is not needed.
func NewPredictService(
	schemas *features.SchemaStore,
	tr *features.Transformer,
	p model.Predictor,
	crops cropService.CropService,
	m *metrics.PredictionMetrics,
	timeout time.Duration,
) service.PredictService {
	own := &features.Transformer{Policy: features.UnknownZeroFill}
	if tr != nil {
		*own = *tr
	}
	policy := own.Policy.String()
	hook := own.OnUnknown
	own.OnUnknown = func(crop string) {
		m.RecordUnknownCrop(policy)
		if hook != nil {
			hook(crop)
		}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &predictSvc{schemas: schemas, tr: own, model: p, crops: crops, m: m, timeout: timeout}
}

func (s *predictSvc) PredictInput(ctx context.Context, rec features.RawRecord) (*service.Result, error) {
	res, err := s.predict(ctx, rec)
	s.record(metrics.SourceInput, err)
	return res, err
}

func (s *predictSvc) PredictStored(ctx context.Context, id string, persist bool) (*service.Result, *entities.CropRecord, error) {
	res, c, err := s.predictStored(ctx, id, persist)
	s.record(metrics.SourceStored, err)
	return res, c, err
}

func (s *predictSvc) predictStored(ctx context.Context, id string, persist bool) (*service.Result, *entities.CropRecord, error) {
	if s.crops == nil {
		return nil, nil, fmt.Errorf("%w: no crop store", service.ErrNotReady)
	}
	c, err := s.crops.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.predict(ctx, RecordOf(c))
	if err != nil {
		return nil, nil, err
	}
	if persist {
		if c, err = s.crops.SetPredictedYield(ctx, id, res.PredictedYield); err != nil {
			return nil, nil, fmt.Errorf("store predicted yield: %w", err)
		}
	}
	return res, c, nil
}

func (s *predictSvc) predict(ctx context.Context, rec features.RawRecord) (*service.Result, error) {
	sch, err := s.schemas.Get()
	if err != nil {
		return nil, err
	}
	row, err := s.tr.Transform(rec, sch)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	y, err := s.model.Predict(ctx, row)
	s.m.RecordPredictionDuration(s.model.Name(), time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%s predictor: %w", s.model.Name(), err)
	}

	log.Debug().
		Str("predictor", s.model.Name()).
		Str("schema_version", sch.Version).
		Float64("predicted_yield", y).
		Msg("prediction made")
	return &service.Result{
		PredictedYield: y,
		Predictor:      s.model.Name(),
		SchemaVersion:  sch.Version,
		UnknownCrops:   row.Unknown,
	}, nil
}

func (s *predictSvc) record(source string, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	s.m.RecordPrediction(source, status)
}

func (s *predictSvc) Schema() (*service.SchemaInfo, error) {
	sch, err := s.schemas.Get()
	if err != nil {
		return nil, err
	}
	return service.InfoOf(s.schemas.Path(), sch), nil
}

func (s *predictSvc) ReloadSchema() (*service.SchemaInfo, error) {
	sch, err := s.schemas.Reload()
	if err != nil {
		return nil, err
	}
	return service.InfoOf(s.schemas.Path(), sch), nil
}

func (s *predictSvc) Ready() error {
	if s.model == nil {
		return fmt.Errorf("%w: no predictor", service.ErrNotReady)
	}
	if _, err := s.schemas.Get(); err != nil {
		return fmt.Errorf("%w: %v", service.ErrNotReady, err)
	}
	return nil
}

// RecordOf renders a stored crop record in the 7-field wire layout.
func RecordOf(c *entities.CropRecord) features.RawRecord {
	return features.RawRecord{
		features.KeyCrop:           c.CropName,
		features.KeyCropYear:       c.CropYear,
		features.KeySeason:         c.Season,
		features.KeyArea:           c.Area,
		features.KeyAnnualRainfall: c.AnnualRainfall,
		features.KeyFertilizer:     c.Fertilizer,
		features.KeyPesticide:      c.Pesticide,
	}
}
