package serviceImp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"farmsight/entities"
	"farmsight/pkg/crop/repository"
	cropService "farmsight/pkg/crop/service"
	"farmsight/pkg/features"
	"farmsight/pkg/metrics"
	"farmsight/pkg/model"
	"farmsight/pkg/predict/service"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

var cols = []string{"Crop_Year", "Annual_Rainfall", "Fertilizer", "Pesticide", "Crop_Rice", "Crop_Wheat"}

const header = "Crop_Year,Annual_Rainfall,Fertilizer,Pesticide,Crop_Rice,Crop_Wheat\n"

type MockCropService struct {
	mock.Mock
}

func (m *MockCropService) Create(ctx context.Context, in cropService.CropInput) (*entities.CropRecord, error) {
	args := m.Called(ctx, in)
	return rec(args.Get(0)), args.Error(1)
}

func (m *MockCropService) Get(ctx context.Context, id string) (*entities.CropRecord, error) {
	args := m.Called(ctx, id)
	return rec(args.Get(0)), args.Error(1)
}

func (m *MockCropService) List(ctx context.Context, f repository.ListFilter) ([]entities.CropRecord, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]entities.CropRecord), args.Error(1)
}

func (m *MockCropService) Update(ctx context.Context, id string, p cropService.CropPatch) (*entities.CropRecord, error) {
	args := m.Called(ctx, id, p)
	return rec(args.Get(0)), args.Error(1)
}

func (m *MockCropService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCropService) SetPredictedYield(ctx context.Context, id string, y float64) (*entities.CropRecord, error) {
	args := m.Called(ctx, id, y)
	return rec(args.Get(0)), args.Error(1)
}

func rec(v any) *entities.CropRecord {
	if v == nil {
		return nil
	}
	return v.(*entities.CropRecord)
}

type failingPredictor struct{ err error }

func (f failingPredictor) Name() string { return "failing" }
func (f failingPredictor) Predict(context.Context, features.FeatureRow) (float64, error) {
	return 0, f.err
}

// slowPredictor blocks until the context is done.
type slowPredictor struct{}

func (slowPredictor) Name() string { return "slow" }
func (slowPredictor) Predict(ctx context.Context, _ features.FeatureRow) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "dataset.csv")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func linear(t *testing.T) *model.LinearModel {
	t.Helper()
	m, err := model.NewLinear(model.LinearArtifact{
		Version:      "test",
		Intercept:    0.5,
		Columns:      cols,
		Coefficients: []float64{0, 0.001, 0.01, 0.1, 1, 2},
	})
	require.NoError(t, err)
	return m
}

func riceRecord() features.RawRecord {
	return features.RawRecord{
		"Crop": "Rice", "Crop_Year": 2021, "Season": "Kharif", "Area": 2.0,
		"Annual_Rainfall": 1200.0, "Fertilizer": 50.0, "Pesticide": 5.0,
	}
}

type fixture struct {
	svc   service.PredictService
	crops *MockCropService
	m     *metrics.PredictionMetrics
	reg   *prometheus.Registry
	store *features.SchemaStore
}

func newFixture(t *testing.T, p model.Predictor, policy features.UnknownPolicy) fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := metrics.NewPredictionMetrics(reg)
	require.NoError(t, err)
	store := features.NewSchemaStore(writeDataset(t, header+"2019,1000,10,1,1,0\n"),
		func(s *features.Schema) error { return model.CheckSchema(p, s) })
	crops := new(MockCropService)
	svc := NewPredictService(store, &features.Transformer{Policy: policy}, p, crops, m, time.Second)
	return fixture{svc: svc, crops: crops, m: m, reg: reg, store: store}
}

func TestPredictService_PredictInput(t *testing.T) {
	f := newFixture(t, linear(t), features.UnknownZeroFill)

	res, err := f.svc.PredictInput(context.Background(), riceRecord())
	require.NoError(t, err)
	// 0.5 + 1.2 + 0.5 + 0.5 + 1
	assert.InDelta(t, 3.7, res.PredictedYield, 1e-9)
	assert.Equal(t, "linear", res.Predictor)
	assert.NotEmpty(t, res.SchemaVersion)
	assert.Empty(t, res.UnknownCrops)
}

func TestPredictService_UnknownCropZeroFill(t *testing.T) {
	f := newFixture(t, linear(t), features.UnknownZeroFill)
	r := riceRecord()
	r["Crop"] = "Banana"

	res, err := f.svc.PredictInput(context.Background(), r)
	require.NoError(t, err)
	assert.InDelta(t, 2.7, res.PredictedYield, 1e-9)
	assert.Equal(t, []string{"Banana"}, res.UnknownCrops)
}

func TestPredictService_UnknownCropReject(t *testing.T) {
	f := newFixture(t, linear(t), features.UnknownReject)
	r := riceRecord()
	r["Crop"] = "Banana"

	_, err := f.svc.PredictInput(context.Background(), r)
	assert.ErrorIs(t, err, features.ErrUnknownCategory)
	assert.ErrorIs(t, err, features.ErrMalformedInput)
}

// unknownCrops reads farmsight_unknown_crops_total for one policy label.
func unknownCrops(t *testing.T, reg *prometheus.Registry, policy string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "farmsight_unknown_crops_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "policy" && l.GetValue() == policy {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestPredictService_UnknownCropCountedUnderBothPolicies(t *testing.T) {
	r := riceRecord()
	r["Crop"] = "Banana"

	zero := newFixture(t, linear(t), features.UnknownZeroFill)
	_, err := zero.svc.PredictInput(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, 1.0, unknownCrops(t, zero.reg, "zero"))

	reject := newFixture(t, linear(t), features.UnknownReject)
	_, err = reject.svc.PredictInput(context.Background(), r)
	require.Error(t, err)
	assert.Equal(t, 1.0, unknownCrops(t, reject.reg, "reject"))
	assert.Equal(t, 0.0, unknownCrops(t, reject.reg, "zero"))
}

func TestPredictService_LeavesCallerTransformerAlone(t *testing.T) {
	f := newFixture(t, linear(t), features.UnknownZeroFill)

	var seen []string
	tr := &features.Transformer{Policy: features.UnknownZeroFill, OnUnknown: func(crop string) { seen = append(seen, crop) }}
	plain := &features.Transformer{Policy: features.UnknownReject}
	svc := NewPredictService(f.store, tr, linear(t), nil, f.m, time.Second)
	_ = NewPredictService(f.store, plain, linear(t), nil, f.m, time.Second)
	assert.Nil(t, plain.OnUnknown)

	r := riceRecord()
	r["Crop"] = "Banana"
	_, err := svc.PredictInput(context.Background(), r)
	require.NoError(t, err)
	// the caller's hook still runs alongside the metric
	assert.Equal(t, []string{"Banana"}, seen)
	assert.Equal(t, 1.0, unknownCrops(t, f.reg, "zero"))
}

func TestPredictService_MalformedInput(t *testing.T) {
	f := newFixture(t, linear(t), features.UnknownZeroFill)
	_, err := f.svc.PredictInput(context.Background(), features.RawRecord{"Crop": "Rice"})
	var mErr *features.MalformedInputError
	assert.ErrorAs(t, err, &mErr)
}

func TestPredictService_PredictorErrors(t *testing.T) {
	upstream := failingPredictor{err: model.ErrUpstream}
	f := newFixture(t, upstream, features.UnknownZeroFill)
	_, err := f.svc.PredictInput(context.Background(), riceRecord())
	assert.ErrorIs(t, err, model.ErrUpstream)

	f = newFixture(t, slowPredictor{}, features.UnknownZeroFill)
	svc := NewPredictService(f.store, nil, slowPredictor{}, nil, nil, 10*time.Millisecond)
	_, err = svc.PredictInput(context.Background(), riceRecord())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPredictService_PredictStoredPersists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, linear(t), features.UnknownZeroFill)
	stored := &entities.CropRecord{ID: "id-1", CropName: "Rice", CropYear: 2021, Season: "Kharif",
		Area: 2, AnnualRainfall: 1200, Fertilizer: 50, Pesticide: 5}
	y := 3.7
	updated := *stored
	updated.PredictedYield = &y

	f.crops.On("Get", ctx, "id-1").Return(stored, nil)
	f.crops.On("SetPredictedYield", ctx, "id-1", mock.MatchedBy(func(v float64) bool {
		return v > 3.69 && v < 3.71
	})).Return(&updated, nil)

	res, c, err := f.svc.PredictStored(ctx, "id-1", true)
	require.NoError(t, err)
	assert.InDelta(t, 3.7, res.PredictedYield, 1e-9)
	require.NotNil(t, c.PredictedYield)
	f.crops.AssertExpectations(t)
}

func TestPredictService_PredictStoredWithoutPersist(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, linear(t), features.UnknownZeroFill)
	stored := &entities.CropRecord{ID: "id-1", CropName: "Wheat", CropYear: 2020, Area: 1, Fertilizer: 0}
	f.crops.On("Get", ctx, "id-1").Return(stored, nil)

	res, c, err := f.svc.PredictStored(ctx, "id-1", false)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, res.PredictedYield, 1e-9)
	assert.Same(t, stored, c)
	f.crops.AssertNotCalled(t, "SetPredictedYield", mock.Anything, mock.Anything, mock.Anything)
}

func TestPredictService_PredictStoredNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, linear(t), features.UnknownZeroFill)
	f.crops.On("Get", ctx, "gone").Return(nil, repository.ErrNotFound)

	_, _, err := f.svc.PredictStored(ctx, "gone", true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPredictService_SchemaAndReload(t *testing.T) {
	f := newFixture(t, linear(t), features.UnknownZeroFill)

	info, err := f.svc.Schema()
	require.NoError(t, err)
	assert.Equal(t, 6, info.ColumnCount)
	assert.Equal(t, []string{"Rice", "Wheat"}, info.Crops)

	// a dataset the model was not fit on is refused and the old schema stays
	require.NoError(t, os.WriteFile(f.store.Path(), []byte("Crop_Year,Fertilizer,Crop_Rice\n"), 0o644))
	_, err = f.svc.ReloadSchema()
	assert.ErrorIs(t, err, model.ErrColumnMismatch)
	assert.ErrorIs(t, err, features.ErrSchemaLoad)

	again, err := f.svc.Schema()
	require.NoError(t, err)
	assert.Equal(t, info.Version, again.Version)

	require.NoError(t, os.WriteFile(f.store.Path(), []byte(header), 0o644))
	reloaded, err := f.svc.ReloadSchema()
	require.NoError(t, err)
	assert.Equal(t, info.Version, reloaded.Version)
}

func TestPredictService_Ready(t *testing.T) {
	f := newFixture(t, linear(t), features.UnknownZeroFill)
	assert.NoError(t, f.svc.Ready())

	missing := features.NewSchemaStore(filepath.Join(t.TempDir(), "nope.csv"))
	svc := NewPredictService(missing, nil, linear(t), nil, nil, 0)
	assert.ErrorIs(t, svc.Ready(), service.ErrNotReady)

	svc = NewPredictService(f.store, nil, nil, nil, nil, 0)
	assert.ErrorIs(t, svc.Ready(), service.ErrNotReady)
}

func TestRecordOf(t *testing.T) {
	r := RecordOf(&entities.CropRecord{CropName: "Rice", CropYear: 2021, Season: "Rabi", SoilType: "Clay",
		Area: 1, AnnualRainfall: 2, Fertilizer: 3, Pesticide: 4})
	in, err := features.ParseRecord(r)
	require.NoError(t, err)
	assert.Equal(t, features.ShapeSimplified, in.Shape)
	assert.Equal(t, 3.0, in.Fertilizer)
	assert.Len(t, r, 7)
}

func TestPredictService_NoCropStore(t *testing.T) {
	f := newFixture(t, linear(t), features.UnknownZeroFill)
	svc := NewPredictService(f.store, nil, linear(t), nil, nil, 0)
	_, _, err := svc.PredictStored(context.Background(), "x", false)
	assert.True(t, errors.Is(err, service.ErrNotReady))
}
