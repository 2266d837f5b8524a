package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"farmsight/config"
	"farmsight/database"
	"farmsight/pkg/features"
	"farmsight/pkg/logger"
	"farmsight/pkg/metrics"
	"farmsight/pkg/model"
	"farmsight/router"

	// Crop
	cropCtrlImp "farmsight/pkg/crop/controllerImp"
	"farmsight/pkg/crop/repository"
	cropRepoImp "farmsight/pkg/crop/repositoryImp"
	cropSvcImp "farmsight/pkg/crop/serviceImp"

	// Predict
	predictCtrlImp "farmsight/pkg/predict/controllerImp"
	predictSvcImp "farmsight/pkg/predict/serviceImp"

	// Health
	healthCtrlImp "farmsight/pkg/health/controllerImp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1) Config + logger
	cfg := config.Load()
	if err := logger.Init(cfg.LogLevel, cfg.LogPretty); err != nil {
		log.Fatal().Err(err).Msg("logger")
	}
	cfg.Log()

	// 2) Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pm, err := metrics.NewPredictionMetrics(reg)
	if err != nil {
		log.Fatal().Err(err).Msg("register metrics")
	}

	// 3) Store
	var cropRepo repository.CropRepository
	switch cfg.StoreDriver {
	case "mongo":
		client, coll, err := database.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			log.Fatal().Err(err).Msg("open mongo")
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		cropRepo = cropRepoImp.NewMongo(coll)
	case "sqlite":
		cropRepo = cropRepoImp.New(database.OpenSQLite(cfg.DBPath))
	default:
		log.Fatal().Str("driver", cfg.StoreDriver).Msg("STORE_DRIVER must be sqlite or mongo")
	}

	// 4) Model: remote inference server if configured, local artifact otherwise
	var predictor model.Predictor
	if cfg.ModelEndpoint != "" {
		predictor = model.NewRemote(cfg.ModelEndpoint, cfg.PredictTimeout)
	} else {
		lm, err := model.LoadLinear(cfg.ModelPath)
		if err != nil {
			log.Fatal().Err(err).Msg("load model")
		}
		log.Info().Str("path", cfg.ModelPath).Str("version", lm.Version()).Int("columns", len(lm.Columns())).Msg("model loaded")
		predictor = lm
	}

	// 5) Expected columns: loaded once, cross-checked against the model
	schemas := features.NewSchemaStore(cfg.DatasetPath,
		func(s *features.Schema) error { return s.Validate(features.NumericColumns...) },
		func(s *features.Schema) error { return model.CheckSchema(predictor, s) },
	)
	schemas.OnLoad(pm.RecordSchemaLoad)
	if _, err := schemas.Get(); err != nil {
		log.Fatal().Err(err).Msg("load expected columns")
	}

	// 6) Services + controllers
	cropSvc := cropSvcImp.NewCropService(cropRepo)
	tr := &features.Transformer{Policy: features.ParseUnknownPolicy(cfg.UnknownCropPolicy)}
	predictSvc := predictSvcImp.NewPredictService(schemas, tr, predictor, cropSvc, pm, cfg.PredictTimeout)

	cropCtrl := cropCtrlImp.New(cropSvc)
	predictCtrl := predictCtrlImp.New(predictSvc)
	hCtrl := healthCtrlImp.NewHealthCtrl(cropRepo, predictSvc)

	// 7) Router
	e := echo.New()
	e.HideBanner = true
	r := router.New(e, cfg.CORSAllowOrigins, cropCtrl, predictCtrl, hCtrl, reg)

	// 8) Start
	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := r.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("stopped")
}
