package controllerImp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"farmsight/pkg/crop/repository"
	"farmsight/pkg/features"
	"farmsight/pkg/model"
	"farmsight/pkg/predict/service"
)

type PredictCtrl struct{ s service.PredictService }

func New(s service.PredictService) *PredictCtrl { return &PredictCtrl{s} }

type storedReq struct {
	CropID  string `json:"crop_id"`
	Persist bool   `json:"persist"`
}

// Predict handles POST /predict with a raw crop record body.
func (h *PredictCtrl) Predict(c echo.Context) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	var rec features.RawRecord
	if err := dec.Decode(&rec); err != nil || rec == nil {
		return fail(c, http.StatusBadRequest, "body must be a JSON object")
	}
	res, err := h.s.PredictInput(c.Request().Context(), rec)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":          "success",
		"predicted_yield": res.PredictedYield,
		"predictor":       res.Predictor,
		"schema_version":  res.SchemaVersion,
		"unknown_crops":   res.UnknownCrops,
	})
}

// PredictStored handles POST /api/model/predict.
func (h *PredictCtrl) PredictStored(c echo.Context) error {
	var req storedReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "bad json")
	}
	if strings.TrimSpace(req.CropID) == "" {
		return fail(c, http.StatusBadRequest, "crop_id is required")
	}
	res, rec, err := h.s.PredictStored(c.Request().Context(), req.CropID, req.Persist)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":          "success",
		"crop_id":         req.CropID,
		"predicted_yield": res.PredictedYield,
		"predictor":       res.Predictor,
		"schema_version":  res.SchemaVersion,
		"unknown_crops":   res.UnknownCrops,
		"persisted":       req.Persist,
		"data":            rec,
	})
}

func (h *PredictCtrl) Schema(c echo.Context) error {
	info, err := h.s.Schema()
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": info})
}

func (h *PredictCtrl) ReloadSchema(c echo.Context) error {
	info, err := h.s.ReloadSchema()
	if err != nil {
		log.Warn().Err(err).Msg("schema reload refused")
		return fail(c, http.StatusUnprocessableEntity, err.Error())
	}
	log.Info().Str("version", info.Version).Int("columns", info.ColumnCount).Msg("schema reloaded")
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": info})
}

func fail(c echo.Context, status int, detail string) error {
	return c.JSON(status, echo.Map{"status": "error", "detail": detail})
}

func failErr(c echo.Context, err error) error {
	var mErr *features.MalformedInputError
	switch {
	case errors.As(err, &mErr):
		return fail(c, http.StatusBadRequest, mErr.Error())
	case errors.Is(err, repository.ErrInvalidID):
		return fail(c, http.StatusBadRequest, "invalid crop_id")
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, "crop record not found")
	case errors.Is(err, model.ErrUpstream):
		log.Error().Err(err).Msg("inference server failed")
		return fail(c, http.StatusBadGateway, "inference server error")
	case errors.Is(err, features.ErrSchemaLoad), errors.Is(err, service.ErrNotReady):
		log.Error().Err(err).Msg("prediction unavailable")
		return fail(c, http.StatusServiceUnavailable, "model not ready")
	}
	var tErr *features.TransformationError
	if errors.As(err, &tErr) {
		log.Error().Err(err).
			Str("input_shape", tErr.InputShape).
			Int("expected", tErr.Expected).
			Int("produced", tErr.Produced).
			Msg("feature transformation failed")
	} else {
		log.Error().Err(err).Str("path", c.Path()).Msg("prediction failed")
	}
	return fail(c, http.StatusInternalServerError, "prediction failed")
}
