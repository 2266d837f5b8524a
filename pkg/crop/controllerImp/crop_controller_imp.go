package controllerImp

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"farmsight/pkg/crop/repository"
	"farmsight/pkg/crop/service"
)

type CropCtrl struct{ s service.CropService }

func New(s service.CropService) *CropCtrl { return &CropCtrl{s} }

func (h *CropCtrl) Create(c echo.Context) error {
	var req service.CropInput
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "bad json")
	}
	rec, err := h.s.Create(c.Request().Context(), req)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"status": "success", "data": rec})
}

func (h *CropCtrl) Get(c echo.Context) error {
	rec, err := h.s.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": rec})
}

func (h *CropCtrl) List(c echo.Context) error {
	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		return fail(c, http.StatusBadRequest, "skip must be an integer")
	}
	limit, err := queryInt(c, "limit", 100)
	if err != nil {
		return fail(c, http.StatusBadRequest, "limit must be an integer")
	}
	if skip < 0 || limit < 1 || limit > 1000 {
		return fail(c, http.StatusBadRequest, "skip must be >= 0 and limit between 1 and 1000")
	}
	list, err := h.s.List(c.Request().Context(), repository.ListFilter{Skip: skip, Limit: limit, Tag: c.QueryParam("tag")})
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "count": len(list), "data": list})
}

func (h *CropCtrl) Update(c echo.Context) error {
	var p service.CropPatch
	if err := c.Bind(&p); err != nil {
		return fail(c, http.StatusBadRequest, "bad json")
	}
	rec, err := h.s.Update(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": rec})
}

func (h *CropCtrl) Delete(c echo.Context) error {
	if err := h.s.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "message": "crop record deleted"})
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func fail(c echo.Context, status int, detail string) error {
	return c.JSON(status, echo.Map{"status": "error", "detail": detail})
}

func failErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrInvalidID):
		return fail(c, http.StatusBadRequest, "invalid id")
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, "crop record not found")
	case errors.Is(err, service.ErrDuplicateName), errors.Is(err, service.ErrInvalid):
		return fail(c, http.StatusBadRequest, err.Error())
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("crop request failed")
	return fail(c, http.StatusInternalServerError, "internal error")
}
