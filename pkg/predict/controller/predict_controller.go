package controller

import "github.com/labstack/echo/v4"

type PredictController interface {
	Predict(c echo.Context) error
	PredictStored(c echo.Context) error
	Schema(c echo.Context) error
	ReloadSchema(c echo.Context) error
}
