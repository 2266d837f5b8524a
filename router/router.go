package router

import (
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cropController "farmsight/pkg/crop/controller"
	"farmsight/pkg/middleware"
	predictController "farmsight/pkg/predict/controller"
)

func New(
	e *echo.Echo,
	allowOrigins []string,
	cropCtrl cropController.CropController,
	predictCtrl predictController.PredictController,
	healthCtrl interface{ Health(echo.Context) error },
	registry *prometheus.Registry,
) *echo.Echo {
	e.Use(middleware.RequestID())
	e.Use(middleware.AccessLog())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins:     allowOrigins,
		AllowCredentials: true,
	}))

	e.GET("/health", healthCtrl.Health)
	if registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	e.POST("/predict", predictCtrl.Predict)

	m := e.Group("/api/model")
	m.POST("/predict", predictCtrl.PredictStored)
	m.GET("/schema", predictCtrl.Schema)
	m.POST("/schema/reload", predictCtrl.ReloadSchema)

	g := e.Group("/api/crops")
	g.GET("/list", cropCtrl.List)
	g.POST("", cropCtrl.Create)
	g.GET("/:id", cropCtrl.Get)
	g.PUT("/:id", cropCtrl.Update)
	g.DELETE("/:id", cropCtrl.Delete)
	return e
}
