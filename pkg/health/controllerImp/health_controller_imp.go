package controllerImp

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

var appStart = time.Now()

type pinger interface {
	Ping(ctx context.Context) error
}

type readiness interface {
	Ready() error
}

type HealthCtrl struct {
	store pinger
	model readiness
}

func NewHealthCtrl(store pinger, model readiness) *HealthCtrl {
	return &HealthCtrl{store: store, model: model}
}

type sub struct {
	OK  bool   `json:"ok"`
	Err string `json:"err,omitempty"`
}

func (h *HealthCtrl) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 800*time.Millisecond)
	defer cancel()

	db := sub{OK: true}
	if h.store == nil {
		db = sub{Err: "store is nil"}
	} else if err := h.store.Ping(ctx); err != nil {
		db = sub{Err: "ping: " + err.Error()}
	}

	mdl := sub{OK: true}
	if h.model == nil {
		mdl = sub{Err: "prediction service is nil"}
	} else if err := h.model.Ready(); err != nil {
		mdl = sub{Err: err.Error()}
	}

	allOK := db.OK && mdl.OK
	status := http.StatusOK
	if !allOK {
		status = http.StatusServiceUnavailable
	}

	resp := map[string]any{
		"status":     map[string]any{"ok": allOK},
		"uptime_sec": int(time.Since(appStart).Seconds()),
		"checks": map[string]any{
			"database": db,
			"model":    mdl,
		},
		"time": time.Now().Format(time.RFC3339),
	}
	return c.JSON(status, resp)
}
