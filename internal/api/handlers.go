package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"adplayer/internal/config"
	"adplayer/internal/health"
)

type Handlers struct {
	cfg   config.Config
	check func(context.Context, config.Config) health.HealthStatus
}

func NewHandlers(cfg config.Config) *Handlers {
	return &Handlers{cfg: cfg, check: health.CheckAll}
}

// HandleReady reports dependency health; 503 when any check fails.
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	st := h.check(ctx, h.cfg)
	w.Header().Set("Content-Type", "application/json")
	if !st.OK {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(st)
}
