package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/service/conversation"
	"github.com/oggyb/muzz-match/internal/service/matching"
	"github.com/oggyb/muzz-match/internal/service/notification"
	"github.com/oggyb/muzz-match/internal/service/rating"
	"github.com/oggyb/muzz-match/internal/service/suggestion"
)

// Handler serves the REST API over the matching services.
type Handler struct {
	appCtx      *app.AppContext
	ratings     *rating.Service
	engine      *matching.Engine
	suggestions *suggestion.Service
	notifier    *notification.Dispatcher
	chat        *conversation.Service
}

// NewHandler builds the service graph from appCtx.
func NewHandler(appCtx *app.AppContext) *Handler {
	ratings := rating.NewService(appCtx)
	notifier := notification.NewDispatcher(appCtx)
	return &Handler{
		appCtx:      appCtx,
		ratings:     ratings,
		engine:      matching.NewEngine(appCtx, ratings, notifier),
		suggestions: suggestion.NewService(appCtx),
		notifier:    notifier,
		chat:        conversation.NewService(appCtx, notifier),
	}
}

// health reports 200 when both the database and Redis answer.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"database": "up", "redis": "up"}
	healthy := true

	if sqlDB, err := h.appCtx.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"] = "down"
		healthy = false
	}
	if err := h.appCtx.RedisCache.Ping(ctx); err != nil {
		checks["redis"] = "down"
		healthy = false
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}
