package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/racon-ai/racon-backend/internal/errordata"
	"github.com/racon-ai/racon-backend/internal/response"
)

// Pinger is any backing store that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// GET /healthz
func (hh *HealthHandler) Healthz(c *gin.Context) {
	if hh.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := hh.store.Ping(ctx); err != nil {
			errordata.Record(c.Request.Context(), err)
			response.RespondError(c, http.StatusServiceUnavailable, "unavailable", "Store unavailable!")
			return
		}
	}
	response.RespondOK(c, gin.H{"status": "ok"})
}
