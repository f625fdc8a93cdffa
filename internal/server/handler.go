package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kapu/genshin-gacha-api/internal/domain"
	"github.com/kapu/genshin-gacha-api/internal/service/cache"
	"github.com/kapu/genshin-gacha-api/internal/util"
	"github.com/kapu/genshin-gacha-api/pkg/errors"
	"go.uber.org/zap"
)

const jsonContentType = "application/json; charset=utf-8"

// ResultSource hands out the current payload; *cache.ResultCache satisfies it.
type ResultSource interface {
	Get(ctx context.Context) (*cache.Entry, error)
}

type Handler struct {
	results ResultSource
	now     func() time.Time
	logger  *zap.Logger
}

func NewHandler(results ResultSource, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		results: results,
		now:     util.NowCST,
		logger:  logger,
	}
}

func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// Register mounts the public routes on r.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/gacha", h.Gacha)
	r.GET("/health", h.Health)
	r.HEAD("/health", h.Health)
}

// Gacha serves the cached payload bytes unchanged, or an error body.
func (h *Handler) Gacha(c *gin.Context) {
	entry, err := h.results.Get(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		h.writeJSON(c, errors.StatusCode(err, http.StatusInternalServerError), domain.NewErrorResponse(err))
		return
	}

	c.Data(http.StatusOK, jsonContentType, entry.Payload)
}

func (h *Handler) Health(c *gin.Context) {
	h.writeJSON(c, http.StatusOK, domain.HealthResponse{
		Status:    domain.HealthStatusHealthy,
		Timestamp: util.FormatTimestamp(h.now()),
	})
}

func (h *Handler) writeJSON(c *gin.Context, status int, body any) {
	data, err := util.MarshalJSON(body, false)
	if err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(status, jsonContentType, data)
}
