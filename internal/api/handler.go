package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"powerpulse-backend/internal/analytics"
	"powerpulse-backend/internal/coach"
	"powerpulse-backend/internal/store"
)

// WeatherService supplies current conditions and the raw temperature outlook.
type WeatherService interface {
	Current(ctx context.Context, homeID int64) *analytics.Weather
	Forecast(ctx context.Context, homeID int64) []analytics.DailyTemp
}

// CoachService turns a chat history into a reply.
type CoachService interface {
	Reply(ctx context.Context, history []coach.Message, homeID int64, conversationID string) (reply, convID string)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	analytics *analytics.Service
	weather   WeatherService
	coach     CoachService
	store     store.Store
	webpush   *webpush.Options
	logger    *zap.Logger
}

// NewHandler creates a new API handler. weather, coach, and webpushOptions
// may be nil; the affected endpoints degrade rather than panic.
func NewHandler(a *analytics.Service, w WeatherService, c CoachService, s store.Store, webpushOptions *webpush.Options, logger *zap.Logger) *Handler {
	return &Handler{
		analytics: a,
		weather:   w,
		coach:     c,
		store:     s,
		webpush:   webpushOptions,
		logger:    logger,
	}
}

// homeIDParam parses the :home_id path segment, writing the error response
// itself when the segment is not an integer.
func homeIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("home_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid home id"})
		return 0, false
	}
	return id, true
}

// abortForError maps the store sentinels to HTTP statuses.
func (h *Handler) abortForError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrUnknownHome) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "home not found"})
		return
	}
	h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
