package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"powerpulse-backend/internal/analytics"
)

// GetForecast handles GET /api/forecast/{home_id}.
func (h *Handler) GetForecast(c *gin.Context) {
	homeID, ok := homeIDParam(c)
	if !ok {
		return
	}

	points, err := h.analytics.Forecast(c.Request.Context(), homeID)
	if err != nil {
		h.abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forecast": points})
}

// GetWeatherForecast handles GET /api/forecast/{home_id}/weather.
func (h *Handler) GetWeatherForecast(c *gin.Context) {
	homeID, ok := homeIDParam(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.HomeByID(ctx, homeID); err != nil {
		h.abortForError(c, err)
		return
	}

	var days []analytics.DailyTemp
	if h.weather != nil {
		days = h.weather.Forecast(ctx, homeID)
	}
	c.JSON(http.StatusOK, gin.H{"forecast": analytics.ShapeWeatherForecast(days)})
}
