package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"powerpulse-backend/internal/analytics"
)

// GetDashboardMetrics handles GET /api/dashboard/metrics/{home_id}.
func (h *Handler) GetDashboardMetrics(c *gin.Context) {
	homeID, ok := homeIDParam(c)
	if !ok {
		return
	}

	snapshot, err := h.analytics.DashboardMetrics(c.Request.Context(), homeID)
	if err != nil {
		h.abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GetCurrentPower handles GET /api/dashboard/current-power/{home_id}.
func (h *Handler) GetCurrentPower(c *gin.Context) {
	homeID, ok := homeIDParam(c)
	if !ok {
		return
	}

	kw, err := h.analytics.CurrentPower(c.Request.Context(), homeID)
	if err != nil {
		h.abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"current_power_kw": kw})
}

// GetTodayUsage handles GET /api/dashboard/today-usage/{home_id}.
func (h *Handler) GetTodayUsage(c *gin.Context) {
	homeID, ok := homeIDParam(c)
	if !ok {
		return
	}

	usage, _, _, err := h.analytics.TodayTotals(c.Request.Context(), homeID)
	if err != nil {
		h.abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"today_usage_kwh": usage})
}

// GetTodayCost handles GET /api/dashboard/today-cost/{home_id}.
func (h *Handler) GetTodayCost(c *gin.Context) {
	homeID, ok := homeIDParam(c)
	if !ok {
		return
	}

	_, cost, _, err := h.analytics.TodayTotals(c.Request.Context(), homeID)
	if err != nil {
		h.abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"today_cost_usd": cost})
}

// GetTodayCO2 handles GET /api/dashboard/today-co2/{home_id}.
func (h *Handler) GetTodayCO2(c *gin.Context) {
	homeID, ok := homeIDParam(c)
	if !ok {
		return
	}

	_, _, co2, err := h.analytics.TodayTotals(c.Request.Context(), homeID)
	if err != nil {
		h.abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"today_co2_kg": co2})
}

// GetHourlyUsage handles GET /api/dashboard/hourly-usage/{home_id}. An
// optional ?date=YYYY-MM-DD selects a day other than the resolved today.
func (h *Handler) GetHourlyUsage(c *gin.Context) {
	homeID, ok := homeIDParam(c)
	if !ok {
		return
	}

	points, err := h.analytics.HourlyUsage(c.Request.Context(), homeID, c.Query("date"))
	if err != nil {
		h.abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hourly_usage_24h": points})
}

// GetDashboardWeather handles GET /api/dashboard/weather/{home_id}.
func (h *Handler) GetDashboardWeather(c *gin.Context) {
	homeID, ok := homeIDParam(c)
	if !ok {
		return
	}

	// The home must exist even when the collaborator is down.
	if _, err := h.store.HomeByID(c.Request.Context(), homeID); err != nil {
		h.abortForError(c, err)
		return
	}

	var weather *analytics.Weather
	if h.weather != nil {
		weather = h.weather.Current(c.Request.Context(), homeID)
	}
	if weather == nil {
		weather = &analytics.Weather{}
	}
	c.JSON(http.StatusOK, weather)
}
