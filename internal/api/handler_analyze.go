package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type analyzeRequest struct {
	HomeSize string `json:"home_size"` // small|medium|large, defaults to medium
}

// PostAnalyze handles POST /api/analyze/{home_id}: the deterministic
// SPIKE/PEAK/NORMAL event classification over the next 12 projected hours,
// with per-event savings estimates. The body is optional.
func (h *Handler) PostAnalyze(c *gin.Context) {
	homeID, ok := homeIDParam(c)
	if !ok {
		return
	}

	var req analyzeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	analysis, err := h.analytics.Analyze(c.Request.Context(), homeID, req.HomeSize)
	if err != nil {
		h.abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}
