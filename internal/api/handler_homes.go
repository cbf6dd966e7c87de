package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// homeResponse is one entry of the GET /api/homes listing.
type homeResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	DeviceCount int    `json:"device_count"`
}

// GetHomes handles GET /api/homes.
func (h *Handler) GetHomes(c *gin.Context) {
	ctx := c.Request.Context()

	homes, err := h.store.Homes(ctx)
	if err != nil {
		h.abortForError(c, err)
		return
	}

	response := make([]homeResponse, 0, len(homes))
	for _, home := range homes {
		devices, err := h.analytics.Devices(ctx, home.ID)
		if err != nil {
			h.abortForError(c, err)
			return
		}
		response = append(response, homeResponse{
			ID:          home.ID,
			Name:        home.Name,
			Location:    home.Location,
			DeviceCount: len(devices),
		})
	}
	c.JSON(http.StatusOK, response)
}

// GetDevices handles GET /api/homes/{home_id}/devices.
func (h *Handler) GetDevices(c *gin.Context) {
	homeID, ok := homeIDParam(c)
	if !ok {
		return
	}

	devices, err := h.analytics.Devices(c.Request.Context(), homeID)
	if err != nil {
		h.abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

// GetDeviceStats handles GET /api/homes/{home_id}/devices/{appliance}/stats.
func (h *Handler) GetDeviceStats(c *gin.Context) {
	homeID, ok := homeIDParam(c)
	if !ok {
		return
	}

	stats, err := h.analytics.PerDeviceStats(c.Request.Context(), homeID, c.Param("appliance"))
	if err != nil {
		h.abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
