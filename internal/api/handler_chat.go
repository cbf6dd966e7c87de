package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"powerpulse-backend/internal/coach"
)

type chatRequest struct {
	HomeID         int64           `json:"home_id"`
	ConversationID string          `json:"conversation_id"`
	Messages       []coach.Message `json:"messages" binding:"required"`
}

type chatResponse struct {
	Reply          string `json:"reply"`
	ConversationID string `json:"conversation_id"`
}

// PostCoachChat handles POST /api/coach/chat. As long as the request parses,
// the response is 200 with reply text; a broken responder degrades to a
// canned apology instead of an error status.
func (h *Handler) PostCoachChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.coach == nil {
		c.JSON(http.StatusOK, chatResponse{Reply: coach.FallbackReply, ConversationID: req.ConversationID})
		return
	}

	reply, convID := h.coach.Reply(c.Request.Context(), req.Messages, req.HomeID, req.ConversationID)
	c.JSON(http.StatusOK, chatResponse{Reply: reply, ConversationID: convID})
}
