package coach

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"powerpulse-backend/internal/metrics"
)

// FallbackReply is returned whenever the responder is unreachable or answers
// with something unusable. Chat always returns some text.
const FallbackReply = "Sorry, I couldn't reach your energy coach just now. Please try again in a moment."

// Service calls the external coaching responder.
type Service struct {
	client   *resty.Client
	url      string
	maxTurns int
	logger   *zap.Logger
}

// NewService creates the responder client. url may be empty, in which case
// every reply is the fallback.
func NewService(url, apiKey string, timeout time.Duration, maxTurns int, logger *zap.Logger) *Service {
	client := resty.New().SetTimeout(timeout)
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}
	return &Service{
		client:   client,
		url:      url,
		maxTurns: maxTurns,
		logger:   logger,
	}
}

// MaxTurns exposes the configured history bound.
func (s *Service) MaxTurns() int { return s.maxTurns }

type responderReply struct {
	Reply string `json:"reply"`
}

// Reply builds the bounded context and asks the responder for the next
// assistant turn. Any failure degrades to FallbackReply; the conversation id
// is minted when the caller did not supply one.
func (s *Service) Reply(ctx context.Context, history []Message, homeID int64, conversationID string) (reply, convID string) {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	payload := BuildContext(history, homeID, s.maxTurns)
	if s.url == "" {
		return FallbackReply, conversationID
	}

	var body responderReply
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&body).
		Post(s.url)
	if err != nil || !resp.IsSuccess() || strings.TrimSpace(body.Reply) == "" {
		metrics.CollaboratorFailures.WithLabelValues("coach").Inc()
		s.logger.Warn("coach responder unavailable",
			zap.Int64("home_id", homeID),
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		return FallbackReply, conversationID
	}

	return strings.TrimSpace(body.Reply), conversationID
}
