package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatbot/models"
)

var ErrEmptyMessage = errors.New("message is required")

// ChatService answers one user message: it prompts the completer with the
// college knowledge and records the exchange.
type ChatService struct {
	knowledge *KnowledgeService
	completer Completer
	store     ExchangeStore
	logger    *zap.SugaredLogger
	now       func() time.Time
}

func NewChatService(knowledge *KnowledgeService, completer Completer, store ExchangeStore, logger *zap.SugaredLogger) *ChatService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ChatService{
		knowledge: knowledge,
		completer: completer,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// Reply returns the recorded exchange for message. A failure to record
// is logged and does not fail the reply.
func (s *ChatService) Reply(ctx context.Context, message string) (models.Exchange, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return models.Exchange{}, ErrEmptyMessage
	}

	reply, err := s.completer.Complete(ctx, s.knowledge.SystemPrompt(), message)
	if err != nil {
		return models.Exchange{}, fmt.Errorf("%s completion: %w", s.completer.Name(), err)
	}

	ex := models.Exchange{
		ID:          uuid.New().String(),
		UserMessage: message,
		Reply:       reply,
		Provider:    s.completer.Name(),
		Timestamp:   s.now(),
	}

	if s.store != nil {
		if err := s.store.Save(ctx, ex); err != nil {
			s.logger.Warnw("failed to record exchange", "id", ex.ID, "error", err)
		}
	}
	return ex, nil
}

// Recent lists recorded exchanges, newest first.
func (s *ChatService) Recent(ctx context.Context, limit int) ([]models.Exchange, error) {
	if s.store == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.store.Recent(ctx, limit)
}

func (s *ChatService) Knowledge() models.KnowledgeBase {
	return s.knowledge.KnowledgeBase()
}
