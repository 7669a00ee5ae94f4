package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"basegraph.app/leads/common/id"
	"basegraph.app/leads/common/logger"
	"basegraph.app/leads/internal/changefeed"
	"basegraph.app/leads/internal/model"
	"basegraph.app/leads/internal/store"
)

// MessageService appends dialogue turns to a lead's conversation.
type MessageService interface {
	Append(ctx context.Context, leadID int64, role model.MessageRole, text string) (*model.Message, error)
	// List returns the lead's messages oldest first. An unknown lead has no
	// messages.
	List(ctx context.Context, leadID int64) ([]model.Message, error)
}

type messageService struct {
	messages  store.MessageStore
	publisher changefeed.Publisher
}

func NewMessageService(messages store.MessageStore, publisher changefeed.Publisher) MessageService {
	return &messageService{
		messages:  messages,
		publisher: publisher,
	}
}

func (s *messageService) Append(ctx context.Context, leadID int64, role model.MessageRole, text string) (*model.Message, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		LeadID:    logger.Ptr(leadID),
		Component: "leads.service.message",
	})

	if !role.Valid() {
		return nil, invalid("role", "must be one of: user, agent")
	}
	if strings.TrimSpace(text) == "" {
		return nil, invalid("text", "is required")
	}

	msg := &model.Message{
		ID:     id.New(),
		LeadID: leadID,
		Role:   role,
		Text:   text,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("appending message: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{MessageID: logger.Ptr(msg.ID)})
	slog.DebugContext(ctx, "message appended", "role", msg.Role)

	if s.publisher != nil {
		event := model.MessageCreated(*msg)
		if err := s.publisher.Publish(ctx, event); err != nil {
			slog.WarnContext(ctx, "failed to publish change event", "error", err, "change_kind", event.Kind())
		}
	}
	return msg, nil
}

func (s *messageService) List(ctx context.Context, leadID int64) ([]model.Message, error) {
	msgs, err := s.messages.ListByLead(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return msgs, nil
}
