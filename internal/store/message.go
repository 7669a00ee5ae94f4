package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"basegraph.app/leads/core/db/sqlc"
	"basegraph.app/leads/internal/model"
)

const foreignKeyViolation = "23503"

type messageStore struct {
	queries *sqlc.Queries
}

func newMessageStore(queries *sqlc.Queries) MessageStore {
	return &messageStore{queries: queries}
}

func (s *messageStore) Create(ctx context.Context, msg *model.Message) error {
	row, err := s.queries.CreateMessage(ctx, sqlc.CreateMessageParams{
		ID:     msg.ID,
		LeadID: msg.LeadID,
		Role:   string(msg.Role),
		Text:   msg.Text,
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return err
	}
	*msg = toMessageModel(row)
	return nil
}

func (s *messageStore) ListByLead(ctx context.Context, leadID int64) ([]model.Message, error) {
	rows, err := s.queries.ListMessagesByLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	result := make([]model.Message, 0, len(rows))
	for _, row := range rows {
		result = append(result, toMessageModel(row))
	}
	return result, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

func toMessageModel(row sqlc.Message) model.Message {
	return model.Message{
		ID:        row.ID,
		LeadID:    row.LeadID,
		Role:      model.MessageRole(row.Role),
		Text:      row.Text,
		CreatedAt: row.CreatedAt.Time,
	}
}
