package store

import (
	"context"
	"errors"

	"basegraph.app/leads/internal/model"
	"basegraph.app/leads/internal/reconcile"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrVersionConflict is returned when a conditional lead write lost a race
// with another writer.
var ErrVersionConflict = errors.New("version conflict")

// LeadStore defines the contract for lead data access
type LeadStore interface {
	GetByID(ctx context.Context, id int64) (*model.Lead, error)
	List(ctx context.Context) ([]model.Lead, error)
	Create(ctx context.Context, lead *model.Lead) error
	// Update writes changes in a single statement. When changes carry an
	// expected version the write only commits against that version.
	Update(ctx context.Context, id int64, changes reconcile.Changes) (*model.Lead, error)
}

// MessageStore defines the contract for message data access
type MessageStore interface {
	// Create returns ErrNotFound when the owning lead does not exist.
	Create(ctx context.Context, msg *model.Message) error
	ListByLead(ctx context.Context, leadID int64) ([]model.Message, error)
}
