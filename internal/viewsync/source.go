// Package viewsync keeps local, live copies of leads in step with the API.
//
// A view subscribes to the change feed first and seeds its state second, then
// applies events in arrival order from a single goroutine. Lead events only
// move state forward by version and message events are de-duplicated by id,
// so events that raced the seed are harmless. When the subscription ends the
// view reconnects with backoff and seeds again; nothing is replayed.
package viewsync

import (
	"context"
	"errors"

	"basegraph.app/leads/internal/changefeed"
	"basegraph.app/leads/internal/model"
)

// ErrNotFound is reported by a Source for a lead that does not exist.
var ErrNotFound = errors.New("lead not found")

// Source is the read side of the leads API plus its change feed.
type Source interface {
	ListLeads(ctx context.Context) ([]model.Lead, error)
	GetLead(ctx context.Context, id int64) (*model.Lead, error)
	ListMessages(ctx context.Context, leadID int64) ([]model.Message, error)
	// Subscribe returns once the subscription is live, so that every change
	// committed afterwards is delivered on the stream.
	Subscribe(ctx context.Context, filter changefeed.Filter) (Stream, error)
}

// Stream is a live change feed subscription. Events is closed when the
// subscription ends; Err then reports why, or nil after Close.
type Stream interface {
	Events() <-chan model.ChangeEvent
	Err() error
	Close()
}
