package handler_test

import (
	"context"

	"basegraph.app/leads/internal/model"
	"basegraph.app/leads/internal/reconcile"
	"basegraph.app/leads/internal/service"
)

type mockLeadService struct {
	createFn func(ctx context.Context, params service.CreateLeadParams) (*model.Lead, error)
	getFn    func(ctx context.Context, id int64) (*model.Lead, error)
	listFn   func(ctx context.Context) ([]model.Lead, error)
	updateFn func(ctx context.Context, id int64, patch reconcile.Patch) (*model.Lead, error)
}

func (m *mockLeadService) Create(ctx context.Context, params service.CreateLeadParams) (*model.Lead, error) {
	if m.createFn != nil {
		return m.createFn(ctx, params)
	}
	return nil, nil
}

func (m *mockLeadService) Get(ctx context.Context, id int64) (*model.Lead, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, service.ErrLeadNotFound
}

func (m *mockLeadService) List(ctx context.Context) ([]model.Lead, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockLeadService) Update(ctx context.Context, id int64, patch reconcile.Patch) (*model.Lead, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, patch)
	}
	return nil, service.ErrLeadNotFound
}

type mockMessageService struct {
	appendFn func(ctx context.Context, leadID int64, role model.MessageRole, text string) (*model.Message, error)
	listFn   func(ctx context.Context, leadID int64) ([]model.Message, error)
}

func (m *mockMessageService) Append(ctx context.Context, leadID int64, role model.MessageRole, text string) (*model.Message, error) {
	if m.appendFn != nil {
		return m.appendFn(ctx, leadID, role, text)
	}
	return nil, nil
}

func (m *mockMessageService) List(ctx context.Context, leadID int64) ([]model.Message, error) {
	if m.listFn != nil {
		return m.listFn(ctx, leadID)
	}
	return nil, nil
}
