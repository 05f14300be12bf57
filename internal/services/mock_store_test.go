package services

import (
	"context"

	"lumonew/internal/models"
	"lumonew/internal/store"
)

// mockStore is a hand-written store.AuditStore for service tests.
type mockStore struct {
	listFn   func(ctx context.Context, params store.ListParams) (*store.ListResult, error)
	statsFn  func(ctx context.Context, dateFrom, dateTo *string) (*models.AuditStatsSummary, error)
	recentFn func(ctx context.Context, n int) ([]models.AuditLog, error)
	getFn    func(ctx context.Context, id string) (*models.AuditLog, error)
	createFn func(ctx context.Context, entry *models.AuditLog) error
}

func (m *mockStore) ListAuditLogs(ctx context.Context, params store.ListParams) (*store.ListResult, error) {
	if m.listFn != nil {
		return m.listFn(ctx, params)
	}
	return &store.ListResult{}, nil
}

func (m *mockStore) GetAuditStats(ctx context.Context, dateFrom, dateTo *string) (*models.AuditStatsSummary, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, dateFrom, dateTo)
	}
	s := models.NewAuditStatsSummary()
	return &s, nil
}

func (m *mockStore) GetRecentLogs(ctx context.Context, n int) ([]models.AuditLog, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, n)
	}
	return nil, nil
}

func (m *mockStore) GetAuditLog(ctx context.Context, id string) (*models.AuditLog, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if m.createFn != nil {
		return m.createFn(ctx, entry)
	}
	return nil
}

func strPtr(s string) *string { return &s }
