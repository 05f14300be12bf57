// Package store is the boundary to the external audit record store. The rest
// of the module reads and writes audit records only through AuditStore.
package store

import (
	"context"
	"errors"
	"time"

	"lumonew/internal/models"
	"lumonew/internal/pagination"
)

// Limits applied to list queries.
const (
	DefaultLimit = pagination.DefaultLimit
	MaxLimit     = pagination.MaxLimit
)

// ErrNotFound is returned when a single record lookup matches nothing.
var ErrNotFound = errors.New("audit log not found")

// AuditStore is the contract of the external audit record store. There are
// no update or delete operations: records are write-once.
type AuditStore interface {
	ListAuditLogs(ctx context.Context, params ListParams) (*ListResult, error)
	GetAuditStats(ctx context.Context, dateFrom, dateTo *string) (*models.AuditStatsSummary, error)
	GetRecentLogs(ctx context.Context, n int) ([]models.AuditLog, error)
	GetAuditLog(ctx context.Context, id string) (*models.AuditLog, error)
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
}

// ListParams are the store-level filters. Nil fields impose no constraint.
// DateFrom and DateTo are inclusive ISO 8601 timestamps.
type ListParams struct {
	Limit     int
	UserID    *string
	TableName *string
	Operation *string
	Search    *string
	UserEmail *string
	DateFrom  *string
	DateTo    *string
}

// ListResult is one page of records, most recent first. Total counts all
// matching records when the store reports it.
type ListResult struct {
	Data  []models.AuditLog `json:"data"`
	Total *int64            `json:"total,omitempty"`
}

// EffectiveLimit clamps a requested limit into [1, MaxLimit], using
// DefaultLimit for non-positive values.
func EffectiveLimit(limit int) int {
	return pagination.Clamp(limit)
}

// FormatTime renders a bound in the wire format used for DateFrom/DateTo.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTime reads a DateFrom/DateTo bound.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nonEmpty(s *string) (string, bool) {
	if s == nil || *s == "" {
		return "", false
	}
	return *s, true
}
