package services

import (
	"context"
	"maps"
	"strings"

	"lumonew/internal/audit"
	apperrors "lumonew/internal/errors"
	"lumonew/internal/logger"
	"lumonew/internal/metrics"
	"lumonew/internal/models"
	"lumonew/internal/store"
)

// Entry describes one business mutation to record.
type Entry struct {
	UserID    *string
	Operation models.Operation
	TableName string
	RecordID  string
	OldValues map[string]any
	NewValues map[string]any
	Metadata  map[string]any
}

// RecordOption adds detail to a record before it is written.
type RecordOption func(*models.AuditLog)

// WithActionType tags the record with a fine-grained action type.
func WithActionType(tag string) RecordOption {
	return func(l *models.AuditLog) { setMeta(l, models.MetaActionType, tag) }
}

// WithStockChange attaches a stock delta.
func WithStockChange(from, to float64) RecordOption {
	return func(l *models.AuditLog) {
		setMeta(l, models.MetaStockChange, map[string]any{
			"from":       from,
			"to":         to,
			"difference": to - from,
		})
	}
}

// WithBulkProgress attaches the outcome of a bulk operation.
func WithBulkProgress(bulkID string, total, successful int) RecordOption {
	return func(l *models.AuditLog) {
		setMeta(l, models.MetaBulk, map[string]any{
			"bulk_operation_id": bulkID,
			"total_items":       total,
			"successful_items":  successful,
		})
	}
}

// WithRequest attaches request provenance. Empty values are left unset.
func WithRequest(ip, userAgent, sessionID string) RecordOption {
	return func(l *models.AuditLog) {
		l.IPAddress = optional(ip)
		l.UserAgent = optional(userAgent)
		l.SessionID = optional(sessionID)
	}
}

// auditService writes audit records through the store.
type auditService struct {
	store store.AuditStore
	clock audit.Clock
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(s store.AuditStore, clock audit.Clock) AuditServicer {
	if clock == nil {
		clock = audit.SystemClock{}
	}
	return &auditService{store: s, clock: clock}
}

// Record validates and writes one audit record. Snapshots the operation
// cannot have are dropped: INSERT keeps no old values, DELETE no new values.
func (s *auditService) Record(ctx context.Context, entry Entry, opts ...RecordOption) (*models.AuditLog, error) {
	if !entry.Operation.IsKnown() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidOperation, "unsupported operation "+string(entry.Operation))
	}
	table := strings.TrimSpace(entry.TableName)
	if table == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "table_name is required")
	}

	rec := &models.AuditLog{
		UserID:    entry.UserID,
		Operation: entry.Operation,
		TableName: table,
		RecordID:  entry.RecordID,
		OldValues: entry.OldValues,
		NewValues: entry.NewValues,
		Metadata:  maps.Clone(entry.Metadata),
		CreatedAt: s.clock.Now(),
	}
	for _, opt := range opts {
		opt(rec)
	}

	switch rec.Operation {
	case models.OperationInsert:
		rec.OldValues = nil
	case models.OperationDelete:
		rec.NewValues = nil
	}

	if err := s.store.CreateAuditLog(ctx, rec); err != nil {
		metrics.AuditRecordWriteFailures.Inc()
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"operation", rec.Operation,
			"table_name", rec.TableName,
			"record_id", rec.RecordID,
		)
		return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, err)
	}

	metrics.RecordWrite(string(rec.Operation))
	return rec, nil
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(ctx context.Context, entry Entry, opts ...RecordOption) {
	if _, err := s.Record(ctx, entry, opts...); err != nil {
		logger.Get().Warnw("audit event dropped", "error", err, "operation", entry.Operation, "table_name", entry.TableName)
	}
}

func setMeta(l *models.AuditLog, key string, value any) {
	if l.Metadata == nil {
		l.Metadata = make(map[string]interface{})
	}
	l.Metadata[key] = value
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
