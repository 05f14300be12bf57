package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"lumonew/internal/audit"
	apperrors "lumonew/internal/errors"
	"lumonew/internal/logger"
	"lumonew/internal/metrics"
	"lumonew/internal/models"
	"lumonew/internal/store"
)

// auditQueryService reads the audit trail and annotates it for display.
type auditQueryService struct {
	store store.AuditStore
	clock audit.Clock
}

// NewAuditQueryService creates a new AuditQueryServicer.
func NewAuditQueryService(s store.AuditStore, clock audit.Clock) AuditQueryServicer {
	if clock == nil {
		clock = audit.SystemClock{}
	}
	return &auditQueryService{store: s, clock: clock}
}

// BuildParams translates UI filter criteria into store parameters. For the
// user category the search term filters by user email instead of free text.
func BuildParams(criteria models.AuditFilterCriteria, limit int) store.ListParams {
	params := store.ListParams{Limit: store.EffectiveLimit(limit)}

	if criteria.Category != "" {
		table := audit.MapCategory(criteria.Category)
		params.TableName = &table
	}
	if criteria.Status != "" {
		op := audit.MapStatus(criteria.Status)
		params.Operation = &op
	}
	if criteria.Search != "" {
		search := criteria.Search
		if criteria.Category == audit.UserCategory {
			params.UserEmail = &search
		} else {
			params.Search = &search
		}
	}
	if start := criteria.DateRange.Start; start != nil {
		from := store.FormatTime(*start)
		params.DateFrom = &from
	}
	if end := criteria.DateRange.End; end != nil {
		to := store.FormatTime(*end)
		params.DateTo = &to
	}
	return params
}

// Query fetches records and window statistics concurrently. A list failure
// yields an empty, Failed result; a stats failure falls back to summarizing
// the fetched records. Failures are logged and counted, never returned.
func (s *auditQueryService) Query(ctx context.Context, criteria models.AuditFilterCriteria, limit int) *QueryResult {
	params := BuildParams(criteria, limit)

	var (
		list              *store.ListResult
		stats             *models.AuditStatsSummary
		listErr, statsErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		list, listErr = s.store.ListAuditLogs(ctx, params)
		return listErr
	})
	g.Go(func() error {
		stats, statsErr = s.store.GetAuditStats(ctx, params.DateFrom, params.DateTo)
		return statsErr
	})
	_ = g.Wait()

	result := &QueryResult{Records: []audit.AnnotatedRecord{}, Params: params}
	var records []models.AuditLog

	if listErr != nil {
		s.reportFailure("list", listErr, params)
		result.Failed = true
	} else {
		records = list.Data
		result.Records = audit.Annotate(records)
		result.Total = list.Total
	}

	if statsErr != nil {
		s.reportFailure("stats", statsErr, params)
		result.Stats = audit.Summarize(records, s.clock)
		result.StatsSource = StatsLocal
	} else {
		result.Stats = *stats
		result.StatsSource = StatsFromStore
	}

	return result
}

// Stats returns store-side statistics for a window. When the store fails the
// result is a zero summary marked Failed.
func (s *auditQueryService) Stats(ctx context.Context, from, to *time.Time) *StatsResult {
	var dateFrom, dateTo *string
	if from != nil {
		v := store.FormatTime(*from)
		dateFrom = &v
	}
	if to != nil {
		v := store.FormatTime(*to)
		dateTo = &v
	}

	stats, err := s.store.GetAuditStats(ctx, dateFrom, dateTo)
	if err != nil {
		s.reportFailure("stats", err, store.ListParams{DateFrom: dateFrom, DateTo: dateTo})
		return &StatsResult{Stats: models.NewAuditStatsSummary(), Failed: true}
	}
	return &StatsResult{Stats: *stats}
}

// Recent returns the n most recent records, annotated. Unlike Query it
// returns store errors so the feed can keep its last good state.
func (s *auditQueryService) Recent(ctx context.Context, n int) ([]audit.AnnotatedRecord, error) {
	logs, err := s.store.GetRecentLogs(ctx, n)
	if err != nil {
		metrics.RecordQueryFailure("recent")
		return nil, fmt.Errorf("loading recent audit logs: %w", err)
	}
	return audit.Annotate(logs), nil
}

// GetByID returns one annotated record.
func (s *auditQueryService) GetByID(ctx context.Context, id string) (*audit.AnnotatedRecord, error) {
	rec, err := s.store.GetAuditLog(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrAuditLogNotFound
		}
		s.reportFailure("get", err, store.ListParams{})
		return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, err)
	}
	return &audit.AnnotatedRecord{AuditLog: *rec, Classification: audit.Classify(rec)}, nil
}

func (s *auditQueryService) reportFailure(operation string, err error, params store.ListParams) {
	metrics.RecordQueryFailure(operation)
	logger.Named("audit.query").Errorw("audit store query failed",
		"operation", operation,
		"error", err,
		"table_name", deref(params.TableName),
		"status", deref(params.Operation),
		"date_from", deref(params.DateFrom),
		"date_to", deref(params.DateTo),
	)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
