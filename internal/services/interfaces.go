package services

import (
	"context"
	"time"

	"lumonew/internal/audit"
	"lumonew/internal/models"
	"lumonew/internal/store"
)

// AuditServicer defines the contract for writing audit records.
type AuditServicer interface {
	Record(ctx context.Context, entry Entry, opts ...RecordOption) (*models.AuditLog, error)
	Log(ctx context.Context, entry Entry, opts ...RecordOption)
}

// AuditQueryServicer defines the contract for reading the audit trail.
type AuditQueryServicer interface {
	Query(ctx context.Context, criteria models.AuditFilterCriteria, limit int) *QueryResult
	Stats(ctx context.Context, from, to *time.Time) *StatsResult
	Recent(ctx context.Context, n int) ([]audit.AnnotatedRecord, error)
	GetByID(ctx context.Context, id string) (*audit.AnnotatedRecord, error)
}

// QueryResult is what a filtered query yields. It is never nil. Failed
// reports that the record list could not be fetched and Records was replaced
// by an empty list. StatsSource tells whether Stats came from the store or was
// summarized locally from Records.
type QueryResult struct {
	Records     []audit.AnnotatedRecord  `json:"records"`
	Total       *int64                   `json:"total,omitempty"`
	Stats       models.AuditStatsSummary `json:"stats"`
	StatsSource string                   `json:"stats_source"`
	Failed      bool                     `json:"failed"`
	Params      store.ListParams         `json:"-"`
}

// StatsResult is a statistics window. Failed reports that the store could not
// be reached and Stats is a zero summary.
type StatsResult struct {
	Stats  models.AuditStatsSummary `json:"stats"`
	Failed bool                     `json:"failed"`
}

// Stats sources.
const (
	StatsFromStore = "store"
	StatsLocal     = "local"
)
