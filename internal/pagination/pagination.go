// Package pagination bounds list sizes requested over HTTP and applied to
// store queries.
package pagination

import "gorm.io/gorm"

// Limits applied to list queries.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// LimitRequest holds the result-size parameter parsed from query strings.
// The audit trail has no page cursor: callers ask for the newest N records.
type LimitRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// Defaults fills in the default limit when none was provided.
func (r *LimitRequest) Defaults() {
	r.Limit = Clamp(r.Limit)
}

// Clamp bounds a requested limit into [1, MaxLimit], using DefaultLimit for
// non-positive values.
func Clamp(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// ListResponse wraps a bounded list of items with the total matching count.
type ListResponse[T any] struct {
	Data  []T    `json:"data"`
	Limit int    `json:"limit"`
	Total *int64 `json:"total,omitempty"`
}

// NewListResponse creates a ListResponse, replacing a nil slice with an empty one.
func NewListResponse[T any](data []T, limit int, total *int64) ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{Data: data, Limit: limit, Total: total}
}

// Limit returns a GORM scope that applies the clamped LIMIT.
func Limit(limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(Clamp(limit))
	}
}
