package services

import (
	"context"
	"sync"

	"lumonew/internal/models"
)

// Session holds the visible result of a sequence of possibly overlapping
// queries. Only the most recently issued query may replace it, whatever
// order the queries finish in.
type Session struct {
	mu      sync.Mutex
	issued  uint64
	current *QueryResult
}

// Begin issues a token for a new query.
func (s *Session) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Apply makes result visible if token is the latest issued one and reports
// whether it did.
func (s *Session) Apply(token uint64, result *QueryResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.issued {
		return false
	}
	s.current = result
	return true
}

// Current returns the visible result, or nil before any query applied.
func (s *Session) Current() *QueryResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Run issues and executes one query, then applies its result. The boolean
// is false when a newer query was issued meanwhile.
func (s *Session) Run(ctx context.Context, svc AuditQueryServicer, criteria models.AuditFilterCriteria, limit int) (*QueryResult, bool) {
	token := s.Begin()
	result := svc.Query(ctx, criteria, limit)
	return result, s.Apply(token, result)
}
