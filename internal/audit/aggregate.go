package audit

import "lumonew/internal/models"

// Summarize reduces records to KPI counts in a single pass. It never queries
// the store. Records without a user are excluded from the distinct-user count
// and records without a timestamp from the today count.
func Summarize(records []models.AuditLog, clock Clock) models.AuditStatsSummary {
	summary := models.NewAuditStatsSummary()
	if clock == nil {
		clock = SystemClock{}
	}
	now := clock.Now()
	dayStart, dayEnd := DayBounds(now)
	users := make(map[string]struct{})

	for i := range records {
		r := &records[i]
		summary.TotalOperations++
		summary.ByOperation[r.Operation]++

		if r.Operation == models.OperationDelete {
			summary.Deletions++
		}
		if r.UserID != nil && *r.UserID != "" {
			users[*r.UserID] = struct{}{}
		}
		if !r.CreatedAt.IsZero() {
			at := r.CreatedAt.In(now.Location())
			if !at.Before(dayStart) && at.Before(dayEnd) {
				summary.Today++
			}
		}
	}

	summary.DistinctUsers = len(users)
	return summary
}
