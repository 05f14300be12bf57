package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"lumonew/internal/audit"
	"lumonew/internal/models"
	"lumonew/internal/pagination"
)

type gormStore struct {
	db    *gorm.DB
	clock audit.Clock
}

// NewGormStore creates an AuditStore backed by the application database.
// clock decides the "today" window of GetAuditStats.
func NewGormStore(db *gorm.DB, clock audit.Clock) AuditStore {
	if clock == nil {
		clock = audit.SystemClock{}
	}
	return &gormStore{db: db, clock: clock}
}

// ListAuditLogs returns matching records, most recent first, with the total
// match count.
func (s *gormStore) ListAuditLogs(ctx context.Context, params ListParams) (*ListResult, error) {
	scope, err := filterScope(params)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting audit logs: %w", err)
	}

	var logs []models.AuditLog
	if err := s.db.WithContext(ctx).Scopes(scope).
		Order("created_at DESC").Order("id DESC").
		Scopes(pagination.Limit(params.Limit)).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("listing audit logs: %w", err)
	}

	if err := s.attachEmails(ctx, logs); err != nil {
		return nil, err
	}
	return &ListResult{Data: logs, Total: &total}, nil
}

// GetAuditStats aggregates the date window with grouped SQL.
func (s *gormStore) GetAuditStats(ctx context.Context, dateFrom, dateTo *string) (*models.AuditStatsSummary, error) {
	scope, err := filterScope(ListParams{DateFrom: dateFrom, DateTo: dateTo})
	if err != nil {
		return nil, err
	}
	summary := models.NewAuditStatsSummary()

	var rows []struct {
		Operation models.Operation
		Count     int
	}
	if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).Scopes(scope).
		Select("operation, COUNT(*) AS count").
		Group("operation").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("grouping audit logs: %w", err)
	}
	for _, r := range rows {
		summary.ByOperation[r.Operation] = r.Count
		summary.TotalOperations += r.Count
	}
	summary.Deletions = summary.ByOperation[models.OperationDelete]

	var users int64
	if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).Scopes(scope).
		Where("user_id IS NOT NULL AND user_id <> ''").
		Distinct("user_id").
		Count(&users).Error; err != nil {
		return nil, fmt.Errorf("counting audit users: %w", err)
	}
	summary.DistinctUsers = int(users)

	dayStart, dayEnd := audit.DayBounds(s.clock.Now())
	var today int64
	if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).Scopes(scope).
		Where("created_at >= ? AND created_at < ?", dayStart.UTC(), dayEnd.UTC()).
		Count(&today).Error; err != nil {
		return nil, fmt.Errorf("counting today's audit logs: %w", err)
	}
	summary.Today = int(today)

	return &summary, nil
}

// GetRecentLogs returns the n most recent records.
func (s *gormStore) GetRecentLogs(ctx context.Context, n int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Scopes(pagination.Limit(n)).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("listing recent audit logs: %w", err)
	}
	if err := s.attachEmails(ctx, logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// GetAuditLog returns one record by ID.
func (s *gormStore) GetAuditLog(ctx context.Context, id string) (*models.AuditLog, error) {
	var entry models.AuditLog
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching audit log: %w", err)
	}

	logs := []models.AuditLog{entry}
	if err := s.attachEmails(ctx, logs); err != nil {
		return nil, err
	}
	return &logs[0], nil
}

// CreateAuditLog inserts a new record.
func (s *gormStore) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("creating audit log: %w", err)
	}
	return nil
}

// attachEmails resolves UserEmail from the user directory.
func (s *gormStore) attachEmails(ctx context.Context, logs []models.AuditLog) error {
	ids := make([]string, 0, len(logs))
	seen := make(map[string]bool)
	for _, l := range logs {
		if l.UserID != nil && *l.UserID != "" && !seen[*l.UserID] {
			seen[*l.UserID] = true
			ids = append(ids, *l.UserID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Select("id", "email").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return fmt.Errorf("resolving audit user emails: %w", err)
	}
	emails := make(map[string]string, len(users))
	for _, u := range users {
		emails[u.ID] = u.Email
	}
	for i := range logs {
		if logs[i].UserID != nil {
			logs[i].UserEmail = emails[*logs[i].UserID]
		}
	}
	return nil
}

// filterScope translates ListParams into WHERE clauses.
func filterScope(params ListParams) (func(*gorm.DB) *gorm.DB, error) {
	from, err := parseBound("date_from", params.DateFrom)
	if err != nil {
		return nil, err
	}
	to, err := parseBound("date_to", params.DateTo)
	if err != nil {
		return nil, err
	}

	return func(db *gorm.DB) *gorm.DB {
		if v, ok := nonEmpty(params.UserID); ok {
			db = db.Where("user_id = ?", v)
		}
		if v, ok := nonEmpty(params.TableName); ok {
			db = db.Where("table_name = ?", v)
		}
		if v, ok := nonEmpty(params.Operation); ok {
			db = db.Where("operation = ?", v)
		}
		if v, ok := nonEmpty(params.Search); ok {
			like := likePattern(v)
			db = db.Where(
				"(LOWER(table_name) LIKE ? ESCAPE '\\' OR LOWER(record_id) LIKE ? ESCAPE '\\' OR "+
					"LOWER(operation) LIKE ? ESCAPE '\\' OR LOWER("+actionTypeExpr(db)+") LIKE ? ESCAPE '\\')",
				like, like, like, like,
			)
		}
		if v, ok := nonEmpty(params.UserEmail); ok {
			db = db.Where("user_id IN (SELECT CAST(id AS TEXT) FROM users WHERE LOWER(email) LIKE ? ESCAPE '\\')", likePattern(v))
		}
		if from != nil {
			db = db.Where("created_at >= ?", *from)
		}
		if to != nil {
			db = db.Where("created_at <= ?", *to)
		}
		return db
	}, nil
}

func parseBound(name string, s *string) (*time.Time, error) {
	v, ok := nonEmpty(s)
	if !ok {
		return nil, nil
	}
	t, err := ParseTime(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	utc := t.UTC()
	return &utc, nil
}

// actionTypeExpr extracts metadata.action_type as text for the connected
// dialect.
func actionTypeExpr(db *gorm.DB) string {
	if db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return "COALESCE(metadata->>'action_type', '')"
	}
	return "COALESCE(json_extract(metadata, '$.action_type'), '')"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a case-insensitive substring pattern. LIKE wildcards in
// the term match literally under ESCAPE '\'.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}
