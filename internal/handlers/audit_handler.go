package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lumonew/internal/audit"
	apperrors "lumonew/internal/errors"
	"lumonew/internal/feed"
	"lumonew/internal/models"
	"lumonew/internal/pagination"
	"lumonew/internal/services"
	"lumonew/internal/uuid"
)

// ActionAuditLogsExported tags the EXPORT record written by the CSV export.
const ActionAuditLogsExported = "audit_logs_exported"

// RecentFeed is the part of the activity feed the handler reads.
type RecentFeed interface {
	Snapshot() feed.Snapshot
	Refresh(ctx context.Context) error
}

// AuditHandler serves the audit trail.
type AuditHandler struct {
	queryService services.AuditQueryServicer
	auditService services.AuditServicer
	feed         RecentFeed
	loc          *time.Location
}

// NewAuditHandler creates a new AuditHandler. loc interprets date-only query
// parameters.
func NewAuditHandler(queryService services.AuditQueryServicer, auditService services.AuditServicer, recent RecentFeed, loc *time.Location) *AuditHandler {
	if loc == nil {
		loc = time.Local
	}
	return &AuditHandler{queryService: queryService, auditService: auditService, feed: recent, loc: loc}
}

// ListAuditLogsQuery holds the filters accepted by the list and export endpoints.
type ListAuditLogsQuery struct {
	Search   string `form:"search" binding:"max=200"`
	Category string `form:"category" binding:"max=64"`
	Status   string `form:"status" binding:"max=64"`
	pagination.LimitRequest
}

// IngestAuditLogRequest represents the payload posted by business services.
type IngestAuditLogRequest struct {
	UserID    *string        `json:"user_id" binding:"omitempty,uuid"`
	Operation string         `json:"operation" binding:"required,audit_operation"`
	TableName string         `json:"table_name" binding:"required,table_name"`
	RecordID  string         `json:"record_id" binding:"max=128"`
	OldValues map[string]any `json:"old_values,omitempty"`
	NewValues map[string]any `json:"new_values,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	IPAddress string         `json:"ip_address,omitempty" binding:"omitempty,ip"`
	UserAgent string         `json:"user_agent,omitempty" binding:"max=512"`
	SessionID string         `json:"session_id,omitempty" binding:"max=128"`
}

// StatsResponse wraps a statistics summary. Failed is true when the store
// could not be reached and Stats is a zero summary.
type StatsResponse struct {
	Stats  models.AuditStatsSummary `json:"stats"`
	Failed bool                     `json:"failed"`
}

// AuditLogResponse wraps a single annotated record.
type AuditLogResponse struct {
	AuditLog audit.AnnotatedRecord `json:"audit_log"`
}

func (h *AuditHandler) criteria(c *gin.Context) (models.AuditFilterCriteria, int, error) {
	var q ListAuditLogsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return models.AuditFilterCriteria{}, 0, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	q.Defaults()

	from, to, err := parseDateRange(c, h.loc)
	if err != nil {
		return models.AuditFilterCriteria{}, 0, err
	}
	return models.AuditFilterCriteria{
		Search:    q.Search,
		Category:  q.Category,
		Status:    q.Status,
		DateRange: models.DateRange{Start: from, End: to},
	}, q.Limit, nil
}

// ListAuditLogs handles the filtered audit trail query.
// @Summary     List audit logs
// @Description Filtered audit trail, most recent first, with window statistics. A store failure yields an empty list with failed=true.
// @Tags        audit-logs
// @Produce     json
// @Security    BearerAuth
// @Param       search    query string false "Free text; for category=user it matches the user email"
// @Param       category  query string false "item, category, location, user, system or a table name"
// @Param       status    query string false "created, updated, deleted, stock_adjusted, ... or an operation"
// @Param       date_from query string false "RFC3339 or YYYY-MM-DD"
// @Param       date_to   query string false "RFC3339 or YYYY-MM-DD (inclusive)"
// @Param       limit     query int    false "Max records (default 50, max 500)"
// @Success     200 {object} services.QueryResult "Audit logs"
// @Failure     400 {object} ErrorResponse "Invalid input or date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	criteria, limit, err := h.criteria(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.queryService.Query(c.Request.Context(), criteria, limit))
}

// GetAuditStats handles the statistics summary for a window.
// @Summary     Audit statistics
// @Description Totals by operation, distinct users, deletions and today's count
// @Tags        audit-logs
// @Produce     json
// @Security    BearerAuth
// @Param       date_from query string false "RFC3339 or YYYY-MM-DD"
// @Param       date_to   query string false "RFC3339 or YYYY-MM-DD (inclusive)"
// @Success     200 {object} StatsResponse "Statistics"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /audit-logs/stats [get]
func (h *AuditHandler) GetAuditStats(c *gin.Context) {
	from, to, err := parseDateRange(c, h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result := h.queryService.Stats(c.Request.Context(), from, to)
	c.JSON(http.StatusOK, StatsResponse{Stats: result.Stats, Failed: result.Failed})
}

// GetRecentActivity returns the recent activity feed.
// @Summary     Recent activity
// @Description Snapshot of the recent activity feed; refresh=true reloads it first
// @Tags        audit-logs
// @Produce     json
// @Security    BearerAuth
// @Param       refresh query bool false "Reload before returning"
// @Success     200 {object} feed.Snapshot "Feed snapshot"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Feed not running"
// @Router      /audit-logs/recent [get]
func (h *AuditHandler) GetRecentActivity(c *gin.Context) {
	if h.feed == nil {
		respondWithError(c, apperrors.ErrFeedNotRunning)
		return
	}

	if refresh, _ := strconv.ParseBool(c.Query("refresh")); refresh {
		// A failed load is reported through the snapshot's last_error.
		if err := h.feed.Refresh(c.Request.Context()); errors.Is(err, feed.ErrStopped) {
			respondWithError(c, apperrors.ErrFeedNotRunning)
			return
		}
	}

	c.JSON(http.StatusOK, h.feed.Snapshot())
}

// GetAuditLog returns one record with its classification.
// @Summary     Get audit log by ID
// @Tags        audit-logs
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Audit log ID"
// @Success     200 {object} AuditLogResponse "Audit log"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Audit log not found"
// @Failure     503 {object} ErrorResponse "Store unavailable"
// @Router      /audit-logs/{id} [get]
func (h *AuditHandler) GetAuditLog(c *gin.Context) {
	id := c.Param("id")
	if !uuid.IsValid(id) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid audit log ID"))
		return
	}

	rec, err := h.queryService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuditLogResponse{AuditLog: *rec})
}

var exportHeader = []string{
	"id", "created_at", "operation", "action_type", "table_name", "record_id",
	"user_id", "user_email", "description",
}

// ExportAuditLogs streams the filtered trail as CSV and records the export.
// @Summary     Export audit logs
// @Description CSV export of the filtered audit trail
// @Tags        audit-logs
// @Produce     text/csv
// @Security    BearerAuth
// @Param       search    query string false "Free text"
// @Param       category  query string false "UI category"
// @Param       status    query string false "UI status"
// @Param       date_from query string false "RFC3339 or YYYY-MM-DD"
// @Param       date_to   query string false "RFC3339 or YYYY-MM-DD (inclusive)"
// @Param       limit     query int    false "Max records (default 50, max 500)"
// @Success     200 {string} string "CSV"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Store unavailable"
// @Router      /audit-logs/export [get]
func (h *AuditHandler) ExportAuditLogs(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	criteria, limit, err := h.criteria(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result := h.queryService.Query(c.Request.Context(), criteria, limit)
	if result.Failed {
		respondWithError(c, apperrors.ErrStoreUnavailable)
		return
	}

	filename := "audit-logs-" + time.Now().In(h.loc).Format("20060102-150405") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(exportHeader)
	for i := range result.Records {
		rec := &result.Records[i]
		_ = w.Write([]string{
			rec.ID,
			rec.CreatedAt.In(h.loc).Format(time.RFC3339),
			string(rec.Operation),
			rec.ActionType(),
			rec.TableName,
			rec.RecordID,
			derefString(rec.UserID),
			rec.UserEmail,
			rec.Description,
		})
	}
	w.Flush()

	h.auditService.Log(c.Request.Context(), services.Entry{
		UserID:    &userID,
		Operation: models.OperationExport,
		TableName: "audit_logs",
		Metadata: map[string]any{
			"format":   "csv",
			"count":    len(result.Records),
			"category": criteria.Category,
			"status":   criteria.Status,
			"search":   criteria.Search,
		},
	},
		services.WithActionType(ActionAuditLogsExported),
		services.WithRequest(c.ClientIP(), c.Request.UserAgent(), ""),
	)
}

// IngestAuditLog records a mutation posted by a business service.
// @Summary     Ingest audit log
// @Description Record one business mutation (pipeline endpoint)
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body IngestAuditLogRequest true "Mutation"
// @Success     202 {object} map[string]string "Accepted record ID"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Store unavailable"
// @Router      /pipeline/audit-logs [post]
func (h *AuditHandler) IngestAuditLog(c *gin.Context) {
	var req IngestAuditLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	entry := services.Entry{
		UserID:    req.UserID,
		Operation: models.Operation(req.Operation),
		TableName: req.TableName,
		RecordID:  req.RecordID,
		OldValues: req.OldValues,
		NewValues: req.NewValues,
		Metadata:  req.Metadata,
	}
	rec, err := h.auditService.Record(c.Request.Context(), entry,
		services.WithRequest(req.IPAddress, req.UserAgent, req.SessionID))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"id": rec.ID})
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
