package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"lumonew/internal/audit"
	apperrors "lumonew/internal/errors"
	"lumonew/internal/feed"
	"lumonew/internal/models"
	"lumonew/internal/services"
)

const testAuditID = "0190f2a4-8c3e-7b1a-9d2e-3f4a5b6c7d8e"

// --- mock query service ---

type mockQueryService struct {
	queryFn  func(ctx context.Context, criteria models.AuditFilterCriteria, limit int) *services.QueryResult
	statsFn  func(ctx context.Context, from, to *time.Time) *services.StatsResult
	recentFn func(ctx context.Context, n int) ([]audit.AnnotatedRecord, error)
	getFn    func(ctx context.Context, id string) (*audit.AnnotatedRecord, error)
}

var _ services.AuditQueryServicer = (*mockQueryService)(nil)

func (m *mockQueryService) Query(ctx context.Context, criteria models.AuditFilterCriteria, limit int) *services.QueryResult {
	if m.queryFn != nil {
		return m.queryFn(ctx, criteria, limit)
	}
	return &services.QueryResult{Records: []audit.AnnotatedRecord{}, Stats: models.NewAuditStatsSummary()}
}

func (m *mockQueryService) Stats(ctx context.Context, from, to *time.Time) *services.StatsResult {
	if m.statsFn != nil {
		return m.statsFn(ctx, from, to)
	}
	return &services.StatsResult{Stats: models.NewAuditStatsSummary()}
}

func (m *mockQueryService) Recent(ctx context.Context, n int) ([]audit.AnnotatedRecord, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, n)
	}
	return nil, nil
}

func (m *mockQueryService) GetByID(ctx context.Context, id string) (*audit.AnnotatedRecord, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, apperrors.ErrAuditLogNotFound
}

// --- mock audit service ---

type mockAuditService struct {
	recordFn func(ctx context.Context, entry services.Entry, opts ...services.RecordOption) (*models.AuditLog, error)
	logged   []*models.AuditLog
}

var _ services.AuditServicer = (*mockAuditService)(nil)

func (m *mockAuditService) Record(ctx context.Context, entry services.Entry, opts ...services.RecordOption) (*models.AuditLog, error) {
	if m.recordFn != nil {
		return m.recordFn(ctx, entry, opts...)
	}
	return &models.AuditLog{ID: testAuditID, Operation: entry.Operation, TableName: entry.TableName}, nil
}

func (m *mockAuditService) Log(_ context.Context, entry services.Entry, opts ...services.RecordOption) {
	l := &models.AuditLog{UserID: entry.UserID, Operation: entry.Operation, TableName: entry.TableName, Metadata: entry.Metadata}
	for _, opt := range opts {
		opt(l)
	}
	m.logged = append(m.logged, l)
}

// --- mock feed ---

type mockFeed struct {
	snapshot  feed.Snapshot
	refreshFn func(ctx context.Context) error
	refreshes int
}

func (m *mockFeed) Snapshot() feed.Snapshot { return m.snapshot }

func (m *mockFeed) Refresh(ctx context.Context) error {
	m.refreshes++
	if m.refreshFn != nil {
		return m.refreshFn(ctx)
	}
	return nil
}

// --- router setup ---

func setupAuditRouter(handler *AuditHandler) *gin.Engine {
	r := gin.New()
	r.POST("/pipeline/audit-logs", handler.IngestAuditLog)
	auth := r.Group("", injectUserID("u-1"))
	auth.GET("/audit-logs", handler.ListAuditLogs)
	auth.GET("/audit-logs/stats", handler.GetAuditStats)
	auth.GET("/audit-logs/recent", handler.GetRecentActivity)
	auth.GET("/audit-logs/export", handler.ExportAuditLogs)
	auth.GET("/audit-logs/:id", handler.GetAuditLog)
	return r
}

func sampleRecord() audit.AnnotatedRecord {
	userID := "u-7"
	rec := models.AuditLog{
		ID:        testAuditID,
		UserID:    &userID,
		UserEmail: "ana@lumonew.test",
		Operation: models.OperationUpdate,
		TableName: "inventory",
		RecordID:  "item-9",
		Metadata:  map[string]interface{}{"action_type": "inventory_stock_adjusted"},
		CreatedAt: time.Date(2024, 3, 10, 15, 4, 5, 0, time.UTC),
	}
	return audit.AnnotatedRecord{AuditLog: rec, Classification: audit.Classify(&rec)}
}

// --- tests ---

func TestAuditHandler_ListAuditLogs(t *testing.T) {
	t.Run("maps_query_to_criteria", func(t *testing.T) {
		var gotCriteria models.AuditFilterCriteria
		var gotLimit int
		svc := &mockQueryService{
			queryFn: func(_ context.Context, criteria models.AuditFilterCriteria, limit int) *services.QueryResult {
				gotCriteria, gotLimit = criteria, limit
				return &services.QueryResult{Records: []audit.AnnotatedRecord{sampleRecord()}, StatsSource: services.StatsFromStore}
			},
		}
		r := setupAuditRouter(NewAuditHandler(svc, &mockAuditService{}, &mockFeed{}, time.UTC))

		rec := doRequest(r, "GET", "/audit-logs?search=tornillo&category=item&status=created&date_from=2024-03-01&date_to=2024-03-10&limit=20", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotCriteria.Search != "tornillo" || gotCriteria.Category != "item" || gotCriteria.Status != "created" {
			t.Errorf("unexpected criteria %+v", gotCriteria)
		}
		if gotLimit != 20 {
			t.Errorf("expected limit 20, got %d", gotLimit)
		}
		wantEnd := time.Date(2024, 3, 10, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
		if gotCriteria.DateRange.End == nil || !gotCriteria.DateRange.End.Equal(wantEnd) {
			t.Errorf("expected end %v, got %v", wantEnd, gotCriteria.DateRange.End)
		}

		result := parseJSON(t, rec)
		records := result["records"].([]interface{})
		if len(records) != 1 {
			t.Fatalf("expected 1 record, got %d", len(records))
		}
		first := records[0].(map[string]interface{})
		if first["description"] != "Stock de inventario ajustado" {
			t.Errorf("unexpected description %v", first["description"])
		}
		if first["icon"] != string(audit.IconEdit) {
			t.Errorf("unexpected icon %v", first["icon"])
		}
	})

	t.Run("default_limit", func(t *testing.T) {
		var gotLimit int
		svc := &mockQueryService{
			queryFn: func(_ context.Context, _ models.AuditFilterCriteria, limit int) *services.QueryResult {
				gotLimit = limit
				return &services.QueryResult{Records: []audit.AnnotatedRecord{}}
			},
		}
		r := setupAuditRouter(NewAuditHandler(svc, &mockAuditService{}, &mockFeed{}, time.UTC))

		if rec := doRequest(r, "GET", "/audit-logs", ""); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotLimit != 50 {
			t.Errorf("expected limit 50, got %d", gotLimit)
		}
	})

	t.Run("failed_query_is_200_with_flag", func(t *testing.T) {
		svc := &mockQueryService{
			queryFn: func(context.Context, models.AuditFilterCriteria, int) *services.QueryResult {
				return &services.QueryResult{Records: []audit.AnnotatedRecord{}, Failed: true, StatsSource: services.StatsLocal}
			},
		}
		r := setupAuditRouter(NewAuditHandler(svc, &mockAuditService{}, &mockFeed{}, time.UTC))

		rec := doRequest(r, "GET", "/audit-logs", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if parseJSON(t, rec)["failed"] != true {
			t.Error("expected failed=true")
		}
	})

	t.Run("returns_400_for_limit_above_max", func(t *testing.T) {
		r := setupAuditRouter(NewAuditHandler(&mockQueryService{}, &mockAuditService{}, &mockFeed{}, time.UTC))
		rec := doRequest(r, "GET", "/audit-logs?limit=501", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns_400_for_inverted_range", func(t *testing.T) {
		r := setupAuditRouter(NewAuditHandler(&mockQueryService{}, &mockAuditService{}, &mockFeed{}, time.UTC))
		rec := doRequest(r, "GET", "/audit-logs?date_from=2024-03-10&date_to=2024-03-01", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_DATE_RANGE")
	})

	t.Run("same_day_range_is_valid", func(t *testing.T) {
		r := setupAuditRouter(NewAuditHandler(&mockQueryService{}, &mockAuditService{}, &mockFeed{}, time.UTC))
		rec := doRequest(r, "GET", "/audit-logs?date_from=2024-03-10&date_to=2024-03-10", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns_400_for_bad_date", func(t *testing.T) {
		r := setupAuditRouter(NewAuditHandler(&mockQueryService{}, &mockAuditService{}, &mockFeed{}, time.UTC))
		rec := doRequest(r, "GET", "/audit-logs?date_from=yesterday", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_DATE")
	})
}

func TestAuditHandler_GetAuditStats(t *testing.T) {
	t.Run("store_stats", func(t *testing.T) {
		var gotFrom, gotTo *time.Time
		svc := &mockQueryService{
			statsFn: func(_ context.Context, from, to *time.Time) *services.StatsResult {
				gotFrom, gotTo = from, to
				s := models.NewAuditStatsSummary()
				s.TotalOperations = 4
				s.ByOperation[models.OperationDelete] = 1
				s.Deletions = 1
				return &services.StatsResult{Stats: s}
			},
		}
		r := setupAuditRouter(NewAuditHandler(svc, &mockAuditService{}, &mockFeed{}, time.UTC))

		rec := doRequest(r, "GET", "/audit-logs/stats?date_from=2024-03-01T00:00:00Z", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFrom == nil || gotTo != nil {
			t.Errorf("expected from only, got from=%v to=%v", gotFrom, gotTo)
		}
		result := parseJSON(t, rec)
		stats := result["stats"].(map[string]interface{})
		if stats["total_operations"] != float64(4) || stats["deletions"] != float64(1) {
			t.Errorf("unexpected stats %v", stats)
		}
		if result["failed"] != false {
			t.Errorf("expected failed=false, got %v", result["failed"])
		}
	})

	t.Run("store_failure_is_reported", func(t *testing.T) {
		svc := &mockQueryService{
			statsFn: func(_ context.Context, from, to *time.Time) *services.StatsResult {
				return &services.StatsResult{Stats: models.NewAuditStatsSummary(), Failed: true}
			},
		}
		r := setupAuditRouter(NewAuditHandler(svc, &mockAuditService{}, &mockFeed{}, time.UTC))

		rec := doRequest(r, "GET", "/audit-logs/stats", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if result := parseJSON(t, rec); result["failed"] != true {
			t.Errorf("expected failed=true, got %v", result["failed"])
		}
	})
}

func TestAuditHandler_GetRecentActivity(t *testing.T) {
	snap := feed.Snapshot{State: feed.StateLoaded, Records: []audit.AnnotatedRecord{sampleRecord()}}

	t.Run("returns_snapshot_without_refresh", func(t *testing.T) {
		f := &mockFeed{snapshot: snap}
		r := setupAuditRouter(NewAuditHandler(&mockQueryService{}, &mockAuditService{}, f, time.UTC))

		rec := doRequest(r, "GET", "/audit-logs/recent", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if f.refreshes != 0 {
			t.Errorf("expected no refresh, got %d", f.refreshes)
		}
		result := parseJSON(t, rec)
		if result["state"] != "loaded" || len(result["records"].([]interface{})) != 1 {
			t.Errorf("unexpected snapshot %v", result)
		}
	})

	t.Run("refresh_error_still_returns_snapshot", func(t *testing.T) {
		f := &mockFeed{
			snapshot:  feed.Snapshot{State: feed.StateErrored, Records: snap.Records, LastError: "boom"},
			refreshFn: func(context.Context) error { return errors.New("boom") },
		}
		r := setupAuditRouter(NewAuditHandler(&mockQueryService{}, &mockAuditService{}, f, time.UTC))

		rec := doRequest(r, "GET", "/audit-logs/recent?refresh=true", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if f.refreshes != 1 {
			t.Errorf("expected 1 refresh, got %d", f.refreshes)
		}
		if parseJSON(t, rec)["last_error"] != "boom" {
			t.Error("expected last_error in snapshot")
		}
	})

	t.Run("stopped_feed_is_503", func(t *testing.T) {
		f := &mockFeed{refreshFn: func(context.Context) error { return feed.ErrStopped }}
		r := setupAuditRouter(NewAuditHandler(&mockQueryService{}, &mockAuditService{}, f, time.UTC))

		rec := doRequest(r, "GET", "/audit-logs/recent?refresh=1", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "FEED_NOT_RUNNING")
	})

	t.Run("no_feed_is_503", func(t *testing.T) {
		r := setupAuditRouter(NewAuditHandler(&mockQueryService{}, &mockAuditService{}, nil, time.UTC))
		rec := doRequest(r, "GET", "/audit-logs/recent", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}

func TestAuditHandler_GetAuditLog(t *testing.T) {
	t.Run("returns_record", func(t *testing.T) {
		svc := &mockQueryService{
			getFn: func(_ context.Context, id string) (*audit.AnnotatedRecord, error) {
				rec := sampleRecord()
				rec.ID = id
				return &rec, nil
			},
		}
		r := setupAuditRouter(NewAuditHandler(svc, &mockAuditService{}, &mockFeed{}, time.UTC))

		rec := doRequest(r, "GET", "/audit-logs/"+testAuditID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		log := parseJSON(t, rec)["audit_log"].(map[string]interface{})
		if log["id"] != testAuditID || log["color_class"] != "text-blue-600" {
			t.Errorf("unexpected audit log %v", log)
		}
	})

	t.Run("returns_404", func(t *testing.T) {
		r := setupAuditRouter(NewAuditHandler(&mockQueryService{}, &mockAuditService{}, &mockFeed{}, time.UTC))
		rec := doRequest(r, "GET", "/audit-logs/"+testAuditID, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "AUDIT_LOG_NOT_FOUND")
	})

	t.Run("returns_400_for_invalid_id", func(t *testing.T) {
		r := setupAuditRouter(NewAuditHandler(&mockQueryService{}, &mockAuditService{}, &mockFeed{}, time.UTC))
		rec := doRequest(r, "GET", "/audit-logs/42", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAuditHandler_ExportAuditLogs(t *testing.T) {
	t.Run("writes_csv_and_records_export", func(t *testing.T) {
		svc := &mockQueryService{
			queryFn: func(context.Context, models.AuditFilterCriteria, int) *services.QueryResult {
				return &services.QueryResult{Records: []audit.AnnotatedRecord{sampleRecord()}}
			},
		}
		recorder := &mockAuditService{}
		r := setupAuditRouter(NewAuditHandler(svc, recorder, &mockFeed{}, time.UTC))

		rec := doRequest(r, "GET", "/audit-logs/export?category=item", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
			t.Errorf("expected text/csv, got %q", ct)
		}

		rows, err := csv.NewReader(rec.Body).ReadAll()
		if err != nil {
			t.Fatalf("parsing csv: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected header + 1 row, got %d rows", len(rows))
		}
		if rows[1][0] != testAuditID || rows[1][3] != "inventory_stock_adjusted" || rows[1][7] != "ana@lumonew.test" {
			t.Errorf("unexpected row %v", rows[1])
		}

		if len(recorder.logged) != 1 {
			t.Fatalf("expected 1 export record, got %d", len(recorder.logged))
		}
		logged := recorder.logged[0]
		if logged.Operation != models.OperationExport || logged.ActionType() != ActionAuditLogsExported {
			t.Errorf("unexpected export record %+v", logged)
		}
		if logged.UserID == nil || *logged.UserID != "u-1" {
			t.Errorf("expected export attributed to u-1, got %v", logged.UserID)
		}
	})

	t.Run("store_failure_is_503", func(t *testing.T) {
		svc := &mockQueryService{
			queryFn: func(context.Context, models.AuditFilterCriteria, int) *services.QueryResult {
				return &services.QueryResult{Records: []audit.AnnotatedRecord{}, Failed: true}
			},
		}
		recorder := &mockAuditService{}
		r := setupAuditRouter(NewAuditHandler(svc, recorder, &mockFeed{}, time.UTC))

		rec := doRequest(r, "GET", "/audit-logs/export", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		if len(recorder.logged) != 0 {
			t.Error("expected no export record on failure")
		}
	})
}

func TestAuditHandler_IngestAuditLog(t *testing.T) {
	t.Run("returns_202", func(t *testing.T) {
		var got services.Entry
		recorder := &mockAuditService{
			recordFn: func(_ context.Context, entry services.Entry, _ ...services.RecordOption) (*models.AuditLog, error) {
				got = entry
				return &models.AuditLog{ID: testAuditID}, nil
			},
		}
		r := setupAuditRouter(NewAuditHandler(&mockQueryService{}, recorder, &mockFeed{}, time.UTC))

		rec := doRequest(r, "POST", "/pipeline/audit-logs",
			`{"operation":"INSERT","table_name":"inventory","record_id":"item-1","new_values":{"name":"Tornillo"},"metadata":{"action_type":"inventory_item_created"}}`)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
		}
		if parseJSON(t, rec)["id"] != testAuditID {
			t.Error("expected id in response")
		}
		if got.Operation != models.OperationInsert || got.TableName != "inventory" || got.NewValues["name"] != "Tornillo" {
			t.Errorf("unexpected entry %+v", got)
		}
	})

	tests := []struct {
		name string
		body string
	}{
		{"unknown_operation", `{"operation":"TRUNCATE","table_name":"inventory"}`},
		{"missing_table", `{"operation":"INSERT"}`},
		{"bad_table_name", `{"operation":"INSERT","table_name":"Inventory; --"}`},
		{"bad_user_id", `{"operation":"INSERT","table_name":"inventory","user_id":"nope"}`},
		{"malformed_json", `{"operation":`},
	}
	for _, tt := range tests {
		t.Run("returns_400_"+tt.name, func(t *testing.T) {
			r := setupAuditRouter(NewAuditHandler(&mockQueryService{}, &mockAuditService{}, &mockFeed{}, time.UTC))
			rec := doRequest(r, "POST", "/pipeline/audit-logs", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}

	t.Run("store_failure_is_503", func(t *testing.T) {
		recorder := &mockAuditService{
			recordFn: func(context.Context, services.Entry, ...services.RecordOption) (*models.AuditLog, error) {
				return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, errors.New("down"))
			},
		}
		r := setupAuditRouter(NewAuditHandler(&mockQueryService{}, recorder, &mockFeed{}, time.UTC))
		rec := doRequest(r, "POST", "/pipeline/audit-logs", `{"operation":"DELETE","table_name":"inventory"}`)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}
