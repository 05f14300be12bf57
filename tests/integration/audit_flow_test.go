package integration

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"lumonew/internal/testutil"
)

// seed writes four records through the pipeline: an item creation, a stock
// adjustment, a category deletion and a login of ana.
func seed(t *testing.T, app *testApp, userID string) (created, deleted string) {
	t.Helper()
	created = app.ingest(t, fmt.Sprintf(`{"user_id":%q,"operation":"INSERT","table_name":"inventory","record_id":"item-1",
		"old_values":{"ignored":true},"new_values":{"name":"Tornillo"},"metadata":{"action_type":"inventory_item_created"}}`, userID))
	app.ingest(t, fmt.Sprintf(`{"user_id":%q,"operation":"UPDATE","table_name":"inventory","record_id":"item-1",
		"metadata":{"action_type":"inventory_stock_adjusted","stock_change":{"from":10,"to":7}}}`, userID))
	deleted = app.ingest(t, `{"operation":"DELETE","table_name":"categories","record_id":"cat-4","old_values":{"name":"Ferretería"}}`)
	app.ingest(t, fmt.Sprintf(`{"user_id":%q,"operation":"LOGIN","table_name":"users","record_id":%q}`, userID, userID))
	return created, deleted
}

func TestAuditTrailFlow(t *testing.T) {
	app := setupApp(t)
	ana := testutil.CreateTestUserWithEmail(t, app.DB, "ana@lumonew.test")
	tok := token(t, ana.ID, ana.Email)
	createdID, deletedID := seed(t, app, ana.ID)

	t.Run("lists_newest_first_with_classification", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/audit-logs", "", tok)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		list := records(t, result)
		if len(list) != 4 {
			t.Fatalf("expected 4 records, got %d", len(list))
		}
		if list[0]["operation"] != "LOGIN" {
			t.Errorf("expected newest LOGIN first, got %v", list[0]["operation"])
		}
		if list[2]["description"] != "Stock de inventario ajustado (10 → 7)" {
			t.Errorf("unexpected stock description %v", list[2]["description"])
		}
		if list[0]["user_email"] != "ana@lumonew.test" {
			t.Errorf("expected resolved email, got %v", list[0]["user_email"])
		}
		if result["failed"] != false || result["stats_source"] != "store" {
			t.Errorf("unexpected result flags failed=%v source=%v", result["failed"], result["stats_source"])
		}
		stats := result["stats"].(map[string]interface{})
		if stats["total_operations"] != float64(4) || stats["deletions"] != float64(1) || stats["distinct_users"] != float64(1) {
			t.Errorf("unexpected stats %v", stats)
		}
	})

	t.Run("insert_keeps_no_old_values", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/audit-logs/"+createdID, "", tok)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		log := parseJSON(t, rec)["audit_log"].(map[string]interface{})
		if old, ok := log["old_values"].(map[string]interface{}); ok && len(old) > 0 {
			t.Errorf("expected no old values on INSERT, got %v", old)
		}
		if log["description"] != "Artículo de inventario creado" || log["color_class"] != "text-green-600" {
			t.Errorf("unexpected classification %v / %v", log["description"], log["color_class"])
		}
	})

	t.Run("delete_without_user", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/audit-logs/"+deletedID, "", tok)
		log := parseJSON(t, rec)["audit_log"].(map[string]interface{})
		if log["user_id"] != nil {
			t.Errorf("expected null user_id, got %v", log["user_id"])
		}
		if log["icon"] != "trash" {
			t.Errorf("expected trash icon, got %v", log["icon"])
		}
	})

	filterTests := []struct {
		name  string
		query string
		want  int
	}{
		{"category_item", "category=item", 2},
		{"status_deleted", "status=deleted", 1},
		{"status_stock_adjusted_maps_to_update", "status=stock_adjusted", 1},
		{"search_in_metadata", "search=stock_adjusted", 1},
		{"search_case_insensitive", "search=INVENTORY", 2},
		{"user_category_matches_email", "category=user&search=ana@lumonew", 1},
		{"user_category_unknown_email", "category=user&search=nobody@", 0},
		{"today_window", "date_from=2000-01-01", 4},
		{"future_window", "date_from=2999-01-01", 0},
		{"limit", "limit=2", 2},
	}
	for _, tt := range filterTests {
		t.Run("filter_"+tt.name, func(t *testing.T) {
			rec := app.request("GET", "/api/v1/audit-logs?"+tt.query, "", tok)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if got := len(records(t, parseJSON(t, rec))); got != tt.want {
				t.Errorf("expected %d records, got %d", tt.want, got)
			}
		})
	}

	t.Run("stats_endpoint", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/audit-logs/stats", "", tok)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["failed"] != false {
			t.Errorf("expected failed=false, got %v", result["failed"])
		}
		stats := result["stats"].(map[string]interface{})
		byOp := stats["by_operation"].(map[string]interface{})
		if byOp["INSERT"] != float64(1) || byOp["LOGIN"] != float64(1) || stats["today"] != float64(4) {
			t.Errorf("unexpected stats %v", stats)
		}
	})

	t.Run("recent_refresh", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/audit-logs/recent?refresh=true", "", tok)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["state"] != "loaded" || len(records(t, result)) != 4 {
			t.Errorf("unexpected snapshot %v", result)
		}
	})

	t.Run("export_records_itself", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/audit-logs/export?category=item", "", tok)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		rows, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
		if err != nil {
			t.Fatalf("parsing csv: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected header + 2 rows, got %d", len(rows))
		}

		list := records(t, parseJSON(t, app.request("GET", "/api/v1/audit-logs?status=exported", "", tok)))
		if len(list) != 1 {
			t.Fatalf("expected 1 export record, got %d", len(list))
		}
		if list[0]["description"] != "Registros de auditoría exportados" || list[0]["user_id"] != ana.ID {
			t.Errorf("unexpected export record %v", list[0])
		}
	})
}

func TestAuditTrailAccess(t *testing.T) {
	app := setupApp(t)

	t.Run("query_requires_token", func(t *testing.T) {
		if rec := app.request("GET", "/api/v1/audit-logs", "", ""); rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("ingest_requires_key", func(t *testing.T) {
		rec := app.request("POST", "/api/v1/pipeline/audit-logs", `{"operation":"INSERT","table_name":"inventory"}`, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("records_cannot_be_modified", func(t *testing.T) {
		tok := token(t, "u-1", "x@lumonew.test")
		for _, method := range []string{"PUT", "PATCH", "DELETE"} {
			if rec := app.request(method, "/api/v1/audit-logs/any", "", tok); rec.Code != http.StatusNotFound {
				t.Errorf("%s: expected 404, got %d", method, rec.Code)
			}
		}
	})

	t.Run("inverted_range_rejected", func(t *testing.T) {
		tok := token(t, "u-1", "x@lumonew.test")
		rec := app.request("GET", "/api/v1/audit-logs?date_from=2024-03-10&date_to=2024-03-01", "", tok)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}
