package integration

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lumonew/internal/audit"
	"lumonew/internal/config"
	"lumonew/internal/feed"
	"lumonew/internal/logger"
	"lumonew/internal/middleware"
	"lumonew/internal/server"
	"lumonew/internal/services"
	"lumonew/internal/store"
	"lumonew/internal/testutil"
	"lumonew/internal/validator"
)

const (
	testJWTSecret = "integration-secret"
	testAPIKey    = "integration-key"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Feed   *feed.Feed
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test", "error")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	clock := audit.SystemClock{Location: time.UTC}

	auditStore := store.NewGormStore(db, clock)
	queryService := services.NewAuditQueryService(auditStore, clock)
	auditService := services.NewAuditService(auditStore, clock)
	recent := feed.New(queryService, feed.Config{Size: 5, Interval: time.Hour}, feed.WithClock(clock))
	t.Cleanup(recent.Stop)

	cfg := &config.Config{
		Env:          "test",
		CORSOrigins:  []string{"http://localhost:5173"},
		Location:     time.UTC,
		JWTSecret:    testJWTSecret,
		IngestAPIKey: testAPIKey,
	}
	router := server.NewRouter(cfg, server.Deps{
		Query:    queryService,
		Recorder: auditService,
		Feed:     recent,
	})

	return &testApp{DB: db, Router: router, Feed: recent}
}

// token issues an access token for userID.
func token(t *testing.T, userID, email string) string {
	t.Helper()
	tok, err := middleware.GenerateAccessToken(testJWTSecret, userID, email, "admin", time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return tok
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// ingest posts an audit record through the pipeline endpoint.
func (app *testApp) ingest(t *testing.T, body string) string {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/pipeline/audit-logs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != 202 {
		t.Fatalf("ingest failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["id"].(string)
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func records(t *testing.T, result map[string]interface{}) []map[string]interface{} {
	t.Helper()
	raw, ok := result["records"].([]interface{})
	if !ok {
		t.Fatalf("expected records array, got %v", result["records"])
	}
	out := make([]map[string]interface{}, len(raw))
	for i, r := range raw {
		out[i] = r.(map[string]interface{})
	}
	return out
}
