package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"lumonew/internal/audit"
	"lumonew/internal/models"
)

const restPrefix = "/rest/v1"

type restStore struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	clock      audit.Clock
}

// NewRESTStore creates an AuditStore that talks to a PostgREST-compatible
// backend-as-a-service. The get_audit_stats RPC must be installed there.
// clock decides the "today" window sent to the RPC.
func NewRESTStore(baseURL, apiKey string, httpClient *http.Client, clock audit.Clock) AuditStore {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if clock == nil {
		clock = audit.SystemClock{}
	}
	return &restStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		clock:      clock,
	}
}

// ListAuditLogs queries audit_logs with PostgREST filters and reads the exact
// total from Content-Range.
func (s *restStore) ListAuditLogs(ctx context.Context, params ListParams) (*ListResult, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc,id.desc")
	q.Set("limit", strconv.Itoa(EffectiveLimit(params.Limit)))

	userID, hasUserID := nonEmpty(params.UserID)
	if hasUserID {
		q.Set("user_id", "eq."+userID)
	}
	if v, ok := nonEmpty(params.TableName); ok {
		q.Set("table_name", "eq."+v)
	}
	if v, ok := nonEmpty(params.Operation); ok {
		q.Set("operation", "eq."+v)
	}
	if v, ok := nonEmpty(params.Search); ok {
		term := ilikeTerm(v)
		q.Set("or", fmt.Sprintf("(table_name.ilike.%s,record_id.ilike.%s,operation.ilike.%s,metadata->>action_type.ilike.%s)",
			term, term, term, term))
	}
	if v, ok := nonEmpty(params.DateFrom); ok {
		q.Add("created_at", "gte."+v)
	}
	if v, ok := nonEmpty(params.DateTo); ok {
		q.Add("created_at", "lte."+v)
	}
	if v, ok := nonEmpty(params.UserEmail); ok {
		ids, err := s.userIDsByEmail(ctx, v)
		if err != nil {
			return nil, err
		}
		switch {
		case len(ids) == 0:
			return emptyListResult(), nil
		case hasUserID:
			// Both filters apply: the exact user must also match the email.
			if !slices.Contains(ids, userID) {
				return emptyListResult(), nil
			}
		default:
			q.Set("user_id", "in.("+strings.Join(ids, ",")+")")
		}
	}

	var logs []models.AuditLog
	header, err := s.get(ctx, "/audit_logs", q, map[string]string{"Prefer": "count=exact"}, &logs)
	if err != nil {
		return nil, fmt.Errorf("listing audit logs: %w", err)
	}
	if err := s.attachEmails(ctx, logs); err != nil {
		return nil, err
	}
	return &ListResult{Data: logs, Total: parseContentRangeTotal(header.Get("Content-Range"))}, nil
}

func emptyListResult() *ListResult {
	zero := int64(0)
	return &ListResult{Data: []models.AuditLog{}, Total: &zero}
}

// GetAuditStats calls the get_audit_stats RPC. The local calendar day is
// passed explicitly so "today" does not depend on the database time zone.
func (s *restStore) GetAuditStats(ctx context.Context, dateFrom, dateTo *string) (*models.AuditStatsSummary, error) {
	dayStart, dayEnd := audit.DayBounds(s.clock.Now())
	todayFrom, todayTo := FormatTime(dayStart), FormatTime(dayEnd)
	body := map[string]*string{
		"date_from":  dateFrom,
		"date_to":    dateTo,
		"today_from": &todayFrom,
		"today_to":   &todayTo,
	}

	summary := models.NewAuditStatsSummary()
	if err := s.post(ctx, "/rpc/get_audit_stats", body, nil, &summary); err != nil {
		return nil, fmt.Errorf("fetching audit stats: %w", err)
	}
	if summary.ByOperation == nil {
		summary.ByOperation = make(map[models.Operation]int)
	}
	return &summary, nil
}

// GetRecentLogs returns the n most recent records.
func (s *restStore) GetRecentLogs(ctx context.Context, n int) ([]models.AuditLog, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc,id.desc")
	q.Set("limit", strconv.Itoa(EffectiveLimit(n)))

	var logs []models.AuditLog
	if _, err := s.get(ctx, "/audit_logs", q, nil, &logs); err != nil {
		return nil, fmt.Errorf("listing recent audit logs: %w", err)
	}
	if err := s.attachEmails(ctx, logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// GetAuditLog returns one record by ID.
func (s *restStore) GetAuditLog(ctx context.Context, id string) (*models.AuditLog, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+id)
	q.Set("limit", "1")

	var logs []models.AuditLog
	if _, err := s.get(ctx, "/audit_logs", q, nil, &logs); err != nil {
		return nil, fmt.Errorf("fetching audit log: %w", err)
	}
	if len(logs) == 0 {
		return nil, ErrNotFound
	}
	if err := s.attachEmails(ctx, logs); err != nil {
		return nil, err
	}
	return &logs[0], nil
}

// CreateAuditLog inserts a record. ID and timestamp are assigned here, as the
// gorm hook does for the database store.
func (s *restStore) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if err := entry.BeforeCreate(nil); err != nil {
		return err
	}
	headers := map[string]string{"Prefer": "return=minimal"}
	if err := s.post(ctx, "/audit_logs", entry, headers, nil); err != nil {
		return fmt.Errorf("creating audit log: %w", err)
	}
	return nil
}

func (s *restStore) userIDsByEmail(ctx context.Context, email string) ([]string, error) {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("email", "ilike."+ilikeTerm(email))

	var users []struct {
		ID string `json:"id"`
	}
	if _, err := s.get(ctx, "/users", q, nil, &users); err != nil {
		return nil, fmt.Errorf("resolving users by email: %w", err)
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (s *restStore) attachEmails(ctx context.Context, logs []models.AuditLog) error {
	var ids []string
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

	q := url.Values{}
	q.Set("select", "id,email")
	q.Set("id", "in.("+strings.Join(ids, ",")+")")

	var users []struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if _, err := s.get(ctx, "/users", q, nil, &users); err != nil {
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

func (s *restStore) get(ctx context.Context, path string, q url.Values, headers map[string]string, out any) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+restPrefix+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return s.do(req, headers, out)
}

func (s *restStore) post(ctx context.Context, path string, body any, headers map[string]string, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+restPrefix+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = s.do(req, headers, out)
	return err
}

func (s *restStore) do(req *http.Request, headers map[string]string, out any) (http.Header, error) {
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.Header, nil
}

// parseContentRangeTotal reads the total from "0-49/1234". An unknown total
// ("*") yields nil.
func parseContentRangeTotal(h string) *int64 {
	i := strings.LastIndexByte(h, '/')
	if i < 0 {
		return nil
	}
	n, err := strconv.ParseInt(h[i+1:], 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// ilikeTerm wraps a term in PostgREST wildcards, dropping characters that
// would break the filter grammar. LIKE wildcards in the term match literally.
func ilikeTerm(term string) string {
	term = strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', '*', '"':
			return -1
		}
		return r
	}, strings.TrimSpace(term))
	return "*" + likeEscaper.Replace(term) + "*"
}
