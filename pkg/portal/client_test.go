package portal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty BaseURL")
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(ServerHealth{Status: "healthy"})
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Health(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/api/v1/health" {
		t.Errorf("path = %q, double slash not collapsed", gotPath)
	}
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"items": []ActionItem{}})
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, Token: "tok-123"})
	if _, err := c.ActionItems(context.Background(), ActionItemOptions{}); err != nil {
		t.Fatal(err)
	}

	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestActivityFeed_QueryParams(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"types": r.URL.Query().Get("types"),
			"limit": r.URL.Query().Get("limit"),
			"since": r.URL.Query().Get("since"),
		}
		json.NewEncoder(w).Encode(FeedResult{Items: []ActivityItem{{ID: "note_added:n_1"}}})
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, Token: "tok"})
	since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	result, err := c.ActivityFeed(context.Background(), "co_1", FeedOptions{
		Types: []string{"note_added", "time_entry"},
		Limit: 25,
		Since: since,
	})
	if err != nil {
		t.Fatal(err)
	}

	if gotQuery["types"] != "note_added,time_entry" {
		t.Errorf("types = %q", gotQuery["types"])
	}
	if gotQuery["limit"] != "25" {
		t.Errorf("limit = %q", gotQuery["limit"])
	}
	if gotQuery["since"] != "2024-06-01T00:00:00Z" {
		t.Errorf("since = %q", gotQuery["since"])
	}
	if len(result.Items) != 1 || result.Items[0].ID != "note_added:n_1" {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestActivityFeed_OmitsEmptyOptions(t *testing.T) {
	var gotRawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRawQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(FeedResult{})
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, Token: "tok"})
	if _, err := c.ActivityFeed(context.Background(), "co_1", FeedOptions{}); err != nil {
		t.Fatal(err)
	}

	if gotRawQuery != "" {
		t.Errorf("zero options should send no query, got %q", gotRawQuery)
	}
}

func TestSetBillingStatus_PutsJSONBody(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(PeriodStatus{PeriodKey: "2024-02-01", Status: "paid"})
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, Token: "team-key"})
	status, err := c.SetBillingStatus(context.Background(), "co_1", "2024-02-01", "paid")
	if err != nil {
		t.Fatal(err)
	}

	if gotMethod != http.MethodPut {
		t.Errorf("method = %s", gotMethod)
	}
	if gotPath != "/api/v1/companies/co_1/billing/periods/2024-02-01/status" {
		t.Errorf("path = %q", gotPath)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q", gotContentType)
	}
	if gotBody["status"] != "paid" {
		t.Errorf("body = %v", gotBody)
	}
	if status.Status != "paid" {
		t.Errorf("response status = %q", status.Status)
	}
}

func TestClient_DecodesProblemDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"type":   "https://atelierhq.dev/errors/forbidden",
			"title":  "Forbidden",
			"detail": "You do not have access to this company",
		})
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, Token: "client-token"})
	_, err := c.BillingPeriods(context.Background(), "co_other")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusForbidden {
		t.Errorf("status = %d", apiErr.Status)
	}
	if apiErr.Title != "Forbidden" {
		t.Errorf("title = %q", apiErr.Title)
	}
	if apiErr.Detail != "You do not have access to this company" {
		t.Errorf("detail = %q", apiErr.Detail)
	}
}

func TestClient_NonProblemErrorBodyFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>upstream error</html>"))
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, Token: "tok"})
	_, err := c.Health(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Title != "Bad Gateway" {
		t.Errorf("got %+v", apiErr)
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c, _ := New(Config{BaseURL: srv.URL, Token: "tok"})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := c.Health(ctx); err == nil {
		t.Fatal("expected context deadline error")
	}
}
