// Package portal is a small HTTP client for the Atelier portal API.
//
// It speaks the bearer-token protocol the server expects: a team key for
// staff tooling, or a company access token for client-scoped reads. API
// failures surface as *APIError carrying the server's problem document.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config configures a Client.
type Config struct {
	// BaseURL is the server root, e.g. "https://portal.example.com".
	BaseURL string
	// Token is the bearer credential: the team key or a company access token.
	Token string
	// HTTPClient overrides the transport. Defaults to a client with a
	// 30-second timeout.
	HTTPClient *http.Client
}

// Client calls the portal API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// APIError is a request the server rejected, decoded from its
// application/problem+json body.
type APIError struct {
	Status int
	Type   string
	Title  string
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("portal: %s (%d): %s", e.Title, e.Status, e.Detail)
	}
	return fmt.Sprintf("portal: %s (%d)", e.Title, e.Status)
}

// New creates a portal client.
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("BaseURL is required")
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		token:   config.Token,
		http:    httpClient,
	}, nil
}

// Health checks server liveness. It requires no credential.
func (c *Client) Health(ctx context.Context) (*ServerHealth, error) {
	var out ServerHealth
	if err := c.get(ctx, "/api/v1/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ActivityFeed fetches a company's activity feed, newest first.
func (c *Client) ActivityFeed(ctx context.Context, companyID string, opts FeedOptions) (*FeedResult, error) {
	q := url.Values{}
	if len(opts.Types) > 0 {
		q.Set("types", strings.Join(opts.Types, ","))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if !opts.Since.IsZero() {
		q.Set("since", opts.Since.Format(time.RFC3339))
	}

	var out FeedResult
	if err := c.get(ctx, "/api/v1/companies/"+url.PathEscape(companyID)+"/activity", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ActionItems fetches the open action items for the caller's audience.
func (c *Client) ActionItems(ctx context.Context, opts ActionItemOptions) ([]ActionItem, error) {
	q := url.Values{}
	if opts.Company != "" {
		q.Set("company", opts.Company)
	}

	var out struct {
		Items []ActionItem `json:"items"`
	}
	if err := c.get(ctx, "/api/v1/action-items", q, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// BillingPeriods fetches a company's closed billing periods, oldest first.
func (c *Client) BillingPeriods(ctx context.Context, companyID string) ([]PeriodSummary, error) {
	var out struct {
		Periods []PeriodSummary `json:"periods"`
	}
	if err := c.get(ctx, "/api/v1/companies/"+url.PathEscape(companyID)+"/billing/periods", nil, &out); err != nil {
		return nil, err
	}
	return out.Periods, nil
}

// SetBillingStatus advances a period's workflow status. Team key only.
func (c *Client) SetBillingStatus(ctx context.Context, companyID, periodKey, status string) (*PeriodStatus, error) {
	path := "/api/v1/companies/" + url.PathEscape(companyID) +
		"/billing/periods/" + url.PathEscape(periodKey) + "/status"
	body := map[string]string{"status": status}

	var out PeriodStatus
	if err := c.do(ctx, http.MethodPut, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProjectHealth fetches a project's composite health score.
func (c *Client) ProjectHealth(ctx context.Context, projectID string) (*ProjectHealth, error) {
	var out ProjectHealth
	if err := c.get(ctx, "/api/v1/projects/"+url.PathEscape(projectID)+"/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FileURL fetches a short-lived download link for a file.
func (c *Client) FileURL(ctx context.Context, fileID string) (*FileURL, error) {
	var out FileURL
	if err := c.get(ctx, "/api/v1/files/"+url.PathEscape(fileID)+"/url", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeError builds an *APIError from a non-200 response. Bodies that are
// not problem documents still yield a usable error with the HTTP status.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{
		Status: resp.StatusCode,
		Title:  http.StatusText(resp.StatusCode),
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return apiErr
	}

	var problem struct {
		Type   string `json:"type"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &problem) == nil && problem.Title != "" {
		apiErr.Type = problem.Type
		apiErr.Title = problem.Title
		apiErr.Detail = problem.Detail
	}

	return apiErr
}
