package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atelierhq/atelier/internal/action"
	"github.com/atelierhq/atelier/internal/billing"
	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/feed"
	"github.com/atelierhq/atelier/internal/health"
	"github.com/atelierhq/atelier/internal/storage"
	"github.com/atelierhq/atelier/internal/store"
	"github.com/atelierhq/atelier/internal/types"
	"github.com/atelierhq/atelier/internal/validation"
)

// Handler implements the API handlers.
type Handler struct {
	store      store.Store
	aggregator *feed.Aggregator
	deriver    *action.Deriver
	billing    *billing.Service
	files      storage.Provider
	feedCfg    config.FeedConfig
	teamKey    string
	version    string
}

// NewHandler wires the aggregation services behind the HTTP surface.
func NewHandler(s store.Store, files storage.Provider, feedCfg config.FeedConfig, teamKey, version string) *Handler {
	return &Handler{
		store:      s,
		aggregator: feed.NewAggregator(s),
		deriver:    action.NewDeriver(s),
		billing:    billing.NewService(s),
		files:      files,
		feedCfg:    feedCfg,
		teamKey:    teamKey,
		version:    version,
	}
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	resp := types.HealthResponse{
		Status:       "healthy",
		Version:      h.version,
		CompanyCount: stats.CompanyCount,
		ProjectCount: stats.ProjectCount,
	}

	writeJSON(w, resp)
}

// ActivityFeed handles GET /api/v1/companies/{companyID}/activity
func (h *Handler) ActivityFeed(w http.ResponseWriter, r *http.Request) {
	actor := MustActorFromContext(r.Context())
	companyID := chi.URLParam(r, "companyID")

	if !actor.CanAccessCompany(companyID) {
		WriteProblem(w, r, http.StatusForbidden, "Access to this company is not permitted")
		return
	}

	var c validation.Collector

	typeFilter, verr := validation.ParseActivityTypes("types", r.URL.Query().Get("types"))
	c.Add(verr)
	limit, verr := validation.ParseLimit("limit", r.URL.Query().Get("limit"))
	c.Add(verr)

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.Add(&validation.ValidationError{Field: "since", Message: "must be an RFC 3339 timestamp"})
		} else {
			since = parsed
		}
	}

	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}

	if _, err := h.store.GetCompany(r.Context(), companyID); err != nil {
		MapStoreError(w, r, err)
		return
	}

	if limit == 0 {
		limit = h.feedCfg.DefaultLimit
	}
	if since.IsZero() {
		since = time.Now().UTC().AddDate(0, 0, -h.feedCfg.LookbackDays)
	}

	result, err := h.aggregator.Feed(r.Context(), feed.Query{
		CompanyID: companyID,
		Types:     typeFilter,
		Limit:     limit,
		Since:     since,
	})
	if err != nil {
		slog.Error("feed aggregation failed", "company_id", companyID, "error", err)
		MapStoreError(w, r, err)
		return
	}

	for _, failure := range result.Failures {
		slog.Warn("feed source degraded",
			"company_id", companyID,
			"source", failure.Source,
			"error", failure.Err,
		)
	}

	writeJSON(w, result)
}

// ActionItems handles GET /api/v1/action-items
func (h *Handler) ActionItems(w http.ResponseWriter, r *http.Request) {
	actor := MustActorFromContext(r.Context())

	scope := actor.CompanyID
	if actor.Role == types.RoleTeam {
		scope = r.URL.Query().Get("company")
	}

	items, err := h.deriver.ActionItems(r.Context(), action.Actor{
		Role:      actor.Role,
		CompanyID: scope,
	})
	if err != nil {
		slog.Error("action item derivation failed", "role", actor.Role, "error", err)
		MapStoreError(w, r, err)
		return
	}

	if items == nil {
		items = []types.ActionItem{}
	}
	writeJSON(w, map[string]any{"items": items})
}

// BillingPeriods handles GET /api/v1/companies/{companyID}/billing/periods
func (h *Handler) BillingPeriods(w http.ResponseWriter, r *http.Request) {
	actor := MustActorFromContext(r.Context())
	companyID := chi.URLParam(r, "companyID")

	if !actor.CanAccessCompany(companyID) {
		WriteProblem(w, r, http.StatusForbidden, "Access to this company is not permitted")
		return
	}

	company, err := h.store.GetCompany(r.Context(), companyID)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	summaries, err := h.billing.CompanyPeriods(r.Context(), *company, time.Now().UTC())
	if err != nil {
		slog.Error("billing period listing failed", "company_id", companyID, "error", err)
		MapStoreError(w, r, err)
		return
	}

	if summaries == nil {
		summaries = []billing.PeriodSummary{}
	}
	writeJSON(w, map[string]any{"periods": summaries})
}

// billingStatusRequest is the PUT body for a status transition.
type billingStatusRequest struct {
	Status string `json:"status"`
}

// UpdateBillingStatus handles PUT /api/v1/companies/{companyID}/billing/periods/{periodKey}/status
func (h *Handler) UpdateBillingStatus(w http.ResponseWriter, r *http.Request) {
	actor := MustActorFromContext(r.Context())
	companyID := chi.URLParam(r, "companyID")
	periodKey := chi.URLParam(r, "periodKey")

	// Billing workflow is a team concern; clients see periods but do not
	// move them.
	if actor.Role != types.RoleTeam {
		WriteProblem(w, r, http.StatusForbidden, "Billing status updates require team access")
		return
	}

	var req billingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	c.Add(validation.ValidatePeriodKey("period_key", periodKey))
	c.Add(validation.ValidateBillingStatus("status", req.Status))
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}

	err := h.store.UpdateBillingStatus(r.Context(), companyID, periodKey, types.BillingStatus(req.Status))
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	status, err := h.store.GetBillingStatus(r.Context(), companyID, periodKey)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, status)
}

// ProjectHealth handles GET /api/v1/projects/{projectID}/health
func (h *Handler) ProjectHealth(w http.ResponseWriter, r *http.Request) {
	actor := MustActorFromContext(r.Context())
	projectID := chi.URLParam(r, "projectID")

	project, err := h.store.GetProject(r.Context(), projectID)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	if !actor.CanAccessCompany(project.CompanyID) {
		WriteProblem(w, r, http.StatusForbidden, "Access to this project is not permitted")
		return
	}

	updates, err := h.store.ProjectUpdates(r.Context(), projectID)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	tasks, err := h.store.ProjectTasks(r.Context(), projectID)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	result := health.Score(*project, updates, tasks, time.Now().UTC(), health.DefaultWeights)
	writeJSON(w, result)
}

// fileURLResponse is the GET /files/{fileID}/url payload.
type fileURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileURL handles GET /api/v1/files/{fileID}/url
func (h *Handler) FileURL(w http.ResponseWriter, r *http.Request) {
	actor := MustActorFromContext(r.Context())
	fileID := chi.URLParam(r, "fileID")

	file, err := h.store.GetFile(r.Context(), fileID)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	if !actor.CanAccessCompany(file.CompanyID) {
		WriteProblem(w, r, http.StatusForbidden, "Access to this file is not permitted")
		return
	}

	url, expiry, err := h.files.DownloadURL(r.Context(), *file)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, fileURLResponse{URL: url, ExpiresAt: expiry})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
