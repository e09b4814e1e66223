package portal

import "time"

// ActivityItem is one entry in a company's activity feed.
type ActivityItem struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	AuthorName  string    `json:"author_name,omitempty"`
	ProjectID   string    `json:"project_id,omitempty"`
	ProjectName string    `json:"project_name,omitempty"`
	FileID      string    `json:"file_id,omitempty"`
	FileName    string    `json:"file_name,omitempty"`
	TaskID      string    `json:"task_id,omitempty"`
	UpdateID    string    `json:"update_id,omitempty"`
	CompanyID   string    `json:"company_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// SourceFailure names a feed source that contributed nothing this pass.
type SourceFailure struct {
	Source string `json:"source"`
	Err    string `json:"error"`
}

// FeedResult is the activity feed payload. A non-empty Failures slice means
// the feed is complete except for the named sources.
type FeedResult struct {
	Items    []ActivityItem  `json:"items"`
	Failures []SourceFailure `json:"failures,omitempty"`
}

// ActionItem is an activity item that demands a response from its audience.
type ActionItem struct {
	ActivityItem
	Priority string `json:"priority"`
	ForRole  string `json:"for_role"`
}

// Period is one billing window. End is exclusive.
type Period struct {
	Key   string    `json:"key"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PeriodBreakdown splits a period's logged hours against the allocation.
type PeriodBreakdown struct {
	Period          Period   `json:"period"`
	TotalHours      float64  `json:"total_hours"`
	RegularHours    float64  `json:"regular_hours"`
	OverageHours    float64  `json:"overage_hours"`
	OverageEntryIDs []string `json:"overage_entry_ids"`
}

// PeriodStatus is the persisted workflow state of one closed billing period.
type PeriodStatus struct {
	ID             string    `json:"id"`
	CompanyID      string    `json:"company_id"`
	PeriodKey      string    `json:"period_key"`
	Status         string    `json:"status"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	HoursAllocated float64   `json:"hours_allocated"`
	HourlyRate     float64   `json:"hourly_rate"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PeriodSummary combines a period's hour breakdown with its workflow status
// and billed amounts.
type PeriodSummary struct {
	Breakdown     PeriodBreakdown `json:"breakdown"`
	Status        PeriodStatus    `json:"status"`
	RegularAmount float64         `json:"regular_amount"`
	OverageAmount float64         `json:"overage_amount"`
}

// HealthSignals exposes the raw inputs behind a project health score.
type HealthSignals struct {
	IsBlocked       bool    `json:"is_blocked"`
	DaysSinceUpdate float64 `json:"days_since_update"`
	TaskCompletion  float64 `json:"task_completion"`
}

// ProjectHealth is a project's composite health score.
type ProjectHealth struct {
	Score   int           `json:"score"`
	Label   string        `json:"label"`
	Signals HealthSignals `json:"signals"`
}

// FileURL is a short-lived download link for a stored file.
type FileURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ServerHealth is the liveness payload.
type ServerHealth struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	CompanyCount int64  `json:"company_count"`
	ProjectCount int64  `json:"project_count"`
}

// FeedOptions filters an activity feed request. Zero values are omitted and
// the server applies its defaults.
type FeedOptions struct {
	// Types restricts the feed to the named activity types.
	Types []string
	// Limit caps the number of items returned.
	Limit int
	// Since restricts the feed to items created at or after this time.
	Since time.Time
}

// ActionItemOptions scopes an action item request. Company is honored for
// team callers only; client tokens are always scoped server-side.
type ActionItemOptions struct {
	Company string
}
