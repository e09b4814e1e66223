package types

import (
	"time"
)

// ActivityType classifies a feed item by the source it came from.
// This is the canonical taxonomy; every source table maps to exactly one type.
type ActivityType string

const (
	ActivityCompanyUpdate       ActivityType = "company_update"
	ActivityChangeRequest       ActivityType = "change_request"
	ActivityFileFlag            ActivityType = "file_flag"
	ActivityProjectBlocked      ActivityType = "project_blocked"
	ActivityDeliverablePending  ActivityType = "deliverable_pending"
	ActivityDeliverableApproved ActivityType = "deliverable_approved"
	ActivityTaskCompleted       ActivityType = "task_completed"
	ActivityProjectCompleted    ActivityType = "project_completed"
	ActivityTimeEntry           ActivityType = "time_entry"
	ActivityFileUpload          ActivityType = "file_upload"
	ActivityCredentialAdded     ActivityType = "credential_added"
	ActivityNoteAdded           ActivityType = "note_added"
)

// ActivityTypes lists every valid activity type in canonical order.
var ActivityTypes = []ActivityType{
	ActivityCompanyUpdate,
	ActivityChangeRequest,
	ActivityFileFlag,
	ActivityProjectBlocked,
	ActivityDeliverablePending,
	ActivityDeliverableApproved,
	ActivityTaskCompleted,
	ActivityProjectCompleted,
	ActivityTimeEntry,
	ActivityFileUpload,
	ActivityCredentialAdded,
	ActivityNoteAdded,
}

// Valid reports whether t is a member of the canonical taxonomy.
func (t ActivityType) Valid() bool {
	for _, known := range ActivityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Role identifies which side of the portal an actor belongs to.
type Role string

const (
	RoleTeam   Role = "team"
	RoleClient Role = "client"
)

// Priority is the urgency level inherited from a project.
type Priority string

const (
	PriorityUrgent    Priority = "urgent"
	PriorityImportant Priority = "important"
	PriorityNormal    Priority = "normal"
	PriorityQueued    Priority = "queued"
)

// Rank returns the sort rank for a priority; lower sorts first.
// Unknown values rank as normal.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityImportant:
		return 1
	case PriorityQueued:
		return 3
	default:
		return 2
	}
}

// BillingStatus is the workflow state of a closed billing period.
type BillingStatus string

const (
	BillingUnderReview BillingStatus = "under_review"
	BillingInvoiceSent BillingStatus = "invoice_sent"
	BillingFollowUp    BillingStatus = "follow_up"
	BillingPaid        BillingStatus = "paid"
)

// Valid reports whether s is a known billing status.
func (s BillingStatus) Valid() bool {
	switch s {
	case BillingUnderReview, BillingInvoiceSent, BillingFollowUp, BillingPaid:
		return true
	}
	return false
}

// ScheduleKind is the cadence of a company's billing periods.
type ScheduleKind string

const (
	ScheduleWeekly   ScheduleKind = "weekly"
	ScheduleBiweekly ScheduleKind = "biweekly"
	ScheduleMonthly  ScheduleKind = "monthly"
)

// Valid reports whether k is a known schedule kind.
func (k ScheduleKind) Valid() bool {
	switch k {
	case ScheduleWeekly, ScheduleBiweekly, ScheduleMonthly:
		return true
	}
	return false
}

// Company is a client account with a retainer configuration.
type Company struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Slug            string       `json:"slug"`
	HoursAllocated  float64      `json:"hours_allocated"`
	HourlyRate      float64      `json:"hourly_rate"`
	PaymentSchedule ScheduleKind `json:"payment_schedule"`
	PeriodAnchor    time.Time    `json:"period_anchor"`
	AccessToken     string       `json:"-"`
	CreatedAt       time.Time    `json:"created_at"`
}

// Profile is a portal user, team-side or client-side.
type Profile struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id,omitempty"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Project is a unit of client work moving through campaign phases.
type Project struct {
	ID            string     `json:"id"`
	CompanyID     string     `json:"company_id"`
	Name          string     `json:"name"`
	Status        string     `json:"status"`
	Priority      Priority   `json:"priority"`
	IsBlocked     bool       `json:"is_blocked"`
	BlockedReason string     `json:"blocked_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Update is a project update; deliverables additionally carry an approval
// state. IsApproved is nil while the client has not yet decided, true once
// approved, false when a change request rejected it.
type Update struct {
	ID                string    `json:"id"`
	ProjectID         string    `json:"project_id"`
	AuthorID          string    `json:"author_id"`
	Title             string    `json:"title"`
	Body              string    `json:"body"`
	IsDeliverable     bool      `json:"is_deliverable"`
	IsDraft           bool      `json:"is_draft"`
	IsApproved        *bool     `json:"is_approved,omitempty"`
	ChangeRequestText string    `json:"change_request_text,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Task is a unit of team work attached to a project.
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	AuthorID    string     `json:"author_id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// File is an uploaded document; StorageKey addresses the object store.
type File struct {
	ID         string    `json:"id"`
	CompanyID  string    `json:"company_id"`
	ProjectID  string    `json:"project_id,omitempty"`
	UploaderID string    `json:"uploader_id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	StorageKey string    `json:"-"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}

// FileFlag marks a file as needing attention from one side of the portal.
type FileFlag struct {
	ID         string     `json:"id"`
	FileID     string     `json:"file_id"`
	AuthorID   string     `json:"author_id"`
	FlaggedFor Role       `json:"flagged_for"`
	Reason     string     `json:"reason"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TimeEntry is a logged block of billable hours.
type TimeEntry struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	ProjectID   string    `json:"project_id,omitempty"`
	AuthorID    string    `json:"author_id"`
	Hours       float64   `json:"hours"`
	Description string    `json:"description"`
	EntryDate   time.Time `json:"entry_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// Credential is a stored login for a client system. The secret is opaque to
// this service; only the label surfaces in the activity feed.
type Credential struct {
	ID               string    `json:"id"`
	CompanyID        string    `json:"company_id"`
	Label            string    `json:"label"`
	Username         string    `json:"username"`
	SecretCiphertext string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// Note is an internal team note about a client.
type Note struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityItem is a normalized feed entry synthesized from one source row.
// It is recomputed on every fetch and never persisted. ID is a composite of
// source table and row id so items from different tables cannot collide.
type ActivityItem struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	AuthorName  string       `json:"author_name,omitempty"`
	ProjectID   string       `json:"project_id,omitempty"`
	ProjectName string       `json:"project_name,omitempty"`
	FileID      string       `json:"file_id,omitempty"`
	FileName    string       `json:"file_name,omitempty"`
	TaskID      string       `json:"task_id,omitempty"`
	UpdateID    string       `json:"update_id,omitempty"`
	CompanyID   string       `json:"company_id"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ActionItem is an activity item that a specific role must act on.
type ActionItem struct {
	ActivityItem
	Priority Priority `json:"priority"`
	ForRole  Role     `json:"for_role"`
}

// BillingPeriodStatus is the persisted workflow state of one closed billing
// period, keyed by (company, period). Snapshot fields freeze the retainer
// terms that were in effect when the period closed.
type BillingPeriodStatus struct {
	ID             string        `json:"id"`
	CompanyID      string        `json:"company_id"`
	PeriodKey      string        `json:"period_key"`
	Status         BillingStatus `json:"status"`
	PeriodStart    time.Time     `json:"period_start"`
	PeriodEnd      time.Time     `json:"period_end"`
	HoursAllocated float64       `json:"hours_allocated"`
	HourlyRate     float64       `json:"hourly_rate"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// HealthLabel buckets a health score for display.
type HealthLabel string

const (
	HealthHealthy  HealthLabel = "healthy"
	HealthAtRisk   HealthLabel = "at_risk"
	HealthCritical HealthLabel = "critical"
)

// HealthScoreResult is the composite health signal for one project.
type HealthScoreResult struct {
	Score   int           `json:"score"`
	Label   HealthLabel   `json:"label"`
	Signals HealthSignals `json:"signals"`
}

// HealthSignals exposes the raw inputs that produced a score.
type HealthSignals struct {
	IsBlocked       bool    `json:"is_blocked"`
	DaysSinceUpdate float64 `json:"days_since_update"`
	TaskCompletion  float64 `json:"task_completion"`
}

// StoreStats is the aggregate row-count surface for the liveness endpoint.
type StoreStats struct {
	CompanyCount int64 `json:"company_count"`
	ProjectCount int64 `json:"project_count"`
}

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	CompanyCount int64  `json:"company_count"`
	ProjectCount int64  `json:"project_count"`
}
