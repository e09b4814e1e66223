package store

import (
	"context"
	"time"

	"github.com/atelierhq/atelier/internal/types"
)

// Store defines the interface contract for all portal storage operations.
// The aggregation packages (feed, action, billing, health) consume this
// interface so they can be tested against fakes.
type Store interface {
	// Companies and profiles.
	CreateCompany(ctx context.Context, c types.Company) (*types.Company, error)
	GetCompany(ctx context.Context, id string) (*types.Company, error)
	CompanyByToken(ctx context.Context, token string) (*types.Company, error)
	ListCompanies(ctx context.Context) ([]types.Company, error)
	RotateCompanyToken(ctx context.Context, id string) (string, error)
	CreateProfile(ctx context.Context, p types.Profile) (*types.Profile, error)
	ProfileNames(ctx context.Context, ids []string) (map[string]string, error)

	// Projects.
	CreateProject(ctx context.Context, p types.Project) (*types.Project, error)
	GetProject(ctx context.Context, id string) (*types.Project, error)
	ProjectsByID(ctx context.Context, ids []string) (map[string]types.Project, error)
	BlockedProjects(ctx context.Context, companyID string) ([]types.Project, error)
	CompletedProjects(ctx context.Context, companyID string, since time.Time) ([]types.Project, error)

	// Updates and deliverables.
	CreateUpdate(ctx context.Context, u types.Update) (*types.Update, error)
	CompanyUpdates(ctx context.Context, companyID string, since time.Time) ([]types.Update, error)
	ChangeRequests(ctx context.Context, companyID string) ([]types.Update, error)
	PendingDeliverables(ctx context.Context, companyID string) ([]types.Update, error)
	ApprovedDeliverables(ctx context.Context, companyID string, since time.Time) ([]types.Update, error)
	ProjectUpdates(ctx context.Context, projectID string) ([]types.Update, error)

	// Tasks.
	CreateTask(ctx context.Context, t types.Task) (*types.Task, error)
	CompletedTasks(ctx context.Context, companyID string, since time.Time) ([]types.Task, error)
	ProjectTasks(ctx context.Context, projectID string) ([]types.Task, error)

	// Files and flags.
	CreateFile(ctx context.Context, f types.File) (*types.File, error)
	GetFile(ctx context.Context, id string) (*types.File, error)
	FilesSince(ctx context.Context, companyID string, since time.Time) ([]types.File, error)
	CreateFileFlag(ctx context.Context, f types.FileFlag) (*types.FileFlag, error)
	FileFlagsSince(ctx context.Context, companyID string, since time.Time) ([]types.FileFlag, error)
	UnresolvedFileFlags(ctx context.Context, companyID string, flaggedFor types.Role) ([]types.FileFlag, error)
	FileMeta(ctx context.Context, ids []string) (map[string]types.File, error)

	// Time entries.
	CreateTimeEntry(ctx context.Context, e types.TimeEntry) (*types.TimeEntry, error)
	TimeEntriesSince(ctx context.Context, companyID string, since time.Time) ([]types.TimeEntry, error)
	TimeEntriesBetween(ctx context.Context, companyID string, from, to time.Time) ([]types.TimeEntry, error)

	// Credentials and notes.
	CreateCredential(ctx context.Context, c types.Credential) (*types.Credential, error)
	CredentialsSince(ctx context.Context, companyID string, since time.Time) ([]types.Credential, error)
	CreateNote(ctx context.Context, n types.Note) (*types.Note, error)
	NotesSince(ctx context.Context, companyID string, since time.Time) ([]types.Note, error)

	// Billing period statuses.
	EnsureBillingStatus(ctx context.Context, s types.BillingPeriodStatus) error
	GetBillingStatus(ctx context.Context, companyID, periodKey string) (*types.BillingPeriodStatus, error)
	ListBillingStatuses(ctx context.Context, companyID string) (map[string]types.BillingPeriodStatus, error)
	UpdateBillingStatus(ctx context.Context, companyID, periodKey string, status types.BillingStatus) error

	GetStats(ctx context.Context) (*types.StoreStats, error)
	Close() error
}
