// Package feed aggregates rows from every activity source into one
// reverse-chronological list. Sources are queried concurrently and any
// single source may fail without aborting the aggregation; callers receive
// best-effort items plus the list of sources that degraded.
package feed

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/atelierhq/atelier/internal/types"
)

// DefaultLookback is the feed window when the caller gives no cutoff.
const DefaultLookback = 90 * 24 * time.Hour

// Store is the slice of the storage contract the aggregator needs.
// Implemented by store.SQLiteStore.
type Store interface {
	CompanyUpdates(ctx context.Context, companyID string, since time.Time) ([]types.Update, error)
	ChangeRequests(ctx context.Context, companyID string) ([]types.Update, error)
	FileFlagsSince(ctx context.Context, companyID string, since time.Time) ([]types.FileFlag, error)
	BlockedProjects(ctx context.Context, companyID string) ([]types.Project, error)
	PendingDeliverables(ctx context.Context, companyID string) ([]types.Update, error)
	ApprovedDeliverables(ctx context.Context, companyID string, since time.Time) ([]types.Update, error)
	CompletedTasks(ctx context.Context, companyID string, since time.Time) ([]types.Task, error)
	CompletedProjects(ctx context.Context, companyID string, since time.Time) ([]types.Project, error)
	TimeEntriesSince(ctx context.Context, companyID string, since time.Time) ([]types.TimeEntry, error)
	FilesSince(ctx context.Context, companyID string, since time.Time) ([]types.File, error)
	CredentialsSince(ctx context.Context, companyID string, since time.Time) ([]types.Credential, error)
	NotesSince(ctx context.Context, companyID string, since time.Time) ([]types.Note, error)

	ProfileNames(ctx context.Context, ids []string) (map[string]string, error)
	ProjectsByID(ctx context.Context, ids []string) (map[string]types.Project, error)
	FileMeta(ctx context.Context, ids []string) (map[string]types.File, error)
}

// Query scopes one aggregation pass.
type Query struct {
	CompanyID string
	// Types is an inclusion filter; empty means all types.
	Types []types.ActivityType
	// Limit truncates the result; zero means no truncation.
	Limit int
	// Since is the lookback cutoff; zero applies DefaultLookback from now.
	Since time.Time
}

// SourceFailure records a source that contributed nothing because its query
// failed. The aggregation itself still succeeds.
type SourceFailure struct {
	Source string `json:"source"`
	Err    string `json:"error"`
}

// Result is the outcome of one aggregation pass.
type Result struct {
	Items    []types.ActivityItem `json:"items"`
	Failures []SourceFailure      `json:"failures,omitempty"`
}

// Aggregator fans out to every activity source and merges the results.
type Aggregator struct {
	store Store
}

// NewAggregator creates an aggregator over the given store.
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// rawRows holds each source's unnormalized rows, fetched concurrently.
type rawRows struct {
	companyUpdates    []types.Update
	changeRequests    []types.Update
	fileFlags         []types.FileFlag
	blockedProjects   []types.Project
	pendingDelivs     []types.Update
	approvedDelivs    []types.Update
	completedTasks    []types.Task
	completedProjects []types.Project
	timeEntries       []types.TimeEntry
	files             []types.File
	credentials       []types.Credential
	notes             []types.Note
}

// Feed runs one aggregation pass for q.CompanyID.
func (a *Aggregator) Feed(ctx context.Context, q Query) (*Result, error) {
	now := time.Now().UTC()
	since := q.Since
	if since.IsZero() {
		since = now.Add(-DefaultLookback)
	}

	raw, failures := a.fetchAll(ctx, q.CompanyID, since)

	lk, lookupFailures := a.loadLookups(ctx, raw)
	failures = append(failures, lookupFailures...)
	sort.Slice(failures, func(i, j int) bool { return failures[i].Source < failures[j].Source })

	items := normalizeAll(raw, lk)

	// Every row was fetched under the query's company scope; items whose
	// company could not be resolved through a relation still belong to it.
	for i := range items {
		if items[i].CompanyID == "" {
			items[i].CompanyID = q.CompanyID
		}
	}

	// Stable sort: equal timestamps keep canonical source order, then
	// row order within a source.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	if len(q.Types) > 0 {
		items = filterTypes(items, q.Types)
	}
	if q.Limit > 0 && len(items) > q.Limit {
		items = items[:q.Limit]
	}

	return &Result{Items: items, Failures: failures}, nil
}

// fetchAll issues every source query concurrently and joins the results.
// A failing source records a SourceFailure and contributes zero rows.
func (a *Aggregator) fetchAll(ctx context.Context, companyID string, since time.Time) (*rawRows, []SourceFailure) {
	raw := &rawRows{}

	type fetch struct {
		source string
		run    func() error
	}

	fetches := []fetch{
		{"company_updates", func() (err error) {
			raw.companyUpdates, err = a.store.CompanyUpdates(ctx, companyID, since)
			return
		}},
		{"change_requests", func() (err error) {
			raw.changeRequests, err = a.store.ChangeRequests(ctx, companyID)
			return
		}},
		{"file_flags", func() (err error) {
			raw.fileFlags, err = a.store.FileFlagsSince(ctx, companyID, since)
			return
		}},
		{"blocked_projects", func() (err error) {
			raw.blockedProjects, err = a.store.BlockedProjects(ctx, companyID)
			return
		}},
		{"pending_deliverables", func() (err error) {
			raw.pendingDelivs, err = a.store.PendingDeliverables(ctx, companyID)
			return
		}},
		{"approved_deliverables", func() (err error) {
			raw.approvedDelivs, err = a.store.ApprovedDeliverables(ctx, companyID, since)
			return
		}},
		{"completed_tasks", func() (err error) {
			raw.completedTasks, err = a.store.CompletedTasks(ctx, companyID, since)
			return
		}},
		{"completed_projects", func() (err error) {
			raw.completedProjects, err = a.store.CompletedProjects(ctx, companyID, since)
			return
		}},
		{"time_entries", func() (err error) {
			raw.timeEntries, err = a.store.TimeEntriesSince(ctx, companyID, since)
			return
		}},
		{"files", func() (err error) {
			raw.files, err = a.store.FilesSince(ctx, companyID, since)
			return
		}},
		{"credentials", func() (err error) {
			raw.credentials, err = a.store.CredentialsSince(ctx, companyID, since)
			return
		}},
		{"notes", func() (err error) {
			raw.notes, err = a.store.NotesSince(ctx, companyID, since)
			return
		}},
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []SourceFailure
	)

	for _, f := range fetches {
		wg.Add(1)
		go func(f fetch) {
			defer wg.Done()
			if err := f.run(); err != nil {
				mu.Lock()
				failures = append(failures, SourceFailure{Source: f.source, Err: err.Error()})
				mu.Unlock()
			}
		}(f)
	}
	wg.Wait()

	return raw, failures
}

func filterTypes(items []types.ActivityItem, include []types.ActivityType) []types.ActivityItem {
	allowed := make(map[types.ActivityType]bool, len(include))
	for _, t := range include {
		allowed[t] = true
	}

	filtered := items[:0]
	for _, item := range items {
		if allowed[item.Type] {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
