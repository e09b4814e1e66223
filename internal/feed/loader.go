package feed

import (
	"context"

	"github.com/atelierhq/atelier/internal/types"
)

// lookups carries the batched cross-source joins: id → display data for
// every entity kind the normalizers reference.
type lookups struct {
	profiles map[string]string
	projects map[string]types.Project
	files    map[string]types.File
}

// loadLookups collects every distinct author, project, and file ID across
// the fetched rows and resolves each entity kind with one batched query.
// This is the N+1 avoidance contract: at most three lookup queries per
// aggregation pass, regardless of row counts.
//
// A failing lookup degrades to placeholder labels rather than aborting.
func (a *Aggregator) loadLookups(ctx context.Context, raw *rawRows) (lookups, []SourceFailure) {
	authors := newIDSet()
	projects := newIDSet()
	files := newIDSet()

	for _, u := range raw.companyUpdates {
		authors.add(u.AuthorID)
		projects.add(u.ProjectID)
	}
	for _, u := range raw.changeRequests {
		authors.add(u.AuthorID)
		projects.add(u.ProjectID)
	}
	for _, f := range raw.fileFlags {
		authors.add(f.AuthorID)
		files.add(f.FileID)
	}
	for _, u := range raw.pendingDelivs {
		authors.add(u.AuthorID)
		projects.add(u.ProjectID)
	}
	for _, u := range raw.approvedDelivs {
		authors.add(u.AuthorID)
		projects.add(u.ProjectID)
	}
	for _, t := range raw.completedTasks {
		authors.add(t.AuthorID)
		projects.add(t.ProjectID)
	}
	for _, e := range raw.timeEntries {
		authors.add(e.AuthorID)
		projects.add(e.ProjectID)
	}
	for _, f := range raw.files {
		authors.add(f.UploaderID)
		projects.add(f.ProjectID)
	}
	for _, n := range raw.notes {
		authors.add(n.AuthorID)
	}

	lk := lookups{
		profiles: map[string]string{},
		projects: map[string]types.Project{},
		files:    map[string]types.File{},
	}
	var failures []SourceFailure

	if profiles, err := a.store.ProfileNames(ctx, authors.values()); err != nil {
		failures = append(failures, SourceFailure{Source: "profile_lookup", Err: err.Error()})
	} else {
		lk.profiles = profiles
	}

	if projectRows, err := a.store.ProjectsByID(ctx, projects.values()); err != nil {
		failures = append(failures, SourceFailure{Source: "project_lookup", Err: err.Error()})
	} else {
		lk.projects = projectRows
	}

	if fileRows, err := a.store.FileMeta(ctx, files.values()); err != nil {
		failures = append(failures, SourceFailure{Source: "file_lookup", Err: err.Error()})
	} else {
		lk.files = fileRows
	}

	return lk, failures
}

// idSet is an insertion-ordered set of non-empty IDs.
type idSet struct {
	seen map[string]bool
	ids  []string
}

func newIDSet() *idSet {
	return &idSet{seen: map[string]bool{}}
}

func (s *idSet) add(id string) {
	if id == "" || s.seen[id] {
		return
	}
	s.seen[id] = true
	s.ids = append(s.ids, id)
}

func (s *idSet) values() []string {
	return s.ids
}
