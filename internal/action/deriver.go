// Package action derives the pending-work queue for a role: the subset of
// portal activity that a team member or client must act on, ordered by the
// owning project's priority.
package action

import (
	"context"
	"fmt"
	"sort"

	"github.com/atelierhq/atelier/internal/types"
)

// Store is the slice of the storage contract the deriver needs.
// Implemented by store.SQLiteStore.
type Store interface {
	ChangeRequests(ctx context.Context, companyID string) ([]types.Update, error)
	PendingDeliverables(ctx context.Context, companyID string) ([]types.Update, error)
	UnresolvedFileFlags(ctx context.Context, companyID string, flaggedFor types.Role) ([]types.FileFlag, error)
	BlockedProjects(ctx context.Context, companyID string) ([]types.Project, error)
	ProjectsByID(ctx context.Context, ids []string) (map[string]types.Project, error)
	FileMeta(ctx context.Context, ids []string) (map[string]types.File, error)
}

// Actor is the explicit role context for one derivation pass. CompanyID is
// required for clients and optional scoping for the team.
type Actor struct {
	Role      types.Role
	CompanyID string
}

// Deriver computes action items per role.
type Deriver struct {
	store Store
}

// NewDeriver creates a deriver over the given store.
func NewDeriver(store Store) *Deriver {
	return &Deriver{store: store}
}

// ActionItems returns everything the actor's role must act on, sorted by
// project priority rank then recency.
func (d *Deriver) ActionItems(ctx context.Context, actor Actor) ([]types.ActionItem, error) {
	switch actor.Role {
	case types.RoleTeam:
		return d.teamItems(ctx, actor.CompanyID)
	case types.RoleClient:
		// A client without a company scope can see nothing.
		if actor.CompanyID == "" {
			return []types.ActionItem{}, nil
		}
		return d.clientItems(ctx, actor.CompanyID)
	default:
		return nil, fmt.Errorf("unknown role %q", actor.Role)
	}
}

// teamItems: unresolved change requests, team-flagged files, and blocked
// projects across every company (or one, when scoped).
func (d *Deriver) teamItems(ctx context.Context, companyID string) ([]types.ActionItem, error) {
	changeRequests, err := d.store.ChangeRequests(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load change requests: %w", err)
	}
	flags, err := d.store.UnresolvedFileFlags(ctx, companyID, types.RoleTeam)
	if err != nil {
		return nil, fmt.Errorf("load file flags: %w", err)
	}
	blocked, err := d.store.BlockedProjects(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load blocked projects: %w", err)
	}

	projects, files, err := d.loadRelations(ctx, changeRequests, flags)
	if err != nil {
		return nil, err
	}
	for _, p := range blocked {
		projects[p.ID] = p
	}

	var items []types.ActionItem

	for _, u := range changeRequests {
		project, ok := projects[u.ProjectID]
		items = append(items, newItem(types.ActivityChangeRequest, types.RoleTeam, types.ActivityItem{
			ID:          itemID(types.ActivityChangeRequest, u.ID),
			Title:       fmt.Sprintf("Change request on %s", projectLabel(project, ok)),
			Description: u.ChangeRequestText,
			ProjectID:   u.ProjectID,
			ProjectName: projectLabel(project, ok),
			UpdateID:    u.ID,
			CompanyID:   project.CompanyID,
			CreatedAt:   u.CreatedAt,
		}, project.Priority))
	}

	for _, f := range flags {
		file := files[f.FileID]
		project, ok := projects[file.ProjectID]
		items = append(items, newItem(types.ActivityFileFlag, types.RoleTeam, types.ActivityItem{
			ID:          itemID(types.ActivityFileFlag, f.ID),
			Title:       fmt.Sprintf("File flagged: %s", fileLabel(file)),
			Description: f.Reason,
			FileID:      f.FileID,
			FileName:    file.Name,
			ProjectID:   file.ProjectID,
			ProjectName: projectLabelOrEmpty(project, ok),
			CompanyID:   file.CompanyID,
			CreatedAt:   f.CreatedAt,
		}, project.Priority))
	}

	for _, p := range blocked {
		items = append(items, newItem(types.ActivityProjectBlocked, types.RoleTeam, types.ActivityItem{
			ID:          itemID(types.ActivityProjectBlocked, p.ID),
			Title:       fmt.Sprintf("%s is blocked", p.Name),
			Description: p.BlockedReason,
			ProjectID:   p.ID,
			ProjectName: p.Name,
			CompanyID:   p.CompanyID,
			CreatedAt:   p.UpdatedAt,
		}, p.Priority))
	}

	sortItems(items)
	return items, nil
}

// clientItems: deliverables awaiting this company's first decision, plus
// client-flagged files. Items that cannot be tied back to the company are
// dropped rather than leaked.
func (d *Deriver) clientItems(ctx context.Context, companyID string) ([]types.ActionItem, error) {
	pending, err := d.store.PendingDeliverables(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load pending deliverables: %w", err)
	}
	flags, err := d.store.UnresolvedFileFlags(ctx, companyID, types.RoleClient)
	if err != nil {
		return nil, fmt.Errorf("load file flags: %w", err)
	}

	projects, files, err := d.loadRelations(ctx, pending, flags)
	if err != nil {
		return nil, err
	}

	var items []types.ActionItem

	for _, u := range pending {
		project, ok := projects[u.ProjectID]
		if !ok || project.CompanyID != companyID {
			continue
		}
		items = append(items, newItem(types.ActivityDeliverablePending, types.RoleClient, types.ActivityItem{
			ID:          itemID(types.ActivityDeliverablePending, u.ID),
			Title:       u.Title,
			Description: fmt.Sprintf("Deliverable on %s awaiting your approval", project.Name),
			ProjectID:   u.ProjectID,
			ProjectName: project.Name,
			UpdateID:    u.ID,
			CompanyID:   project.CompanyID,
			CreatedAt:   u.CreatedAt,
		}, project.Priority))
	}

	for _, f := range flags {
		file, ok := files[f.FileID]
		if !ok || file.CompanyID != companyID {
			continue
		}
		project, hasProject := projects[file.ProjectID]
		items = append(items, newItem(types.ActivityFileFlag, types.RoleClient, types.ActivityItem{
			ID:          itemID(types.ActivityFileFlag, f.ID),
			Title:       fmt.Sprintf("File needs your review: %s", file.Name),
			Description: f.Reason,
			FileID:      f.FileID,
			FileName:    file.Name,
			ProjectID:   file.ProjectID,
			ProjectName: projectLabelOrEmpty(project, hasProject),
			CompanyID:   file.CompanyID,
			CreatedAt:   f.CreatedAt,
		}, project.Priority))
	}

	sortItems(items)
	return items, nil
}

// loadRelations batch-resolves the projects and files referenced by updates
// and flags: one query per entity kind.
func (d *Deriver) loadRelations(ctx context.Context, updates []types.Update, flags []types.FileFlag) (map[string]types.Project, map[string]types.File, error) {
	var fileIDs []string
	seenFiles := map[string]bool{}
	for _, f := range flags {
		if !seenFiles[f.FileID] {
			seenFiles[f.FileID] = true
			fileIDs = append(fileIDs, f.FileID)
		}
	}

	files, err := d.store.FileMeta(ctx, fileIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("load files: %w", err)
	}

	var projectIDs []string
	seenProjects := map[string]bool{}
	addProject := func(id string) {
		if id != "" && !seenProjects[id] {
			seenProjects[id] = true
			projectIDs = append(projectIDs, id)
		}
	}
	for _, u := range updates {
		addProject(u.ProjectID)
	}
	for _, f := range files {
		addProject(f.ProjectID)
	}

	projects, err := d.store.ProjectsByID(ctx, projectIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("load projects: %w", err)
	}

	return projects, files, nil
}

func newItem(t types.ActivityType, role types.Role, item types.ActivityItem, priority types.Priority) types.ActionItem {
	item.Type = t
	if priority == "" {
		priority = types.PriorityNormal
	}
	return types.ActionItem{ActivityItem: item, Priority: priority, ForRole: role}
}

// sortItems orders by priority rank ascending, ties broken by recency.
func sortItems(items []types.ActionItem) {
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := items[i].Priority.Rank(), items[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func itemID(t types.ActivityType, rowID string) string {
	return string(t) + ":" + rowID
}

func projectLabel(p types.Project, ok bool) string {
	if !ok {
		return "Unknown Project"
	}
	return p.Name
}

func projectLabelOrEmpty(p types.Project, ok bool) string {
	if !ok {
		return ""
	}
	return p.Name
}

func fileLabel(f types.File) string {
	if f.Name == "" {
		return "Unknown File"
	}
	return f.Name
}
