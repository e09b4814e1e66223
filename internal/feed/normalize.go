package feed

import (
	"fmt"
	"strconv"

	"github.com/atelierhq/atelier/internal/types"
)

// Placeholder labels for relations that cannot be resolved. Missing data
// degrades to these rather than failing the aggregation.
const (
	unknownProject = "Unknown Project"
	unknownFile    = "Unknown File"
	unknownPerson  = "Someone"
)

// normalizeAll maps every fetched row to an ActivityItem, concatenating
// sources in canonical order so the later stable sort keeps a deterministic
// tie-break.
func normalizeAll(raw *rawRows, lk lookups) []types.ActivityItem {
	var items []types.ActivityItem

	for _, u := range raw.companyUpdates {
		project := lk.projectName(u.ProjectID)
		items = append(items, types.ActivityItem{
			ID:          itemID(types.ActivityCompanyUpdate, u.ID),
			Type:        types.ActivityCompanyUpdate,
			Title:       u.Title,
			Description: u.Body,
			AuthorName:  lk.profileName(u.AuthorID),
			ProjectID:   u.ProjectID,
			ProjectName: project,
			UpdateID:    u.ID,
			CompanyID:   lk.projectCompany(u.ProjectID),
			CreatedAt:   u.CreatedAt,
		})
	}

	for _, u := range raw.changeRequests {
		project := lk.projectName(u.ProjectID)
		items = append(items, types.ActivityItem{
			ID:          itemID(types.ActivityChangeRequest, u.ID),
			Type:        types.ActivityChangeRequest,
			Title:       fmt.Sprintf("Change request on %s", project),
			Description: u.ChangeRequestText,
			AuthorName:  lk.profileName(u.AuthorID),
			ProjectID:   u.ProjectID,
			ProjectName: project,
			UpdateID:    u.ID,
			CompanyID:   lk.projectCompany(u.ProjectID),
			CreatedAt:   u.CreatedAt,
		})
	}

	for _, f := range raw.fileFlags {
		file, name := lk.fileName(f.FileID)
		items = append(items, types.ActivityItem{
			ID:          itemID(types.ActivityFileFlag, f.ID),
			Type:        types.ActivityFileFlag,
			Title:       fmt.Sprintf("%s flagged %s", lk.profileName(f.AuthorID), name),
			Description: f.Reason,
			AuthorName:  lk.profileName(f.AuthorID),
			FileID:      f.FileID,
			FileName:    name,
			CompanyID:   file.CompanyID,
			CreatedAt:   f.CreatedAt,
		})
	}

	for _, p := range raw.blockedProjects {
		items = append(items, types.ActivityItem{
			ID:          itemID(types.ActivityProjectBlocked, p.ID),
			Type:        types.ActivityProjectBlocked,
			Title:       fmt.Sprintf("%s is blocked", p.Name),
			Description: p.BlockedReason,
			ProjectID:   p.ID,
			ProjectName: p.Name,
			CompanyID:   p.CompanyID,
			CreatedAt:   p.UpdatedAt,
		})
	}

	for _, u := range raw.pendingDelivs {
		project := lk.projectName(u.ProjectID)
		items = append(items, types.ActivityItem{
			ID:          itemID(types.ActivityDeliverablePending, u.ID),
			Type:        types.ActivityDeliverablePending,
			Title:       u.Title,
			Description: fmt.Sprintf("Deliverable on %s awaiting approval", project),
			AuthorName:  lk.profileName(u.AuthorID),
			ProjectID:   u.ProjectID,
			ProjectName: project,
			UpdateID:    u.ID,
			CompanyID:   lk.projectCompany(u.ProjectID),
			CreatedAt:   u.CreatedAt,
		})
	}

	for _, u := range raw.approvedDelivs {
		project := lk.projectName(u.ProjectID)
		items = append(items, types.ActivityItem{
			ID:          itemID(types.ActivityDeliverableApproved, u.ID),
			Type:        types.ActivityDeliverableApproved,
			Title:       u.Title,
			Description: fmt.Sprintf("Deliverable on %s approved", project),
			AuthorName:  lk.profileName(u.AuthorID),
			ProjectID:   u.ProjectID,
			ProjectName: project,
			UpdateID:    u.ID,
			CompanyID:   lk.projectCompany(u.ProjectID),
			CreatedAt:   u.UpdatedAt,
		})
	}

	for _, t := range raw.completedTasks {
		createdAt := t.UpdatedAt
		if t.CompletedAt != nil {
			createdAt = *t.CompletedAt
		}
		items = append(items, types.ActivityItem{
			ID:          itemID(types.ActivityTaskCompleted, t.ID),
			Type:        types.ActivityTaskCompleted,
			Title:       t.Title,
			Description: fmt.Sprintf("%s completed this task", lk.profileName(t.AuthorID)),
			AuthorName:  lk.profileName(t.AuthorID),
			ProjectID:   t.ProjectID,
			ProjectName: lk.projectName(t.ProjectID),
			TaskID:      t.ID,
			CompanyID:   lk.projectCompany(t.ProjectID),
			CreatedAt:   createdAt,
		})
	}

	for _, p := range raw.completedProjects {
		createdAt := p.UpdatedAt
		if p.CompletedAt != nil {
			createdAt = *p.CompletedAt
		}
		items = append(items, types.ActivityItem{
			ID:          itemID(types.ActivityProjectCompleted, p.ID),
			Type:        types.ActivityProjectCompleted,
			Title:       p.Name,
			Description: "Project completed",
			ProjectID:   p.ID,
			ProjectName: p.Name,
			CompanyID:   p.CompanyID,
			CreatedAt:   createdAt,
		})
	}

	for _, e := range raw.timeEntries {
		items = append(items, types.ActivityItem{
			ID:          itemID(types.ActivityTimeEntry, e.ID),
			Type:        types.ActivityTimeEntry,
			Title:       fmt.Sprintf("%s logged %sh", lk.profileName(e.AuthorID), formatHours(e.Hours)),
			Description: e.Description,
			AuthorName:  lk.profileName(e.AuthorID),
			ProjectID:   e.ProjectID,
			ProjectName: lk.projectNameOrEmpty(e.ProjectID),
			CompanyID:   e.CompanyID,
			CreatedAt:   e.CreatedAt,
		})
	}

	for _, f := range raw.files {
		items = append(items, types.ActivityItem{
			ID:          itemID(types.ActivityFileUpload, f.ID),
			Type:        types.ActivityFileUpload,
			Title:       fmt.Sprintf("%s uploaded %s", lk.profileName(f.UploaderID), f.Name),
			Description: f.Category,
			AuthorName:  lk.profileName(f.UploaderID),
			ProjectID:   f.ProjectID,
			ProjectName: lk.projectNameOrEmpty(f.ProjectID),
			FileID:      f.ID,
			FileName:    f.Name,
			CompanyID:   f.CompanyID,
			CreatedAt:   f.CreatedAt,
		})
	}

	for _, c := range raw.credentials {
		items = append(items, types.ActivityItem{
			ID:        itemID(types.ActivityCredentialAdded, c.ID),
			Type:      types.ActivityCredentialAdded,
			Title:     fmt.Sprintf("Credential added: %s", c.Label),
			CompanyID: c.CompanyID,
			CreatedAt: c.CreatedAt,
		})
	}

	for _, n := range raw.notes {
		items = append(items, types.ActivityItem{
			ID:          itemID(types.ActivityNoteAdded, n.ID),
			Type:        types.ActivityNoteAdded,
			Title:       fmt.Sprintf("%s added a note", lk.profileName(n.AuthorID)),
			Description: n.Body,
			AuthorName:  lk.profileName(n.AuthorID),
			CompanyID:   n.CompanyID,
			CreatedAt:   n.CreatedAt,
		})
	}

	return items
}

// itemID builds the composite feed item ID. Prefixing with the source type
// keeps rows from different tables (and the same update row surfacing under
// different types) from colliding.
func itemID(t types.ActivityType, rowID string) string {
	return string(t) + ":" + rowID
}

func (lk lookups) profileName(id string) string {
	if name, ok := lk.profiles[id]; ok && name != "" {
		return name
	}
	return unknownPerson
}

func (lk lookups) projectName(id string) string {
	if p, ok := lk.projects[id]; ok {
		return p.Name
	}
	return unknownProject
}

// projectNameOrEmpty resolves optional project relations; an entry with no
// project simply carries no project label.
func (lk lookups) projectNameOrEmpty(id string) string {
	if id == "" {
		return ""
	}
	return lk.projectName(id)
}

func (lk lookups) projectCompany(id string) string {
	if p, ok := lk.projects[id]; ok {
		return p.CompanyID
	}
	return ""
}

func (lk lookups) fileName(id string) (types.File, string) {
	if f, ok := lk.files[id]; ok {
		return f, f.Name
	}
	return types.File{}, unknownFile
}

// formatHours renders hours without trailing zeros: 8, 2.5, 0.25.
func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
