package store

import (
	"context"
	"testing"
	"time"

	"github.com/atelierhq/atelier/internal/types"
)

// seedProject creates a company with one project for source-query tests.
func seedProject(t *testing.T, db *SQLiteStore) (types.Company, types.Project) {
	t.Helper()
	ctx := context.Background()

	company, err := db.CreateCompany(ctx, types.Company{Name: "Acme", Slug: "acme"})
	if err != nil {
		t.Fatal(err)
	}
	project, err := db.CreateProject(ctx, types.Project{
		CompanyID: company.ID,
		Name:      "Brand Refresh",
		Status:    "active",
	})
	if err != nil {
		t.Fatal(err)
	}
	return *company, *project
}

func boolPtr(b bool) *bool { return &b }

func TestStore_UpdateSourceQueries(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	_, project := seedProject(t, db)
	company := project.CompanyID
	since := time.Now().UTC().Add(-time.Hour)

	// A plain update, a draft, a pending deliverable, an approved
	// deliverable, and a change request.
	if _, err := db.CreateUpdate(ctx, types.Update{
		ProjectID: project.ID, Title: "Kickoff notes",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateUpdate(ctx, types.Update{
		ProjectID: project.ID, Title: "Secret draft", IsDraft: true,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateUpdate(ctx, types.Update{
		ProjectID: project.ID, Title: "Homepage mockup", IsDeliverable: true,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateUpdate(ctx, types.Update{
		ProjectID: project.ID, Title: "Logo v2", IsDeliverable: true, IsApproved: boolPtr(true),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateUpdate(ctx, types.Update{
		ProjectID: project.ID, Title: "Banner", IsDeliverable: true,
		IsApproved: boolPtr(false), ChangeRequestText: "wrong colors",
	}); err != nil {
		t.Fatal(err)
	}

	updates, err := db.CompanyUpdates(ctx, company, since)
	if err != nil {
		t.Fatal(err)
	}
	if len(updates) != 1 || updates[0].Title != "Kickoff notes" {
		t.Errorf("company updates must exclude drafts and deliverables, got %v", updates)
	}

	pending, err := db.PendingDeliverables(ctx, company)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Title != "Homepage mockup" {
		t.Errorf("pending deliverables are undecided only, got %v", pending)
	}

	approved, err := db.ApprovedDeliverables(ctx, company, since)
	if err != nil {
		t.Fatal(err)
	}
	if len(approved) != 1 || approved[0].Title != "Logo v2" {
		t.Errorf("expected one approved deliverable, got %v", approved)
	}

	crs, err := db.ChangeRequests(ctx, company)
	if err != nil {
		t.Fatal(err)
	}
	if len(crs) != 1 || crs[0].ChangeRequestText != "wrong colors" {
		t.Errorf("expected one change request, got %v", crs)
	}

	// Unscoped change requests span companies.
	all, err := db.ChangeRequests(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("unscoped query should find the change request, got %v", all)
	}
}

func TestStore_ChangeRequestsRequireDeliverable(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	_, project := seedProject(t, db)

	// A plain update can carry rejection fields (e.g. copied from a legacy
	// row) without being a deliverable; it is not a change request.
	if _, err := db.CreateUpdate(ctx, types.Update{
		ProjectID: project.ID, Title: "Status note",
		IsApproved: boolPtr(false), ChangeRequestText: "stale text",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateUpdate(ctx, types.Update{
		ProjectID: project.ID, Title: "Banner", IsDeliverable: true,
		IsApproved: boolPtr(false), ChangeRequestText: "wrong colors",
	}); err != nil {
		t.Fatal(err)
	}

	crs, err := db.ChangeRequests(ctx, project.CompanyID)
	if err != nil {
		t.Fatal(err)
	}
	if len(crs) != 1 || crs[0].Title != "Banner" {
		t.Errorf("only rejected deliverables are change requests, got %v", crs)
	}
}

func TestStore_BlockedProjects(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	company, _ := seedProject(t, db)

	if _, err := db.CreateProject(ctx, types.Project{
		CompanyID: company.ID, Name: "Rebrand", Status: "active",
		IsBlocked: true, BlockedReason: "waiting on assets",
	}); err != nil {
		t.Fatal(err)
	}

	blocked, err := db.BlockedProjects(ctx, company.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocked) != 1 || blocked[0].Name != "Rebrand" {
		t.Errorf("expected one blocked project, got %v", blocked)
	}
	if blocked[0].BlockedReason != "waiting on assets" {
		t.Errorf("expected blocked reason, got %q", blocked[0].BlockedReason)
	}
}

func TestStore_CompletedTasks(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	_, project := seedProject(t, db)
	since := time.Now().UTC().Add(-time.Hour)
	done := time.Now().UTC()

	if _, err := db.CreateTask(ctx, types.Task{
		ProjectID: project.ID, Title: "Write brief", Status: "done", CompletedAt: &done,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateTask(ctx, types.Task{
		ProjectID: project.ID, Title: "Open item", Status: "todo",
	}); err != nil {
		t.Fatal(err)
	}

	tasks, err := db.CompletedTasks(ctx, project.CompanyID, since)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Write brief" {
		t.Errorf("expected one completed task, got %v", tasks)
	}
	if tasks[0].CompletedAt == nil {
		t.Error("completed_at should round-trip")
	}
}

func TestStore_ProjectsByID(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	_, project := seedProject(t, db)

	got, err := db.ProjectsByID(ctx, []string{project.ID, "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 resolved project, got %d", len(got))
	}
	if got[project.ID].Name != "Brand Refresh" {
		t.Errorf("project mismatch: %+v", got[project.ID])
	}

	empty, err := db.ProjectsByID(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty map, got %v", empty)
	}
}

func TestStore_UnresolvedFileFlags(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	company, project := seedProject(t, db)

	file, err := db.CreateFile(ctx, types.File{
		CompanyID: company.ID, ProjectID: project.ID, Name: "contract.pdf",
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := db.CreateFileFlag(ctx, types.FileFlag{
		FileID: file.ID, FlaggedFor: types.RoleTeam, Reason: "needs countersign",
	}); err != nil {
		t.Fatal(err)
	}
	resolved := time.Now().UTC()
	if _, err := db.CreateFileFlag(ctx, types.FileFlag{
		FileID: file.ID, FlaggedFor: types.RoleTeam, Reason: "old", ResolvedAt: &resolved,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateFileFlag(ctx, types.FileFlag{
		FileID: file.ID, FlaggedFor: types.RoleClient, Reason: "please review",
	}); err != nil {
		t.Fatal(err)
	}

	teamFlags, err := db.UnresolvedFileFlags(ctx, company.ID, types.RoleTeam)
	if err != nil {
		t.Fatal(err)
	}
	if len(teamFlags) != 1 || teamFlags[0].Reason != "needs countersign" {
		t.Errorf("expected one unresolved team flag, got %v", teamFlags)
	}

	clientFlags, err := db.UnresolvedFileFlags(ctx, company.ID, types.RoleClient)
	if err != nil {
		t.Fatal(err)
	}
	if len(clientFlags) != 1 || clientFlags[0].Reason != "please review" {
		t.Errorf("expected one unresolved client flag, got %v", clientFlags)
	}
}

func TestStore_FileMeta(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	company, _ := seedProject(t, db)

	file, err := db.CreateFile(ctx, types.File{
		CompanyID: company.ID, Name: "brief.pdf", SizeBytes: 2048,
	})
	if err != nil {
		t.Fatal(err)
	}

	meta, err := db.FileMeta(ctx, []string{file.ID})
	if err != nil {
		t.Fatal(err)
	}
	got, ok := meta[file.ID]
	if !ok {
		t.Fatalf("expected file in map, got %v", meta)
	}
	if got.Name != "brief.pdf" || got.SizeBytes != 2048 {
		t.Errorf("file mismatch: %+v", got)
	}
}
