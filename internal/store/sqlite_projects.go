package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atelierhq/atelier/internal/types"
	"github.com/oklog/ulid/v2"
)

const projectColumns = `id, company_id, name, status, priority, is_blocked, blocked_reason, created_at, updated_at, completed_at`

func scanProject(scanner interface{ Scan(...any) error }) (*types.Project, error) {
	var p types.Project
	var priority, createdAt, updatedAt string
	var blockedReason, completedAt sql.NullString
	var isBlocked int

	err := scanner.Scan(&p.ID, &p.CompanyID, &p.Name, &p.Status, &priority,
		&isBlocked, &blockedReason, &createdAt, &updatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	p.Priority = types.Priority(priority)
	p.IsBlocked = isBlocked != 0
	p.BlockedReason = blockedReason.String
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	p.CompletedAt = parseTimePtr(completedAt)
	return &p, nil
}

// CreateProject inserts a new project.
func (s *SQLiteStore) CreateProject(ctx context.Context, p types.Project) (*types.Project, error) {
	now := time.Now().UTC()
	p.ID = ulid.Make().String()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	if p.Status == "" {
		p.Status = "active"
	}
	if p.Priority == "" {
		p.Priority = types.PriorityNormal
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, company_id, name, status, priority, is_blocked, blocked_reason, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.CompanyID, p.Name, p.Status, string(p.Priority), boolToInt(p.IsBlocked),
		nullableString(p.BlockedReason), formatTime(p.CreatedAt), formatTime(p.UpdatedAt), formatTimePtr(p.CompletedAt))
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}

	return &p, nil
}

// GetProject retrieves a project by ID.
func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*types.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)

	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	return p, nil
}

// ProjectsByID resolves project IDs to full project rows in one batched query.
// Unknown IDs are simply absent from the result map.
func (s *SQLiteStore) ProjectsByID(ctx context.Context, ids []string) (map[string]types.Project, error) {
	projects := make(map[string]types.Project, len(ids))
	if len(ids) == 0 {
		return projects, nil
	}

	query := `SELECT ` + projectColumns + ` FROM projects WHERE id IN (` + idPlaceholders(len(ids)) + `)`
	rows, err := s.db.QueryContext(ctx, query, idArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects[p.ID] = *p
	}
	return projects, rows.Err()
}

// BlockedProjects returns blocked projects, optionally scoped to a company.
// An empty companyID returns blocked projects across all companies.
func (s *SQLiteStore) BlockedProjects(ctx context.Context, companyID string) ([]types.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE is_blocked = 1`
	args := []any{}
	if companyID != "" {
		query += ` AND company_id = ?`
		args = append(args, companyID)
	}
	query += ` ORDER BY updated_at DESC`

	return s.queryProjects(ctx, query, args...)
}

// CompletedProjects returns projects completed at or after the cutoff.
func (s *SQLiteStore) CompletedProjects(ctx context.Context, companyID string, since time.Time) ([]types.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects
		WHERE company_id = ? AND completed_at IS NOT NULL AND completed_at >= ?
		ORDER BY completed_at DESC`
	return s.queryProjects(ctx, query, companyID, formatTime(since))
}

func (s *SQLiteStore) queryProjects(ctx context.Context, query string, args ...any) ([]types.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []types.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

const updateColumns = `id, project_id, author_id, title, body, is_deliverable, is_draft, is_approved, change_request_text, created_at, updated_at`

func scanUpdate(scanner interface{ Scan(...any) error }) (*types.Update, error) {
	var u types.Update
	var authorID, changeRequest sql.NullString
	var isApproved sql.NullInt64
	var isDeliverable, isDraft int
	var createdAt, updatedAt string

	err := scanner.Scan(&u.ID, &u.ProjectID, &authorID, &u.Title, &u.Body,
		&isDeliverable, &isDraft, &isApproved, &changeRequest, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	u.AuthorID = authorID.String
	u.IsDeliverable = isDeliverable != 0
	u.IsDraft = isDraft != 0
	if isApproved.Valid {
		approved := isApproved.Int64 != 0
		u.IsApproved = &approved
	}
	u.ChangeRequestText = changeRequest.String
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return &u, nil
}

// CreateUpdate inserts a new project update.
func (s *SQLiteStore) CreateUpdate(ctx context.Context, u types.Update) (*types.Update, error) {
	now := time.Now().UTC()
	u.ID = ulid.Make().String()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO updates (id, project_id, author_id, title, body, is_deliverable, is_draft, is_approved, change_request_text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.ProjectID, nullableString(u.AuthorID), u.Title, u.Body,
		boolToInt(u.IsDeliverable), boolToInt(u.IsDraft), nullableBool(u.IsApproved),
		nullableString(u.ChangeRequestText), formatTime(u.CreatedAt), formatTime(u.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert update: %w", err)
	}

	return &u, nil
}

// CompanyUpdates returns plain (non-deliverable, non-draft) updates across a
// company's projects since the cutoff.
func (s *SQLiteStore) CompanyUpdates(ctx context.Context, companyID string, since time.Time) ([]types.Update, error) {
	query := `SELECT ` + updateCols("u") + ` FROM updates u
		JOIN projects p ON p.id = u.project_id
		WHERE p.company_id = ? AND u.is_deliverable = 0 AND u.is_draft = 0 AND u.created_at >= ?
		ORDER BY u.created_at DESC`
	return s.queryUpdates(ctx, query, companyID, formatTime(since))
}

// ChangeRequests returns non-draft deliverables rejected with change request
// text, optionally scoped to a company. These remain "unresolved" until the
// deliverable is re-approved or re-decided.
func (s *SQLiteStore) ChangeRequests(ctx context.Context, companyID string) ([]types.Update, error) {
	query := `SELECT ` + updateCols("u") + ` FROM updates u
		JOIN projects p ON p.id = u.project_id
		WHERE u.is_deliverable = 1 AND u.is_approved = 0 AND u.change_request_text IS NOT NULL AND u.is_draft = 0`
	args := []any{}
	if companyID != "" {
		query += ` AND p.company_id = ?`
		args = append(args, companyID)
	}
	query += ` ORDER BY u.created_at DESC`
	return s.queryUpdates(ctx, query, args...)
}

// PendingDeliverables returns non-draft deliverables awaiting a first client
// decision (is_approved IS NULL), optionally scoped to a company.
func (s *SQLiteStore) PendingDeliverables(ctx context.Context, companyID string) ([]types.Update, error) {
	query := `SELECT ` + updateCols("u") + ` FROM updates u
		JOIN projects p ON p.id = u.project_id
		WHERE u.is_deliverable = 1 AND u.is_draft = 0 AND u.is_approved IS NULL`
	args := []any{}
	if companyID != "" {
		query += ` AND p.company_id = ?`
		args = append(args, companyID)
	}
	query += ` ORDER BY u.created_at DESC`
	return s.queryUpdates(ctx, query, args...)
}

// ApprovedDeliverables returns deliverables approved at or after the cutoff.
func (s *SQLiteStore) ApprovedDeliverables(ctx context.Context, companyID string, since time.Time) ([]types.Update, error) {
	query := `SELECT ` + updateCols("u") + ` FROM updates u
		JOIN projects p ON p.id = u.project_id
		WHERE p.company_id = ? AND u.is_approved = 1 AND u.updated_at >= ?
		ORDER BY u.updated_at DESC`
	return s.queryUpdates(ctx, query, companyID, formatTime(since))
}

// ProjectUpdates returns all updates for one project, newest first.
func (s *SQLiteStore) ProjectUpdates(ctx context.Context, projectID string) ([]types.Update, error) {
	query := `SELECT ` + updateColumns + ` FROM updates WHERE project_id = ? ORDER BY created_at DESC`
	return s.queryUpdates(ctx, query, projectID)
}

func (s *SQLiteStore) queryUpdates(ctx context.Context, query string, args ...any) ([]types.Update, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query updates: %w", err)
	}
	defer rows.Close()

	var updates []types.Update
	for rows.Next() {
		u, err := scanUpdate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan update: %w", err)
		}
		updates = append(updates, *u)
	}
	return updates, rows.Err()
}

// updateCols prefixes the update column list with a table alias.
func updateCols(alias string) string {
	return alias + `.id, ` + alias + `.project_id, ` + alias + `.author_id, ` + alias + `.title, ` + alias + `.body, ` +
		alias + `.is_deliverable, ` + alias + `.is_draft, ` + alias + `.is_approved, ` +
		alias + `.change_request_text, ` + alias + `.created_at, ` + alias + `.updated_at`
}

const taskColumns = `id, project_id, author_id, title, status, completed_at, created_at, updated_at`

func scanTask(scanner interface{ Scan(...any) error }) (*types.Task, error) {
	var t types.Task
	var authorID, completedAt sql.NullString
	var createdAt, updatedAt string

	err := scanner.Scan(&t.ID, &t.ProjectID, &authorID, &t.Title, &t.Status,
		&completedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.AuthorID = authorID.String
	t.CompletedAt = parseTimePtr(completedAt)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

// CreateTask inserts a new task.
func (s *SQLiteStore) CreateTask(ctx context.Context, t types.Task) (*types.Task, error) {
	now := time.Now().UTC()
	t.ID = ulid.Make().String()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	if t.Status == "" {
		t.Status = "todo"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, author_id, title, status, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.ProjectID, nullableString(t.AuthorID), t.Title, t.Status,
		formatTimePtr(t.CompletedAt), formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	return &t, nil
}

// CompletedTasks returns a company's tasks completed at or after the cutoff.
func (s *SQLiteStore) CompletedTasks(ctx context.Context, companyID string, since time.Time) ([]types.Task, error) {
	query := `SELECT t.id, t.project_id, t.author_id, t.title, t.status, t.completed_at, t.created_at, t.updated_at
		FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE p.company_id = ? AND t.completed_at IS NOT NULL AND t.completed_at >= ?
		ORDER BY t.completed_at DESC`
	return s.queryTasks(ctx, query, companyID, formatTime(since))
}

// ProjectTasks returns all tasks for one project.
func (s *SQLiteStore) ProjectTasks(ctx context.Context, projectID string) ([]types.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ? ORDER BY created_at`
	return s.queryTasks(ctx, query, projectID)
}

func (s *SQLiteStore) queryTasks(ctx context.Context, query string, args ...any) ([]types.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []types.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
