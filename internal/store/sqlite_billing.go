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

const entryColumns = `id, company_id, project_id, author_id, hours, description, entry_date, created_at`

func scanTimeEntry(scanner interface{ Scan(...any) error }) (*types.TimeEntry, error) {
	var e types.TimeEntry
	var projectID, authorID sql.NullString
	var entryDate, createdAt string

	err := scanner.Scan(&e.ID, &e.CompanyID, &projectID, &authorID,
		&e.Hours, &e.Description, &entryDate, &createdAt)
	if err != nil {
		return nil, err
	}

	e.ProjectID = projectID.String
	e.AuthorID = authorID.String
	e.EntryDate = parseTime(entryDate)
	e.CreatedAt = parseTime(createdAt)
	return &e, nil
}

// CreateTimeEntry inserts a new time entry.
func (s *SQLiteStore) CreateTimeEntry(ctx context.Context, e types.TimeEntry) (*types.TimeEntry, error) {
	e.ID = ulid.Make().String()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.EntryDate.IsZero() {
		e.EntryDate = e.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO time_entries (id, company_id, project_id, author_id, hours, description, entry_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.CompanyID, nullableString(e.ProjectID), nullableString(e.AuthorID),
		e.Hours, e.Description, formatTime(e.EntryDate), formatTime(e.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert time entry: %w", err)
	}

	return &e, nil
}

// TimeEntriesSince returns a company's time entries logged at or after the
// cutoff, newest first. Used by the activity feed.
func (s *SQLiteStore) TimeEntriesSince(ctx context.Context, companyID string, since time.Time) ([]types.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries
		WHERE company_id = ? AND created_at >= ?
		ORDER BY created_at DESC`
	return s.queryTimeEntries(ctx, query, companyID, formatTime(since))
}

// TimeEntriesBetween returns a company's time entries with entry_date in
// [from, to), in stored order: entry date ascending, insertion order as the
// tie-break. The billing bucketer depends on this order for overage
// attribution and must not re-sort.
func (s *SQLiteStore) TimeEntriesBetween(ctx context.Context, companyID string, from, to time.Time) ([]types.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries
		WHERE company_id = ? AND entry_date >= ? AND entry_date < ?
		ORDER BY entry_date, id`
	return s.queryTimeEntries(ctx, query, companyID, formatTime(from), formatTime(to))
}

func (s *SQLiteStore) queryTimeEntries(ctx context.Context, query string, args ...any) ([]types.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query time entries: %w", err)
	}
	defer rows.Close()

	var entries []types.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

const billingColumns = `id, company_id, period_key, status, period_start, period_end, hours_allocated, hourly_rate, created_at, updated_at`

func scanBillingStatus(scanner interface{ Scan(...any) error }) (*types.BillingPeriodStatus, error) {
	var b types.BillingPeriodStatus
	var status, periodStart, periodEnd, createdAt, updatedAt string

	err := scanner.Scan(&b.ID, &b.CompanyID, &b.PeriodKey, &status,
		&periodStart, &periodEnd, &b.HoursAllocated, &b.HourlyRate, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	b.Status = types.BillingStatus(status)
	b.PeriodStart = parseTime(periodStart)
	b.PeriodEnd = parseTime(periodEnd)
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}

// EnsureBillingStatus upserts a billing period status row. An existing row
// for the same (company, period) is left untouched: reconciliation never
// resets a status a human has already moved.
func (s *SQLiteStore) EnsureBillingStatus(ctx context.Context, b types.BillingPeriodStatus) error {
	now := time.Now().UTC()
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	if b.Status == "" {
		b.Status = types.BillingUnderReview
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO billing_period_statuses (id, company_id, period_key, status, period_start, period_end, hours_allocated, hourly_rate, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, period_key) DO NOTHING
	`, b.ID, b.CompanyID, b.PeriodKey, string(b.Status), formatTime(b.PeriodStart), formatTime(b.PeriodEnd),
		b.HoursAllocated, b.HourlyRate, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("upsert billing status: %w", err)
	}

	return nil
}

// GetBillingStatus retrieves one period status by (company, period key).
func (s *SQLiteStore) GetBillingStatus(ctx context.Context, companyID, periodKey string) (*types.BillingPeriodStatus, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+billingColumns+` FROM billing_period_statuses WHERE company_id = ? AND period_key = ?`,
		companyID, periodKey)

	b, err := scanBillingStatus(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan billing status: %w", err)
	}
	return b, nil
}

// ListBillingStatuses returns all of a company's period statuses keyed by
// period key.
func (s *SQLiteStore) ListBillingStatuses(ctx context.Context, companyID string) (map[string]types.BillingPeriodStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+billingColumns+` FROM billing_period_statuses WHERE company_id = ?`, companyID)
	if err != nil {
		return nil, fmt.Errorf("query billing statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]types.BillingPeriodStatus)
	for rows.Next() {
		b, err := scanBillingStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan billing status: %w", err)
		}
		statuses[b.PeriodKey] = *b
	}
	return statuses, rows.Err()
}

// UpdateBillingStatus moves one period to a new workflow status. Transitions
// are free-form; any known status may follow any other.
func (s *SQLiteStore) UpdateBillingStatus(ctx context.Context, companyID, periodKey string, status types.BillingStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE billing_period_statuses
		SET status = ?, updated_at = ?
		WHERE company_id = ? AND period_key = ?
	`, string(status), formatTime(time.Now().UTC()), companyID, periodKey)
	if err != nil {
		return fmt.Errorf("update billing status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
