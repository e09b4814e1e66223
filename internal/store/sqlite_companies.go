package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atelierhq/atelier/internal/types"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// CreateCompany inserts a new company, assigning an ID and access token.
func (s *SQLiteStore) CreateCompany(ctx context.Context, c types.Company) (*types.Company, error) {
	now := time.Now().UTC()
	c.ID = ulid.Make().String()
	c.CreatedAt = now
	if c.AccessToken == "" {
		c.AccessToken = uuid.NewString()
	}
	if c.PaymentSchedule == "" {
		c.PaymentSchedule = types.ScheduleMonthly
	}
	if c.PeriodAnchor.IsZero() {
		c.PeriodAnchor = now.Truncate(24 * time.Hour)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, slug, hours_allocated, hourly_rate, payment_schedule, period_anchor, access_token, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Slug, c.HoursAllocated, c.HourlyRate, string(c.PaymentSchedule),
		formatTime(c.PeriodAnchor), c.AccessToken, formatTime(c.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: companies.slug") {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("insert company: %w", err)
	}

	return &c, nil
}

const companyColumns = `id, name, slug, hours_allocated, hourly_rate, payment_schedule, period_anchor, access_token, created_at`

func scanCompany(scanner interface{ Scan(...any) error }) (*types.Company, error) {
	var c types.Company
	var schedule, anchor, createdAt string

	err := scanner.Scan(&c.ID, &c.Name, &c.Slug, &c.HoursAllocated, &c.HourlyRate,
		&schedule, &anchor, &c.AccessToken, &createdAt)
	if err != nil {
		return nil, err
	}

	c.PaymentSchedule = types.ScheduleKind(schedule)
	c.PeriodAnchor = parseTime(anchor)
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

// GetCompany retrieves a company by ID.
func (s *SQLiteStore) GetCompany(ctx context.Context, id string) (*types.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = ?`, id)

	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("scan company: %w", err)
	}
	return c, nil
}

// CompanyByToken resolves a client access token to its company.
func (s *SQLiteStore) CompanyByToken(ctx context.Context, token string) (*types.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE access_token = ?`, token)

	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("scan company: %w", err)
	}
	return c, nil
}

// ListCompanies returns all companies ordered by name.
func (s *SQLiteStore) ListCompanies(ctx context.Context) ([]types.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var companies []types.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, *c)
	}
	return companies, rows.Err()
}

// RotateCompanyToken replaces a company's access token and returns the new value.
// The old token stops working immediately.
func (s *SQLiteStore) RotateCompanyToken(ctx context.Context, id string) (string, error) {
	token := uuid.NewString()
	result, err := s.db.ExecContext(ctx,
		`UPDATE companies SET access_token = ? WHERE id = ?`, token, id)
	if err != nil {
		return "", fmt.Errorf("rotate token: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return "", ErrCompanyNotFound
	}
	return token, nil
}

// CreateProfile inserts a new portal user.
func (s *SQLiteStore) CreateProfile(ctx context.Context, p types.Profile) (*types.Profile, error) {
	p.ID = ulid.Make().String()
	p.CreatedAt = time.Now().UTC()
	if p.Role == "" {
		p.Role = types.RoleClient
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, company_id, full_name, email, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, nullableString(p.CompanyID), p.FullName, p.Email, string(p.Role), formatTime(p.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}

	return &p, nil
}

// ProfileNames resolves profile IDs to display names in one batched query.
// Unknown IDs are simply absent from the result map.
func (s *SQLiteStore) ProfileNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	query := `SELECT id, full_name FROM profiles WHERE id IN (` + idPlaceholders(len(ids)) + `)`
	rows, err := s.db.QueryContext(ctx, query, idArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query profile names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan profile name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}
