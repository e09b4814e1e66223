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

const fileColumns = `id, company_id, project_id, uploader_id, name, category, storage_key, size_bytes, created_at`

func scanFile(scanner interface{ Scan(...any) error }) (*types.File, error) {
	var f types.File
	var projectID, uploaderID sql.NullString
	var createdAt string

	err := scanner.Scan(&f.ID, &f.CompanyID, &projectID, &uploaderID,
		&f.Name, &f.Category, &f.StorageKey, &f.SizeBytes, &createdAt)
	if err != nil {
		return nil, err
	}

	f.ProjectID = projectID.String
	f.UploaderID = uploaderID.String
	f.CreatedAt = parseTime(createdAt)
	return &f, nil
}

// CreateFile inserts a new file row. The object itself lives in the external
// object store under StorageKey.
func (s *SQLiteStore) CreateFile(ctx context.Context, f types.File) (*types.File, error) {
	f.ID = ulid.Make().String()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	if f.Category == "" {
		f.Category = "general"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (id, company_id, project_id, uploader_id, name, category, storage_key, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.CompanyID, nullableString(f.ProjectID), nullableString(f.UploaderID),
		f.Name, f.Category, f.StorageKey, f.SizeBytes, formatTime(f.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert file: %w", err)
	}

	return &f, nil
}

// GetFile retrieves a file by ID.
func (s *SQLiteStore) GetFile(ctx context.Context, id string) (*types.File, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE id = ?`, id)

	f, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return f, nil
}

// FilesSince returns a company's files uploaded at or after the cutoff.
func (s *SQLiteStore) FilesSince(ctx context.Context, companyID string, since time.Time) ([]types.File, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE company_id = ? AND created_at >= ? ORDER BY created_at DESC`,
		companyID, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var files []types.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// FileMeta resolves file IDs to file rows in one batched query.
func (s *SQLiteStore) FileMeta(ctx context.Context, ids []string) (map[string]types.File, error) {
	files := make(map[string]types.File, len(ids))
	if len(ids) == 0 {
		return files, nil
	}

	query := `SELECT ` + fileColumns + ` FROM files WHERE id IN (` + idPlaceholders(len(ids)) + `)`
	rows, err := s.db.QueryContext(ctx, query, idArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files[f.ID] = *f
	}
	return files, rows.Err()
}

const flagColumns = `id, file_id, author_id, flagged_for, reason, resolved_at, created_at`

func scanFileFlag(scanner interface{ Scan(...any) error }) (*types.FileFlag, error) {
	var f types.FileFlag
	var authorID, resolvedAt sql.NullString
	var flaggedFor, createdAt string

	err := scanner.Scan(&f.ID, &f.FileID, &authorID, &flaggedFor, &f.Reason, &resolvedAt, &createdAt)
	if err != nil {
		return nil, err
	}

	f.AuthorID = authorID.String
	f.FlaggedFor = types.Role(flaggedFor)
	f.ResolvedAt = parseTimePtr(resolvedAt)
	f.CreatedAt = parseTime(createdAt)
	return &f, nil
}

// CreateFileFlag inserts a new file flag.
func (s *SQLiteStore) CreateFileFlag(ctx context.Context, f types.FileFlag) (*types.FileFlag, error) {
	f.ID = ulid.Make().String()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_flags (id, file_id, author_id, flagged_for, reason, resolved_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.FileID, nullableString(f.AuthorID), string(f.FlaggedFor), f.Reason,
		formatTimePtr(f.ResolvedAt), formatTime(f.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert file flag: %w", err)
	}

	return &f, nil
}

// FileFlagsSince returns a company's file flags raised at or after the cutoff,
// resolved or not. The feed reports the flag event; resolution state matters
// only to the action item path.
func (s *SQLiteStore) FileFlagsSince(ctx context.Context, companyID string, since time.Time) ([]types.FileFlag, error) {
	query := `SELECT ff.id, ff.file_id, ff.author_id, ff.flagged_for, ff.reason, ff.resolved_at, ff.created_at
		FROM file_flags ff
		JOIN files f ON f.id = ff.file_id
		WHERE f.company_id = ? AND ff.created_at >= ?
		ORDER BY ff.created_at DESC`
	return s.queryFileFlags(ctx, query, companyID, formatTime(since))
}

// UnresolvedFileFlags returns open flags for one role, optionally scoped to a
// company.
func (s *SQLiteStore) UnresolvedFileFlags(ctx context.Context, companyID string, flaggedFor types.Role) ([]types.FileFlag, error) {
	query := `SELECT ff.id, ff.file_id, ff.author_id, ff.flagged_for, ff.reason, ff.resolved_at, ff.created_at
		FROM file_flags ff
		JOIN files f ON f.id = ff.file_id
		WHERE ff.resolved_at IS NULL AND ff.flagged_for = ?`
	args := []any{string(flaggedFor)}
	if companyID != "" {
		query += ` AND f.company_id = ?`
		args = append(args, companyID)
	}
	query += ` ORDER BY ff.created_at DESC`
	return s.queryFileFlags(ctx, query, args...)
}

func (s *SQLiteStore) queryFileFlags(ctx context.Context, query string, args ...any) ([]types.FileFlag, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query file flags: %w", err)
	}
	defer rows.Close()

	var flags []types.FileFlag
	for rows.Next() {
		f, err := scanFileFlag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file flag: %w", err)
		}
		flags = append(flags, *f)
	}
	return flags, rows.Err()
}

// CreateCredential inserts a new stored credential. The secret arrives
// already encrypted; this service never sees plaintext.
func (s *SQLiteStore) CreateCredential(ctx context.Context, c types.Credential) (*types.Credential, error) {
	c.ID = ulid.Make().String()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO company_credentials (id, company_id, label, username, secret_ciphertext, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.CompanyID, c.Label, c.Username, c.SecretCiphertext, formatTime(c.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert credential: %w", err)
	}

	return &c, nil
}

// CredentialsSince returns a company's credentials added at or after the cutoff.
func (s *SQLiteStore) CredentialsSince(ctx context.Context, companyID string, since time.Time) ([]types.Credential, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, label, username, secret_ciphertext, created_at
		FROM company_credentials
		WHERE company_id = ? AND created_at >= ?
		ORDER BY created_at DESC`, companyID, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("query credentials: %w", err)
	}
	defer rows.Close()

	var creds []types.Credential
	for rows.Next() {
		var c types.Credential
		var createdAt string
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Label, &c.Username, &c.SecretCiphertext, &createdAt); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		c.CreatedAt = parseTime(createdAt)
		creds = append(creds, c)
	}
	return creds, rows.Err()
}

// CreateNote inserts a new internal note.
func (s *SQLiteStore) CreateNote(ctx context.Context, n types.Note) (*types.Note, error) {
	n.ID = ulid.Make().String()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_notes (id, company_id, author_id, body, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, n.ID, n.CompanyID, nullableString(n.AuthorID), n.Body, formatTime(n.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}

	return &n, nil
}

// NotesSince returns a company's notes written at or after the cutoff.
func (s *SQLiteStore) NotesSince(ctx context.Context, companyID string, since time.Time) ([]types.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, author_id, body, created_at
		FROM client_notes
		WHERE company_id = ? AND created_at >= ?
		ORDER BY created_at DESC`, companyID, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []types.Note
	for rows.Next() {
		var n types.Note
		var authorID sql.NullString
		var createdAt string
		if err := rows.Scan(&n.ID, &n.CompanyID, &authorID, &n.Body, &createdAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.AuthorID = authorID.String
		n.CreatedAt = parseTime(createdAt)
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
