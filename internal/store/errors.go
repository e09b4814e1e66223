package store

import "errors"

var (
	ErrNotFound        = errors.New("record not found")
	ErrCompanyNotFound = errors.New("company not found")
	ErrDuplicateSlug   = errors.New("company slug already exists")
)
