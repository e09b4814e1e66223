// Package validation provides request field validation for the API layer.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atelierhq/atelier/internal/types"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateULID returns an error if the value is not a valid ULID format.
// ULIDs are 26 characters using Crockford Base32 (excludes I, L, O, U).
func ValidateULID(field, value string) *ValidationError {
	if len(value) != 26 {
		return &ValidationError{
			Field:   field,
			Message: "must be a valid ULID (26 characters)",
		}
	}

	const alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
	for _, r := range value {
		if !strings.ContainsRune(alphabet, r) {
			return &ValidationError{
				Field:   field,
				Message: "must be a valid ULID (Crockford Base32)",
			}
		}
	}
	return nil
}

// ValidateBillingStatus returns an error for unknown workflow statuses.
func ValidateBillingStatus(field, value string) *ValidationError {
	if !types.BillingStatus(value).Valid() {
		return &ValidationError{
			Field:   field,
			Message: "must be one of under_review, invoice_sent, follow_up, paid",
		}
	}
	return nil
}

// ValidatePeriodKey returns an error if the value is not a period start date.
func ValidatePeriodKey(field, value string) *ValidationError {
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return &ValidationError{
			Field:   field,
			Message: "must be a period start date (YYYY-MM-DD)",
		}
	}
	return nil
}

// ParseActivityTypes parses a comma-separated type filter, rejecting values
// outside the canonical taxonomy. An empty input yields no filter.
func ParseActivityTypes(field, value string) ([]types.ActivityType, *ValidationError) {
	if value == "" {
		return nil, nil
	}

	var parsed []types.ActivityType
	for _, part := range strings.Split(value, ",") {
		t := types.ActivityType(strings.TrimSpace(part))
		if !t.Valid() {
			return nil, &ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown activity type %q", string(t)),
			}
		}
		parsed = append(parsed, t)
	}
	return parsed, nil
}

// ParseLimit parses an optional positive result limit.
func ParseLimit(field, value string) (int, *ValidationError) {
	if value == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, &ValidationError{
			Field:   field,
			Message: "must be a positive integer",
		}
	}
	return n, nil
}
