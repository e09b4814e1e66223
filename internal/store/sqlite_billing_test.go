package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atelierhq/atelier/internal/types"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedCompany(t *testing.T, db *SQLiteStore, slug string) *types.Company {
	t.Helper()
	company, err := db.CreateCompany(context.Background(), types.Company{Name: slug, Slug: slug})
	if err != nil {
		t.Fatal(err)
	}
	return company
}

func TestStore_TimeEntriesBetween(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	company := seedCompany(t, db, "acme")
	other := seedCompany(t, db, "rival")

	// Inserted out of date order on purpose.
	for _, e := range []types.TimeEntry{
		{CompanyID: company.ID, Hours: 3, EntryDate: day(2024, 2, 20)},
		{CompanyID: company.ID, Hours: 1, EntryDate: day(2024, 2, 5)},
		{CompanyID: company.ID, Hours: 2, EntryDate: day(2024, 2, 10)},
		{CompanyID: company.ID, Hours: 9, EntryDate: day(2024, 3, 1)}, // outside window
		{CompanyID: other.ID, Hours: 9, EntryDate: day(2024, 2, 10)},  // different company
	} {
		if _, err := db.CreateTimeEntry(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := db.TimeEntriesBetween(ctx, company.ID, day(2024, 2, 1), day(2024, 3, 1))
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries in window, got %d", len(entries))
	}
	// Date-ascending regardless of insertion order.
	if entries[0].Hours != 1 || entries[1].Hours != 2 || entries[2].Hours != 3 {
		t.Errorf("expected date-ascending order, got %v, %v, %v",
			entries[0].Hours, entries[1].Hours, entries[2].Hours)
	}
	// The window end is exclusive.
	for _, e := range entries {
		if !e.EntryDate.Before(day(2024, 3, 1)) {
			t.Errorf("entry at %v leaked past the exclusive end", e.EntryDate)
		}
	}
}

func TestStore_TimeEntriesBetweenSameDayKeepsInsertionOrder(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	company := seedCompany(t, db, "acme")

	first, err := db.CreateTimeEntry(ctx, types.TimeEntry{CompanyID: company.ID, Hours: 4, EntryDate: day(2024, 2, 10)})
	if err != nil {
		t.Fatal(err)
	}
	second, err := db.CreateTimeEntry(ctx, types.TimeEntry{CompanyID: company.ID, Hours: 5, EntryDate: day(2024, 2, 10)})
	if err != nil {
		t.Fatal(err)
	}

	entries, err := db.TimeEntriesBetween(ctx, company.ID, day(2024, 2, 1), day(2024, 3, 1))
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// ULIDs are lexically ordered by creation time, so insertion order
	// survives the same-day tie.
	if entries[0].ID != first.ID || entries[1].ID != second.ID {
		t.Errorf("expected insertion order %s, %s; got %s, %s",
			first.ID, second.ID, entries[0].ID, entries[1].ID)
	}
}

func TestStore_EnsureBillingStatusNeverResets(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	company := seedCompany(t, db, "acme")

	base := types.BillingPeriodStatus{
		CompanyID:      company.ID,
		PeriodKey:      "2024-02-01",
		Status:         types.BillingUnderReview,
		PeriodStart:    day(2024, 2, 1),
		PeriodEnd:      day(2024, 3, 1),
		HoursAllocated: 20,
		HourlyRate:     100,
	}
	if err := db.EnsureBillingStatus(ctx, base); err != nil {
		t.Fatal(err)
	}

	// A human moves the period forward.
	if err := db.UpdateBillingStatus(ctx, company.ID, "2024-02-01", types.BillingPaid); err != nil {
		t.Fatal(err)
	}

	// A later reconciliation pass with different terms must not touch it.
	changed := base
	changed.HoursAllocated = 40
	changed.HourlyRate = 200
	if err := db.EnsureBillingStatus(ctx, changed); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetBillingStatus(ctx, company.ID, "2024-02-01")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != types.BillingPaid {
		t.Errorf("reconciliation reset the status to %s", got.Status)
	}
	if got.HoursAllocated != 20 || got.HourlyRate != 100 {
		t.Errorf("reconciliation rewrote the snapshot: %+v", got)
	}
}

func TestStore_EnsureBillingStatusDefaults(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	company := seedCompany(t, db, "acme")

	err := db.EnsureBillingStatus(ctx, types.BillingPeriodStatus{
		CompanyID: company.ID,
		PeriodKey: "2024-03-01",
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := db.GetBillingStatus(ctx, company.ID, "2024-03-01")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID == "" {
		t.Error("expected generated ID")
	}
	if got.Status != types.BillingUnderReview {
		t.Errorf("expected under_review default, got %s", got.Status)
	}
}

func TestStore_ListBillingStatuses(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	acme := seedCompany(t, db, "acme")
	rival := seedCompany(t, db, "rival")

	for _, key := range []string{"2024-01-01", "2024-02-01"} {
		if err := db.EnsureBillingStatus(ctx, types.BillingPeriodStatus{
			CompanyID: acme.ID, PeriodKey: key,
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.EnsureBillingStatus(ctx, types.BillingPeriodStatus{
		CompanyID: rival.ID, PeriodKey: "2024-01-01",
	}); err != nil {
		t.Fatal(err)
	}

	statuses, err := db.ListBillingStatuses(ctx, acme.ID)
	if err != nil {
		t.Fatal(err)
	}

	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if _, ok := statuses["2024-02-01"]; !ok {
		t.Errorf("missing period key in map: %v", statuses)
	}
}

func TestStore_UpdateBillingStatusMissing(t *testing.T) {
	db := newTestStore(t)

	err := db.UpdateBillingStatus(context.Background(), "co_1", "2024-02-01", types.BillingPaid)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
