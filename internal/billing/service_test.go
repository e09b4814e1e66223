package billing

import (
	"context"
	"testing"
	"time"

	"github.com/atelierhq/atelier/internal/types"
)

// billingStore is an in-memory Store for service tests.
type billingStore struct {
	entries  []types.TimeEntry
	statuses map[string]types.BillingPeriodStatus
	ensured  []string
}

func newBillingStore(entries ...types.TimeEntry) *billingStore {
	return &billingStore{
		entries:  entries,
		statuses: make(map[string]types.BillingPeriodStatus),
	}
}

func (s *billingStore) TimeEntriesBetween(ctx context.Context, companyID string, from, to time.Time) ([]types.TimeEntry, error) {
	var out []types.TimeEntry
	for _, e := range s.entries {
		if e.CompanyID == companyID && !e.EntryDate.Before(from) && e.EntryDate.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *billingStore) EnsureBillingStatus(ctx context.Context, status types.BillingPeriodStatus) error {
	s.ensured = append(s.ensured, status.PeriodKey)
	if _, exists := s.statuses[status.PeriodKey]; exists {
		return nil // first write wins
	}
	s.statuses[status.PeriodKey] = status
	return nil
}

func (s *billingStore) ListBillingStatuses(ctx context.Context, companyID string) (map[string]types.BillingPeriodStatus, error) {
	out := make(map[string]types.BillingPeriodStatus, len(s.statuses))
	for k, v := range s.statuses {
		out[k] = v
	}
	return out, nil
}

func testCompany() types.Company {
	return types.Company{
		ID:              "co_1",
		Name:            "Acme Design Co",
		HoursAllocated:  20,
		HourlyRate:      100,
		PaymentSchedule: types.ScheduleMonthly,
		PeriodAnchor:    date(2024, 1, 1),
	}
}

func entry(id string, day time.Time, hours float64) types.TimeEntry {
	return types.TimeEntry{ID: id, CompanyID: "co_1", Hours: hours, EntryDate: day}
}

func TestService_CompanyPeriodsBucketsAndBills(t *testing.T) {
	store := newBillingStore(
		entry("e1", date(2024, 2, 3), 8),
		entry("e2", date(2024, 2, 10), 8),
		entry("e3", date(2024, 2, 20), 8),
		entry("e4", date(2024, 3, 5), 5),
	)
	svc := NewService(store)

	// "Now" is mid-April, so February and March are both closed.
	summaries, err := svc.CompanyPeriods(context.Background(), testCompany(), date(2024, 4, 10))
	if err != nil {
		t.Fatal(err)
	}

	if len(summaries) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(summaries))
	}

	feb := summaries[0]
	if feb.Breakdown.Period.Key != "2024-02-01" {
		t.Errorf("expected first period 2024-02-01, got %s", feb.Breakdown.Period.Key)
	}
	if feb.Breakdown.OverageHours != 4 {
		t.Errorf("expected February overage 4, got %v", feb.Breakdown.OverageHours)
	}
	if feb.RegularAmount != 2000 {
		t.Errorf("expected regular amount 2000, got %v", feb.RegularAmount)
	}
	if feb.OverageAmount != 4*115.0 {
		t.Errorf("expected overage amount 460, got %v", feb.OverageAmount)
	}

	mar := summaries[1]
	if mar.Breakdown.Period.Key != "2024-03-01" {
		t.Errorf("expected second period 2024-03-01, got %s", mar.Breakdown.Period.Key)
	}
	if mar.Breakdown.HasOverage() {
		t.Errorf("March should have no overage, got %v", mar.Breakdown.OverageHours)
	}
}

func TestService_CurrentPeriodExcluded(t *testing.T) {
	store := newBillingStore(
		entry("e1", date(2024, 4, 5), 3),
	)
	svc := NewService(store)

	summaries, err := svc.CompanyPeriods(context.Background(), testCompany(), date(2024, 4, 10))
	if err != nil {
		t.Fatal(err)
	}

	if len(summaries) != 0 {
		t.Errorf("in-progress period should not appear, got %d summaries", len(summaries))
	}
}

func TestService_StatusSnapshotWins(t *testing.T) {
	// A status row persisted with the old retainer terms keeps billing at
	// those terms even after the company's terms change.
	store := newBillingStore(
		entry("e1", date(2024, 2, 3), 12),
	)
	store.statuses["2024-02-01"] = types.BillingPeriodStatus{
		CompanyID:      "co_1",
		PeriodKey:      "2024-02-01",
		Status:         types.BillingPaid,
		HoursAllocated: 10,
		HourlyRate:     80,
	}
	svc := NewService(store)

	company := testCompany() // current terms: 20h at $100
	summaries, err := svc.CompanyPeriods(context.Background(), company, date(2024, 4, 10))
	if err != nil {
		t.Fatal(err)
	}

	if len(summaries) != 1 {
		t.Fatalf("expected 1 period, got %d", len(summaries))
	}
	got := summaries[0]
	if got.Status.Status != types.BillingPaid {
		t.Errorf("existing status must survive reconciliation, got %s", got.Status.Status)
	}
	if got.Breakdown.OverageHours != 2 {
		t.Errorf("expected overage 2 against snapshotted 10h allocation, got %v", got.Breakdown.OverageHours)
	}
	if got.RegularAmount != 10*80 {
		t.Errorf("expected regular amount at snapshotted $80 rate, got %v", got.RegularAmount)
	}
	if got.OverageAmount != 2*OverageRate(80) {
		t.Errorf("expected overage amount at snapshotted rate, got %v", got.OverageAmount)
	}
}

func TestService_ReconcileIsIdempotent(t *testing.T) {
	store := newBillingStore(
		entry("e1", date(2024, 2, 3), 5),
	)
	svc := NewService(store)
	company := testCompany()
	now := date(2024, 4, 10)

	if err := svc.Reconcile(context.Background(), company, now); err != nil {
		t.Fatal(err)
	}
	first := store.statuses["2024-02-01"]

	if err := svc.Reconcile(context.Background(), company, now); err != nil {
		t.Fatal(err)
	}
	second := store.statuses["2024-02-01"]

	if first != second {
		t.Errorf("repeat reconciliation changed the status row: %+v vs %+v", first, second)
	}
	if first.Status != types.BillingUnderReview {
		t.Errorf("new periods default to under_review, got %s", first.Status)
	}
}

func TestService_NoEntriesNoPeriods(t *testing.T) {
	svc := NewService(newBillingStore())

	summaries, err := svc.CompanyPeriods(context.Background(), testCompany(), date(2024, 4, 10))
	if err != nil {
		t.Fatal(err)
	}
	if summaries != nil {
		t.Errorf("expected nil summaries, got %v", summaries)
	}
}
