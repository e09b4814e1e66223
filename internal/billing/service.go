package billing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/atelierhq/atelier/internal/types"
)

// Store is the slice of the storage contract billing needs.
// Implemented by store.SQLiteStore.
type Store interface {
	TimeEntriesBetween(ctx context.Context, companyID string, from, to time.Time) ([]types.TimeEntry, error)
	EnsureBillingStatus(ctx context.Context, s types.BillingPeriodStatus) error
	ListBillingStatuses(ctx context.Context, companyID string) (map[string]types.BillingPeriodStatus, error)
}

// PeriodSummary pairs a period's derived breakdown with its persisted
// workflow status and the billable amounts at the company's rates.
type PeriodSummary struct {
	Breakdown     PeriodBreakdown           `json:"breakdown"`
	Status        types.BillingPeriodStatus `json:"status"`
	RegularAmount float64                   `json:"regular_amount"`
	OverageAmount float64                   `json:"overage_amount"`
}

// Service reconciles and lists billing periods for companies.
type Service struct {
	store Store
}

// NewService creates a billing service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CompanyPeriods returns every closed billing period that has time entries,
// oldest first, reconciling status rows along the way. The in-progress
// period is excluded; it is a live bucket, not a billable one.
//
// Reconciliation upserts a status row (defaulting to under_review, with the
// company's current allocation and rate snapshotted) for any closed period
// that lacks one. Existing statuses are never touched.
func (s *Service) CompanyPeriods(ctx context.Context, company types.Company, now time.Time) ([]PeriodSummary, error) {
	schedule := ScheduleFor(company)
	currentStart := schedule.PeriodAt(now).Start

	entries, err := s.store.TimeEntriesBetween(ctx, company.ID, time.Unix(0, 0).UTC(), currentStart)
	if err != nil {
		return nil, fmt.Errorf("load time entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	// Bucket entries by period start, preserving stored order within each
	// bucket. TimeEntriesBetween returns entries date-ascending, so each
	// bucket's slice is already in attribution order.
	buckets := make(map[string][]types.TimeEntry)
	periods := make(map[string]Period)
	for _, e := range entries {
		p := schedule.PeriodAt(e.EntryDate)
		buckets[p.Key] = append(buckets[p.Key], e)
		periods[p.Key] = p
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		p := periods[key]
		err := s.store.EnsureBillingStatus(ctx, types.BillingPeriodStatus{
			CompanyID:      company.ID,
			PeriodKey:      p.Key,
			Status:         types.BillingUnderReview,
			PeriodStart:    p.Start,
			PeriodEnd:      p.End,
			HoursAllocated: company.HoursAllocated,
			HourlyRate:     company.HourlyRate,
		})
		if err != nil {
			return nil, fmt.Errorf("reconcile period %s: %w", p.Key, err)
		}
	}

	statuses, err := s.store.ListBillingStatuses(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("load billing statuses: %w", err)
	}

	summaries := make([]PeriodSummary, 0, len(keys))
	for _, key := range keys {
		p := periods[key]
		status := statuses[key]

		// Bill against the allocation and rate snapshotted when the period
		// first closed, not the company's current terms.
		allocation := status.HoursAllocated
		rate := status.HourlyRate

		breakdown := ComputeBreakdown(p, buckets[key], allocation)
		summaries = append(summaries, PeriodSummary{
			Breakdown:     breakdown,
			Status:        status,
			RegularAmount: breakdown.RegularHours * rate,
			OverageAmount: breakdown.OverageHours * OverageRate(rate),
		})
	}

	return summaries, nil
}

// Reconcile ensures status rows exist for a company's closed periods without
// building summaries. Used by the background coordinator.
func (s *Service) Reconcile(ctx context.Context, company types.Company, now time.Time) error {
	_, err := s.CompanyPeriods(ctx, company, now)
	return err
}
