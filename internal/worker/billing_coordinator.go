package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/atelierhq/atelier/internal/types"
)

// CompanyEnumerator provides the companies the coordinator reconciles.
// This abstraction allows testing with mock stores while production uses
// the SQLite store.
type CompanyEnumerator interface {
	ListCompanies(ctx context.Context) ([]types.Company, error)
}

// Reconciler materializes billing period statuses for a single company.
// Implemented by billing.Service.
type Reconciler interface {
	Reconcile(ctx context.Context, company types.Company, now time.Time) error
}

// BillingCoordinator periodically ensures every closed billing period has a
// persisted status row, so the team sees new periods without waiting for a
// client to open the billing page.
type BillingCoordinator struct {
	companies CompanyEnumerator
	billing   Reconciler
	interval  time.Duration
}

// NewBillingCoordinator creates a coordinator that reconciles billing periods
// for all companies on the given interval.
func NewBillingCoordinator(companies CompanyEnumerator, billing Reconciler, interval time.Duration) *BillingCoordinator {
	return &BillingCoordinator{
		companies: companies,
		billing:   billing,
		interval:  interval,
	}
}

// Run starts the coordinator loop. It blocks until ctx is cancelled.
//
// The first reconciliation runs immediately on start so a freshly booted
// server has current billing rows before the first request arrives; the scan
// is a handful of indexed queries per company, cheap enough to not matter
// during startup.
func (c *BillingCoordinator) Run(ctx context.Context) {
	slog.Info("billing coordinator started",
		"component", "worker",
		"worker", "billing-coordinator",
		"interval", c.interval.String(),
	)

	c.reconcileAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("billing coordinator stopped",
				"component", "worker",
				"worker", "billing-coordinator",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			c.reconcileAll(ctx)
		}
	}
}

// reconcileAll runs reconciliation for each company, continuing on
// individual failures.
func (c *BillingCoordinator) reconcileAll(ctx context.Context) {
	companies, err := c.companies.ListCompanies(ctx)
	if err != nil {
		slog.Error("failed to list companies for billing reconciliation",
			"component", "worker",
			"worker", "billing-coordinator",
			"error", err,
		)
		return
	}

	now := time.Now().UTC()

	var succeeded, failed int
	for _, company := range companies {
		if ctx.Err() != nil {
			return // Graceful shutdown
		}
		if c.reconcileCompany(ctx, company, now) {
			succeeded++
		} else {
			failed++
		}
	}

	// Log summary only if we processed companies (skip during mid-cycle shutdown)
	if succeeded > 0 || failed > 0 {
		slog.Info("billing reconciliation cycle completed",
			"component", "worker",
			"worker", "billing-coordinator",
			"companies_total", len(companies),
			"companies_succeeded", succeeded,
			"companies_failed", failed,
		)
	}
}

// reconcileCompany materializes period statuses for a single company.
// Returns true on success, false on failure.
func (c *BillingCoordinator) reconcileCompany(ctx context.Context, company types.Company, now time.Time) bool {
	start := time.Now()

	if err := c.billing.Reconcile(ctx, company, now); err != nil {
		if ctx.Err() != nil {
			return false // Graceful shutdown, don't log as error
		}
		slog.Error("billing reconciliation failed for company",
			"component", "worker",
			"worker", "billing-coordinator",
			"company_id", company.ID,
			"error", err,
		)
		return false
	}

	slog.Debug("billing reconciliation completed for company",
		"component", "worker",
		"worker", "billing-coordinator",
		"company_id", company.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return true
}
