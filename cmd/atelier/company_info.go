package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/atelierhq/atelier/internal/store"
	"github.com/atelierhq/atelier/internal/types"
	"github.com/spf13/cobra"
)

var companyInfoCmd = &cobra.Command{
	Use:   "info <company-id-or-slug>",
	Short: "Show details for a company",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompanyInfo,
}

func runCompanyInfo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := resolveStore()
	if err != nil {
		return err
	}
	defer db.Close()

	company, err := findCompany(ctx, db, args[0])
	if err != nil {
		return err
	}

	if companyJSONOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"id":               company.ID,
			"name":             company.Name,
			"slug":             company.Slug,
			"hours_allocated":  company.HoursAllocated,
			"hourly_rate":      company.HourlyRate,
			"payment_schedule": company.PaymentSchedule,
			"period_anchor":    company.PeriodAnchor,
			"created_at":       company.CreatedAt,
		})
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintf(w, "ID\t%s\n", company.ID)
	fmt.Fprintf(w, "Name\t%s\n", company.Name)
	fmt.Fprintf(w, "Slug\t%s\n", company.Slug)
	fmt.Fprintf(w, "Schedule\t%s\n", company.PaymentSchedule)
	fmt.Fprintf(w, "Hours allocated\t%.1f\n", company.HoursAllocated)
	fmt.Fprintf(w, "Hourly rate\t$%.2f\n", company.HourlyRate)
	fmt.Fprintf(w, "Period anchor\t%s\n", company.PeriodAnchor.Format("2006-01-02"))
	fmt.Fprintf(w, "Created\t%s\n", company.CreatedAt.Format("2006-01-02 15:04"))
	w.Flush()

	return nil
}

// findCompany looks a company up by ID, falling back to slug.
func findCompany(ctx context.Context, db *store.SQLiteStore, key string) (*types.Company, error) {
	company, err := db.GetCompany(ctx, key)
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, store.ErrCompanyNotFound) && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	companies, err := db.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	for i := range companies {
		if companies[i].Slug == key {
			return &companies[i], nil
		}
	}
	return nil, fmt.Errorf("company %q not found", key)
}
