package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var companyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all companies",
	Args:  cobra.NoArgs,
	RunE:  runCompanyList,
}

func runCompanyList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := resolveStore()
	if err != nil {
		return err
	}
	defer db.Close()

	companies, err := db.ListCompanies(ctx)
	if err != nil {
		return fmt.Errorf("list companies: %w", err)
	}

	// Sort by slug
	sort.Slice(companies, func(i, j int) bool {
		return companies[i].Slug < companies[j].Slug
	})

	if companyJSONOutput {
		items := make([]map[string]any, len(companies))
		for i, c := range companies {
			items[i] = map[string]any{
				"id":               c.ID,
				"name":             c.Name,
				"slug":             c.Slug,
				"hours_allocated":  c.HoursAllocated,
				"hourly_rate":      c.HourlyRate,
				"payment_schedule": c.PaymentSchedule,
				"created_at":       c.CreatedAt,
			}
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"companies": items,
			"total":     len(items),
		})
	}

	if len(companies) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No companies found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "SLUG\tNAME\tSCHEDULE\tHOURS\tRATE\tCREATED")
	for _, c := range companies {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t$%.2f\t%s\n",
			c.Slug,
			c.Name,
			c.PaymentSchedule,
			c.HoursAllocated,
			c.HourlyRate,
			c.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	w.Flush()

	return nil
}
