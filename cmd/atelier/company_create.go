package main

import (
	"context"
	"fmt"
	"time"

	"github.com/atelierhq/atelier/internal/types"
	"github.com/spf13/cobra"
)

var (
	createSlug     string
	createHours    float64
	createRate     float64
	createSchedule string
	createAnchor   string
)

var companyCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new company",
	Long:  "Create a company with its retainer terms. The generated access token is printed once; store it with the client.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompanyCreate,
}

func init() {
	companyCreateCmd.Flags().StringVar(&createSlug, "slug", "",
		"URL-safe identifier (required)")
	companyCreateCmd.Flags().Float64Var(&createHours, "hours", 0,
		"Retainer hours allocated per billing period")
	companyCreateCmd.Flags().Float64Var(&createRate, "rate", 0,
		"Hourly rate in dollars")
	companyCreateCmd.Flags().StringVar(&createSchedule, "schedule", "monthly",
		"Billing cadence: weekly, biweekly, monthly")
	companyCreateCmd.Flags().StringVar(&createAnchor, "anchor", "",
		"Period anchor date (YYYY-MM-DD, defaults to today)")
	companyCreateCmd.MarkFlagRequired("slug")
}

func runCompanyCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	schedule := types.ScheduleKind(createSchedule)
	if !schedule.Valid() {
		return fmt.Errorf("invalid schedule %q: must be weekly, biweekly, or monthly", createSchedule)
	}

	var anchor time.Time
	if createAnchor != "" {
		var err error
		anchor, err = time.Parse("2006-01-02", createAnchor)
		if err != nil {
			return fmt.Errorf("invalid anchor %q: expected YYYY-MM-DD", createAnchor)
		}
	}

	db, err := resolveStore()
	if err != nil {
		return err
	}
	defer db.Close()

	company, err := db.CreateCompany(ctx, types.Company{
		Name:            args[0],
		Slug:            createSlug,
		HoursAllocated:  createHours,
		HourlyRate:      createRate,
		PaymentSchedule: schedule,
		PeriodAnchor:    anchor,
	})
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
			"access_token":     company.AccessToken,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created company %q (id: %s)\n", company.Name, company.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "Access token: %s\n", company.AccessToken)
	return nil
}
