package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var companyRotateCmd = &cobra.Command{
	Use:   "rotate-token <company-id-or-slug>",
	Short: "Rotate a company's access token",
	Long:  "Generate a new access token for a company. The old token stops working immediately.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompanyRotate,
}

func runCompanyRotate(cmd *cobra.Command, args []string) error {
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

	token, err := db.RotateCompanyToken(ctx, company.ID)
	if err != nil {
		return fmt.Errorf("rotate token: %w", err)
	}

	if companyJSONOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"id":           company.ID,
			"slug":         company.Slug,
			"access_token": token,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rotated token for %q\n", company.Slug)
	fmt.Fprintf(cmd.OutOrStdout(), "New access token: %s\n", token)
	return nil
}
