package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
	"github.com/de-tools/sql-sentry/pkg/runtime/export"
	"github.com/de-tools/sql-sentry/pkg/services/audit"
	"github.com/de-tools/sql-sentry/pkg/services/config"
	"github.com/de-tools/sql-sentry/pkg/store/mssql"
)

// SummaryReporter renders a completed run for the console.
type SummaryReporter interface {
	Handle(summary domain.Summary, server domain.ServerInfo) error
}

// NewAuditCmd creates the command that runs one audit synchronously.
func NewAuditCmd(registry config.Registry, auditor *audit.Service, reporter SummaryReporter) *cobra.Command {
	var (
		profileName string
		days        int
		outPath     string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit a configured SQL Server target",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			profile, err := registry.GetProfile(ctx, profileName)
			if err != nil {
				return err
			}

			store, err := mssql.Open(profile)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runCtx := domain.RunContext{InactivityThresholdDays: days}
			result, err := auditor.Run(ctx, store, runCtx)
			if err != nil {
				return err
			}

			if err := reporter.Handle(result.Summary, result.Server); err != nil {
				return err
			}

			if outPath != "" {
				htmlReporter, err := export.NewReporter()
				if err != nil {
					return err
				}
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("failed to create report file: %w", err)
				}
				defer func() { _ = f.Close() }()
				if err := htmlReporter.Handle(f, result.Summary, result.Server); err != nil {
					return err
				}
				cmd.Printf("report written to %s\n", outPath)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "Name of the target profile to audit")
	cmd.Flags().IntVar(&days, "days", domain.DefaultInactivityThresholdDays,
		"Inactivity threshold in days for login staleness checks")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write an HTML report to this path")
	_ = cmd.MarkFlagRequired("profile")

	return cmd
}
