package main

import (
	"fmt"
	"net"
	"os"
	"os/user"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/sql-sentry/pkg/metrics"
	"github.com/de-tools/sql-sentry/pkg/runtime/export"
	"github.com/de-tools/sql-sentry/pkg/server"
	"github.com/de-tools/sql-sentry/pkg/services/audit"
	"github.com/de-tools/sql-sentry/pkg/services/config"
	"github.com/de-tools/sql-sentry/pkg/store/mssql"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for SQL Sentry",
		RunE:  runServer,
	}

	usr, _ := user.Current()
	defaultPath := fmt.Sprintf("%s/.sqlsentrycfg", usr.HomeDir)

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", defaultPath,
		"Path to the .sqlsentrycfg file (default is $HOME/.sqlsentrycfg)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	registry, err := config.NewRegistry(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to create config registry: %w", err)
	}

	settings, err := config.LoadSettings(os.Getenv("SQLSENTRY_SETTINGS"))
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	reporter, err := export.NewReporter()
	if err != nil {
		return fmt.Errorf("failed to create report renderer: %w", err)
	}

	logger.Info().Msgf("Configuration found at `%s` successfully loaded.", cfgPath)
	profiles, _ := registry.GetProfiles(ctx)
	for _, profile := range profiles {
		logger.Info().Msgf("Profile: `%s`, Host: `%s`", profile.Name, profile.Host)
	}

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")

	if host == "" || port == "" {
		logger.Error().Msgf("Missing server configuration from .env file")
		os.Exit(1)
	}

	api := server.NewWebAPI(logger, server.Config{
		Addr: net.JoinHostPort(host, port),
		Dependencies: server.Dependencies{
			Registry: registry,
			Auditor: audit.NewService(audit.Options{
				Parallelism: settings.Parallelism,
				Metrics:     metrics.New(),
			}),
			Providers: func(profile config.Profile) (audit.Provider, error) {
				return mssql.Open(profile)
			},
			Reporter: reporter,
		},
	})

	return api.Start()
}
