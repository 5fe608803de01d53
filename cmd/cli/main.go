package main

import (
	"fmt"
	"os"
	"os/user"

	"github.com/de-tools/sql-sentry/pkg/metrics"
	"github.com/de-tools/sql-sentry/pkg/runtime/terminal"
	"github.com/de-tools/sql-sentry/pkg/services/audit"
	"github.com/de-tools/sql-sentry/pkg/services/config"
)

func main() {
	usr, _ := user.Current()
	cfgPath := fmt.Sprintf("%s/.sqlsentrycfg", usr.HomeDir)
	if env := os.Getenv("SQLSENTRY_CONFIG"); env != "" {
		cfgPath = env
	}

	registry, err := config.NewRegistry(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load profiles from %s: %v\n", cfgPath, err)
		os.Exit(1)
	}

	settings, err := config.LoadSettings(os.Getenv("SQLSENTRY_SETTINGS"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cli := terminal.NewCLI(terminal.Options{
		Registry: registry,
		Auditor: audit.NewService(audit.Options{
			Parallelism: settings.Parallelism,
			Metrics:     metrics.New(),
		}),
		Output: os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
