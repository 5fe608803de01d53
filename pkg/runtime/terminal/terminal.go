package terminal

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/de-tools/sql-sentry/pkg/runtime/terminal/commands"
	"github.com/de-tools/sql-sentry/pkg/services/audit"
	"github.com/de-tools/sql-sentry/pkg/services/config"
)

// CLI represents the command-line interface
type CLI struct {
	registry config.Registry
	auditor  *audit.Service
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Registry config.Registry
	Auditor  *audit.Service
	Output   io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		registry: opts.Registry,
		auditor:  opts.Auditor,
	}

	cli.rootCmd = cli.newRootCmd(opts.Output)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) newRootCmd(output io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sqlsentry",
		Short: "SQL Server security posture audit tool",
	}

	cmd.AddCommand(commands.NewAuditCmd(cli.registry, cli.auditor, NewReporter(output)))
	cmd.AddCommand(commands.NewProfilesCmd(cli.registry, output))

	return cmd
}
