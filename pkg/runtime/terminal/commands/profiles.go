package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/de-tools/sql-sentry/pkg/services/config"
)

// NewProfilesCmd creates the command that lists the configured targets.
func NewProfilesCmd(registry config.Registry, output io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List configured audit targets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := registry.GetProfiles(cmd.Context())
			if err != nil {
				return err
			}
			if len(profiles) == 0 {
				_, err = fmt.Fprintln(output, "no profiles configured")
				return err
			}
			for _, p := range profiles {
				host := p.Host
				if p.Instance != "" {
					host = fmt.Sprintf("%s\\%s", p.Host, p.Instance)
				}
				if _, err := fmt.Fprintf(output, "%s\t%s\n", p.Name, host); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
