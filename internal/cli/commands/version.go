package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/leapstack-labs/sqlchart/pkg/adapter"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display sqlchart version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sqlchart v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Chart Query Service built with Go (%s)\n", runtime.Version())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Databases: %s\n", strings.Join(adapter.ListAdapters(), ", "))
		},
	}
}
