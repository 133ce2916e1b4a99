package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gisbox/gisbox/pkg/version"
)

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of GISBox.",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("gisbox version %s\n", version.Version)
		},
	}
}
