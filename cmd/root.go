package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gisbox/gisbox/cmd/backup"
	"github.com/gisbox/gisbox/cmd/configure"
	"github.com/gisbox/gisbox/cmd/monitor"
	"github.com/gisbox/gisbox/cmd/publish"
	"github.com/gisbox/gisbox/cmd/util"
	"github.com/gisbox/gisbox/cmd/version"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "GISBOX_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:          "gisbox",
		Short:        "Mirror a content portal organization to a local directory and back",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		backup.New(),
		configure.New(),
		monitor.New(),
		publish.New(),
		version.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}
