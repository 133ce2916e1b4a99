package configure

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gisbox/gisbox/cmd/util"
	"github.com/gisbox/gisbox/pkg/config"
	"github.com/gisbox/gisbox/pkg/errors"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	parseUserConfig           = config.ParseUser
	writeUserConfig           = config.WriteUser
)

// New creates a new `configure` command.
func New() *cobra.Command {
	var cliOpts config.User
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Write the GISBox user configuration",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(cliOpts); err != nil {
				err = errors.NewFriendlyError("Failed to write configuration:\n%s", err)
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&cliOpts.URL, "url", "",
		"The URL of the content portal organization.")
	cmd.Flags().StringVar(&cliOpts.Username, "username", "",
		"The username to connect as.")
	cmd.Flags().StringVar(&cliOpts.Password, "password", "",
		"The password for the user. Prefer --profile to keep passwords "+
			"out of the config file.")
	cmd.Flags().StringVar(&cliOpts.Profile, "profile", "",
		"The name of a stored credential profile to connect with.")
	cmd.Flags().StringVar(&cliOpts.SyncDir, "sync-dir", "",
		"The local directory to mirror the organization into.")

	// Setup the commands for querying the contents of the user config.
	type getterSpec struct {
		use, short string
		fn         func(config.User) string
	}

	getters := []getterSpec{
		{
			use:   "get-sync-dir",
			short: "Get the currently configured sync directory",
			fn:    func(cfg config.User) string { return cfg.SyncDir },
		},
		{
			use:   "get-url",
			short: "Get the currently configured portal URL",
			fn:    func(cfg config.User) string { return cfg.URL },
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseUserConfig()
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
				}

				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

func run(cliOpts config.User) error {
	if cliOpts.SyncDir == "" {
		return errors.MissingFieldError{Field: "sync-dir"}
	}
	if cliOpts.Profile == "" && cliOpts.URL == "" {
		return errors.MissingFieldError{Field: "url"}
	}

	if err := writeUserConfig(cliOpts); err != nil {
		return errors.WithContext(err, "write config")
	}

	path, err := config.GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}
	log.Infof("Wrote configuration to %s", path)
	return nil
}
