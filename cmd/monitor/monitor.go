package monitor

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/gisbox/gisbox/cmd/util"
	"github.com/gisbox/gisbox/pkg/config"
	"github.com/gisbox/gisbox/pkg/errors"
	"github.com/gisbox/gisbox/pkg/sync"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// New creates a new `monitor` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Watch the sync directory and push local changes to the portal",
		Long: "Watch the sync directory for file creations, modifications, and\n" +
			"deletions, and reflect each change to the portal as an item\n" +
			"upload, update, or delete. Runs until interrupted.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run() error {
	userConfig, err := config.ParseUser()
	if err != nil {
		return errors.WithContext(err, "parse user config")
	}

	if err := checkSyncDir(userConfig.SyncDir); err != nil {
		return err
	}

	session, err := util.ConnectPortal(userConfig)
	if err != nil {
		return err
	}

	monitor, err := sync.NewMonitor(session, userConfig.SyncDir)
	if err != nil {
		return errors.WithContext(err, "watch sync directory")
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("GISBox monitor started. Press CTRL+C to stop.")
	return monitor.Run(ctx)
}

// checkSyncDir verifies that the configured sync directory exists before
// the monitor connects to the portal.
func checkSyncDir(dir string) error {
	exists, err := afero.DirExists(fs, dir)
	if err != nil {
		return errors.WithContext(err, "stat sync dir")
	}
	if !exists {
		return errors.NewFriendlyError(
			"The sync directory %q doesn't exist.\n"+
				"Run `gisbox backup` first to create the initial mirror.", dir)
	}
	return nil
}
