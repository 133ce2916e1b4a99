package backup

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gisbox/gisbox/cmd/util"
	"github.com/gisbox/gisbox/pkg/config"
	"github.com/gisbox/gisbox/pkg/errors"
	"github.com/gisbox/gisbox/pkg/sync"
)

// New creates a new `backup` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Download the organization's content into the sync directory",
		Long: "Rebuild the local mirror from scratch: the sync directory is\n" +
			"wiped, and every supported item in the organization is downloaded\n" +
			"into it, one subdirectory per remote folder.",
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

	session, err := util.ConnectPortal(userConfig)
	if err != nil {
		return err
	}

	total, err := sync.NewMirrorer(session, userConfig.SyncDir).SyncDown()
	if err != nil {
		return errors.WithContext(err, "sync down")
	}

	fmt.Printf("Downloaded %d items to %s\n", total, userConfig.SyncDir)
	return nil
}
