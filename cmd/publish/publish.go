package publish

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gisbox/gisbox/cmd/util"
	"github.com/gisbox/gisbox/pkg/config"
	"github.com/gisbox/gisbox/pkg/errors"
	"github.com/gisbox/gisbox/pkg/portal"
)

// typesByExtension maps upload extensions to the declared item type the
// portal expects when adding content that will be published.
var typesByExtension = map[string]string{
	"csv":  "CSV",
	"xlsx": "Microsoft Excel",
	"kml":  "KML",
	"sd":   "Service Definition",
	"zip":  "Shapefile",
}

// New creates a new `publish` command.
func New() *cobra.Command {
	var title, tags, description, folder string
	cmd := &cobra.Command{
		Use:   "publish <file>",
		Short: "Upload a local file to the portal and publish it as a hosted layer",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if err := run(args[0], title, tags, description, folder); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&title, "title", "",
		"Title for the published item. Defaults to the filename stem.")
	cmd.Flags().StringVar(&tags, "tags", "gisbox, publish",
		"Comma-separated tags for the published item.")
	cmd.Flags().StringVar(&description, "description", "",
		"Description for the published item.")
	cmd.Flags().StringVar(&folder, "folder", "",
		"Remote folder to upload into. Defaults to the root folder.")
	return cmd
}

func run(path, title, tags, description, folder string) error {
	userConfig, err := config.ParseUser()
	if err != nil {
		return errors.WithContext(err, "parse user config")
	}

	session, err := util.ConnectPortal(userConfig)
	if err != nil {
		return err
	}

	base := filepath.Base(path)
	if title == "" {
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))
	itemType, ok := typesByExtension[ext]
	if !ok {
		return errors.NewFriendlyError(
			"Cannot publish %q: unsupported file extension %q.", path, ext)
	}

	props := portal.ItemProperties{
		Title:       title,
		Type:        itemType,
		Tags:        tags,
		Description: description,
	}
	item, err := session.AddItem(props, path, folder)
	if err != nil {
		return errors.WithContext(err, "add item")
	}

	published, err := session.PublishItem(item)
	if err != nil {
		return errors.WithContext(err, "publish item")
	}

	fmt.Printf("The [%s] layer has been successfully published\n", published.Title)
	return nil
}
