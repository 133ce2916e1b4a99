package sync

import (
	"github.com/spf13/afero"

	"github.com/gisbox/gisbox/pkg/portal"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// Store is the surface of the remote content portal that the sync engine
// needs. *portal.Session implements it.
type Store interface {
	// CurrentUser returns the username that owns the synced content.
	CurrentUser() string

	// ListFolders enumerates the user's folders.
	ListFolders() ([]portal.Folder, error)

	// ListItems enumerates the items in the folder with the given title.
	// An empty title means the root folder.
	ListItems(folder string) ([]portal.Item, error)

	// Download fetches an item's payload into destDir.
	Download(item portal.Item, destDir string) (portal.Download, error)

	// Search looks up at most one item by exact title and owner,
	// optionally scoped to a folder. It returns nil if nothing matches.
	Search(title, owner, folder string) (*portal.Item, error)

	// AddItem uploads a new item into the given folder (root if empty).
	AddItem(props portal.ItemProperties, dataPath, folder string) (*portal.Item, error)

	// UpdateItem replaces an existing item's data and metadata.
	UpdateItem(item *portal.Item, props portal.ItemProperties, dataPath string) error

	// DeleteItem removes an item.
	DeleteItem(item *portal.Item) error
}

var _ Store = (*portal.Session)(nil)

// supportedTypes are the item types eligible for mirroring. Items of any
// other type are invisible to the engine: they're neither downloaded nor
// managed on the upload side.
// TODO: read the type list from the user config instead of hardcoding it.
var supportedTypes = map[string]bool{
	"CSV":                true,
	"Service Definition": true,
	"KML":                true,
	"ZIP":                true,
	"Shapefile":          true,
	"Image Collection":   true,
	"PDF":                true,
	"Microsoft Excel":    true,
}

// Supported returns whether items of the given declared type are managed
// by the engine.
func Supported(itemType string) bool {
	return supportedTypes[itemType]
}
