package portal

// Item is a content item stored in the remote organization. Items are
// created and mutated exclusively through the portal; GISBox only holds
// transient references to them during a single pass.
type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
	Owner string `json:"owner"`

	// Folder is the title of the containing folder. Empty means the item
	// lives in the owner's root folder.
	Folder string `json:"folder,omitempty"`
}

// Folder is a folder in the owner's content. The title doubles as the
// lookup key for the local mirror layout.
type Folder struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ItemProperties are the metadata fields that can be set when adding or
// updating an item.
type ItemProperties struct {
	Title       string
	Type        string
	Tags        string
	Description string
}

// DownloadKind distinguishes the two shapes a download can take.
type DownloadKind int

const (
	// DownloadFile means the payload was written as a single file.
	DownloadFile DownloadKind = iota

	// DownloadDirectory means the payload was archive-shaped (e.g. a
	// Shapefile) and was extracted into a directory of files.
	DownloadDirectory
)

// Download is the result of fetching an item's payload to the local
// filesystem.
type Download struct {
	Kind DownloadKind
	Path string
}
