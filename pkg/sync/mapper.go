package sync

import (
	"path/filepath"
	"strings"

	"github.com/gisbox/gisbox/pkg/errors"
)

// FolderOf returns the remote folder title encoded by a local path: the
// first path segment relative to the mirror root. An empty title means
// the portal's root folder.
// This is the single source of truth for the local-path to remote-folder
// mapping. The mirror builder writes through FolderPath, so every path
// it produces maps back to the folder it was downloaded from.
func FolderOf(path, root string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", errors.WithContext(err, "relativize")
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.New("path is outside the sync root")
	}

	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) > 1 {
		return parts[0], nil
	}
	return "", nil
}

// FolderPath returns the local directory that mirrors the remote folder
// with the given title. An empty title maps to the mirror root itself.
func FolderPath(root, folder string) string {
	if folder == "" {
		return root
	}
	return filepath.Join(root, folder)
}
