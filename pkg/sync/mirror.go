package sync

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/gisbox/gisbox/pkg/errors"
	"github.com/gisbox/gisbox/pkg/portal"
)

// Mirrorer rebuilds the local mirror tree from the remote portal. It
// exclusively owns the mirror root for the duration of a pass: the root
// is deleted and recreated, so nothing else may write to it concurrently.
type Mirrorer struct {
	store Store
	root  string
}

// NewMirrorer returns a Mirrorer that mirrors the current user's content
// into root.
func NewMirrorer(store Store, root string) *Mirrorer {
	return &Mirrorer{store: store, root: root}
}

// SyncDown performs a full backup pass: it wipes the mirror root,
// downloads the portal's root items, then every folder's items, and
// returns the number of items successfully mirrored. A single item
// failing to download is logged and skipped; it never aborts the pass.
func (m *Mirrorer) SyncDown() (int, error) {
	if err := m.prepareRoot(); err != nil {
		return 0, errors.WithContext(err, "prepare mirror root")
	}

	total := m.downloadFolder("")

	folders, err := m.store.ListFolders()
	if err != nil {
		return total, errors.WithContext(err, "list folders")
	}
	log.Infof("Found %d folders in the organization", len(folders))

	for _, folder := range folders {
		total += m.downloadFolder(folder.Title)
	}

	log.Infof("Sync-down complete. Total items downloaded: %d", total)
	return total, nil
}

// prepareRoot deletes any previous mirror contents and recreates the
// root empty. The wipe also discards residue from earlier partial
// failures, which is what makes back-to-back passes produce identical
// trees.
func (m *Mirrorer) prepareRoot() error {
	exists, err := afero.DirExists(fs, m.root)
	if err != nil {
		return errors.WithContext(err, "stat")
	}
	if exists {
		log.Warnf("Removing previous mirror contents at %s", m.root)
		if err := fs.RemoveAll(m.root); err != nil {
			return errors.WithContext(err, "remove")
		}
	}

	if err := fs.MkdirAll(m.root, 0755); err != nil {
		return errors.WithContext(err, "create")
	}
	log.Infof("Mirror directory prepared: %s", m.root)
	return nil
}

// downloadFolder mirrors one remote folder (the root folder if the title
// is empty) and returns how many items were successfully written.
func (m *Mirrorer) downloadFolder(folder string) int {
	destDir := FolderPath(m.root, folder)
	if folder == "" {
		log.Info("Processing the organization's root folder")
	} else {
		log.Infof("Processing folder: %s", folder)
		if err := fs.MkdirAll(destDir, 0755); err != nil {
			log.WithError(err).Errorf("Failed to create local folder %q", folder)
			return 0
		}
	}

	items, err := m.store.ListItems(folder)
	if err != nil {
		log.WithError(err).Errorf("Failed to list items in folder %q", folder)
		return 0
	}

	count := 0
	for _, item := range items {
		if !Supported(item.Type) {
			continue
		}

		finalName, err := m.mirrorItem(item, destDir)
		if err != nil {
			log.WithError(err).Errorf("Failed to download %s", item.Title)
			continue
		}
		log.Infof("  [downloaded] %s (%s) as %s", item.Title, item.Type, finalName)
		count++
	}
	return count
}

// mirrorItem downloads a single item into destDir and moves it to its
// final name. Archive-shaped downloads (a directory of files) are
// compressed into a single <title>.zip so that the mirror stays flat.
func (m *Mirrorer) mirrorItem(item portal.Item, destDir string) (string, error) {
	download, err := m.store.Download(item, destDir)
	if err != nil {
		return "", errors.WithContext(err, "download")
	}

	var finalName string
	switch download.Kind {
	case portal.DownloadDirectory:
		finalName = item.Title + ".zip"
		finalPath := filepath.Join(destDir, finalName)
		if err := zipDirectory(download.Path, finalPath); err != nil {
			return "", errors.WithContext(err, "compress")
		}
		if err := fs.RemoveAll(download.Path); err != nil {
			return "", errors.WithContext(err, "discard download directory")
		}
	default:
		finalName = fmt.Sprintf("%s.%s",
			item.Title, ResolveExtension(item.Type, item.Title))
		finalPath := filepath.Join(destDir, finalName)
		if download.Path != finalPath {
			// A later item with the same resolved name wins, matching
			// plain rename semantics.
			fs.Remove(finalPath)
			if err := fs.Rename(download.Path, finalPath); err != nil {
				return "", errors.WithContext(err, "rename")
			}
		}
	}
	return finalName, nil
}

// zipDirectory compresses the contents of srcDir into a zip archive at
// destPath. Entry names are relative to srcDir.
func zipDirectory(srcDir, destPath string) error {
	archive, err := fs.Create(destPath)
	if err != nil {
		return errors.WithContext(err, "create archive")
	}

	writer := zip.NewWriter(archive)
	err = afero.Walk(fs, srcDir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return errors.WithContext(err, "relativize entry")
		}
		if strings.HasPrefix(rel, "..") {
			return errors.New("entry escapes the download directory")
		}

		entry, err := writer.Create(filepath.ToSlash(rel))
		if err != nil {
			return errors.WithContext(err, "create entry")
		}

		file, err := fs.Open(path)
		if err != nil {
			return errors.WithContext(err, "open file")
		}
		defer file.Close()

		if _, err := io.Copy(entry, file); err != nil {
			return errors.WithContext(err, "write entry")
		}
		return nil
	})
	if err != nil {
		writer.Close()
		archive.Close()
		return err
	}

	if err := writer.Close(); err != nil {
		archive.Close()
		return errors.WithContext(err, "finish archive")
	}
	return archive.Close()
}
