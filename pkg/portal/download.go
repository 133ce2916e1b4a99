package portal

import (
	"archive/zip"
	"fmt"
	"io"
	"net/url"
	"path/filepath"

	"github.com/gisbox/gisbox/pkg/errors"
)

// archiveTypes are the item types whose downloads are zip archives
// containing multiple files. Their payloads are extracted into a
// directory instead of being kept as a single file.
var archiveTypes = map[string]bool{
	"Shapefile":        true,
	"Image Collection": true,
}

// Download fetches the item's payload into destDir. The returned result
// is tagged: archive-shaped payloads are extracted into a directory of
// files, everything else is written as a single file. The file is given
// a temporary name; the caller is responsible for renaming it to its
// final destination.
func (s *Session) Download(item Item, destDir string) (Download, error) {
	params := url.Values{}
	stream, filename, err := s.t.getStream(
		"/content/items/"+url.PathEscape(item.ID)+"/data", params)
	if err != nil {
		return Download{}, errors.WithContext(err, "fetch data")
	}
	defer stream.Close()

	// The filename comes from the server; strip any path components so
	// it can't escape destDir.
	filename = filepath.Base(filename)
	if filename == "." || filename == string(filepath.Separator) {
		filename = item.ID
	}
	tempPath := filepath.Join(destDir, filename)

	file, err := fs.Create(tempPath)
	if err != nil {
		return Download{}, errors.WithContext(err, "create file")
	}

	size, err := io.Copy(file, stream)
	if err != nil {
		file.Close()
		return Download{}, errors.WithContext(err, "write payload")
	}
	if err := file.Close(); err != nil {
		return Download{}, errors.WithContext(err, "close file")
	}

	if !archiveTypes[item.Type] {
		return Download{Kind: DownloadFile, Path: tempPath}, nil
	}

	extractDir := filepath.Join(destDir, item.ID+"_extract")
	if err := extractArchive(tempPath, size, extractDir); err != nil {
		return Download{}, errors.WithContext(err, "extract archive")
	}
	if err := fs.Remove(tempPath); err != nil {
		return Download{}, errors.WithContext(err, "remove archive")
	}
	return Download{Kind: DownloadDirectory, Path: extractDir}, nil
}

// extractArchive unpacks the zip at archivePath into destDir. Entries
// that would escape destDir are rejected.
func extractArchive(archivePath string, size int64, destDir string) error {
	file, err := fs.Open(archivePath)
	if err != nil {
		return errors.WithContext(err, "open archive")
	}
	defer file.Close()

	reader, err := zip.NewReader(file, size)
	if err != nil {
		return errors.WithContext(err, "read archive")
	}

	if err := fs.MkdirAll(destDir, 0755); err != nil {
		return errors.WithContext(err, "create directory")
	}

	for _, entry := range reader.File {
		entryPath := filepath.Join(destDir, filepath.Clean("/"+entry.Name))
		if entry.FileInfo().IsDir() {
			if err := fs.MkdirAll(entryPath, 0755); err != nil {
				return errors.WithContext(err, "create directory")
			}
			continue
		}

		if err := fs.MkdirAll(filepath.Dir(entryPath), 0755); err != nil {
			return errors.WithContext(err, "create directory")
		}

		if err := extractEntry(entry, entryPath); err != nil {
			return errors.WithContext(err, fmt.Sprintf("extract %q", entry.Name))
		}
	}
	return nil
}

func extractEntry(entry *zip.File, destPath string) error {
	src, err := entry.Open()
	if err != nil {
		return errors.WithContext(err, "open entry")
	}
	defer src.Close()

	dest, err := fs.Create(destPath)
	if err != nil {
		return errors.WithContext(err, "create file")
	}

	if _, err := io.Copy(dest, src); err != nil {
		dest.Close()
		return errors.WithContext(err, "write file")
	}
	return dest.Close()
}
