package sync

import (
	"archive/zip"
	"bytes"
	"os"
	"sort"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncDownScenario(t *testing.T) {
	fs = afero.NewMemMapFs()

	store := newFakeStore("kevin")
	store.addFileItem("", "Impacts", "CSV", "id,lat,lon\n")
	store.addFolder("Geo")
	store.addDirItem("Geo", "Roads", "Shapefile", map[string]string{
		"roads.shp": "shp-data",
		"roads.dbf": "dbf-data",
	})

	count, err := NewMirrorer(store, "/mirror").SyncDown()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Equal(t, []string{"/mirror/Geo/Roads.zip", "/mirror/Impacts.csv"},
		listFiles(t, "/mirror"))

	contents, err := afero.ReadFile(fs, "/mirror/Impacts.csv")
	require.NoError(t, err)
	assert.Equal(t, "id,lat,lon\n", string(contents))

	// The Shapefile download is directory-shaped, so it must have been
	// compressed into a single archive.
	assert.ElementsMatch(t, []string{"roads.shp", "roads.dbf"},
		zipEntries(t, "/mirror/Geo/Roads.zip"))
}

func TestSyncDownIdempotent(t *testing.T) {
	fs = afero.NewMemMapFs()

	store := newFakeStore("kevin")
	store.addFileItem("", "Impacts", "CSV", "data")
	store.addFolder("Geo")
	store.addFileItem("Geo", "Flightpath", "KML", "<kml/>")

	mirrorer := NewMirrorer(store, "/mirror")

	first, err := mirrorer.SyncDown()
	require.NoError(t, err)
	firstTree := listFiles(t, "/mirror")

	second, err := mirrorer.SyncDown()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstTree, listFiles(t, "/mirror"))
}

func TestSyncDownFiltersUnsupportedTypes(t *testing.T) {
	fs = afero.NewMemMapFs()

	store := newFakeStore("kevin")
	store.addFileItem("", "Impacts", "CSV", "data")
	store.addFileItem("", "Dashboard", "Web Map", "{}")

	count, err := NewMirrorer(store, "/mirror").SyncDown()
	require.NoError(t, err)

	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"/mirror/Impacts.csv"}, listFiles(t, "/mirror"))
}

func TestSyncDownPartialFailure(t *testing.T) {
	fs = afero.NewMemMapFs()

	store := newFakeStore("kevin")
	store.addFileItem("", "First", "CSV", "1")
	store.addFileItem("", "Second", "CSV", "2")
	store.addFileItem("", "Third", "CSV", "3")
	store.failDownloads["Second"] = true

	count, err := NewMirrorer(store, "/mirror").SyncDown()
	require.NoError(t, err)

	// The failing item is skipped; the rest of the pass continues.
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"/mirror/First.csv", "/mirror/Third.csv"},
		listFiles(t, "/mirror"))
}

func TestSyncDownWipesPreviousContents(t *testing.T) {
	fs = afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/mirror/Stale", 0755))
	require.NoError(t, afero.WriteFile(fs, "/mirror/Stale/old.csv", []byte("x"), 0644))

	store := newFakeStore("kevin")
	store.addFileItem("", "Impacts", "CSV", "data")

	_, err := NewMirrorer(store, "/mirror").SyncDown()
	require.NoError(t, err)

	assert.Equal(t, []string{"/mirror/Impacts.csv"}, listFiles(t, "/mirror"))
}

// listFiles returns the sorted paths of all regular files under root.
func listFiles(t *testing.T, root string) []string {
	var paths []string
	err := afero.Walk(fs, root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(paths)
	return paths
}

func zipEntries(t *testing.T, path string) []string {
	contents, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(contents), int64(len(contents)))
	require.NoError(t, err)

	var names []string
	for _, entry := range reader.File {
		names = append(names, entry.Name)
	}
	return names
}
