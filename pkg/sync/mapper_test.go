package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFolderOf(t *testing.T) {
	t.Parallel()

	root := "/mirror"
	tests := []struct {
		name string
		path string
		exp  string
	}{
		{
			name: "File directly under root maps to the root folder",
			path: "/mirror/Impacts.csv",
			exp:  "",
		},
		{
			name: "File in a subdirectory maps to that folder",
			path: "/mirror/Geo/Roads.zip",
			exp:  "Geo",
		},
		{
			name: "Deeper nesting still maps to the first segment",
			path: "/mirror/Geo/archive/old.kml",
			exp:  "Geo",
		},
	}

	for _, test := range tests {
		folder, err := FolderOf(test.path, root)
		assert.NoError(t, err, test.name)
		assert.Equal(t, test.exp, folder, test.name)
	}
}

func TestFolderOfOutsideRoot(t *testing.T) {
	t.Parallel()

	_, err := FolderOf("/elsewhere/file.csv", "/mirror")
	assert.Error(t, err)
}

// Paths written through FolderPath must map back to the folder they were
// written for. This round-trip is what lets the upload side attribute a
// mirrored file to the remote folder it came from.
func TestFolderMappingRoundTrip(t *testing.T) {
	t.Parallel()

	root := "/mirror"
	for _, folder := range []string{"", "Geo", "Projects 2024"} {
		path := FolderPath(root, folder) + "/item.csv"
		got, err := FolderOf(path, root)
		assert.NoError(t, err)
		assert.Equal(t, folder, got)
	}
}
