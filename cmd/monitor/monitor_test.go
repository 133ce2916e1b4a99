package monitor

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gisbox/gisbox/pkg/errors"
)

func TestCheckSyncDir(t *testing.T) {
	fs = afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/home/kevin/gisbox", 0755))

	assert.NoError(t, checkSyncDir("/home/kevin/gisbox"))

	err := checkSyncDir("/home/kevin/missing")
	require.Error(t, err)
	_, friendly := err.(errors.FriendlyError)
	assert.True(t, friendly, "a missing sync dir should produce a friendly error")
}
