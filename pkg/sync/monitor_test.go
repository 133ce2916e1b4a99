package sync

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorDispatchesEvents(t *testing.T) {
	// The monitor drives a real fsnotify watcher, so this test runs on
	// the OS filesystem.
	fs = afero.NewOsFs()
	root := t.TempDir()

	store := newFakeStore("kevin")
	monitor, err := NewMonitor(store, root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, monitor.Run(ctx))
	}()

	path := filepath.Join(root, "new.csv")
	require.NoError(t, ioutil.WriteFile(path, []byte("a,b\n"), 0644))

	require.Eventually(t, func() bool {
		return store.addCount() == 1
	}, 5*time.Second, 50*time.Millisecond, "expected the create to be uploaded")

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor didn't stop after cancellation")
	}
}

func TestMonitorStopsCleanly(t *testing.T) {
	fs = afero.NewOsFs()
	root := t.TempDir()

	store := newFakeStore("kevin")
	monitor, err := NewMonitor(store, root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, monitor.Run(ctx))
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor didn't stop after cancellation")
	}

	// Once Run has returned, changes under the root are no longer
	// dispatched.
	path := filepath.Join(root, "late.csv")
	require.NoError(t, ioutil.WriteFile(path, []byte("x"), 0644))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, store.addCount())
}

func TestMonitorMissingRoot(t *testing.T) {
	fs = afero.NewOsFs()

	store := newFakeStore("kevin")
	_, err := NewMonitor(store, filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}
