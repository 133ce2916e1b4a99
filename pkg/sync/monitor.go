package sync

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/gisbox/gisbox/pkg/fswatch"
)

// Monitor owns the filesystem watch lifecycle for sync-up. Events are
// dispatched to the reconciler strictly one at a time, which is what
// keeps two upserts for the same title from racing each other.
type Monitor struct {
	reconciler *Reconciler
	watcher    *fswatch.Watcher
	root       string
}

// NewMonitor starts watching the mirror root and returns a Monitor ready
// to run.
func NewMonitor(store Store, root string) (*Monitor, error) {
	watcher, err := fswatch.Watch(root)
	if err != nil {
		return nil, err
	}

	return &Monitor{
		reconciler: NewReconciler(store, root),
		watcher:    watcher,
		root:       root,
	}, nil
}

// Run dispatches filesystem events until ctx is cancelled. Once it
// returns, the watcher has been closed and no further events will be
// dispatched. A failing or panicking handler never stops the loop; the
// error is logged and the next event is served.
func (m *Monitor) Run(ctx context.Context) error {
	defer func() {
		if err := m.watcher.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file watcher")
		}
	}()

	log.Infof("Monitoring changes in: %s", m.root)
	for {
		select {
		case <-ctx.Done():
			log.Info("Monitor stopped")
			return nil
		case event, ok := <-m.watcher.Events():
			if !ok {
				return nil
			}
			m.dispatch(event)
		}
	}
}

func (m *Monitor) dispatch(event fswatch.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).WithField("path", event.Path).Error(
				"Event handler panicked")
		}
	}()

	log.WithField("path", event.Path).Debugf("Handling %s event", event.Op)
	if err := m.reconciler.HandleEvent(event); err != nil {
		log.WithError(err).WithField("path", event.Path).Error(
			"Failed to sync change to the portal")
	}
}
