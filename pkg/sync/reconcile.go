package sync

import (
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/gisbox/gisbox/pkg/errors"
	"github.com/gisbox/gisbox/pkg/fswatch"
	"github.com/gisbox/gisbox/pkg/portal"
)

// uploadTags is the fixed tag set applied to items created by the
// reconciler.
const uploadTags = "gisbox, sync"

// uploadType is the generic type used for uploaded items. The portal
// infers the real type from the file contents.
const uploadType = "File"

// Reconciler maps local filesystem events to remote portal operations.
// It treats the mirror root as shared with the user: it only reacts to
// changes and never deletes or rewrites local files itself.
type Reconciler struct {
	store Store
	root  string
}

// NewReconciler returns a Reconciler for the given mirror root.
func NewReconciler(store Store, root string) *Reconciler {
	return &Reconciler{store: store, root: root}
}

// HandleEvent performs the remote operation for one filesystem event:
// created and modified files are upserted, removed files are deleted.
// Each event results in at most one remote write; failures are returned
// for the caller to log, and the event is dropped rather than retried.
func (r *Reconciler) HandleEvent(event fswatch.Event) error {
	switch event.Op {
	case fswatch.Create, fswatch.Modify:
		return r.upsert(event.Path)
	case fswatch.Remove:
		// Removing a local directory doesn't remove anything remote.
		// Without this check, a directory whose name collides with an
		// item title would delete that item.
		if event.IsDir {
			return nil
		}
		return r.remove(event.Path)
	}
	return nil
}

// upsert uploads the file at path, updating the existing remote item if
// one with a matching title, owner, and folder exists, and creating a
// new one otherwise.
func (r *Reconciler) upsert(path string) error {
	fi, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			// The file vanished between the event and now. The remove
			// event that follows will handle it.
			return nil
		}
		return errors.WithContext(err, "stat")
	}
	if fi.IsDir() {
		return nil
	}

	folder, err := FolderOf(path, r.root)
	if err != nil {
		return errors.WithContext(err, "resolve folder")
	}

	title := titleOf(path)
	props := portal.ItemProperties{
		Title: title,
		Tags:  uploadTags,
		Type:  uploadType,
	}

	existing, err := r.lookup(title, folder)
	if err != nil {
		return err
	}

	if existing != nil {
		log.Infof("  [updating] %s...", existing.Title)
		if err := r.store.UpdateItem(existing, props, path); err != nil {
			return errors.WithContext(err, "update item")
		}
		log.Infof("  [updated] %s in the portal", existing.Title)
		return nil
	}

	log.Infof("  [uploading] new file: %s...", filepath.Base(path))
	item, err := r.store.AddItem(props, path, folder)
	if err != nil {
		return errors.WithContext(err, "add item")
	}
	log.Infof("  [uploaded] %s to the portal", item.Title)
	return nil
}

// remove deletes the remote item corresponding to the removed local
// file. A missing remote item is a no-op, not an error: the goal state
// is already reached.
func (r *Reconciler) remove(path string) error {
	// The path is already gone locally, so it can't be stat'ed; the
	// watcher is responsible for flagging directory removals before
	// they reach this point.
	folder, err := FolderOf(path, r.root)
	if err != nil {
		return errors.WithContext(err, "resolve folder")
	}

	item, err := r.lookup(titleOf(path), folder)
	if err != nil {
		return err
	}
	if item == nil {
		return nil
	}

	log.Infof("  [deleting] %s from the portal...", item.Title)
	if err := r.store.DeleteItem(item); err != nil {
		return errors.WithContext(err, "delete item")
	}
	log.Infof("  [deleted] %s from the portal", item.Title)
	return nil
}

// lookup finds at most one remote item by title, owner, and folder. If
// duplicate titles exist, only the first match is acted on.
func (r *Reconciler) lookup(title, folder string) (*portal.Item, error) {
	item, err := r.store.Search(title, r.store.CurrentUser(), folder)
	if err != nil {
		return nil, errors.WithContext(err, "search")
	}
	return item, nil
}

// titleOf returns the item title encoded by a local path: the filename
// with its last extension stripped.
func titleOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
