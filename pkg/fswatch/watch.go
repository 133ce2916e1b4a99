package fswatch

import (
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/gisbox/gisbox/pkg/errors"
)

var fs = afero.NewOsFs()

// Op is the kind of filesystem change that occurred.
type Op int

const (
	// Create indicates a new file or directory appeared.
	Create Op = iota

	// Modify indicates an existing file's contents changed.
	Modify

	// Remove indicates a file or directory was deleted or renamed away.
	Remove
)

func (op Op) String() string {
	switch op {
	case Create:
		return "create"
	case Modify:
		return "modify"
	case Remove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is a single filesystem change under the watched root.
// IsDir reports whether the path is a directory. A removed path can't be
// stat'ed anymore, so the watcher answers from the set of directories it
// has been watching.
type Event struct {
	Path  string
	Op    Op
	IsDir bool
}

// Watcher delivers filesystem events for a directory tree. Events are
// delivered on a single channel in the order the OS reports them; there
// is no fan-out, so consumers that read one event at a time get strictly
// sequential processing.
type Watcher struct {
	notifier *fsnotify.Watcher
	events   chan Event

	// done unblocks pending event sends once the watcher is closed, so
	// that the delivery goroutine exits even if the consumer is gone.
	done chan struct{}

	// dirs is the set of directories added to the watch, so that remove
	// events for them can be recognized after the path is gone.
	dirsLock sync.Mutex
	dirs     map[string]bool

	closeOnce sync.Once
	closeErr  error
}

// Watch starts watching the directory tree rooted at root.
func Watch(root string) (*Watcher, error) {
	fi, err := fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: root}
		}
		return nil, errors.WithContext(err, "stat")
	}
	if !fi.IsDir() {
		return nil, errors.New("watch root must be a directory")
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithContext(err, "create watcher")
	}

	w := &Watcher{
		notifier: notifier,
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
		dirs:     map[string]bool{},
	}

	// fsnotify doesn't watch directories recursively, so we walk the
	// tree and add every subdirectory. Directories created later are
	// added as their create events arrive.
	err = afero.Walk(fs, root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.WithContext(err, "walk")
		}
		if !fi.IsDir() {
			return nil
		}
		w.rememberDir(path)
		return notifier.Add(path)
	})
	if err != nil {
		// Close the watcher so that we release the file handles for the
		// previously added paths.
		if closeErr := notifier.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("Failed to close file watcher")
		}
		return nil, errors.WithContext(err, "add watch paths")
	}

	go w.run()
	return w, nil
}

// Events returns the channel on which filesystem changes are delivered.
// The channel is closed after Close is called and all pending events
// have been drained.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Close stops the watcher and releases its file handles. It's safe to
// call multiple times.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.closeErr = w.notifier.Close()
	})
	return w.closeErr
}

func (w *Watcher) run() {
	defer close(w.events)
	for {
		select {
		case event, ok := <-w.notifier.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.notifier.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("File watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	var op Op
	var isDir bool
	switch {
	case event.Has(fsnotify.Create):
		op = Create

		// Start watching directories as they appear so that files
		// created inside them are picked up too.
		if fi, err := fs.Stat(event.Name); err == nil && fi.IsDir() {
			isDir = true
			w.rememberDir(event.Name)
			if err := w.notifier.Add(event.Name); err != nil {
				log.WithError(err).WithField("path", event.Name).Warn(
					"Failed to watch new directory")
			}
		}
	case event.Has(fsnotify.Write):
		op = Modify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		op = Remove
		isDir = w.forgetDir(event.Name)
	default:
		// Chmod and other metadata-only changes don't affect the remote
		// copy.
		return
	}

	select {
	case w.events <- Event{Path: event.Name, Op: op, IsDir: isDir}:
	case <-w.done:
		// Nobody is reading anymore; drop the event so that run can
		// observe the notifier close and exit.
	}
}

func (w *Watcher) rememberDir(path string) {
	w.dirsLock.Lock()
	defer w.dirsLock.Unlock()
	w.dirs[path] = true
}

// forgetDir removes path from the watched directory set and reports
// whether it was in it.
func (w *Watcher) forgetDir(path string) bool {
	w.dirsLock.Lock()
	defer w.dirsLock.Unlock()
	isDir := w.dirs[path]
	delete(w.dirs, path)
	return isDir
}
