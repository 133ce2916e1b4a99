package sync

import (
	"path/filepath"
	goSync "sync"

	"github.com/spf13/afero"

	"github.com/gisbox/gisbox/pkg/errors"
	"github.com/gisbox/gisbox/pkg/portal"
)

// fakeStore is an in-memory Store used by the engine tests. Items are
// keyed by folder title; download payloads are written through the
// package's afero filesystem so that tests can run on a MemMapFs.
type fakeStore struct {
	// lock guards the call records when the store is driven from the
	// monitor's dispatch goroutine.
	lock goSync.Mutex

	user    string
	folders []portal.Folder
	items   map[string][]portal.Item

	// payloads maps item IDs to single-file payload contents.
	payloads map[string]string

	// dirPayloads maps item IDs to directory-shaped payloads
	// (relative path -> contents).
	dirPayloads map[string]map[string]string

	// failDownloads lists item titles whose download should fail.
	failDownloads map[string]bool

	addCalls    []portal.Item
	updateCalls []portal.Item
	deleteCalls []portal.Item

	nextID int
}

func newFakeStore(user string) *fakeStore {
	return &fakeStore{
		user:          user,
		items:         map[string][]portal.Item{},
		payloads:      map[string]string{},
		dirPayloads:   map[string]map[string]string{},
		failDownloads: map[string]bool{},
	}
}

func (s *fakeStore) addFolder(title string) {
	s.folders = append(s.folders, portal.Folder{ID: "fld-" + title, Title: title})
}

func (s *fakeStore) addFileItem(folder, title, itemType, payload string) portal.Item {
	item := s.newItem(folder, title, itemType)
	s.payloads[item.ID] = payload
	return item
}

func (s *fakeStore) addDirItem(folder, title, itemType string,
	payload map[string]string) portal.Item {

	item := s.newItem(folder, title, itemType)
	s.dirPayloads[item.ID] = payload
	return item
}

func (s *fakeStore) newItem(folder, title, itemType string) portal.Item {
	s.nextID++
	item := portal.Item{
		ID:     "item-" + title,
		Title:  title,
		Type:   itemType,
		Owner:  s.user,
		Folder: folder,
	}
	s.items[folder] = append(s.items[folder], item)
	return item
}

func fakeItem(title, owner string) portal.Item {
	return portal.Item{ID: "item-" + title, Title: title, Owner: owner}
}

func (s *fakeStore) CurrentUser() string {
	return s.user
}

func (s *fakeStore) ListFolders() ([]portal.Folder, error) {
	return s.folders, nil
}

func (s *fakeStore) ListItems(folder string) ([]portal.Item, error) {
	return s.items[folder], nil
}

func (s *fakeStore) Download(item portal.Item, destDir string) (portal.Download, error) {
	if s.failDownloads[item.Title] {
		return portal.Download{}, errors.New("download failed")
	}

	if payload, ok := s.dirPayloads[item.ID]; ok {
		base := filepath.Join(destDir, item.ID+"_extract")
		for rel, contents := range payload {
			path := filepath.Join(base, rel)
			if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return portal.Download{}, err
			}
			if err := afero.WriteFile(fs, path, []byte(contents), 0644); err != nil {
				return portal.Download{}, err
			}
		}
		return portal.Download{Kind: portal.DownloadDirectory, Path: base}, nil
	}

	tempPath := filepath.Join(destDir, item.ID)
	err := afero.WriteFile(fs, tempPath, []byte(s.payloads[item.ID]), 0644)
	if err != nil {
		return portal.Download{}, err
	}
	return portal.Download{Kind: portal.DownloadFile, Path: tempPath}, nil
}

func (s *fakeStore) Search(title, owner, folder string) (*portal.Item, error) {
	for _, item := range s.items[folder] {
		if item.Title == title && item.Owner == owner {
			match := item
			return &match, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) AddItem(props portal.ItemProperties, dataPath,
	folder string) (*portal.Item, error) {

	s.lock.Lock()
	defer s.lock.Unlock()

	item := s.newItem(folder, props.Title, props.Type)
	s.addCalls = append(s.addCalls, item)
	return &item, nil
}

func (s *fakeStore) UpdateItem(item *portal.Item, props portal.ItemProperties,
	dataPath string) error {

	s.lock.Lock()
	defer s.lock.Unlock()

	s.updateCalls = append(s.updateCalls, *item)
	return nil
}

func (s *fakeStore) addCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.addCalls)
}

func (s *fakeStore) DeleteItem(item *portal.Item) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.deleteCalls = append(s.deleteCalls, *item)
	for folder, items := range s.items {
		for i, existing := range items {
			if existing.ID == item.ID {
				s.items[folder] = append(items[:i], items[i+1:]...)
				return nil
			}
		}
	}
	return nil
}
