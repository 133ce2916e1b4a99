package portal

import (
	"fmt"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/gisbox/gisbox/pkg/errors"
)

// Config contains the settings needed to establish a portal session.
type Config struct {
	URL      string
	Username string
	Password string
	Profile  string
}

// Session is an authenticated connection to a content portal. It's
// created once at startup and shared by every operation for the lifetime
// of the process.
type Session struct {
	t        *transport
	username string
	orgName  string
}

// Connect establishes a session with the portal. Profile-based
// credentials take precedence over an inline username and password, and
// if neither is configured the session is anonymous.
func Connect(cfg Config) (*Session, error) {
	if cfg.Profile != "" {
		profileCfg, err := loadProfile(cfg.Profile)
		if err != nil {
			return nil, errors.WithContext(err, fmt.Sprintf("load profile %q", cfg.Profile))
		}
		cfg = profileCfg
	}

	if cfg.URL == "" {
		return nil, errors.MissingFieldError{Field: "url"}
	}

	t := newTransport(cfg.URL)
	if cfg.Username != "" && cfg.Password != "" {
		token, err := generateToken(t, cfg.Username, cfg.Password)
		if err != nil {
			return nil, errors.WithContext(err, "sign in")
		}
		t.token = token
	}

	var self struct {
		Name string `json:"name"`
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	if err := t.getJSON("/portals/self", nil, &self); err != nil {
		return nil, errors.WithContext(err, "fetch portal info")
	}

	username := cfg.Username
	if username == "" {
		username = self.User.Username
	}

	session := &Session{t: t, username: username, orgName: self.Name}
	log.Infof("Connected successfully to organization [%s]", session.orgName)
	return session, nil
}

func generateToken(t *transport, username, password string) (string, error) {
	params := url.Values{}
	params.Set("username", username)
	params.Set("password", password)
	params.Set("referer", t.baseURL)

	var resp struct {
		Token string `json:"token"`
	}
	if err := t.postForm("/generateToken", params, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", ErrUnauthorized
	}
	return resp.Token, nil
}

// CurrentUser returns the username the session is authenticated as.
func (s *Session) CurrentUser() string {
	return s.username
}

// OrgName returns the display name of the connected organization.
func (s *Session) OrgName() string {
	return s.orgName
}

// ListFolders returns the folders in the current user's content.
func (s *Session) ListFolders() ([]Folder, error) {
	var resp struct {
		Folders []Folder `json:"folders"`
	}
	err := s.t.getJSON("/content/users/"+url.PathEscape(s.username), nil, &resp)
	if err != nil {
		return nil, errors.WithContext(err, "list folders")
	}
	return resp.Folders, nil
}

// ListItems returns the items in the folder with the given title. An
// empty title means the root folder.
func (s *Session) ListItems(folder string) ([]Item, error) {
	path := "/content/users/" + url.PathEscape(s.username)
	if folder != "" {
		folderID, err := s.lookupFolderID(folder)
		if err != nil {
			return nil, err
		}
		path += "/" + url.PathEscape(folderID)
	}

	var resp struct {
		Items []Item `json:"items"`
	}
	if err := s.t.getJSON(path, nil, &resp); err != nil {
		return nil, errors.WithContext(err, "list items")
	}

	// The portal doesn't echo the folder back on the item records.
	for i := range resp.Items {
		resp.Items[i].Folder = folder
	}
	return resp.Items, nil
}

// lookupFolderID resolves a folder title to its portal ID. The title is
// the only key GISBox ever persists, so every operation re-resolves it.
func (s *Session) lookupFolderID(title string) (string, error) {
	folders, err := s.ListFolders()
	if err != nil {
		return "", err
	}
	for _, folder := range folders {
		if folder.Title == title {
			return folder.ID, nil
		}
	}
	return "", errors.WithContext(ErrNotFound, fmt.Sprintf("folder %q", title))
}

// Search looks up at most one item by exact title and owner, optionally
// scoped to a folder. It returns nil if nothing matches.
// If the query matches more than one item, only the first is returned.
// Duplicate titles within a folder are unresolved ambiguity.
func (s *Session) Search(title, owner, folder string) (*Item, error) {
	query := fmt.Sprintf("title:%q AND owner:%s", title, owner)
	if folder != "" {
		query += " AND folder:" + folder
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("num", "1")

	var resp struct {
		Results []Item `json:"results"`
	}
	if err := s.t.getJSON("/search", params, &resp); err != nil {
		return nil, errors.WithContext(err, "search")
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	item := resp.Results[0]
	item.Folder = folder
	return &item, nil
}

// AddItem uploads the file at dataPath as a new item in the given folder
// (root if the folder is empty).
func (s *Session) AddItem(props ItemProperties, dataPath, folder string) (*Item, error) {
	path := "/content/users/" + url.PathEscape(s.username)
	if folder != "" {
		folderID, err := s.lookupFolderID(folder)
		if err != nil {
			return nil, err
		}
		path += "/" + url.PathEscape(folderID)
	}
	path += "/addItem"

	var resp struct {
		ID      string `json:"id"`
		Success bool   `json:"success"`
	}
	if err := s.t.postFile(path, props.values(), dataPath, &resp); err != nil {
		return nil, errors.WithContext(err, "add item")
	}
	if !resp.Success {
		return nil, errors.New("portal rejected the new item")
	}

	return &Item{
		ID:     resp.ID,
		Title:  props.Title,
		Type:   props.Type,
		Owner:  s.username,
		Folder: folder,
	}, nil
}

// UpdateItem replaces the item's data with the file at dataPath and
// updates its metadata in place.
func (s *Session) UpdateItem(item *Item, props ItemProperties, dataPath string) error {
	path := fmt.Sprintf("/content/users/%s/items/%s/update",
		url.PathEscape(s.username), url.PathEscape(item.ID))

	var resp struct {
		Success bool `json:"success"`
	}
	if err := s.t.postFile(path, props.values(), dataPath, &resp); err != nil {
		return errors.WithContext(err, "update item")
	}
	if !resp.Success {
		return errors.New("portal rejected the update")
	}
	return nil
}

// DeleteItem removes the item from the portal.
func (s *Session) DeleteItem(item *Item) error {
	path := fmt.Sprintf("/content/users/%s/items/%s/delete",
		url.PathEscape(s.username), url.PathEscape(item.ID))

	var resp struct {
		Success bool `json:"success"`
	}
	if err := s.t.postForm(path, nil, &resp); err != nil {
		return errors.WithContext(err, "delete item")
	}
	if !resp.Success {
		return errors.New("portal rejected the delete")
	}
	return nil
}

// PublishItem publishes a previously added item as a hosted layer and
// returns the resulting service item.
func (s *Session) PublishItem(item *Item) (*Item, error) {
	path := fmt.Sprintf("/content/users/%s/items/%s/publish",
		url.PathEscape(s.username), url.PathEscape(item.ID))

	params := url.Values{}
	params.Set("filetype", strings.ToLower(item.Type))

	var resp struct {
		Services []Item `json:"services"`
	}
	if err := s.t.postForm(path, params, &resp); err != nil {
		return nil, errors.WithContext(err, "publish item")
	}
	if len(resp.Services) == 0 {
		return nil, errors.New("portal returned no published service")
	}

	published := resp.Services[0]
	published.Owner = s.username
	return &published, nil
}

func (props ItemProperties) values() url.Values {
	params := url.Values{}
	params.Set("title", props.Title)
	if props.Type != "" {
		params.Set("type", props.Type)
	}
	if props.Tags != "" {
		params.Set("tags", props.Tags)
	}
	if props.Description != "" {
		params.Set("description", props.Description)
	}
	return params
}
