package config

import (
	"os"
	"path/filepath"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/gisbox/gisbox/pkg/errors"
)

const (
	// UserConfigPath is the default path to the GISBox user config.
	UserConfigPath = "~/.gisbox.yaml"

	// InitialUserConfigVersion is the first version of the GISBox
	// user config. Config files that do not specify a version
	// will default to this version.
	InitialUserConfigVersion = "v1alpha1"

	// SupportedUserConfigVersion is the supported version of the
	// GISBox user config of the current GISBox binary.
	SupportedUserConfigVersion = "v1alpha1"
)

// User contains the settings needed to connect to the content portal and
// to locate the local mirror directory.
type User struct {
	Version  string `json:"version,omitempty"`
	URL      string `json:"url,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Profile  string `json:"profile,omitempty"`
	SyncDir  string `json:"syncDir"`
}

func (u User) getVersion() string {
	return u.Version
}

// homedirExpand will be overridden in mock tests.
var homedirExpand = homedir.Expand

// Environment variables that override the corresponding config file
// fields. They make it possible to run GISBox without a config file at
// all, e.g. in CI.
const (
	urlEnvKey      = "GISBOX_URL"
	usernameEnvKey = "GISBOX_USERNAME"
	passwordEnvKey = "GISBOX_PASSWORD"
	profileEnvKey  = "GISBOX_PROFILE"
	syncDirEnvKey  = "GISBOX_SYNC_DIR"
)

// ParseUser attempts to parse the User config stored in the default path,
// apply any environment overrides, and validate the result.
// The sync directory is required. Its absence is a configuration error
// that must be surfaced before any network activity.
func ParseUser() (User, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}

	config := User{Version: InitialUserConfigVersion}
	if err := parseConfig(path, &config, SupportedUserConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); !ok {
			return User{}, errors.WithContext(err, "parse")
		}
		// A missing config file is fine as long as the environment
		// provides the required settings.
	}

	applyEnvOverrides(&config)

	if config.SyncDir == "" {
		return User{}, errors.MissingFieldError{Field: "syncDir"}
	}

	config.SyncDir, err = homedirExpand(config.SyncDir)
	if err != nil {
		return User{}, errors.WithContext(err, "expand sync dir")
	}

	// Evaluate relative paths relative to the config path.
	if !filepath.IsAbs(config.SyncDir) {
		config.SyncDir = filepath.Join(filepath.Dir(path), config.SyncDir)
	}
	return config, nil
}

func applyEnvOverrides(config *User) {
	overrides := []struct {
		envKey string
		field  *string
	}{
		{urlEnvKey, &config.URL},
		{usernameEnvKey, &config.Username},
		{passwordEnvKey, &config.Password},
		{profileEnvKey, &config.Profile},
		{syncDirEnvKey, &config.SyncDir},
	}
	for _, override := range overrides {
		if val := os.Getenv(override.envKey); val != "" {
			*override.field = val
		}
	}
}

// WriteUser writes the given user config to disk.
func WriteUser(cfg User) error {
	cfg.Version = SupportedUserConfigVersion
	path, err := GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0600); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// GetUserConfigPath returns the path to the user's global GISBox
// configuration. This path is expanded, so it can be directly passed to
// file operations.
func GetUserConfigPath() (string, error) {
	return homedirExpand(UserConfigPath)
}
