package portal

import (
	"path/filepath"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/gisbox/gisbox/pkg/errors"
)

// profileDir is where named credential profiles are stored. Each profile
// is a yaml file holding the portal URL and credentials, so that
// passwords don't have to live in the main config file.
const profileDir = "~/.gisbox/profiles"

// homedirExpand will be overridden in mock tests.
var homedirExpand = homedir.Expand

type profile struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func loadProfile(name string) (Config, error) {
	dir, err := homedirExpand(profileDir)
	if err != nil {
		return Config{}, errors.WithContext(err, "expand profile dir")
	}

	path := filepath.Join(dir, name+".yaml")
	profileBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		return Config{}, errors.FileNotFound{Path: path}
	}

	var parsed profile
	if err := yaml.UnmarshalStrict(profileBytes, &parsed); err != nil {
		return Config{}, errors.WithContext(err, "parse profile")
	}

	if parsed.URL == "" {
		return Config{}, errors.MissingFieldError{Field: "url"}
	}
	return Config{
		URL:      parsed.URL,
		Username: parsed.Username,
		Password: parsed.Password,
	}, nil
}
