package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory.
func Load(fs afero.Fs, path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	configContents, err := afero.ReadFile(fs, filepath.Join(path, ConfigurationName))
	if err != nil {
		return nil, err
	}
	out := defaultConfig()
	if err := yaml.UnmarshalStrict(configContents, out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	out.configFs = afero.NewBasePathFs(fs, path)
	return out, nil
}

// LoadOrDefault loads the configuration, falling back to the defaults if
// the directory has none.
func LoadOrDefault(fs afero.Fs, path string) (*Configuration, error) {
	cfg, err := Load(fs, path)
	if os.IsNotExist(err) {
		out := defaultConfig()
		out.configFs = afero.NewBasePathFs(fs, path)
		return out, nil
	}
	return cfg, err
}
