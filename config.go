package pysubclasses

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the optional per-tree configuration file, looked up at
// the analysis root. CLI flags and Options take precedence over it.
const ConfigFileName = ".pysubclasses.toml"

// Config is the on-disk configuration. All fields are optional.
type Config struct {
	// Exclude lists glob patterns matched against slash-separated paths
	// relative to the root.
	Exclude []string `toml:"exclude"`
	// Cache toggles the extraction cache. Unset means enabled.
	Cache *bool `toml:"cache"`
	// Workers caps the extraction worker pool. Unset means NumCPU.
	Workers int `toml:"workers"`
}

// loadConfig reads the root's config file. A missing file is not an error;
// a present but unparsable file is, since silently ignoring it would make
// its settings appear to randomly not apply.
func loadConfig(rootDir string) (*Config, error) {
	path := filepath.Join(rootDir, ConfigFileName)
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}
	return &cfg, nil
}
