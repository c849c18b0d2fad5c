package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// UserConfigFile is the rc file in the operator's home directory, plain
// KEY=value pairs. It carries per-operator overrides such as KOJI_OPTIONS.
const UserConfigFile = ".rpmrelayrc"

// UserConfig holds the operator's rc file settings.
type UserConfig map[string]string

// DefaultUserConfigPath returns the rc file path under the home directory.
func DefaultUserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return UserConfigFile
	}
	return filepath.Join(home, UserConfigFile)
}

// LoadUserConfig reads the rc file at path. A missing file is not an
// error; it yields an empty config.
func LoadUserConfig(path string) (UserConfig, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return UserConfig{}, nil
		}
		return nil, err
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("user config %s: %w", path, err)
	}
	return UserConfig(values), nil
}

// Get returns the value for key and whether it was set.
func (u UserConfig) Get(key string) (string, bool) {
	v, ok := u[key]
	return v, ok
}
