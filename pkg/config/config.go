// package config stores roletest's local settings: defaults for the
// session name, the propagation wait and output formats. Command line flags
// always take precedence over values stored here.
package config

import (
	"os"
	"path"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/common-fate/roletest/internal/build"
)

const (
	// permission for user to read/write.
	USER_READ_WRITE_PERM = 0644
	// permission for user to read/write/traverse.
	USER_READ_WRITE_EXECUTE_PERM = 0700
)

type Config struct {
	// SessionName overrides the default assumed-role session name.
	SessionName string `toml:",omitempty"`
	// UniqueSessionNames generates a fresh session name per run so runs can
	// be told apart in CloudTrail.
	UniqueSessionNames bool `toml:",omitempty"`
	// PropagationWait bounds the assume-role retry window after a trust
	// policy write, e.g. "90s". Empty means the built-in default.
	PropagationWait string `toml:",omitempty"`
	// AssumeDuration is the lifetime requested for temporary credentials,
	// e.g. "1h". Empty leaves the STS default in place.
	AssumeDuration string `toml:",omitempty"`
	// DefaultOutput is the credential output format of the assume command:
	// env, json or none.
	DefaultOutput string `toml:",omitempty"`
	// ConsoleService is the console destination opened by --console.
	ConsoleService string `toml:",omitempty"`
	// ExportProfileSuffix is appended to profile names written to the
	// shared credentials file.
	ExportProfileSuffix string `toml:",omitempty"`
	DisableUsageTips    bool   `toml:",omitempty"`
}

// NewDefaultConfig returns the config used before the user saves one.
func NewDefaultConfig() Config {
	return Config{}
}

// checks and or creates the config folder on startup
func SetupConfigFolder() error {
	folder, err := RoletestConfigFolder()
	if err != nil {
		return err
	}
	if _, err := os.Stat(folder); os.IsNotExist(err) {
		err := os.Mkdir(folder, USER_READ_WRITE_EXECUTE_PERM)
		if err != nil {
			return err
		}
	}
	return nil
}

func RoletestConfigFolder() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	configDir := filepath.Join(home, build.ConfigFolderName)
	if xdgConfigDir := os.Getenv("XDG_CONFIG_HOME"); !pathExists(configDir) && xdgConfigDir != "" {
		configDir = filepath.Join(xdgConfigDir, "roletest")
	}

	return configDir, nil
}

func RoletestConfigFilePath() (string, error) {
	folder, err := RoletestConfigFolder()
	if err != nil {
		return "", err
	}
	return path.Join(folder, "config"), nil
}

// pathExists checks if a given file exists and returns true or false
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func Load() (*Config, error) {
	configFilePath, err := RoletestConfigFilePath()
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(configFilePath, os.O_RDWR|os.O_CREATE, USER_READ_WRITE_PERM)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	c := NewDefaultConfig()

	_, err = toml.NewDecoder(file).Decode(&c)
	if err != nil {
		// if there is an error just reset the file
		return &c, nil
	}
	return &c, nil
}

func (c *Config) Save() error {
	configFilePath, err := RoletestConfigFilePath()
	if err != nil {
		return err
	}

	file, err := os.OpenFile(configFilePath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, USER_READ_WRITE_PERM)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(c)
}
