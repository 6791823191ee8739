// Package config loads application settings from the settings file and
// environment, and sets up logging.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings gates and parameterizes sync behavior. SyncEnabled switches all
// remote access; AutoSync additionally triggers opportunistic background
// pushes after local edits.
type Settings struct {
	SyncEnabled   bool   `yaml:"sync_enabled"`
	AutoSync      bool   `yaml:"auto_sync"`
	AppFolderName string `yaml:"app_folder_name"`
	DataDir       string `yaml:"data_dir"`
	LogDir        string `yaml:"log_dir"`
	Debug         bool   `yaml:"debug"`
}

// Defaults returns the settings used when no file or overrides exist.
func Defaults() Settings {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}
	base := filepath.Join(configDir, "draftvault")
	return Settings{
		SyncEnabled:   true,
		AutoSync:      true,
		AppFolderName: "Draftvault",
		DataDir:       base,
		LogDir:        filepath.Join(base, "logs"),
	}
}

// SettingsPath returns the location of the settings file.
func SettingsPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}
	return filepath.Join(configDir, "draftvault", "config.yaml")
}

// Load reads settings from path (SettingsPath() when empty), falling back to
// defaults when the file does not exist, then applies environment overrides.
func Load(path string) (Settings, error) {
	if path == "" {
		path = SettingsPath()
	}
	s := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run, defaults apply.
	case err != nil:
		return s, fmt.Errorf("read settings %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parse settings %s: %w", path, err)
		}
	}

	applyEnv(&s)
	return s, nil
}

func applyEnv(s *Settings) {
	if v := os.Getenv("DRAFTVAULT_SYNC_ENABLED"); v != "" {
		s.SyncEnabled = v == "true"
	}
	if v := os.Getenv("DRAFTVAULT_AUTO_SYNC"); v != "" {
		s.AutoSync = v == "true"
	}
	if v := os.Getenv("DRAFTVAULT_APP_FOLDER"); v != "" {
		s.AppFolderName = v
	}
	if v := os.Getenv("DRAFTVAULT_DATA_DIR"); v != "" {
		s.DataDir = v
	}
	if v := os.Getenv("DRAFTVAULT_LOG_DIR"); v != "" {
		s.LogDir = v
	}
	if v := os.Getenv("DRAFTVAULT_DEBUG"); v != "" {
		s.Debug = v == "true"
	}
}

// DatabasePath returns the SQLite file location under the data dir.
func (s Settings) DatabasePath() string {
	return filepath.Join(s.DataDir, "draftvault.db")
}
