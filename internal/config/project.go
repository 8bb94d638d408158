package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// SuiteConfigFile is the default suite config filename
	SuiteConfigFile = "wrtprobe.yaml"
)

// LoadSuiteConfig loads the suite configuration from the given path. An empty
// path looks for wrtprobe.yaml in the current and parent directories; when
// none exists the defaults are returned. An explicit path must exist.
func LoadSuiteConfig(path string) (*SuiteConfig, error) {
	if path == "" {
		found, err := FindSuiteConfig()
		if err != nil {
			return DefaultSuiteConfig(), nil
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config SuiteConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	return &config, nil
}

// SaveSuiteConfig saves the suite configuration to the given path
func SaveSuiteConfig(config *SuiteConfig, path string) error {
	if path == "" {
		path = SuiteConfigFile
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FindSuiteConfig searches for the config file in current and parent directories
func FindSuiteConfig() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return findSuiteConfigFrom(cwd)
}

func findSuiteConfigFrom(dir string) (string, error) {
	for {
		configPath := filepath.Join(dir, SuiteConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no %s found in current or parent directories", SuiteConfigFile)
}
