// Config loading for the sheaf CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/sheafscan/sheaf/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyPaperSize  = "paper_size"
	cfgKeyDefaultDPI = "default_dpi"
	cfgKeyCatalogDir = "catalog_dir"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# Sheaf CLI configuration

# Paper size for export artifacts: letter or a4
paper_size: letter

# Assumed scan resolution when the device reports none
default_dpi: 300

# Session catalog directory (empty disables the catalog)
# catalog_dir:
`

// loadConfig reads config.yaml, creating the config directory and a
// default file on first run. A missing config.yaml is not an error;
// defaults apply.
func loadConfig(configFile string) (types.Config, error) {
	var cfg types.Config

	configDir, err := resolveConfigDir(configFile)
	if err != nil {
		return cfg, err
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return cfg, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return cfg, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyPaperSize, types.PaperLetter.Name)
	v.SetDefault(cfgKeyDefaultDPI, 300)
	v.SetDefault(cfgKeyCatalogDir, filepath.Join(configDir, "catalog"))
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	cfg.PaperSize = v.GetString(cfgKeyPaperSize)
	cfg.DefaultDPI = v.GetInt(cfgKeyDefaultDPI)
	cfg.CatalogDir = v.GetString(cfgKeyCatalogDir)
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// resolveConfigDir picks the config directory: the directory of an
// explicit --config file, or ~/.sheaf.
func resolveConfigDir(configFile string) (string, error) {
	if configFile != "" {
		return filepath.Dir(configFile), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".sheaf"), nil
}

// ensureDefaultConfigFile creates a default config.yaml if none exists.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileName+"."+configFileType)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
