package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/weft/config.yml.
type GlobalConfig struct {
	DefaultRepo string `yaml:"default_repo,omitempty"` // Used when the working directory is not inside a repository
	Catalog     string `yaml:"catalog,omitempty"`      // Fallback node catalog
	LogLevel    string `yaml:"log_level,omitempty"`
	LogFormat   string `yaml:"log_format,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "weft"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// Environment variables that override global config values.
const (
	EnvDefaultRepo = "WEFT_REPO"
	EnvCatalog     = "WEFT_CATALOG"
	EnvLogLevel    = "WEFT_LOG_LEVEL"
	EnvLogFormat   = "WEFT_LOG_FORMAT"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/weft/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	cfg.DefaultRepo = ExpandPath(cfg.DefaultRepo)
	cfg.Catalog = ExpandPath(cfg.Catalog)

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetConfigValue returns the environment variable envKey when set, else
// the config value.
func GetConfigValue(envKey, configValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return configValue
}

func global() *GlobalConfig {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return &GlobalConfig{}
	}
	return cfg
}

// GetDefaultRepo returns the default repository path.
func GetDefaultRepo() string {
	return ExpandPath(GetConfigValue(EnvDefaultRepo, global().DefaultRepo))
}

// GetCatalog returns the global catalog path.
func GetCatalog() string {
	return ExpandPath(GetConfigValue(EnvCatalog, global().Catalog))
}

// GetLogLevel returns the configured log level name.
func GetLogLevel() string {
	return GetConfigValue(EnvLogLevel, global().LogLevel)
}

// GetLogFormat returns the configured log format name.
func GetLogFormat() string {
	return GetConfigValue(EnvLogFormat, global().LogFormat)
}

// ErrNoRepository is returned when no repository is found and no default
// is configured.
var ErrNoRepository = errors.New("no weft repository found")

// ResolveRepository finds the repository containing start, falling back to
// the configured default repository.
func ResolveRepository(start string) (string, error) {
	if root, err := FindRepository(start); err == nil {
		return root, nil
	}
	if def := GetDefaultRepo(); def != "" {
		if IsRepository(def) {
			return def, nil
		}
		return "", fmt.Errorf("%w: configured default_repo %s has no %s directory", ErrNoRepository, def, WeftDir)
	}
	return "", ErrNoRepository
}

// HelpfulConfigMessage returns a helpful message when no repository is found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No weft repository found.

Run 'weft init' to create one here, or create %s to set a default:
  mkdir -p %s
  echo 'default_repo: /path/to/your/workflow' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
