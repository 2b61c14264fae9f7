/*
Package config manages TOML config for pathserve.
*/
package config

import (
	"io"
	"os"
	"path/filepath"

	"github.com/bastiangx/pathserve/internal/utils"
	"github.com/bastiangx/pathserve/pkg/matcher"
	"github.com/bastiangx/pathserve/pkg/scanner"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Matcher MatcherConfig `toml:"matcher"`
	Scanner ScannerConfig `toml:"scanner"`
	Server  ServerConfig  `toml:"server"`
}

// MatcherConfig has ranking options.
type MatcherConfig struct {
	AlwaysShowDotFiles bool   `toml:"always_show_dot_files"`
	NeverShowDotFiles  bool   `toml:"never_show_dot_files"`
	Workers            int    `toml:"workers"`
	Threshold          int    `toml:"threshold"`
	DefaultLimit       int    `toml:"default_limit"`
	Scorer             string `toml:"scorer"`
}

// ScannerConfig holds candidate discovery options.
type ScannerConfig struct {
	Root               string   `toml:"root"`
	MaxDepth           int      `toml:"max_depth"`
	MaxFiles           int      `toml:"max_files"`
	ScanDotDirectories bool     `toml:"scan_dot_directories"`
	IgnoreDirs         []string `toml:"ignore_dirs"`
	Watch              bool     `toml:"watch"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxLimit int    `toml:"max_limit"`
	MaxQuery int    `toml:"max_query"`
	HTTPAddr string `toml:"http_addr"`
}

// Scorer names accepted by the matcher.scorer key.
const (
	ScorerPath   = "path"
	ScorerSahilm = "sahilm"
)

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "pathserve")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "pathserve")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/pathserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Matcher: MatcherConfig{
			Workers:      matcher.DefaultWorkers,
			Threshold:    matcher.DefaultThreshold,
			DefaultLimit: 20,
			Scorer:       ScorerPath,
		},
		Scanner: ScannerConfig{
			Root:       ".",
			MaxDepth:   scanner.DefaultMaxDepth,
			MaxFiles:   scanner.DefaultMaxFiles,
			IgnoreDirs: append([]string(nil), scanner.DefaultIgnoreDirs...),
		},
		Server: ServerConfig{
			MaxLimit: 200,
			MaxQuery: 256,
			HTTPAddr: "127.0.0.1:7878",
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse keeps every well-typed key it can find and defaults the rest.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "matcher"); ok {
		extractMatcherConfig(section, &config.Matcher)
	}
	if section, ok := utils.ExtractSection(tempConfig, "scanner"); ok {
		extractScannerConfig(section, &config.Scanner)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	return config, nil
}

func extractMatcherConfig(data map[string]any, m *MatcherConfig) {
	if val, ok := utils.ExtractBool(data, "always_show_dot_files"); ok {
		m.AlwaysShowDotFiles = val
	}
	if val, ok := utils.ExtractBool(data, "never_show_dot_files"); ok {
		m.NeverShowDotFiles = val
	}
	if val, ok := utils.ExtractInt64(data, "workers"); ok {
		m.Workers = val
	}
	if val, ok := utils.ExtractInt64(data, "threshold"); ok {
		m.Threshold = val
	}
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		m.DefaultLimit = val
	}
	if val, ok := utils.ExtractString(data, "scorer"); ok {
		m.Scorer = val
	}
}

func extractScannerConfig(data map[string]any, s *ScannerConfig) {
	if val, ok := utils.ExtractString(data, "root"); ok {
		s.Root = val
	}
	if val, ok := utils.ExtractInt64(data, "max_depth"); ok {
		s.MaxDepth = val
	}
	if val, ok := utils.ExtractInt64(data, "max_files"); ok {
		s.MaxFiles = val
	}
	if val, ok := utils.ExtractBool(data, "scan_dot_directories"); ok {
		s.ScanDotDirectories = val
	}
	if val, ok := utils.ExtractStrings(data, "ignore_dirs"); ok {
		s.IgnoreDirs = val
	}
	if val, ok := utils.ExtractBool(data, "watch"); ok {
		s.Watch = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "max_query"); ok {
		server.MaxQuery = val
	}
	if val, ok := utils.ExtractString(data, "http_addr"); ok {
		server.HTTPAddr = val
	}
}

// MatcherOptions converts the [matcher] section into a matcher.Config.
func (c *Config) MatcherOptions() matcher.Config {
	return matcher.Config{
		AlwaysShowDotFiles: c.Matcher.AlwaysShowDotFiles,
		NeverShowDotFiles:  c.Matcher.NeverShowDotFiles,
		Workers:            c.Matcher.Workers,
		Threshold:          c.Matcher.Threshold,
	}
}

// ScannerOptions converts the [scanner] section into scanner.Options.
func (c *Config) ScannerOptions() scanner.Options {
	return scanner.Options{
		MaxDepth:           c.Scanner.MaxDepth,
		MaxFiles:           c.Scanner.MaxFiles,
		ScanDotDirectories: c.Scanner.ScanDotDirectories,
		IgnoreDirs:         append([]string(nil), c.Scanner.IgnoreDirs...),
	}
}

// RebuildConfigFile overwrites configPath with the defaults, or the default
// path when configPath is empty. It returns the path written.
func RebuildConfigFile(configPath string) (string, error) {
	if configPath == "" {
		defaultPath, err := GetDefaultConfigPath()
		if err != nil {
			return "", err
		}
		configPath = defaultPath
	}
	if err := utils.EnsureDir(filepath.Dir(configPath)); err != nil {
		return "", err
	}
	return configPath, utils.SaveTOMLFile(DefaultConfig(), configPath)
}

// Encode writes the config as TOML.
func (c *Config) Encode(w io.Writer) error {
	return utils.EncodeTOML(w, c)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes the server limits and saves to file
func (c *Config) Update(configPath string, maxLimit, maxQuery *int, httpAddr *string) error {
	server := &c.Server
	if maxLimit != nil {
		server.MaxLimit = *maxLimit
	}
	if maxQuery != nil {
		server.MaxQuery = *maxQuery
	}
	if httpAddr != nil {
		server.HTTPAddr = *httpAddr
	}
	return SaveConfig(c, configPath)
}
