// Package config loads amansearch configuration: built-in defaults, then the
// user config, then the project's .amansearch.yaml, then AMANSEARCH_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/amansearch/internal/directory"
	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
)

// Directory kinds accepted by the directory settings.
const (
	DirectoryFileSystem = "filesystem"
	DirectoryMemory     = "memory"
	DirectorySyncedTemp = "synced-temp"
)

// ProjectFile is the project configuration file name.
const ProjectFile = ".amansearch.yaml"

// Config is the complete amansearch configuration.
type Config struct {
	Version int `yaml:"version" json:"version"`

	// Root is the index root. Relative paths are resolved against the
	// application root; empty means <app root>/.amansearch/indexes.
	Root string `yaml:"root" json:"root"`

	// TempRoot holds working copies when Directory is synced-temp.
	TempRoot string `yaml:"temp_root" json:"temp_root"`

	// Directory is the default directory kind for every index.
	Directory string `yaml:"directory" json:"directory"`

	Search         SearchConfig          `yaml:"search" json:"search"`
	Logging        LoggingConfig         `yaml:"logging" json:"logging"`
	Indexes        []IndexConfig         `yaml:"indexes" json:"indexes"`
	MultiSearchers []MultiSearcherConfig `yaml:"multi_searchers" json:"multi_searchers"`
}

// SearchConfig holds searcher defaults.
type SearchConfig struct {
	MaxResults       int    `yaml:"max_results" json:"max_results"`
	DefaultIndexType string `yaml:"default_index_type" json:"default_index_type"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// IndexConfig declares one named index.
type IndexConfig struct {
	Name           string        `yaml:"name" json:"name"`
	Analyzer       string        `yaml:"analyzer,omitempty" json:"analyzer,omitempty"`
	Directory      string        `yaml:"directory,omitempty" json:"directory,omitempty"`
	Fields         []FieldConfig `yaml:"fields,omitempty" json:"fields,omitempty"`
	RequiredFields []string      `yaml:"required_fields,omitempty" json:"required_fields,omitempty"`
}

// FieldConfig declares one field and its value type.
type FieldConfig struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// MultiSearcherConfig declares a searcher over several indexes.
type MultiSearcherConfig struct {
	Name     string   `yaml:"name" json:"name"`
	Indexes  []string `yaml:"indexes" json:"indexes"`
	Analyzer string   `yaml:"analyzer,omitempty" json:"analyzer,omitempty"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Version:   1,
		Directory: DirectoryFileSystem,
		Search: SearchConfig{
			MaxResults:       500,
			DefaultIndexType: "content",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// GetUserConfigPath returns the user configuration file:
// $XDG_CONFIG_HOME/amansearch/config.yaml, else ~/.config/amansearch/config.yaml.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "amansearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "amansearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "amansearch", "config.yaml")
}

// GetUserConfigDir returns the directory holding the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether a user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load builds the configuration for the application rooted at dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFile loads defaults plus a single file, then env overrides. Used when
// the CLI is given an explicit --config.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromFile merges .amansearch.yaml, or .amansearch.yml, from dir.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{ProjectFile, ".amansearch.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return amerrors.New(amerrors.ErrCodeConfigNotFound,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return amerrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithSuggestion("Check the YAML syntax of " + path)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero values from other. Indexes and multi
// searchers merge by name: an entry replaces the one it shares a name with.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Root != "" {
		c.Root = other.Root
	}
	if other.TempRoot != "" {
		c.TempRoot = other.TempRoot
	}
	if other.Directory != "" {
		c.Directory = other.Directory
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.DefaultIndexType != "" {
		c.Search.DefaultIndexType = other.Search.DefaultIndexType
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}

	for _, idx := range other.Indexes {
		c.Indexes = upsert(c.Indexes, idx, func(i IndexConfig) string { return i.Name })
	}
	for _, ms := range other.MultiSearchers {
		c.MultiSearchers = upsert(c.MultiSearchers, ms, func(m MultiSearcherConfig) string { return m.Name })
	}
}

func upsert[T any](list []T, item T, name func(T) string) []T {
	for i := range list {
		if name(list[i]) == name(item) {
			list[i] = item
			return list
		}
	}
	return append(list, item)
}

// applyEnvOverrides applies AMANSEARCH_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AMANSEARCH_ROOT"); v != "" {
		c.Root = v
	}
	if v := os.Getenv("AMANSEARCH_DIRECTORY"); v != "" {
		c.Directory = strings.ToLower(v)
	}
	if v := os.Getenv("AMANSEARCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("AMANSEARCH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			c.Search.MaxResults = n
		}
	}
}

// Validate checks the configuration. Analyzer and value type names are
// checked when indexes are registered, where their catalogs live.
func (c *Config) Validate() error {
	if !validDirectory(c.Directory) {
		return invalid("directory must be 'filesystem', 'memory' or 'synced-temp', got %q", c.Directory)
	}
	if c.Search.MaxResults < 0 {
		return invalid("search.max_results must be non-negative, got %d", c.Search.MaxResults)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return invalid("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	indexNames := make(map[string]bool, len(c.Indexes))
	for _, idx := range c.Indexes {
		if err := directory.ValidateName(idx.Name); err != nil {
			return err
		}
		if indexNames[idx.Name] {
			return amerrors.DuplicateNameError("index", idx.Name)
		}
		indexNames[idx.Name] = true

		if idx.Directory != "" && !validDirectory(idx.Directory) {
			return invalid("index %q: unknown directory %q", idx.Name, idx.Directory)
		}
		fieldNames := make(map[string]bool, len(idx.Fields))
		for _, f := range idx.Fields {
			if f.Name == "" {
				return invalid("index %q: field without a name", idx.Name)
			}
			if fieldNames[f.Name] {
				return invalid("index %q: field %q declared twice", idx.Name, f.Name)
			}
			fieldNames[f.Name] = true
		}
	}

	searcherNames := make(map[string]bool, len(c.MultiSearchers))
	for _, ms := range c.MultiSearchers {
		if strings.TrimSpace(ms.Name) == "" {
			return invalid("multi_searchers: entry without a name")
		}
		if searcherNames[ms.Name] || indexNames[ms.Name] {
			return amerrors.DuplicateNameError("searcher", ms.Name)
		}
		searcherNames[ms.Name] = true
		if len(ms.Indexes) == 0 {
			return invalid("multi searcher %q lists no indexes", ms.Name)
		}
	}

	return nil
}

// IndexRoot returns the absolute index root for an application root.
func (c *Config) IndexRoot(appRoot string) string {
	switch {
	case c.Root == "":
		return directory.DefaultRoot(appRoot)
	case filepath.IsAbs(c.Root):
		return c.Root
	default:
		return filepath.Join(appRoot, c.Root)
	}
}

// Index returns the named index configuration.
func (c *Config) Index(name string) (IndexConfig, bool) {
	for _, idx := range c.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexConfig{}, false
}

// WriteYAML writes the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// FindAppRoot walks up from startDir to the first directory holding .git or
// a project config file. Without one, startDir itself is the root.
func FindAppRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	current := absDir
	for {
		if dirExists(filepath.Join(current, ".git")) ||
			fileExists(filepath.Join(current, ProjectFile)) ||
			fileExists(filepath.Join(current, ".amansearch.yml")) {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return absDir, nil
		}
		current = parent
	}
}

func validDirectory(kind string) bool {
	switch strings.ToLower(kind) {
	case DirectoryFileSystem, DirectoryMemory, DirectorySyncedTemp:
		return true
	}
	return false
}

func invalid(format string, args ...any) error {
	return amerrors.ConfigError(fmt.Sprintf(format, args...), nil)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
