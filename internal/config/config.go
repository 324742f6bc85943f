package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the px configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the px configuration directory
const ConfigDirName = ".px"

// Config holds all px configuration
type Config struct {
	Endpoint          string           `yaml:"endpoint"`
	Selector          string           `yaml:"selector_sparql"`
	Grouping          GroupingConfig   `yaml:"grouping"`
	Properties        []PropertyConfig `yaml:"properties"`
	PropertyThreshold int              `yaml:"property_threshold"`
	OmitNoGroupRow    bool             `yaml:"omit_no_group_row"`
	Cache             CacheConfig      `yaml:"cache"`
}

// GroupingConfig holds configuration for how entities are bucketed
type GroupingConfig struct {
	Property           string `yaml:"property"`
	Threshold          int    `yaml:"threshold"`
	HigherGrouping     string `yaml:"higher_grouping"`
	HigherGroupingType string `yaml:"higher_grouping_type"`
	Link               string `yaml:"link"`
}

// PropertyConfig holds configuration for one tracked property column
type PropertyConfig struct {
	Property  string `yaml:"property"`
	Qualifier string `yaml:"qualifier,omitempty"`
	Value     string `yaml:"value,omitempty"`
	Title     string `yaml:"title,omitempty"`
}

// CacheConfig holds configuration for the query-result cache
type CacheConfig struct {
	TTLHours int  `yaml:"ttl_hours"`
	Disabled bool `yaml:"disabled"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

var (
	propertyIDPattern = regexp.MustCompile(`^P[1-9]\d*$`)
	itemIDPattern     = regexp.MustCompile(`^Q[1-9]\d*$`)
)

// Load reads config from .px/config.yaml, searching for the config directory
// starting from workDir and walking up the directory tree.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Merge with defaults
	merged := Merge(loaded, DefaultConfig())

	// Validate the merged config
	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindConfigDir locates the .px directory by walking up from startDir.
// Returns the path to the .px directory if found.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root, config not found
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .px directory if it doesn't exist.
// Returns the path to the .px directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// Validate checks that config values are valid.
// Returns an error if validation fails.
func Validate(cfg *Config) error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("%w: endpoint must not be empty", ErrInvalidConfig)
	}

	if cfg.Selector == "" {
		return fmt.Errorf("%w: selector_sparql must not be empty", ErrInvalidConfig)
	}

	if !propertyIDPattern.MatchString(cfg.Grouping.Property) {
		return fmt.Errorf("%w: grouping.property must be a property id (P123), got %q",
			ErrInvalidConfig, cfg.Grouping.Property)
	}

	if cfg.Grouping.Threshold < 0 {
		return fmt.Errorf("%w: grouping.threshold must be non-negative, got %d",
			ErrInvalidConfig, cfg.Grouping.Threshold)
	}

	if !IsValidHigherGroupingType(cfg.Grouping.HigherGroupingType) {
		return fmt.Errorf("%w: grouping.higher_grouping_type must be one of %v, got %q",
			ErrInvalidConfig, ValidHigherGroupingTypes, cfg.Grouping.HigherGroupingType)
	}

	if len(cfg.Properties) == 0 {
		return fmt.Errorf("%w: at least one tracked property is required", ErrInvalidConfig)
	}

	for i, prop := range cfg.Properties {
		if !propertyIDPattern.MatchString(prop.Property) {
			return fmt.Errorf("%w: properties[%d].property must be a property id (P123), got %q",
				ErrInvalidConfig, i, prop.Property)
		}
		if prop.Qualifier != "" && !propertyIDPattern.MatchString(prop.Qualifier) {
			return fmt.Errorf("%w: properties[%d].qualifier must be a property id (P123), got %q",
				ErrInvalidConfig, i, prop.Qualifier)
		}
		if prop.Value != "" && !itemIDPattern.MatchString(prop.Value) {
			return fmt.Errorf("%w: properties[%d].value must be an item id (Q123), got %q",
				ErrInvalidConfig, i, prop.Value)
		}
		if prop.Value != "" && prop.Qualifier == "" {
			return fmt.Errorf("%w: properties[%d].value requires a qualifier", ErrInvalidConfig, i)
		}
	}

	if cfg.PropertyThreshold < 0 {
		return fmt.Errorf("%w: property_threshold must be non-negative, got %d",
			ErrInvalidConfig, cfg.PropertyThreshold)
	}

	if cfg.Cache.TTLHours <= 0 {
		return fmt.Errorf("%w: cache.ttl_hours must be positive, got %d",
			ErrInvalidConfig, cfg.Cache.TTLHours)
	}

	return nil
}

// ApplyEnv overrides config values from the environment. Callers that want
// .env support load it before calling this.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PX_ENDPOINT"); v != "" {
		c.Endpoint = v
	}
}

// SaveDefault writes the default configuration to .px/config.yaml in workDir.
// Creates the .px directory if it doesn't exist.
func SaveDefault(workDir string) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	// Add header comment
	header := "# px configuration\n# Describe the report: which entities to select, how to group them,\n# and which properties to track.\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}
