package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/oidcast/pkg/schema"
)

// Config represents the oidcast configuration
type Config struct {
	DataDir  string        `yaml:"data_dir"`
	Port     int           `yaml:"port"`
	Bind     string        `yaml:"bind"`
	Security Security      `yaml:"security"`
	Logging  Logging       `yaml:"logging"`
	Storage  Storage       `yaml:"storage"`
	Tables   []TableConfig `yaml:"tables"`
}

// Security contains security-related configuration
type Security struct {
	APIKey string `yaml:"api_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Storage contains row store configuration
type Storage struct {
	InMemory bool `yaml:"in_memory"`
	Sync     bool `yaml:"sync"`
}

// TableConfig declares a table served by the store.
type TableConfig struct {
	Name    string         `yaml:"name"`
	Columns []ColumnConfig `yaml:"columns"`
}

// ColumnConfig declares a column. Type is one of objectid, string, int64 or
// binary.
type ColumnConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Width    int    `yaml:"width,omitempty"`
	Primary  bool   `yaml:"primary,omitempty"`
	Nullable bool   `yaml:"nullable,omitempty"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    8080,
		Bind:    "127.0.0.1",
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Tables: []TableConfig{
			{
				Name: "cats",
				Columns: []ColumnConfig{
					{Name: "id", Type: "objectid", Primary: true},
					{Name: "name", Type: "string"},
				},
			},
		},
	}
}

// Schema converts the declaration into a table.
func (tc TableConfig) Schema() (schema.Table, error) {
	var err error
	table := schema.Create(tc.Name, func(b *schema.Blueprint) {
		for _, c := range tc.Columns {
			var cb *schema.ColumnBuilder
			switch c.Type {
			case "objectid":
				cb = b.ObjectID(c.Name)
			case "string":
				cb = b.String(c.Name)
			case "int64":
				cb = b.Int64(c.Name)
			case "binary":
				cb = b.Binary(c.Name, c.Width, false)
			default:
				err = fmt.Errorf("table %s: column %s has unknown type %q", tc.Name, c.Name, c.Type)
				return
			}
			if c.Primary {
				cb.Primary()
			}
			if c.Nullable {
				cb.Nullable()
			}
		}
	})
	if err != nil {
		return schema.Table{}, err
	}
	if err := table.Validate(); err != nil {
		return schema.Table{}, err
	}
	return table, nil
}

// Schemas converts every table declaration.
func (c *Config) Schemas() ([]schema.Table, error) {
	tables := make([]schema.Table, 0, len(c.Tables))
	seen := make(map[string]bool, len(c.Tables))
	for _, tc := range c.Tables {
		if seen[tc.Name] {
			return nil, fmt.Errorf("duplicate table %s", tc.Name)
		}
		seen[tc.Name] = true
		t, err := tc.Schema()
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.DataDir == "" && !c.Storage.InMemory {
		return fmt.Errorf("data_dir is required unless storage.in_memory is set")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid logging format %q", c.Logging.Format)
	}
	_, err := c.Schemas()
	return err
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	config.Tables = nil
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if len(config.Tables) == 0 {
		config.Tables = DefaultConfig().Tables
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig creates a new configuration with a generated API key and saves it
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./oidcast.yaml"
	}
	return filepath.Join(homeDir, ".config", "oidcast", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
