// Package config loads, validates, and persists the server configuration.
// Configuration lives in a YAML file and can be updated at runtime through
// the API; updates merge into the current state and are written back.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nkovalenko/tutorchat/internal/fileutil"
	"github.com/nkovalenko/tutorchat/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
)

// Field length limits.
const (
	MaxAddrLength       = 253 + 6 // host plus ":port"
	MaxModelNameLength  = 100
	MaxPromptLength     = 32 << 10 // prompt templates are free-form text
	MaxPathLength       = 4096
	MaxThemeLength      = 50
	MaxDateFormatLength = 50
)

// Config holds all server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Data    DataConfig    `yaml:"data" json:"data"`
	Model   ModelConfig   `yaml:"model" json:"model"`
	Prompts PromptsConfig `yaml:"prompts" json:"prompts"`
	Fonts   FontsConfig   `yaml:"fonts" json:"fonts"`
	Export  ExportConfig  `yaml:"export" json:"export"`
}

// ServerConfig defines the HTTP listener options.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"` // host:port (default ":8000")
}

// DataConfig defines where conversation data is stored.
type DataConfig struct {
	Dir string `yaml:"dir" json:"dir"` // Base directory (default "./data")
}

// ModelConfig selects the language model.
type ModelConfig struct {
	Name string `yaml:"name" json:"name"` // e.g. "gemini-pro"
}

// PromptsConfig holds the prompt templates.
type PromptsConfig struct {
	Dialog     string `yaml:"dialog" json:"dialog"`         // Tutoring dialog template
	Estimation string `yaml:"estimation" json:"estimation"` // Assessment template
}

// FontsConfig defines font lookup options for PDF export.
type FontsConfig struct {
	SearchDirs []string `yaml:"searchDirs" json:"searchDirs"` // Empty = built-in locations
}

// ExportConfig defines PDF export rendering options.
type ExportConfig struct {
	CodeTheme  string `yaml:"codeTheme" json:"codeTheme"`   // Chroma style name (default "github")
	DateFormat string `yaml:"dateFormat" json:"dateFormat"` // Token format or preset name
	StyleDir   string `yaml:"styleDir" json:"styleDir"`     // Optional print.css override directory
}

// DefaultConfig returns the configuration used when no file exists yet.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8000"},
		Data:   DataConfig{Dir: "./data"},
		Model:  ModelConfig{Name: "gemini-pro"},
		Export: ExportConfig{CodeTheme: "github"},
	}
}

// Validate checks field lengths and value sanity.
// Called automatically by Load and Manager.Update, but available for
// consumers who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("server.addr", c.Server.Addr, MaxAddrLength); err != nil {
		return err
	}
	if c.Server.Addr != "" && !strings.Contains(c.Server.Addr, ":") {
		return fmt.Errorf("server.addr: missing port in %q", c.Server.Addr)
	}
	if err := validateFieldLength("data.dir", c.Data.Dir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("model.name", c.Model.Name, MaxModelNameLength); err != nil {
		return err
	}
	if err := validateFieldLength("prompts.dialog", c.Prompts.Dialog, MaxPromptLength); err != nil {
		return err
	}
	if err := validateFieldLength("prompts.estimation", c.Prompts.Estimation, MaxPromptLength); err != nil {
		return err
	}
	for i, dir := range c.Fonts.SearchDirs {
		if err := validateFieldLength(fmt.Sprintf("fonts.searchDirs[%d]", i), dir, MaxPathLength); err != nil {
			return err
		}
	}
	if err := validateFieldLength("export.codeTheme", c.Export.CodeTheme, MaxThemeLength); err != nil {
		return err
	}
	if err := validateFieldLength("export.dateFormat", c.Export.DateFormat, MaxDateFormatLength); err != nil {
		return err
	}
	if err := validateFieldLength("export.styleDir", c.Export.StyleDir, MaxPathLength); err != nil {
		return err
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// Load loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns ErrConfigNotFound if no file exists (no silent fallback).
func Load(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to path. The write goes through a temp
// file in the same directory and renames it into place so readers never
// see a partial file.
func Save(path string, cfg *Config) error {
	data, err := yamlutil.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}

// isFilePath returns true if the string looks like a file path rather
// than a bare config name.
func isFilePath(s string) bool {
	if strings.ContainsAny(s, "/\\") {
		return true
	}
	ext := filepath.Ext(s)
	return ext == ".yaml" || ext == ".yml"
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/tutorchat/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "tutorchat", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
