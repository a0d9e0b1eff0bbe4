// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ghollingworth/pichat/internal/citations"
	"github.com/ghollingworth/pichat/internal/grounding"
	"github.com/ghollingworth/pichat/internal/sources"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// legacyConfigPath is checked when the default path does not exist.
	legacyConfigPath = "config.json"
	// defaultLogFile is used when logFile is unset.
	defaultLogFile = "pichat.log"
	// defaultSourcesCorpus is the folder uploaded documents live in.
	defaultSourcesCorpus = "uploads"
	// defaultSourcesCatalog is the JSONL title to URL catalog.
	defaultSourcesCatalog = "uploads/catalog.jsonl"
)

// Config represents the top-level application configuration.
type Config struct {
	Debug                    bool     `json:"debug"`
	JSONMode                 bool     `json:"jsonMode"`
	LogFile                  string   `json:"logFile,omitempty"`
	Modes                    []string `json:"modes,omitempty"`
	OffsetUnit               string   `json:"offsetUnit,omitempty"`
	PlaceholderScheme        string   `json:"placeholderScheme,omitempty"`
	GFM                      bool     `json:"gfm"`
	UnsafeHTML               bool     `json:"unsafeHTML"`
	SourcesCorpus            string   `json:"sourcesCorpus,omitempty"`
	SourcesCatalog           string   `json:"sourcesCatalog,omitempty"`
	SourcesAllowedExtensions []string `json:"sourcesAllowedExtensions,omitempty"`
	SourcesExcludeGlobs      []string `json:"sourcesExcludeGlobs,omitempty"`
	URLHeaderScanLines       int      `json:"urlHeaderScanLines,omitempty"`
	ConfigPath               string   `json:"-"`
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return defaultLogFile
}

// RenderModes returns the configured modes, or every mode when none are set.
func (c Config) RenderModes() ([]citations.Mode, error) {
	return citations.ParseModes(c.Modes)
}

// Unit returns the offset unit of request documents.
func (c Config) Unit() (grounding.OffsetUnit, error) {
	return grounding.ParseOffsetUnit(c.OffsetUnit)
}

// PlaceholderPrefix returns the URL prefix for references without a URL.
func (c Config) PlaceholderPrefix() string {
	if p := strings.TrimSpace(c.PlaceholderScheme); p != "" {
		return p
	}
	return citations.DefaultPlaceholderScheme
}

// CorpusPath returns the document corpus folder.
func (c Config) CorpusPath() string {
	if p := strings.TrimSpace(c.SourcesCorpus); p != "" {
		return p
	}
	return defaultSourcesCorpus
}

// CatalogPath returns the JSONL catalog path.
func (c Config) CatalogPath() string {
	if p := strings.TrimSpace(c.SourcesCatalog); p != "" {
		return p
	}
	return defaultSourcesCatalog
}

// AllowedExtensions returns the corpus extensions considered when indexing.
func (c Config) AllowedExtensions() []string {
	if len(c.SourcesAllowedExtensions) > 0 {
		return c.SourcesAllowedExtensions
	}
	return []string{".md", ".txt"}
}

// HeaderScanLines returns how many leading lines are searched for a URL header.
func (c Config) HeaderScanLines() int {
	if c.URLHeaderScanLines <= 0 {
		return sources.DefaultHeaderScanLines
	}
	return c.URLHeaderScanLines
}

// Validate reports configuration values that cannot be used.
func (c Config) Validate() error {
	if _, err := c.RenderModes(); err != nil {
		return fmt.Errorf("modes: %w", err)
	}
	if _, err := c.Unit(); err != nil {
		return fmt.Errorf("offsetUnit: %w", err)
	}
	return nil
}

// Load reads the application configuration from the specified path, with fallback to a legacy path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		config.ConfigPath = path
		return config, config.Validate()
	}

	if errors.Is(err, os.ErrNotExist) {
		if path == DefaultConfigPath {
			config, legacyErr := loadFromPath(legacyConfigPath)
			if legacyErr == nil {
				config.ConfigPath = legacyConfigPath
				return config, config.Validate()
			}
			if errors.Is(legacyErr, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found (searched %q and %q): %w", DefaultConfigPath, legacyConfigPath, os.ErrNotExist)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", legacyConfigPath, legacyErr)
		}
		return Config{}, fmt.Errorf("no configuration file found at %q: %w", path, os.ErrNotExist)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}
	return config, nil
}
