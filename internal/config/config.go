// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

// Package config handles tpl2oas project configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/woozymasta/tpl2oas"
)

// CurrentConfigVersion is the current version of the config file format.
const CurrentConfigVersion = 1

// DefaultFileName is the project configuration file looked up by the CLI.
const DefaultFileName = "tpl2oas.yaml"

// Defaults for optional settings.
const (
	DefaultTemplates = "templates.xml"
	DefaultDocument  = "openapi.yaml"
	DefaultListen    = "127.0.0.1:8080"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the tpl2oas.yaml project configuration file.
type Config struct {
	Version int `yaml:"version"`
	// Templates is the XML template source file.
	Templates string `yaml:"templates"`
	// Document is the OpenAPI document file; ".json" selects JSON output.
	Document string `yaml:"document"`
	// BaseDir restricts files the HTTP server may read or write; empty means
	// the directory holding Document.
	BaseDir string `yaml:"baseDir,omitempty"`
	// Tag is attached to operations generated by batch conversion.
	Tag string `yaml:"tag"`
	// SummaryPrefix prefixes generated operation summaries.
	SummaryPrefix string `yaml:"summaryPrefix"`
	// Status is the response status used for example lookups.
	Status string `yaml:"status"`
	// Listen is the HTTP server address.
	Listen string `yaml:"listen"`
	// Concurrency bounds parallel compilation; zero means GOMAXPROCS.
	Concurrency int `yaml:"concurrency,omitempty"`
}

// Default returns configuration with every optional field set.
func Default() *Config {
	return &Config{
		Version:       CurrentConfigVersion,
		Templates:     DefaultTemplates,
		Document:      DefaultDocument,
		Tag:           tpl2oas.DefaultTag,
		SummaryPrefix: tpl2oas.DefaultSummaryPrefix,
		Status:        tpl2oas.DefaultStatus,
		Listen:        DefaultListen,
	}
}

// Load reads a Config from a file path; fields absent from the file keep defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	cfg := Default()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config %q: %w", path, err)
	}

	return cfg, nil
}

// LoadOptional reads path when it exists and returns defaults otherwise.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Save writes the Config to a file path.
func (c *Config) Save(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}

	return enc.Close()
}

// Overrides holds command-line values; empty fields leave config untouched.
type Overrides struct {
	Templates     string
	Document      string
	BaseDir       string
	Tag           string
	SummaryPrefix string
	Status        string
	Listen        string
	Concurrency   int
}

// Merge applies non-empty overrides.
func (c *Config) Merge(o Overrides) {
	setString(&c.Templates, o.Templates)
	setString(&c.Document, o.Document)
	setString(&c.BaseDir, o.BaseDir)
	setString(&c.Tag, o.Tag)
	setString(&c.SummaryPrefix, o.SummaryPrefix)
	setString(&c.Status, o.Status)
	setString(&c.Listen, o.Listen)
	if o.Concurrency > 0 {
		c.Concurrency = o.Concurrency
	}
}

// ApplyEnv reads TPL2OAS_* environment variables over current values.
// Invalid values log a warning and keep the current value.
func (c *Config) ApplyEnv() {
	c.Merge(Overrides{
		Templates:     os.Getenv("TPL2OAS_TEMPLATES"),
		Document:      os.Getenv("TPL2OAS_DOCUMENT"),
		BaseDir:       os.Getenv("TPL2OAS_BASE_DIR"),
		Tag:           os.Getenv("TPL2OAS_TAG"),
		SummaryPrefix: os.Getenv("TPL2OAS_SUMMARY_PREFIX"),
		Status:        os.Getenv("TPL2OAS_STATUS"),
		Listen:        os.Getenv("TPL2OAS_LISTEN"),
		Concurrency:   envInt("TPL2OAS_CONCURRENCY", 0),
	})
}

// ResolvedBaseDir returns the absolute directory HTTP requests are confined to.
func (c *Config) ResolvedBaseDir() (string, error) {
	dir := c.BaseDir
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Dir(c.Document)
	}

	return filepath.Abs(dir)
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errs []error
	if c.Version != CurrentConfigVersion {
		errs = append(errs, fmt.Errorf("unsupported config version %d", c.Version))
	}

	if strings.TrimSpace(c.Templates) == "" {
		errs = append(errs, errors.New("templates is required"))
	}

	if strings.TrimSpace(c.Document) == "" {
		errs = append(errs, errors.New("document is required"))
	}

	if status, err := strconv.Atoi(c.Status); err != nil || status < 100 || status > 599 {
		errs = append(errs, fmt.Errorf("status %q is not an HTTP status code", c.Status))
	}

	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		errs = append(errs, fmt.Errorf("listen %q: %w", c.Listen, err))
	}

	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency %d must not be negative", c.Concurrency))
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// setString replaces target when value is not blank.
func setString(target *string, value string) {
	if strings.TrimSpace(value) != "" {
		*target = value
	}
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return n
}
