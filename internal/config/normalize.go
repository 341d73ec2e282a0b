package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDecompiler()
	c.normalizeBatch()
	c.normalizeDiscovery()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDecompiler() {
	if value, ok := os.LookupEnv(decompilerEnvVar); ok && strings.TrimSpace(value) != "" {
		c.Decompiler.Binary = value
	}
	c.Decompiler.Binary = strings.TrimSpace(c.Decompiler.Binary)
	if c.Decompiler.Binary == "" {
		c.Decompiler.Binary = defaultDecompiler
	}
	c.Decompiler.InputExtension = normalizeExtension(c.Decompiler.InputExtension, defaultInputExtension)
	c.Decompiler.OutputExtension = normalizeExtension(c.Decompiler.OutputExtension, defaultOutputExtension)
}

func normalizeExtension(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if !strings.HasPrefix(value, ".") {
		value = "." + value
	}
	return value
}

func (c *Config) normalizeBatch() {
	if c.Batch.Concurrency == 0 {
		c.Batch.Concurrency = defaultConcurrency
	}
}

func (c *Config) normalizeDiscovery() {
	c.Discovery.Nested = strings.ToLower(strings.TrimSpace(c.Discovery.Nested))
	if c.Discovery.Nested == "" {
		c.Discovery.Nested = defaultNestedPolicy
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	if c.History.KeepRuns < 0 {
		c.History.KeepRuns = 0
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
