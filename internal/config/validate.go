package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDecompiler(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateDiscovery(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDecompiler() error {
	if strings.TrimSpace(c.Decompiler.Binary) == "" {
		return errors.New("decompiler.binary must be set")
	}
	if c.Decompiler.InputExtension == c.Decompiler.OutputExtension {
		return fmt.Errorf("decompiler.input_extension and decompiler.output_extension must differ (both %q)", c.Decompiler.InputExtension)
	}
	for key, ext := range map[string]string{
		"decompiler.input_extension":  c.Decompiler.InputExtension,
		"decompiler.output_extension": c.Decompiler.OutputExtension,
	} {
		if len(ext) < 2 || strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("%s: invalid extension %q", key, ext)
		}
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Concurrency <= 0 {
		return errors.New("batch.concurrency must be positive")
	}
	return nil
}

func (c *Config) validateDiscovery() error {
	switch c.Discovery.Nested {
	case "include", "exclude", "only":
		return nil
	default:
		return fmt.Errorf("discovery.nested: unsupported value %q (want include, exclude, or only)", c.Discovery.Nested)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
