package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validatePolling(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	parsed, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("server.base_url is not a valid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("server.base_url must use http or https, got %q", c.Server.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("server.base_url is missing a host: %q", c.Server.BaseURL)
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.MinMergeFiles > c.Upload.MaxFiles {
		return fmt.Errorf("upload.min_merge_files (%d) exceeds upload.max_files (%d)",
			c.Upload.MinMergeFiles, c.Upload.MaxFiles)
	}
	for _, value := range c.Upload.AllowedTypes {
		if !strings.Contains(value, "/") {
			return fmt.Errorf("upload.allowed_types entry %q is not a MIME type", value)
		}
	}
	return nil
}

func (c *Config) validatePolling() error {
	if c.Polling.IntervalSeconds > 60 {
		return fmt.Errorf("polling.interval_seconds (%d) is unreasonably long; use 60 or less", c.Polling.IntervalSeconds)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
