package config

import "strings"

// normalize expands path fields and backfills zero values with defaults so a
// partially specified config file still yields a usable configuration.
func (c *Config) normalize() error {
	c.Server.BaseURL = strings.TrimRight(strings.TrimSpace(c.Server.BaseURL), "/")
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaultBaseURL
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		c.Server.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	if c.Server.SessionInitTimeoutSeconds <= 0 {
		c.Server.SessionInitTimeoutSeconds = defaultSessionInitTimeoutSeconds
	}

	for _, field := range []*string{&c.Paths.StateDir, &c.Paths.LogDir, &c.Paths.DownloadDir} {
		trimmed := strings.TrimSpace(*field)
		if trimmed == "" {
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return err
		}
		*field = expanded
	}

	if c.Upload.MaxFileSizeMB <= 0 {
		c.Upload.MaxFileSizeMB = defaultMaxFileSizeMB
	}
	if c.Upload.MaxFiles <= 0 {
		c.Upload.MaxFiles = defaultMaxFiles
	}
	if c.Upload.MinMergeFiles <= 0 {
		c.Upload.MinMergeFiles = defaultMinMergeFiles
	}
	if len(c.Upload.AllowedTypes) == 0 {
		c.Upload.AllowedTypes = defaultAllowedTypes()
	}
	normalized := make([]string, 0, len(c.Upload.AllowedTypes))
	for _, value := range c.Upload.AllowedTypes {
		trimmed := strings.ToLower(strings.TrimSpace(value))
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	c.Upload.AllowedTypes = normalized

	if c.Polling.IntervalSeconds <= 0 {
		c.Polling.IntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Polling.MaxConsecutiveFailures < 0 {
		c.Polling.MaxConsecutiveFailures = 0
	}

	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return nil
}
