package config

const (
	defaultBaseURL                   = "http://localhost:50001"
	defaultRequestTimeoutSeconds     = 60
	defaultSessionInitTimeoutSeconds = 5
	defaultStateDir                  = "~/.local/share/mediacraft/state"
	defaultLogDir                    = "~/.local/share/mediacraft/logs"
	defaultDownloadDir               = "~/Downloads"
	defaultMaxFileSizeMB             = 500
	defaultMaxFiles                  = 10
	defaultMinMergeFiles             = 2
	defaultPollIntervalSeconds       = 2
	defaultPollMaxFailures           = 30
	defaultNtfyTimeoutSeconds        = 10
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
)

func defaultAllowedTypes() []string {
	return []string{
		"video/mp4",
		"video/quicktime",
		"video/x-msvideo",
		"video/x-matroska",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			BaseURL:                   defaultBaseURL,
			RequestTimeoutSeconds:     defaultRequestTimeoutSeconds,
			SessionInitTimeoutSeconds: defaultSessionInitTimeoutSeconds,
		},
		Paths: Paths{
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
			DownloadDir: defaultDownloadDir,
		},
		Upload: Upload{
			MaxFileSizeMB: defaultMaxFileSizeMB,
			MaxFiles:      defaultMaxFiles,
			MinMergeFiles: defaultMinMergeFiles,
			AllowedTypes:  defaultAllowedTypes(),
		},
		Polling: Polling{
			IntervalSeconds:        defaultPollIntervalSeconds,
			MaxConsecutiveFailures: defaultPollMaxFailures,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
