package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"mediacraft/internal/api"
	"mediacraft/internal/config"
	"mediacraft/internal/logging"
	"mediacraft/internal/notifications"
	"mediacraft/internal/polling"
	"mediacraft/internal/taskcache"
	"mediacraft/internal/upload"
)

type commandContext struct {
	configFlag  *string
	baseURLFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	clientOnce sync.Once
	client     *api.Client
	clientErr  error
}

func newCommandContext(configFlag, baseURLFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		baseURLFlag: baseURLFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.baseURLFlag != nil && strings.TrimSpace(*c.baseURLFlag) != "" {
			cfg.Server.BaseURL = strings.TrimSpace(*c.baseURLFlag)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: cfg.LogFilePaths(),
		})
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) apiClient() (*api.Client, error) {
	c.clientOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.clientErr = err
			return
		}
		client, err := api.NewClient(api.Config{
			BaseURL:            cfg.Server.BaseURL,
			RequestTimeout:     time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second,
			SessionInitTimeout: time.Duration(cfg.Server.SessionInitTimeoutSeconds) * time.Second,
		},
			api.WithLogger(c.ensureLogger()),
			api.WithSessionStore(api.NewSessionStore(cfg.Paths.StateDir)),
		)
		if err != nil {
			c.clientErr = err
			return
		}
		c.client = client
	})
	return c.client, c.clientErr
}

func (c *commandContext) uploadLimits() upload.Limits {
	cfg, err := c.ensureConfig()
	if err != nil {
		return upload.Limits{}
	}
	return upload.Limits{
		MaxFileSize:   cfg.MaxFileSizeBytes(),
		MaxFiles:      cfg.Upload.MaxFiles,
		MinMergeFiles: cfg.Upload.MinMergeFiles,
		AllowedTypes:  cfg.Upload.AllowedTypes,
	}
}

func (c *commandContext) pollOptions() polling.Options {
	cfg, err := c.ensureConfig()
	if err != nil {
		return polling.Options{}
	}
	return polling.Options{
		Interval:               time.Duration(cfg.Polling.IntervalSeconds) * time.Second,
		MaxConsecutiveFailures: cfg.Polling.MaxConsecutiveFailures,
	}
}

func (c *commandContext) notifier() notifications.Service {
	cfg, err := c.ensureConfig()
	if err != nil {
		return notifications.NewService(&config.Config{})
	}
	return notifications.NewService(cfg)
}

func (c *commandContext) openCache() (*taskcache.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return taskcache.Open(cfg)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
