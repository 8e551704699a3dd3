package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediacraft/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "mediacraft", "state")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Server.BaseURL != "http://localhost:50001" {
		t.Fatalf("unexpected base url: %q", cfg.Server.BaseURL)
	}
	if cfg.Server.SessionInitTimeoutSeconds != 5 {
		t.Fatalf("unexpected session init timeout: %d", cfg.Server.SessionInitTimeoutSeconds)
	}
	if cfg.Upload.MaxFileSizeMB != 500 || cfg.Upload.MaxFiles != 10 || cfg.Upload.MinMergeFiles != 2 {
		t.Fatalf("unexpected upload limits: %+v", cfg.Upload)
	}
	if cfg.MaxFileSizeBytes() != 500*1024*1024 {
		t.Fatalf("unexpected byte cap: %d", cfg.MaxFileSizeBytes())
	}
	if cfg.Polling.IntervalSeconds != 2 {
		t.Fatalf("unexpected poll interval: %d", cfg.Polling.IntervalSeconds)
	}
	if len(cfg.Upload.AllowedTypes) != 4 || cfg.Upload.AllowedTypes[0] != "video/mp4" {
		t.Fatalf("unexpected allowed types: %v", cfg.Upload.AllowedTypes)
	}
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[server]
base_url = "https://media.example.com/"

[upload]
allowed_types = ["  VIDEO/MP4 ", "video/x-matroska"]

[polling]
interval_seconds = 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Server.BaseURL != "https://media.example.com" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.Server.BaseURL)
	}
	if len(cfg.Upload.AllowedTypes) != 2 || cfg.Upload.AllowedTypes[0] != "video/mp4" {
		t.Fatalf("allowed types not normalized: %v", cfg.Upload.AllowedTypes)
	}
	if cfg.Polling.IntervalSeconds != 3 {
		t.Fatalf("unexpected poll interval: %d", cfg.Polling.IntervalSeconds)
	}
	// Unspecified sections fall back to defaults.
	if cfg.Upload.MaxFiles != 10 {
		t.Fatalf("unexpected max files: %d", cfg.Upload.MaxFiles)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantSub string
	}{
		{
			name:    "bad scheme",
			mutate:  func(c *config.Config) { c.Server.BaseURL = "ftp://example.com" },
			wantSub: "http or https",
		},
		{
			name:    "min above max",
			mutate:  func(c *config.Config) { c.Upload.MinMergeFiles = 20 },
			wantSub: "min_merge_files",
		},
		{
			name:    "non-mime allow list",
			mutate:  func(c *config.Config) { c.Upload.AllowedTypes = []string{"mp4"} },
			wantSub: "not a MIME type",
		},
		{
			name:    "bad log format",
			mutate:  func(c *config.Config) { c.Logging.Format = "xml" },
			wantSub: "logging.format",
		},
		{
			name:    "excessive poll interval",
			mutate:  func(c *config.Config) { c.Polling.IntervalSeconds = 600 },
			wantSub: "interval_seconds",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Upload.MaxFileSizeMB != 500 {
		t.Fatalf("unexpected sample limits: %+v", cfg.Upload)
	}
}
