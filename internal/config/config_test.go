package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.ProxyMode != "no-proxy" {
		t.Errorf("expected default ProxyMode no-proxy, got %s", cfg.ProxyMode)
	}
	if cfg.ProxyPort != 8080 {
		t.Errorf("expected default ProxyPort 8080, got %d", cfg.ProxyPort)
	}
	if cfg.MaxConcurrent != 0 {
		t.Errorf("expected default MaxConcurrent 0, got %d", cfg.MaxConcurrent)
	}
	if !cfg.CheckCreatePermission {
		t.Error("expected CheckCreatePermission to default to true")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default LogLevel info, got %s", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig on missing file should not fail: %v", err)
	}
	if cfg.ProxyMode != "no-proxy" {
		t.Errorf("expected defaults, got ProxyMode %s", cfg.ProxyMode)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")

	cfg := &Config{
		ProxyMode:             "basic",
		ProxyHost:             "proxy.corp.example",
		ProxyPort:             3128,
		ProxyUser:             "alice",
		ProxyPassword:         "secret",
		NoProxy:               "localhost",
		ProxyWarmup:           true,
		MaxConcurrent:         4,
		CheckCreatePermission: false,
		Notify:                true,
		LogLevel:              "debug",
		LogFile:               "/tmp/evshare.log",
		LogMaxSizeMB:          5,
		LogMaxBackups:         2,
	}

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.ProxyMode != cfg.ProxyMode || loaded.ProxyHost != cfg.ProxyHost || loaded.ProxyPort != cfg.ProxyPort {
		t.Errorf("proxy settings mismatch: got %+v", loaded)
	}
	if loaded.ProxyUser != "alice" {
		t.Errorf("expected ProxyUser alice, got %s", loaded.ProxyUser)
	}
	// Password is never persisted
	if loaded.ProxyPassword != "" {
		t.Errorf("proxy password should not be saved, got %q", loaded.ProxyPassword)
	}
	if !loaded.NeedsProxyPassword() {
		t.Error("expected NeedsProxyPassword after load")
	}
	if loaded.MaxConcurrent != 4 {
		t.Errorf("expected MaxConcurrent 4, got %d", loaded.MaxConcurrent)
	}
	if loaded.CheckCreatePermission {
		t.Error("expected CheckCreatePermission false")
	}
	if !loaded.Notify || !loaded.ProxyWarmup {
		t.Error("expected Notify and ProxyWarmup true")
	}
	if loaded.LogLevel != "debug" || loaded.LogFile != "/tmp/evshare.log" {
		t.Errorf("logging settings mismatch: %s %s", loaded.LogLevel, loaded.LogFile)
	}
	if loaded.LogMaxSizeMB != 5 || loaded.LogMaxBackups != 2 {
		t.Errorf("rotation settings mismatch: %d %d", loaded.LogMaxSizeMB, loaded.LogMaxBackups)
	}
}

func TestSaveConfigFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permissions are not enforced on Windows")
	}

	path := filepath.Join(t.TempDir(), "config")
	if err := SaveConfig(NewConfig(), path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected 0600 permissions, got %o", perm)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after save")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	content := "[upload]\nmax_concurrent = 500\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalidMaxConcurrent) {
		t.Errorf("expected ErrInvalidMaxConcurrent, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"defaults", func(c *Config) {}, nil},
		{"system proxy", func(c *Config) { c.ProxyMode = "system" }, nil},
		{"unknown proxy mode", func(c *Config) { c.ProxyMode = "socks" }, ErrInvalidProxyMode},
		{"basic without host", func(c *Config) { c.ProxyMode = "basic" }, ErrMissingProxyHost},
		{"ntlm with host", func(c *Config) { c.ProxyMode = "ntlm"; c.ProxyHost = "p" }, nil},
		{"port too high", func(c *Config) { c.ProxyPort = 70000 }, ErrInvalidProxyPort},
		{"negative concurrency", func(c *Config) { c.MaxConcurrent = -1 }, ErrInvalidMaxConcurrent},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
