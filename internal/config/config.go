package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/ini.v1"
)

// Config holds evshare's own settings. Credentials are not part of it; they
// live in the shared store written by the host application.
//
// INI format:
//
//	[network]
//	proxy_mode = no-proxy
//	proxy_host =
//	proxy_port = 8080
//	proxy_user =
//	proxy_password =
//	no_proxy = localhost,10.0.0.0/8
//	proxy_warmup = false
//
//	[upload]
//	max_concurrent = 0
//	check_create_permission = true
//	notify = false
//
//	[logging]
//	level = info
//	file =
//	max_size_mb = 10
//	max_backups = 3
type Config struct {
	// Proxy settings
	ProxyMode     string // "no-proxy", "system", "basic", "ntlm"
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string
	NoProxy       string // Comma-separated hosts/CIDRs that bypass the proxy
	ProxyWarmup   bool

	// MaxConcurrent bounds in-flight uploads of one batch; 0 dispatches all at once.
	MaxConcurrent int

	// CheckCreatePermission runs the permission pre-check before folder creation.
	CheckCreatePermission bool

	// Notify sends a desktop notification when a batch finishes.
	Notify bool

	// Logging
	LogLevel      string // "debug", "info", "warn", "error"
	LogFile       string // empty disables the file sink
	LogMaxSizeMB  int
	LogMaxBackups int
}

// Validation errors
var (
	ErrInvalidProxyMode     = errors.New("proxy_mode must be one of no-proxy, system, basic, ntlm")
	ErrMissingProxyHost     = errors.New("proxy_host is required for basic and ntlm proxy modes")
	ErrInvalidProxyPort     = errors.New("proxy_port must be between 0 and 65535")
	ErrInvalidMaxConcurrent = errors.New("max_concurrent must be between 0 and 64")
	ErrInvalidLogLevel      = errors.New("level must be one of debug, info, warn, error")
)

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		ProxyMode:             "no-proxy",
		ProxyPort:             8080,
		MaxConcurrent:         0,
		CheckCreatePermission: true,
		LogLevel:              "info",
		LogMaxSizeMB:          10,
		LogMaxBackups:         3,
	}
}

// LoadConfig loads configuration from an INI file.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = DefaultConfigPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	network := iniFile.Section("network")
	cfg.ProxyMode = network.Key("proxy_mode").MustString(cfg.ProxyMode)
	cfg.ProxyHost = network.Key("proxy_host").String()
	cfg.ProxyPort = network.Key("proxy_port").MustInt(cfg.ProxyPort)
	cfg.ProxyUser = network.Key("proxy_user").String()
	cfg.ProxyPassword = network.Key("proxy_password").String()
	cfg.NoProxy = network.Key("no_proxy").String()
	cfg.ProxyWarmup = network.Key("proxy_warmup").MustBool(false)

	upload := iniFile.Section("upload")
	cfg.MaxConcurrent = upload.Key("max_concurrent").MustInt(cfg.MaxConcurrent)
	cfg.CheckCreatePermission = upload.Key("check_create_permission").MustBool(cfg.CheckCreatePermission)
	cfg.Notify = upload.Key("notify").MustBool(false)

	logging := iniFile.Section("logging")
	cfg.LogLevel = logging.Key("level").MustString(cfg.LogLevel)
	cfg.LogFile = logging.Key("file").String()
	cfg.LogMaxSizeMB = logging.Key("max_size_mb").MustInt(cfg.LogMaxSizeMB)
	cfg.LogMaxBackups = logging.Key("max_backups").MustInt(cfg.LogMaxBackups)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to an INI file.
// The proxy password is never written; it is supplied per run.
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	iniFile := ini.Empty()

	network, err := iniFile.NewSection("network")
	if err != nil {
		return fmt.Errorf("failed to create network section: %w", err)
	}
	network.Key("proxy_mode").SetValue(cfg.ProxyMode)
	network.Key("proxy_host").SetValue(cfg.ProxyHost)
	network.Key("proxy_port").SetValue(fmt.Sprintf("%d", cfg.ProxyPort))
	network.Key("proxy_user").SetValue(cfg.ProxyUser)
	network.Key("no_proxy").SetValue(cfg.NoProxy)
	network.Key("proxy_warmup").SetValue(fmt.Sprintf("%t", cfg.ProxyWarmup))

	upload, err := iniFile.NewSection("upload")
	if err != nil {
		return fmt.Errorf("failed to create upload section: %w", err)
	}
	upload.Key("max_concurrent").SetValue(fmt.Sprintf("%d", cfg.MaxConcurrent))
	upload.Key("check_create_permission").SetValue(fmt.Sprintf("%t", cfg.CheckCreatePermission))
	upload.Key("notify").SetValue(fmt.Sprintf("%t", cfg.Notify))

	logging, err := iniFile.NewSection("logging")
	if err != nil {
		return fmt.Errorf("failed to create logging section: %w", err)
	}
	logging.Key("level").SetValue(cfg.LogLevel)
	logging.Key("file").SetValue(cfg.LogFile)
	logging.Key("max_size_mb").SetValue(fmt.Sprintf("%d", cfg.LogMaxSizeMB))
	logging.Key("max_backups").SetValue(fmt.Sprintf("%d", cfg.LogMaxBackups))

	return saveINIAtomic(iniFile, path)
}

// saveINIAtomic writes iniFile to path through a temporary file and rename,
// with owner-only permissions.
func saveINIAtomic(iniFile *ini.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set permissions on %s: %w", path, err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	return nil
}

// Validate checks if the configuration is usable.
func (cfg *Config) Validate() error {
	switch strings.ToLower(cfg.ProxyMode) {
	case "", "no-proxy", "system":
	case "basic", "ntlm":
		if strings.TrimSpace(cfg.ProxyHost) == "" {
			return ErrMissingProxyHost
		}
	default:
		return ErrInvalidProxyMode
	}
	if cfg.ProxyPort < 0 || cfg.ProxyPort > 65535 {
		return ErrInvalidProxyPort
	}
	if cfg.MaxConcurrent < 0 || cfg.MaxConcurrent > 64 {
		return ErrInvalidMaxConcurrent
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	return nil
}

// NeedsProxyPassword returns true if the proxy configuration requires a
// password but none has been provided.
func (cfg *Config) NeedsProxyPassword() bool {
	mode := strings.ToLower(cfg.ProxyMode)
	if mode != "basic" && mode != "ntlm" {
		return false
	}
	return cfg.ProxyUser != "" && cfg.ProxyPassword == ""
}
