package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultServerURL = "http://localhost:5000"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Printer   PrinterConfig   `yaml:"printer"`
	Browser   BrowserConfig   `yaml:"browser"`
	Poll      PollConfig      `yaml:"poll"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Log       LogConfig       `yaml:"log"`

	// ConfigPath is the path the config was loaded from (not serialized)
	ConfigPath string `yaml:"-"`
}

// ServerConfig is the connection to the printer server
type ServerConfig struct {
	URL string `yaml:"url"`
	// CSRFToken is only needed when the index page does not carry one.
	CSRFToken string        `yaml:"csrf_token,omitempty"`
	Timeout   time.Duration `yaml:"timeout"`
}

// PrinterConfig holds printer facts the server may also advertise. Values
// scraped from the index page take precedence.
type PrinterConfig struct {
	DisplayName      string   `yaml:"display_name,omitempty"`
	UploadExtensions []string `yaml:"upload_extensions"`
}

type BrowserConfig struct {
	ShowHidden bool   `yaml:"show_hidden"`
	StartPath  string `yaml:"start_path,omitempty"`
}

type PollConfig struct {
	Interval    time.Duration `yaml:"interval"`
	SettleDelay time.Duration `yaml:"settle_delay"`
}

type DiscoveryConfig struct {
	ServiceType string        `yaml:"service_type"`
	Domain      string        `yaml:"domain"`
	Timeout     time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     DefaultServerURL,
			Timeout: 30 * time.Second,
		},
		Printer: PrinterConfig{
			UploadExtensions: []string{".ctb", ".cbddlp", ".fdg", ".photon"},
		},
		Poll: PollConfig{
			Interval:    60 * time.Second,
			SettleDelay: 250 * time.Millisecond,
		},
		Discovery: DiscoveryConfig{
			ServiceType: "_mariner._tcp",
			Domain:      "local",
			Timeout:     5 * time.Second,
		},
		Log: LogConfig{
			File:  "debug.log",
			Level: "info",
		},
	}
}

// SearchPaths are tried in order when no explicit path is given.
func SearchPaths() []string {
	paths := []string{"marinerctl.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".marinerctl", "config.yaml"))
	}
	return append(paths, "/etc/marinerctl/config.yaml")
}

// Load reads the config at path, or the first file found in SearchPaths
// when path is empty. Without any config file the defaults are returned.
// An explicit path that does not exist is an error.
func Load(path string) (*Config, error) {
	candidates := SearchPaths()
	if path != "" {
		candidates = []string{path}
	}

	var data []byte
	var loadedPath string
	for _, p := range candidates {
		b, err := os.ReadFile(p)
		if err == nil {
			data, loadedPath = b, p
			break
		}
		if path != "" || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", p, err)
		}
	}

	cfg := Default()
	if loadedPath == "" {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", loadedPath, err)
	}
	cfg.ConfigPath = loadedPath

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", loadedPath, err)
	}
	return cfg, nil
}

// SlogLevel maps Level to a slog level. Unknown values mean info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks the values a client cannot run without.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Server.URL)
	switch {
	case c.Server.URL == "":
		errs = append(errs, errors.New("server.url is required"))
	case err != nil:
		errs = append(errs, fmt.Errorf("server.url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("server.url: scheme must be http or https, got %q", u.Scheme))
	case u.Host == "":
		errs = append(errs, errors.New("server.url: missing host"))
	}

	if c.Server.Timeout < 0 {
		errs = append(errs, errors.New("server.timeout must not be negative"))
	}
	if c.Poll.Interval <= 0 {
		errs = append(errs, errors.New("poll.interval must be positive"))
	}
	if c.Poll.SettleDelay < 0 {
		errs = append(errs, errors.New("poll.settle_delay must not be negative"))
	}
	for _, ext := range c.Printer.UploadExtensions {
		if strings.TrimSpace(strings.TrimPrefix(ext, ".")) == "" {
			errs = append(errs, fmt.Errorf("printer.upload_extensions: invalid extension %q", ext))
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}
