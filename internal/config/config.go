// Package config resolves settings from flags, the environment, the config
// file and built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mise-en-place/cli/pkg/util"
	"github.com/pterm/pterm"
	"gopkg.in/yaml.v2"
)

// Environment variables.
const (
	EnvBaseURL           = "MEP_BASE_URL"
	EnvCredentialBackend = "MEP_CREDENTIAL_BACKEND"
	EnvLogLevel          = "MEP_LOG_LEVEL"
	EnvDevToolsURL       = "MEP_DEVTOOLS_URL"
	EnvConfig            = "MEP_CONFIG"
)

const (
	DefaultBaseURL      = "https://mise-en-place.recipes"
	DefaultLogLevel     = "warn"
	DefaultPollInterval = 500 * time.Millisecond
	DefaultAuthTimeout  = 5 * time.Minute
	DefaultBatchDelay   = 500 * time.Millisecond
	DefaultDevToolsURL  = "http://127.0.0.1:9222"
)

// Duration is a time.Duration written as "500ms" or "5m" in the file.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if v < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config is the resolved configuration.
type Config struct {
	BaseURL           string   `yaml:"base_url"`
	CredentialBackend string   `yaml:"credential_backend"`
	LogLevel          string   `yaml:"log_level"`
	PollInterval      Duration `yaml:"poll_interval"`
	AuthTimeout       Duration `yaml:"auth_timeout"`
	BatchDelay        Duration `yaml:"batch_delay"`
	DevToolsURL       string   `yaml:"devtools_url"`

	// Dir holds the config file and the file credential backend.
	Dir string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		CredentialBackend: "keyring",
		LogLevel:          DefaultLogLevel,
		PollInterval:      Duration(DefaultPollInterval),
		AuthTimeout:       Duration(DefaultAuthTimeout),
		BatchDelay:        Duration(DefaultBatchDelay),
		DevToolsURL:       DefaultDevToolsURL,
	}
}

// DefaultPath is $XDG_CONFIG_HOME/mep/config.yaml or the platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), "mep-config")
	}
	return filepath.Join(dir, "mep", "config.yaml")
}

// Load resolves the configuration below the flag layer. path is the config
// file; when empty, MEP_CONFIG and then DefaultPath are used. A missing file
// is only an error when the path was given explicitly.
func Load(path string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	explicit := path != ""
	if path == "" {
		path = getenv(EnvConfig)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	cfg.Dir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	setFromEnv(&cfg.BaseURL, getenv(EnvBaseURL))
	setFromEnv(&cfg.CredentialBackend, getenv(EnvCredentialBackend))
	setFromEnv(&cfg.LogLevel, getenv(EnvLogLevel))
	setFromEnv(&cfg.DevToolsURL, getenv(EnvDevToolsURL))

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads the file at path alone, ignoring the environment. A
// missing file yields the defaults.
func LoadFile(path string) (Config, error) {
	cfg, err := Load(path, func(string) string { return "" })
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		cfg.Dir = filepath.Dir(path)
		return cfg, nil
	}
	return cfg, err
}

func setFromEnv(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// Save writes cfg to path, creating the directory when needed.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.WritePrivateFile(path, data); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ServiceHost is the host name of BaseURL, used to leave the service's own
// pages out of bulk imports.
func (c Config) ServiceHost() string {
	s := c.BaseURL
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/:"); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(s)
}

// Logger returns a logger at the configured level.
func (c Config) Logger() *pterm.Logger {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		level = pterm.LogLevelWarn
	}
	return pterm.DefaultLogger.WithLevel(level)
}

// ParseLogLevel maps a level name to a pterm log level.
func ParseLogLevel(s string) (pterm.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return pterm.LogLevelTrace, nil
	case "debug":
		return pterm.LogLevelDebug, nil
	case "info":
		return pterm.LogLevelInfo, nil
	case "", "warn", "warning":
		return pterm.LogLevelWarn, nil
	case "error":
		return pterm.LogLevelError, nil
	case "disabled", "off", "none":
		return pterm.LogLevelDisabled, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: use debug, info, warn, error or disabled", s)
	}
}
