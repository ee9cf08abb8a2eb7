package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type field struct {
	get func(*Config) string
	set func(*Config, string) error
}

func stringField(p func(*Config) *string, check func(string) error) field {
	return field{
		get: func(c *Config) string { return *p(c) },
		set: func(c *Config, v string) error {
			if check != nil {
				if err := check(v); err != nil {
					return err
				}
			}
			*p(c) = v
			return nil
		},
	}
}

func durationField(p func(*Config) *Duration) field {
	return field{
		get: func(c *Config) string { return time.Duration(*p(c)).String() },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", v, err)
			}
			if d < 0 {
				return fmt.Errorf("invalid duration %q: must not be negative", v)
			}
			*p(c) = Duration(d)
			return nil
		},
	}
}

func checkURL(v string) error {
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid URL %q: must be http or https", v)
	}
	return nil
}

func checkBackend(v string) error {
	switch v {
	case "keyring", "file":
		return nil
	default:
		return fmt.Errorf("invalid credential backend %q: use keyring or file", v)
	}
}

func checkLogLevel(v string) error {
	_, err := ParseLogLevel(v)
	return err
}

// keys are the settings of the config file, in file order.
var keys = []string{
	"base_url",
	"credential_backend",
	"log_level",
	"poll_interval",
	"auth_timeout",
	"batch_delay",
	"devtools_url",
}

var fields = map[string]field{
	"base_url":           stringField(func(c *Config) *string { return &c.BaseURL }, checkURL),
	"credential_backend": stringField(func(c *Config) *string { return &c.CredentialBackend }, checkBackend),
	"log_level":          stringField(func(c *Config) *string { return &c.LogLevel }, checkLogLevel),
	"poll_interval":      durationField(func(c *Config) *Duration { return &c.PollInterval }),
	"auth_timeout":       durationField(func(c *Config) *Duration { return &c.AuthTimeout }),
	"batch_delay":        durationField(func(c *Config) *Duration { return &c.BatchDelay }),
	"devtools_url":       stringField(func(c *Config) *string { return &c.DevToolsURL }, checkURL),
}

// Keys returns the names accepted by Get and Set.
func Keys() []string {
	return append([]string(nil), keys...)
}

// Get returns the value of a setting as text.
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", unknownKey(key)
	}
	return f.get(c), nil
}

// Set validates and changes a setting.
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return unknownKey(key)
	}
	value = strings.TrimSpace(value)
	if key == "base_url" || key == "devtools_url" {
		value = strings.TrimRight(value, "/")
	}
	return f.set(c, value)
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown setting %q: use one of %s", key, strings.Join(keys, ", "))
}
