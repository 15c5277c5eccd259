package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"snowmcp/internal/auth"
)

const (
	DefaultListenAddr     = "127.0.0.1:8080"
	DefaultTimeoutSeconds = 30
	DefaultToolPackage    = "full"
	DefaultLogLevel       = "info"

	configFileName  = ".snowmcp.toml"
	configDirEnvKey = "SNOWMCP_CONFIG_DIR"
)

// AuthConfig defines how the server authenticates with the instance.
type AuthConfig struct {
	Type         string `toml:"type"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenURL     string `toml:"token_url"`
	APIKey       string `toml:"api_key"`
	APIKeyHeader string `toml:"api_key_header"`
}

// Config defines runtime configuration for snowmcp.
type Config struct {
	InstanceURL    string     `toml:"instance_url"`
	ListenAddr     string     `toml:"listen_addr"`
	TimeoutSeconds int        `toml:"timeout_seconds"`
	LogLevel       string     `toml:"log_level"`
	ToolPackage    string     `toml:"tool_package"`
	Auth           AuthConfig `toml:"auth"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		ListenAddr:     DefaultListenAddr,
		TimeoutSeconds: DefaultTimeoutSeconds,
		LogLevel:       DefaultLogLevel,
		ToolPackage:    DefaultToolPackage,
		Auth:           AuthConfig{Type: string(auth.TypeBasic)},
	}
}

// Timeout returns the outbound HTTP timeout.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AuthManagerConfig maps the file/env configuration onto the auth package.
func (c *Config) AuthManagerConfig() (auth.Config, error) {
	authType, err := auth.ParseType(c.Auth.Type)
	if err != nil {
		return auth.Config{}, err
	}
	return auth.Config{
		Type: authType,
		Basic: auth.BasicConfig{
			Username: c.Auth.Username,
			Password: c.Auth.Password,
		},
		OAuth: auth.OAuthConfig{
			InstanceURL:  c.InstanceURL,
			ClientID:     c.Auth.ClientID,
			ClientSecret: c.Auth.ClientSecret,
			Username:     c.Auth.Username,
			Password:     c.Auth.Password,
			TokenURL:     c.Auth.TokenURL,
		},
		APIKey: auth.APIKeyConfig{
			Key:    c.Auth.APIKey,
			Header: c.Auth.APIKeyHeader,
		},
	}, nil
}

// Load reads the config file (if present) and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	if err := loadFileIfExists(path, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)

	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.ToolPackage == "" {
		cfg.ToolPackage = DefaultToolPackage
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setIfEnv := func(dst *string, key string) {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			*dst = value
		}
	}

	setIfEnv(&cfg.InstanceURL, "SERVICENOW_INSTANCE_URL")
	setIfEnv(&cfg.Auth.Type, "SERVICENOW_AUTH_TYPE")
	setIfEnv(&cfg.Auth.Username, "SERVICENOW_USERNAME")
	setIfEnv(&cfg.Auth.Password, "SERVICENOW_PASSWORD")
	setIfEnv(&cfg.Auth.ClientID, "SERVICENOW_CLIENT_ID")
	setIfEnv(&cfg.Auth.ClientSecret, "SERVICENOW_CLIENT_SECRET")
	setIfEnv(&cfg.Auth.TokenURL, "SERVICENOW_TOKEN_URL")
	setIfEnv(&cfg.Auth.APIKey, "SERVICENOW_API_KEY")
	setIfEnv(&cfg.Auth.APIKeyHeader, "SERVICENOW_API_KEY_HEADER")
	setIfEnv(&cfg.ListenAddr, "SNOWMCP_LISTEN_ADDR")
	setIfEnv(&cfg.ToolPackage, "SNOWMCP_TOOL_PACKAGE")
	setIfEnv(&cfg.LogLevel, "SNOWMCP_LOG_LEVEL")

	if raw := strings.TrimSpace(os.Getenv("SERVICENOW_TIMEOUT")); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			cfg.TimeoutSeconds = seconds
		} else if duration, err := time.ParseDuration(raw); err == nil && duration > 0 {
			cfg.TimeoutSeconds = int(duration / time.Second)
		}
	}
}

func loadFileIfExists(path string, cfg *Config) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// GlobalPath returns the path to the config file.
func GlobalPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(configDirEnvKey)); dir != "" {
		return filepath.Join(dir, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

var allowedKeys = []string{
	"instance_url",
	"listen_addr",
	"timeout_seconds",
	"log_level",
	"tool_package",
	"auth.type",
	"auth.username",
	"auth.password",
	"auth.client_id",
	"auth.client_secret",
	"auth.token_url",
	"auth.api_key",
	"auth.api_key_header",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "instance_url":
		return c.InstanceURL, nil
	case "listen_addr":
		return c.ListenAddr, nil
	case "timeout_seconds":
		return strconv.Itoa(c.TimeoutSeconds), nil
	case "log_level":
		return c.LogLevel, nil
	case "tool_package":
		return c.ToolPackage, nil
	case "auth.type":
		return c.Auth.Type, nil
	case "auth.username":
		return c.Auth.Username, nil
	case "auth.password":
		return c.Auth.Password, nil
	case "auth.client_id":
		return c.Auth.ClientID, nil
	case "auth.client_secret":
		return c.Auth.ClientSecret, nil
	case "auth.token_url":
		return c.Auth.TokenURL, nil
	case "auth.api_key":
		return c.Auth.APIKey, nil
	case "auth.api_key_header":
		return c.Auth.APIKeyHeader, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "timeout_seconds":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "auth.type":
		if _, err := auth.ParseType(value); err != nil {
			return nil, err
		}
		return value, nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}
