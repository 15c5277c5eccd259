package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"snowmcp/internal/auth"
)

// clearServiceNowEnv blanks the override variables so tests see only
// what they set themselves.
func clearServiceNowEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVICENOW_INSTANCE_URL", "SERVICENOW_AUTH_TYPE", "SERVICENOW_USERNAME",
		"SERVICENOW_PASSWORD", "SERVICENOW_CLIENT_ID", "SERVICENOW_CLIENT_SECRET",
		"SERVICENOW_TOKEN_URL", "SERVICENOW_API_KEY", "SERVICENOW_API_KEY_HEADER",
		"SERVICENOW_TIMEOUT", "SNOWMCP_LISTEN_ADDR", "SNOWMCP_TOOL_PACKAGE",
		"SNOWMCP_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearServiceNowEnv(t)
	t.Setenv(configDirEnvKey, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("expected listen addr %q, got %q", DefaultListenAddr, cfg.ListenAddr)
	}
	if cfg.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("expected timeout %d, got %d", DefaultTimeoutSeconds, cfg.TimeoutSeconds)
	}
	if cfg.ToolPackage != DefaultToolPackage {
		t.Errorf("expected tool package %q, got %q", DefaultToolPackage, cfg.ToolPackage)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("expected log level %q, got %q", DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.Auth.Type != string(auth.TypeBasic) {
		t.Errorf("expected basic auth default, got %q", cfg.Auth.Type)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearServiceNowEnv(t)
	dir := t.TempDir()
	t.Setenv(configDirEnvKey, dir)

	content := `
instance_url = "https://dev.service-now.com"
listen_addr = "0.0.0.0:9090"
timeout_seconds = 45
tool_package = "catalog"

[auth]
type = "oauth"
username = "admin"
client_id = "client"
`
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.InstanceURL != "https://dev.service-now.com" {
		t.Errorf("unexpected instance url: %q", cfg.InstanceURL)
	}
	if cfg.ListenAddr != "0.0.0.0:9090" {
		t.Errorf("unexpected listen addr: %q", cfg.ListenAddr)
	}
	if cfg.TimeoutSeconds != 45 {
		t.Errorf("unexpected timeout: %d", cfg.TimeoutSeconds)
	}
	if cfg.ToolPackage != "catalog" {
		t.Errorf("unexpected tool package: %q", cfg.ToolPackage)
	}
	if cfg.Auth.Type != "oauth" || cfg.Auth.Username != "admin" || cfg.Auth.ClientID != "client" {
		t.Errorf("unexpected auth section: %+v", cfg.Auth)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearServiceNowEnv(t)
	dir := t.TempDir()
	t.Setenv(configDirEnvKey, dir)

	content := `
instance_url = "https://file.service-now.com"
timeout_seconds = 45
`
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SERVICENOW_INSTANCE_URL", "https://env.service-now.com")
	t.Setenv("SERVICENOW_USERNAME", "envuser")
	t.Setenv("SERVICENOW_TIMEOUT", "90")
	t.Setenv("SNOWMCP_TOOL_PACKAGE", "catalog_read")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.InstanceURL != "https://env.service-now.com" {
		t.Errorf("env should win over file, got %q", cfg.InstanceURL)
	}
	if cfg.Auth.Username != "envuser" {
		t.Errorf("unexpected username: %q", cfg.Auth.Username)
	}
	if cfg.TimeoutSeconds != 90 {
		t.Errorf("unexpected timeout: %d", cfg.TimeoutSeconds)
	}
	if cfg.ToolPackage != "catalog_read" {
		t.Errorf("unexpected tool package: %q", cfg.ToolPackage)
	}
}

func TestTimeoutEnvAcceptsDuration(t *testing.T) {
	clearServiceNowEnv(t)
	t.Setenv(configDirEnvKey, t.TempDir())
	t.Setenv("SERVICENOW_TIMEOUT", "2m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timeout() != 2*time.Minute {
		t.Fatalf("expected 2m timeout, got %v", cfg.Timeout())
	}
}

func TestTimeoutFallsBackWhenInvalid(t *testing.T) {
	cfg := Default()
	cfg.TimeoutSeconds = 0
	if cfg.Timeout() != DefaultTimeoutSeconds*time.Second {
		t.Fatalf("expected default timeout, got %v", cfg.Timeout())
	}
}

func TestGetKey(t *testing.T) {
	cfg := Default()
	cfg.InstanceURL = "https://dev.service-now.com"
	cfg.Auth.Username = "admin"

	tests := []struct {
		key  string
		want string
	}{
		{key: "instance_url", want: "https://dev.service-now.com"},
		{key: "listen_addr", want: DefaultListenAddr},
		{key: "timeout_seconds", want: "30"},
		{key: "auth.username", want: "admin"},
		{key: "auth.type", want: "basic"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := cfg.Get(tt.key)
			if err != nil {
				t.Fatalf("get %s: %v", tt.key, err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}

	if _, err := cfg.Get("nonsense"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestSetKeyRoundTrip(t *testing.T) {
	clearServiceNowEnv(t)
	dir := t.TempDir()
	t.Setenv(configDirEnvKey, dir)
	path := filepath.Join(dir, configFileName)

	if err := SetKey(path, "instance_url", "https://dev.service-now.com"); err != nil {
		t.Fatalf("set instance_url: %v", err)
	}
	if err := SetKey(path, "auth.username", "admin"); err != nil {
		t.Fatalf("set auth.username: %v", err)
	}
	if err := SetKey(path, "timeout_seconds", "60"); err != nil {
		t.Fatalf("set timeout_seconds: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.InstanceURL != "https://dev.service-now.com" {
		t.Errorf("unexpected instance url: %q", cfg.InstanceURL)
	}
	if cfg.Auth.Username != "admin" {
		t.Errorf("unexpected username: %q", cfg.Auth.Username)
	}
	if cfg.TimeoutSeconds != 60 {
		t.Errorf("unexpected timeout: %d", cfg.TimeoutSeconds)
	}
}

func TestSetKeyValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)

	if err := SetKey(path, "bogus", "x"); err == nil {
		t.Fatal("expected error for unknown key")
	}
	if err := SetKey(path, "timeout_seconds", "not-a-number"); err == nil {
		t.Fatal("expected error for non-numeric timeout")
	}
	if err := SetKey(path, "timeout_seconds", "-5"); err == nil {
		t.Fatal("expected error for negative timeout")
	}
	if err := SetKey(path, "auth.type", "kerberos"); err == nil {
		t.Fatal("expected error for invalid auth type")
	}
}

func TestIsAllowedKey(t *testing.T) {
	for _, key := range AllowedKeys() {
		if !IsAllowedKey(key) {
			t.Errorf("expected %q to be allowed", key)
		}
	}
	if IsAllowedKey("not.a.key") {
		t.Error("unexpected allowed key")
	}
}
