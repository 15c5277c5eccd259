package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Type selects how outbound requests authenticate with the instance.
type Type string

const (
	TypeBasic  Type = "basic"
	TypeOAuth  Type = "oauth"
	TypeAPIKey Type = "api_key"
)

// ParseType validates a raw auth type string.
func ParseType(raw string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case "", TypeBasic:
		return TypeBasic, nil
	case TypeOAuth:
		return TypeOAuth, nil
	case TypeAPIKey:
		return TypeAPIKey, nil
	}
	return "", fmt.Errorf("unsupported auth type %q (expected basic, oauth, or api_key)", raw)
}

const (
	// DefaultAPIKeyHeader carries the key when no header name is configured.
	DefaultAPIKeyHeader = "X-ServiceNow-API-Key"

	defaultTokenType = "Bearer"
	tokenExpirySkew  = 60 * time.Second
	tokenHTTPTimeout = 30 * time.Second
)

// BasicConfig holds basic-auth credentials.
type BasicConfig struct {
	Username string
	Password string
}

// OAuthConfig holds password-grant OAuth settings. TokenURL defaults to
// the instance's oauth_token.do endpoint.
type OAuthConfig struct {
	InstanceURL  string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	TokenURL     string
}

// APIKeyConfig holds API-key auth settings.
type APIKeyConfig struct {
	Key    string
	Header string
}

// Config selects and configures one auth mechanism.
type Config struct {
	Type   Type
	Basic  BasicConfig
	OAuth  OAuthConfig
	APIKey APIKeyConfig
}

// Manager builds authentication headers for Table API requests. OAuth
// tokens are fetched lazily and cached until shortly before expiry.
type Manager struct {
	cfg  Config
	http *http.Client

	mu           sync.Mutex
	token        string
	tokenType    string
	refreshToken string
	expiresAt    time.Time
}

// NewManager creates a manager for the given auth configuration.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:  cfg,
		http: &http.Client{Timeout: tokenHTTPTimeout},
	}
}

// Headers returns the headers to attach to an outbound API request.
func (m *Manager) Headers(ctx context.Context) (map[string]string, error) {
	headers := map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}

	switch m.cfg.Type {
	case TypeBasic, "":
		if m.cfg.Basic.Username == "" {
			return nil, fmt.Errorf("basic auth configuration is required")
		}
		credentials := m.cfg.Basic.Username + ":" + m.cfg.Basic.Password
		headers["Authorization"] = "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))

	case TypeOAuth:
		token, tokenType, err := m.oauthToken(ctx)
		if err != nil {
			return nil, err
		}
		headers["Authorization"] = tokenType + " " + token

	case TypeAPIKey:
		if m.cfg.APIKey.Key == "" {
			return nil, fmt.Errorf("api key configuration is required")
		}
		header := m.cfg.APIKey.Header
		if header == "" {
			header = DefaultAPIKeyHeader
		}
		headers[header] = m.cfg.APIKey.Key

	default:
		return nil, fmt.Errorf("unsupported auth type %q", m.cfg.Type)
	}

	return headers, nil
}

func (m *Manager) oauthToken(ctx context.Context) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && time.Now().Before(m.expiresAt) {
		return m.token, m.tokenType, nil
	}

	if m.refreshToken != "" {
		if err := m.fetchToken(ctx, m.refreshGrant()); err == nil {
			return m.token, m.tokenType, nil
		}
		// Stale refresh token; fall back to the password grant.
		m.refreshToken = ""
	}

	if err := m.fetchToken(ctx, m.passwordGrant()); err != nil {
		return "", "", err
	}
	return m.token, m.tokenType, nil
}

func (m *Manager) passwordGrant() url.Values {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", m.cfg.OAuth.ClientID)
	form.Set("client_secret", m.cfg.OAuth.ClientSecret)
	form.Set("username", m.cfg.OAuth.Username)
	form.Set("password", m.cfg.OAuth.Password)
	return form
}

func (m *Manager) refreshGrant() url.Values {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", m.cfg.OAuth.ClientID)
	form.Set("client_secret", m.cfg.OAuth.ClientSecret)
	form.Set("refresh_token", m.refreshToken)
	return form
}

func (m *Manager) fetchToken(ctx context.Context, form url.Values) error {
	tokenURL := m.cfg.OAuth.TokenURL
	if tokenURL == "" {
		if m.cfg.OAuth.InstanceURL == "" {
			return fmt.Errorf("oauth configuration requires an instance or token url")
		}
		tokenURL = strings.TrimRight(m.cfg.OAuth.InstanceURL, "/") + "/oauth_token.do"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch oauth token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("fetch oauth token: %s", resp.Status)
	}

	var token struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("decode oauth token: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("oauth token response missing access_token")
	}

	m.token = token.AccessToken
	m.tokenType = token.TokenType
	if m.tokenType == "" {
		m.tokenType = defaultTokenType
	}
	if token.RefreshToken != "" {
		m.refreshToken = token.RefreshToken
	}
	lifetime := time.Duration(token.ExpiresIn)*time.Second - tokenExpirySkew
	if lifetime < 0 {
		lifetime = 0
	}
	m.expiresAt = time.Now().Add(lifetime)
	return nil
}
