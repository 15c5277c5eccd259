package snow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"snowmcp/internal/auth"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	httpTimeoutEnvKey  = "SERVICENOW_TIMEOUT"

	apiBasePath = "/api/now"
)

// Table API query parameter names.
const (
	ParamLimit                = "sysparm_limit"
	ParamOffset               = "sysparm_offset"
	ParamQuery                = "sysparm_query"
	ParamDisplayValue         = "sysparm_display_value"
	ParamExcludeReferenceLink = "sysparm_exclude_reference_link"
)

// DisplayValues returns the parameter set shared by read operations:
// display values on, reference links stripped.
func DisplayValues() url.Values {
	values := url.Values{}
	values.Set(ParamDisplayValue, "true")
	values.Set(ParamExcludeReferenceLink, "true")
	return values
}

// Client is an HTTP client for a ServiceNow instance's Table API.
type Client struct {
	baseURL string
	http    *http.Client
	auth    *auth.Manager
}

// NewClient creates a client for the given instance. A non-positive
// timeout falls back to SERVICENOW_TIMEOUT, then the default.
func NewClient(instanceURL string, manager *auth.Manager, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = httpTimeoutFromEnv()
	}
	return &Client{
		baseURL: strings.TrimRight(instanceURL, "/") + apiBasePath,
		http:    &http.Client{Timeout: timeout},
		auth:    manager,
	}
}

// GetRecords fetches rows from a table.
func (c *Client) GetRecords(ctx context.Context, table string, query url.Values) ([]Record, error) {
	var resp struct {
		Result []Record `json:"result"`
	}
	err := c.do(ctx, http.MethodGet, "/table/"+url.PathEscape(table), query, nil, &resp)
	return resp.Result, err
}

// GetRecord fetches a single row by sys_id.
func (c *Client) GetRecord(ctx context.Context, table, sysID string, query url.Values) (Record, error) {
	var resp struct {
		Result Record `json:"result"`
	}
	err := c.do(ctx, http.MethodGet, "/table/"+url.PathEscape(table)+"/"+url.PathEscape(sysID), query, nil, &resp)
	return resp.Result, err
}

// UpdateRecord writes the given fields to a row and returns the updated row.
func (c *Client) UpdateRecord(ctx context.Context, table, sysID string, fields map[string]string) (Record, error) {
	var resp struct {
		Result Record `json:"result"`
	}
	err := c.do(ctx, http.MethodPut, "/table/"+url.PathEscape(table)+"/"+url.PathEscape(sysID), nil, fields, &resp)
	return resp.Result, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}

	headers, err := c.auth.Headers(ctx)
	if err != nil {
		return fmt.Errorf("build auth headers: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
