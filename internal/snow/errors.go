package snow

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is a structured error returned by the Table API.
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	case e.Message != "":
		return e.Message
	case e.Status > 0:
		return fmt.Sprintf("api error: %d", e.Status)
	}
	return "api error"
}

// NotFound reports whether the remote rejected the request with a 404.
func (e *APIError) NotFound() bool {
	return e != nil && e.Status == http.StatusNotFound
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Detail  string `json:"detail"`
		} `json:"error"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		apiErr.Message = envelope.Error.Message
		apiErr.Detail = envelope.Error.Detail
	}
	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	return apiErr
}
