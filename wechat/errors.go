package wechat

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error codes after which the cached access token must not be reused.
const (
	codeInvalidCredential = 40001
	codeInvalidToken      = 40014
	codeTokenExpired      = 42001
)

// APIError is a failure reported by the gateway itself: a non-zero errcode,
// or a success response that lacks the identifier the call should return.
type APIError struct {
	Code    int
	Message string
	// Payload is the decoded response body as returned by the gateway.
	Payload map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wechat: errcode %d: %s", e.Code, e.Message)
}

// TokenRejected reports whether the gateway refused the access token.
func (e *APIError) TokenRejected() bool {
	switch e.Code {
	case codeInvalidCredential, codeInvalidToken, codeTokenExpired:
		return true
	}
	return false
}

// IsAPIError reports whether err is or wraps an *APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

type apiStatus struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func newAPIError(code int, msg string, body []byte) *APIError {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil || len(payload) == 0 {
		payload = map[string]any{"errcode": code, "errmsg": msg}
	}
	return &APIError{Code: code, Message: msg, Payload: payload}
}

// missingField builds the error for a success response without the expected id.
func missingField(field string, body []byte) *APIError {
	return newAPIError(-1, "response has no "+field, body)
}
