package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Error is a rejection or failure reported by the billing provider. Message
// aggregates every description from the provider's errors array so the UI
// can show it verbatim; RawBody is kept for logging and manual reconciliation.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	RawBody    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gateway error (status %d)", e.StatusCode)
}

// IsCustomerRemoved reports whether the provider rejected the call because
// the referenced customer record was removed on their side. The structured
// error code is authoritative; the description match is a fallback because
// provider wording is not stable across versions or locales.
func (e *Error) IsCustomerRemoved() bool {
	if strings.EqualFold(e.Code, "invalid_customer") {
		return true
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "removido") || strings.Contains(msg, "removed")
}

// AsError unwraps a *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// newError parses the provider's error body. Bodies carry an errors array of
// {code, description} objects; descriptions are concatenated into one message.
func newError(statusCode int, body []byte) *Error {
	out := &Error{
		StatusCode: statusCode,
		RawBody:    string(body),
	}

	var raw struct {
		Errors []struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &raw); err == nil && len(raw.Errors) > 0 {
		out.Code = strings.TrimSpace(raw.Errors[0].Code)
		var parts []string
		for _, e := range raw.Errors {
			if d := strings.TrimSpace(e.Description); d != "" {
				parts = append(parts, d)
			}
		}
		out.Message = strings.Join(parts, "; ")
	}
	return out
}
