package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Error classes surfaced to the review workflow. Callers match them with errors.Is.
var (
	// ErrValidation is returned for input rejected locally or with 400/422.
	ErrValidation = errors.New("validation error")
	// ErrAuth is returned when the credential is missing or rejected (401/403).
	ErrAuth = errors.New("authorization error")
	// ErrConflict is returned when the entry state forbids the operation (409).
	ErrConflict = errors.New("conflict")
	// ErrTransport covers network failures, timeouts, 5xx and undecodable bodies.
	ErrTransport = errors.New("transport error")
	// ErrNotFound is returned for 404.
	ErrNotFound = errors.New("not found")
)

const maxErrorBody = 512

// statusError maps an unexpected HTTP status to one of the error classes.
// The server message, if any, is kept for display.
func statusError(op string, resp *http.Response) error {
	var class error
	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		class = ErrAuth
	case code == http.StatusConflict:
		class = ErrConflict
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		class = ErrValidation
	case code == http.StatusNotFound:
		class = ErrNotFound
	default:
		class = ErrTransport
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("%s: status %d: %w", op, resp.StatusCode, class)
	}
	return fmt.Errorf("%s: status %d: %s: %w", op, resp.StatusCode, msg, class)
}

// transportError wraps a failure that happened before a response was read.
func transportError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}
