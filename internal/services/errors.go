package services

import (
	"fmt"
	"net/http"

	"github.com/desertthunder/cdx/internal/shared"
)

// maxErrorBody caps how much of an upstream error body is retained.
const maxErrorBody = 4 << 10

// UpstreamError is a non-2xx answer from an upstream API.
type UpstreamError struct {
	Service string
	Status  int
	Body    string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API error: status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s API error: status %d: %s", e.Service, e.Status, e.Body)
}

// Unwrap lets callers match [shared.ErrUpstream].
func (e *UpstreamError) Unwrap() error { return shared.ErrUpstream }

// NotFound reports a 404.
func (e *UpstreamError) NotFound() bool { return e.Status == http.StatusNotFound }

func newUpstreamError(service string, status int, body []byte) *UpstreamError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &UpstreamError{Service: service, Status: status, Body: string(body)}
}
