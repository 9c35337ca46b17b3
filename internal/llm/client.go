// Package llm is the boundary to the text-generation collaborator. The core
// uses it for two contracts: structured extraction (translator) and
// fact-checking (validator), plus best-effort narrative generation. Clients
// are passed in explicitly so every consumer is testable with a mock.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Request carries one generation call.
type Request struct {
	System      string  // system instruction, may be empty
	Prompt      string  // user prompt
	Temperature float64 // near-zero for structured contracts
	MaxTokens   int     // 0 = provider default
}

// Client is the minimal interface components depend on.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// StatusError is a non-2xx response from the provider. It distinguishes
// deterministic failures (bad request, auth) from transient ones.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm: status %d: %s", e.Code, e.Message)
}

// Retryable reports whether a failed call is worth one retry. Deterministic
// failures (malformed request, auth) and caller cancellation are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == 429 || se.Code >= 500
	}
	// Network-level failures are transient by assumption.
	return true
}
