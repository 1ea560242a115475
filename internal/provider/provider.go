// Package provider defines the generation collaborator boundary: the
// external model backend that produces grammar-constrained text. The engine
// assumes returned text conforms to the supplied grammar and does not
// re-validate it.
package provider

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by engines that were built without a
// provider; hole filling surfaces it as a per-hole failure.
var ErrNotConfigured = errors.New("no provider configured")

// Request is one generation call.
type Request struct {
	Prompt      string
	Grammar     string // empty means unconstrained
	MaxTokens   int
	Temperature float64
	RequestID   string
}

// Response is the backend's completion.
type Response struct {
	Text            string
	TokensGenerated int
	FinishReason    string
}

// Provider is implemented by generation backends. Generate may block on
// network I/O; cancellation is driven through ctx.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}
