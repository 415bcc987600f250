// Package llm is the boundary to the external language-model collaborator:
// a chat-completion client, prompt templates, and strict decoding of the
// untrusted responses.
package llm

import (
	"context"
)

// Request is a single structured generation request: a system instruction
// and a user prompt, labeled by operation for observability. Temperature
// overrides the client's configured sampling temperature when non-zero;
// leave it zero to use the configured value.
type Request struct {
	Op          string // operation label for metrics ("questions", "competitor")
	System      string
	User        string
	Temperature float64
}

// Client is the external language-model collaborator. The raw response text
// is untrusted; callers must decode and validate it at the boundary.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
