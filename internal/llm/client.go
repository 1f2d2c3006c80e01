// Package llm talks to the language model backends used as secondary
// analysers: a local Ollama runtime and the Gemini REST API.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	// Name identifies the backend in results and health reports
	Name() string
	// Available reports whether the backend can currently serve requests
	Available(ctx context.Context) bool
	// Generate returns the raw completion for prompt
	Generate(ctx context.Context, prompt string) (Generation, error)
}

// Generation is a raw completion and the model that produced it
type Generation struct {
	Text  string
	Model string
}

// Sampling parameters shared by every backend
const (
	Temperature = 0.1
	MaxTokens   = 2048
)

// StatusError is returned when a backend answers with a non-200 status
type StatusError struct {
	Backend    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Backend, e.StatusCode, e.Body)
}

// Temporary reports whether retrying the request may succeed
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func truncateBody(b []byte) string {
	const limit = 512
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
