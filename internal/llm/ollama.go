package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/flowfi/flowai/internal/errors"
	"github.com/flowfi/flowai/internal/logger"
)

// availabilityTimeout bounds the /api/tags probe
const availabilityTimeout = 5 * time.Second

// OllamaConfig configures the local runtime client
type OllamaConfig struct {
	BaseURL string
	// Models is the preference list of runtime tags, best first
	Models  []string
	Timeout time.Duration
	Retry   *RetryOptions
}

// OllamaClient handles requests to a local Ollama runtime
type OllamaClient struct {
	httpClient *http.Client
	baseURL    string
	models     []string
	retry      RetryOptions
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

type ollamaPullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

type ollamaPullResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// RecommendedPulls are the tags fetched by PullModels, highest priority first
var RecommendedPulls = []string{"deepseek-r1:8b", "qwen3:8b", "mistral:7b"}

// NewOllamaClient creates a new Ollama client
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	retry := DefaultRetryOptions
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}
	return &OllamaClient{
		httpClient: newHTTPClient(cfg.Timeout),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		models:     cfg.Models,
		retry:      retry,
	}
}

// Name implements Client
func (c *OllamaClient) Name() string {
	return "ollama"
}

// Available reports whether the runtime answers /api/tags
func (c *OllamaClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	defer cancel()

	_, err := c.ListModels(ctx)
	return err == nil
}

// ListModels returns the tags installed in the runtime
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama connection failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Backend: c.Name(), StatusCode: resp.StatusCode, Body: truncateBody(body)}
	}

	var tags ollamaTagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, fmt.Errorf("failed to parse tags response: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Generate tries the preferred models in order, skipping those that are not
// installed, and returns the first non-empty completion.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (Generation, error) {
	installed, err := c.ListModels(ctx)
	if err != nil {
		return Generation{}, fmt.Errorf("%w: %v", apperrors.ErrBackendUnavailable, err)
	}

	candidates := SelectModels(c.models, installed)
	if len(candidates) == 0 {
		return Generation{}, fmt.Errorf("%w: none of %v installed", apperrors.ErrBackendUnavailable, c.models)
	}

	var lastErr error
	for _, model := range candidates {
		text, err := c.generate(ctx, model, prompt)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if strings.TrimSpace(text) != "" {
			return Generation{Text: text, Model: model}, nil
		}
	}

	if lastErr == nil {
		lastErr = errors.New("empty completion")
	}
	return Generation{}, fmt.Errorf("ollama generation failed: %w", lastErr)
}

func (c *OllamaClient) generate(ctx context.Context, model, prompt string) (string, error) {
	payload, err := json.Marshal(ollamaGenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": Temperature,
			"num_predict": MaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var out string
	err = withRetry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
		if err != nil {
			return permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return &StatusError{Backend: c.Name(), StatusCode: resp.StatusCode, Body: truncateBody(body)}
		}

		var generated ollamaGenerateResponse
		if err := json.Unmarshal(body, &generated); err != nil {
			return permanent(fmt.Errorf("failed to parse response: %w", err))
		}
		out = generated.Response
		return nil
	})
	return out, err
}

// Pull downloads tag into the runtime and waits for it to finish
func (c *OllamaClient) Pull(ctx context.Context, tag string) error {
	payload, err := json.Marshal(ollamaPullRequest{Model: tag, Stream: false})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	return withRetry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/pull", bytes.NewReader(payload))
		if err != nil {
			return permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return &StatusError{Backend: c.Name(), StatusCode: resp.StatusCode, Body: truncateBody(body)}
		}

		var pulled ollamaPullResponse
		if err := json.Unmarshal(body, &pulled); err != nil {
			return permanent(fmt.Errorf("failed to parse pull response: %w", err))
		}
		if pulled.Error != "" {
			return permanent(fmt.Errorf("pull %s: %s", tag, pulled.Error))
		}
		if pulled.Status != "success" {
			return permanent(fmt.Errorf("pull %s: unexpected status %q", tag, pulled.Status))
		}
		return nil
	})
}

// PullModels pulls each tag in turn and reports which ones succeeded.
// A cancelled context marks the remaining tags as failed.
func (c *OllamaClient) PullModels(ctx context.Context, tags []string, log logger.Logger) map[string]bool {
	results := make(map[string]bool, len(tags))
	for _, tag := range tags {
		log.Info("Pulling model", "model", tag)
		if err := c.Pull(ctx, tag); err != nil {
			log.Error("Failed to pull model", err, "model", tag)
			results[tag] = false
			continue
		}
		results[tag] = true
	}
	return results
}

// SelectModels returns the preferred tags that are installed, in preference
// order. A tag matches on its exact name or when its family (the part before
// ':') appears in an installed name.
func SelectModels(preferred, installed []string) []string {
	var out []string
	for _, tag := range preferred {
		family, _, _ := strings.Cut(tag, ":")
		for _, have := range installed {
			if have == tag || strings.Contains(have, family) {
				out = append(out, tag)
				break
			}
		}
	}
	return out
}
