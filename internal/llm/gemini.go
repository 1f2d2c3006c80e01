package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/flowfi/flowai/internal/errors"
)

// GeminiConfig configures the cloud client
type GeminiConfig struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
	Retry    *RetryOptions
}

// GeminiClient calls the Gemini generateContent REST endpoint
type GeminiClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	endpoint   string
	retry      RetryOptions
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig map[string]any  `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	model := cfg.Model
	if model == "" {
		model = "gemini-pro"
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://generativelanguage.googleapis.com/v1beta"
	}
	retry := DefaultRetryOptions
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}
	return &GeminiClient{
		httpClient: newHTTPClient(cfg.Timeout),
		apiKey:     cfg.APIKey,
		model:      model,
		endpoint:   strings.TrimRight(endpoint, "/"),
		retry:      retry,
	}
}

// Name implements Client
func (c *GeminiClient) Name() string {
	return "gemini"
}

// Available is true whenever an API key is configured
func (c *GeminiClient) Available(ctx context.Context) bool {
	return c.apiKey != ""
}

// Model returns the configured model id
func (c *GeminiClient) Model() string {
	return c.model
}

// Generate sends prompt to generateContent and joins the text parts of the
// first candidate.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (Generation, error) {
	if c.apiKey == "" {
		return Generation{}, fmt.Errorf("%w: gemini API key not configured", apperrors.ErrBackendUnavailable)
	}

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: map[string]any{
			"temperature":     Temperature,
			"maxOutputTokens": MaxTokens,
		},
	})
	if err != nil {
		return Generation{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, c.model)

	var text string
	err = withRetry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

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

		var generated geminiResponse
		if err := json.Unmarshal(body, &generated); err != nil {
			return permanent(fmt.Errorf("failed to parse response: %w", err))
		}
		if len(generated.Candidates) == 0 {
			return permanent(fmt.Errorf("no candidates returned"))
		}

		var sb strings.Builder
		for _, part := range generated.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
		text = sb.String()
		return nil
	})
	if err != nil {
		return Generation{}, fmt.Errorf("gemini generation failed: %w", err)
	}

	return Generation{Text: text, Model: c.model}, nil
}
