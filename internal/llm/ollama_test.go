package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/flowfi/flowai/internal/errors"
	"github.com/flowfi/flowai/internal/logger"
)

var fastRetry = &RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}

func newOllamaServer(t *testing.T, installed []string, generate http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		models := make([]map[string]string, 0, len(installed))
		for _, name := range installed {
			models = append(models, map[string]string{"name": name})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"models": models})
	})
	mux.HandleFunc("/api/generate", generate)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestSelectModels(t *testing.T) {
	preferred := []string{"deepseek-r1:8b", "qwen3:14b", "mistral:7b", "phi3.5:3.8b"}
	installed := []string{"mistral:7b", "qwen3:0.6b", "llama3:8b"}

	assert.Equal(t, []string{"qwen3:14b", "mistral:7b"}, SelectModels(preferred, installed))
	assert.Empty(t, SelectModels(preferred, nil))
}

func TestOllamaClient_Generate(t *testing.T) {
	var got ollamaGenerateRequest
	server := newOllamaServer(t, []string{"mistral:7b"}, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"response": `{"risk_score":"A"}`})
	})

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL + "/", Models: []string{"deepseek-r1:8b", "mistral:7b"}, Retry: fastRetry})

	assert.Equal(t, "ollama", client.Name())
	assert.True(t, client.Available(context.Background()))

	gen, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "mistral:7b", gen.Model)
	assert.Equal(t, `{"risk_score":"A"}`, gen.Text)

	assert.Equal(t, "mistral:7b", got.Model)
	assert.Equal(t, "prompt", got.Prompt)
	assert.False(t, got.Stream)
	assert.Equal(t, 0.1, got.Options["temperature"])
	assert.Equal(t, float64(2048), got.Options["num_predict"])
}

func TestOllamaClient_FallsThroughModels(t *testing.T) {
	server := newOllamaServer(t, []string{"deepseek-r1:8b", "mistral:7b"}, func(w http.ResponseWriter, r *http.Request) {
		var req ollamaGenerateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model == "deepseek-r1:8b" {
			_ = json.NewEncoder(w).Encode(map[string]any{"response": "  "})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "ok"})
	})

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Models: []string{"deepseek-r1:8b", "mistral:7b"}, Retry: fastRetry})

	gen, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "mistral:7b", gen.Model)
}

func TestOllamaClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := newOllamaServer(t, []string{"mistral:7b"}, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "loading model", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "ok"})
	})

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Models: []string{"mistral:7b"}, Retry: fastRetry})

	gen, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", gen.Text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestOllamaClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := newOllamaServer(t, []string{"mistral:7b"}, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "model not found", http.StatusNotFound)
	})

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Models: []string{"mistral:7b"}, Retry: fastRetry})

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)

	var status *StatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, http.StatusNotFound, status.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOllamaClient_NoPreferredModelInstalled(t *testing.T) {
	server := newOllamaServer(t, []string{"codellama:7b"}, func(w http.ResponseWriter, r *http.Request) {
		t.Error("generate should not be called")
	})

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Models: []string{"mistral:7b"}, Retry: fastRetry})

	_, err := client.Generate(context.Background(), "prompt")
	assert.True(t, errors.Is(err, apperrors.ErrBackendUnavailable))
}

func TestOllamaClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: url, Models: []string{"mistral:7b"}, Retry: fastRetry})

	assert.False(t, client.Available(context.Background()))
	_, err := client.Generate(context.Background(), "prompt")
	assert.True(t, errors.Is(err, apperrors.ErrBackendUnavailable))
}

func newPullServer(t *testing.T, handle func(req ollamaPullRequest) (int, map[string]any)) (*httptest.Server, *[]ollamaPullRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []ollamaPullRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/api/pull", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req ollamaPullRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()

		code, body := handle(req)
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(body)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &seen
}

func TestOllamaClient_Pull(t *testing.T) {
	server, seen := newPullServer(t, func(req ollamaPullRequest) (int, map[string]any) {
		return http.StatusOK, map[string]any{"status": "success"}
	})

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Retry: fastRetry})

	require.NoError(t, client.Pull(context.Background(), "mistral:7b"))
	require.Len(t, *seen, 1)
	assert.Equal(t, "mistral:7b", (*seen)[0].Model)
	assert.False(t, (*seen)[0].Stream)
}

func TestOllamaClient_PullRetriesServerErrors(t *testing.T) {
	var calls int32
	server, _ := newPullServer(t, func(req ollamaPullRequest) (int, map[string]any) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return http.StatusServiceUnavailable, map[string]any{"error": "busy"}
		}
		return http.StatusOK, map[string]any{"status": "success"}
	})

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Retry: fastRetry})

	require.NoError(t, client.Pull(context.Background(), "qwen3:8b"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestOllamaClient_PullFailures(t *testing.T) {
	server, _ := newPullServer(t, func(req ollamaPullRequest) (int, map[string]any) {
		switch req.Model {
		case "missing:1b":
			return http.StatusOK, map[string]any{"error": "pull model manifest: file does not exist"}
		case "odd:1b":
			return http.StatusOK, map[string]any{"status": "pulling manifest"}
		default:
			return http.StatusNotFound, map[string]any{"error": "not found"}
		}
	})

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Retry: fastRetry})

	assert.ErrorContains(t, client.Pull(context.Background(), "missing:1b"), "file does not exist")
	assert.ErrorContains(t, client.Pull(context.Background(), "odd:1b"), "unexpected status")

	err := client.Pull(context.Background(), "gone:1b")
	var status *StatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, http.StatusNotFound, status.StatusCode)
}

func TestOllamaClient_PullModels(t *testing.T) {
	server, seen := newPullServer(t, func(req ollamaPullRequest) (int, map[string]any) {
		if req.Model == "qwen3:8b" {
			return http.StatusOK, map[string]any{"error": "disk full"}
		}
		return http.StatusOK, map[string]any{"status": "success"}
	})

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Retry: fastRetry})

	results := client.PullModels(context.Background(), RecommendedPulls, logger.Nop())
	assert.Equal(t, map[string]bool{
		"deepseek-r1:8b": true,
		"qwen3:8b":       false,
		"mistral:7b":     true,
	}, results)

	order := make([]string, 0, len(*seen))
	for _, req := range *seen {
		order = append(order, req.Model)
	}
	assert.Equal(t, RecommendedPulls, order)
}
