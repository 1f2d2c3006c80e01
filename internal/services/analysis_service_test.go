package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/flowfi/flowai/internal/errors"
	"github.com/flowfi/flowai/internal/llm"
	"github.com/flowfi/flowai/internal/logger"
	"github.com/flowfi/flowai/internal/repository"
	"github.com/flowfi/flowai/internal/scoring"
	"github.com/flowfi/flowai/pkg/config"
)

const invoiceText = "INVOICE #4471\nBill To: Acme Manufacturing LLC\nAmount Due: $12,500.00\nPayment Terms: Net 30"

// fakeClient is a scripted llm.Client
type fakeClient struct {
	mu        sync.Mutex
	name      string
	available bool
	text      string
	model     string
	err       error
	calls     int
	installed []string
}

func (f *fakeClient) Name() string { return f.name }

func (f *fakeClient) Available(ctx context.Context) bool { return f.available }

func (f *fakeClient) Generate(ctx context.Context, prompt string) (llm.Generation, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return llm.Generation{Model: f.model}, f.err
	}
	return llm.Generation{Text: f.text, Model: f.model}, nil
}

func (f *fakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// listingClient also reports installed models
type listingClient struct {
	*fakeClient
}

func (l listingClient) ListModels(ctx context.Context) ([]string, error) {
	if !l.available {
		return nil, errors.New("connection refused")
	}
	return l.installed, nil
}

// failingRepo fails every write
type failingRepo struct {
	*repository.MemoryRepository
}

func (failingRepo) Store(ctx context.Context, a *repository.Assessment) error {
	return errors.New("disk full")
}

const localJSON = "```json\n{\"risk_score\": \"A-\", \"valuation\": 11800, \"confidence\": 0.91, \"summary\": \"Strong debtor.\"}\n```"

func newTestService(mode Mode, local, cloud llm.Client, repo repository.AssessmentRepository) *analysisService {
	return newAnalysisService(scoring.New(), Options{
		Mode:            mode,
		Local:           local,
		Cloud:           cloud,
		Repository:      repo,
		Logger:          logger.Nop(),
		AvailableVRAMGB: 12,
	})
}

func TestAnalyze_CoreModes(t *testing.T) {
	for _, mode := range []Mode{ModeCoreOnly, ModeAuto, ModeHybrid} {
		t.Run(string(mode), func(t *testing.T) {
			local := &fakeClient{name: "ollama", available: true, text: localJSON, model: "qwen3:8b"}
			cloud := &fakeClient{name: "gemini", available: true, text: localJSON, model: "gemini-pro"}
			repo := repository.NewMemoryRepository(0)
			svc := newTestService(mode, local, cloud, repo)

			result, err := svc.Analyze(context.Background(), AnalysisRequest{DocumentText: invoiceText, RequestID: "req-1"})
			require.NoError(t, err)

			expected := scoring.New().Analyze(invoiceText)
			assert.Equal(t, SourceCore, result.Source)
			assert.Equal(t, CoreModelName, result.ModelUsed)
			assert.Equal(t, mode, result.Mode)
			assert.Equal(t, string(expected.RiskGrade), result.RiskScore)
			assert.Equal(t, expected.Valuation, result.Valuation)
			assert.Equal(t, expected.Confidence, result.Confidence)
			require.NotNil(t, result.Reasoning)
			assert.Equal(t, expected.Reasoning, *result.Reasoning)
			require.NotNil(t, result.QuantumScore)
			assert.Equal(t, expected.QuantumScore, *result.QuantumScore)
			require.NotNil(t, result.Core)
			assert.Equal(t, "invoice", result.DocumentType)
			assert.Equal(t, len([]rune(invoiceText)), result.Document.Chars)

			assert.Zero(t, local.Calls())
			assert.Zero(t, cloud.Calls())

			stored, err := repo.GetByID(context.Background(), result.ID)
			require.NoError(t, err)
			assert.Equal(t, "req-1", stored.RequestID)
			assert.Equal(t, "core", stored.Source)
			require.NotNil(t, stored.ProbabilityOfDefault)
			assert.Equal(t, expected.ProbabilityOfDefault, *stored.ProbabilityOfDefault)
		})
	}
}

func TestAnalyze_PostedTextScoredAsGiven(t *testing.T) {
	text := strings.ReplaceAll(invoiceText, "\n", "\r\n")
	svc := newTestService(ModeCoreOnly, nil, nil, nil)

	result, err := svc.Analyze(context.Background(), AnalysisRequest{DocumentText: text})
	require.NoError(t, err)

	expected := scoring.New().Analyze(text)
	require.NotNil(t, result.Core)
	assert.Equal(t, len([]rune(text)), result.Core.Features.TextLength)
	assert.Equal(t, expected.Features, result.Core.Features)
	assert.Equal(t, expected.Valuation, result.Valuation)
}

func TestAnalyze_LocalOnly(t *testing.T) {
	local := &fakeClient{name: "ollama", available: true, text: localJSON, model: "qwen3:8b"}
	local.model = "mistral:7b"
	svc := newTestService(ModeLocalOnly, local, nil, repository.NewMemoryRepository(0))

	result, err := svc.Analyze(context.Background(), AnalysisRequest{DocumentText: invoiceText})
	require.NoError(t, err)

	assert.Equal(t, SourceLocal, result.Source)
	assert.Equal(t, "Mistral-7B", result.ModelUsed)
	assert.Equal(t, "A-", result.RiskScore)
	assert.Equal(t, 11800, result.Valuation)
	assert.Equal(t, 0.91, result.Confidence)
	assert.Equal(t, "Strong debtor.", result.Summary)
	assert.Nil(t, result.Reasoning)
	assert.Nil(t, result.Core)
	assert.Equal(t, 1, local.Calls())

	status := svc.monitors["ollama"].GetHealthStatus()
	assert.Equal(t, int64(1), status.SuccessfulRequests)
}

func TestAnalyze_UnknownLocalTagReportedAsIs(t *testing.T) {
	local := &fakeClient{name: "ollama", available: true, text: localJSON, model: "custom:1b"}
	svc := newTestService(ModeLocalOnly, local, nil, nil)

	result, err := svc.Analyze(context.Background(), AnalysisRequest{DocumentText: invoiceText})
	require.NoError(t, err)
	assert.Equal(t, "custom:1b", result.ModelUsed)
}

func TestAnalyze_CloudOnly(t *testing.T) {
	cloud := &fakeClient{name: "gemini", available: true, text: `{"risk_score": "B+", "valuation": 9000}`, model: "gemini-pro"}
	svc := newTestService(ModeCloudOnly, nil, cloud, nil)

	result, err := svc.Analyze(context.Background(), AnalysisRequest{DocumentText: invoiceText, DocumentType: "receivable"})
	require.NoError(t, err)

	assert.Equal(t, SourceCloud, result.Source)
	assert.Equal(t, "Gemini Pro", result.ModelUsed)
	assert.Equal(t, "B+", result.RiskScore)
	assert.Equal(t, 9000, result.Valuation)
	assert.Equal(t, 0.85, result.Confidence)
	assert.Equal(t, "Analysis complete.", result.Summary)
	assert.Equal(t, "receivable", result.DocumentType)
}

func TestAnalyze_CloudModelNameOtherThanPro(t *testing.T) {
	cloud := &fakeClient{name: "gemini", available: true, text: `{}`, model: "gemini-1.5-flash"}
	svc := newTestService(ModeCloudOnly, nil, cloud, nil)

	result, err := svc.Analyze(context.Background(), AnalysisRequest{DocumentText: invoiceText})
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-flash", result.ModelUsed)
}

func TestAnalyze_FallbackToCore(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		local *fakeClient
		cloud *fakeClient
	}{
		{
			name:  "local unavailable",
			mode:  ModeLocalOnly,
			local: &fakeClient{name: "ollama", available: false},
		},
		{
			name:  "local generation error",
			mode:  ModeLocalOnly,
			local: &fakeClient{name: "ollama", available: true, model: "qwen3:8b", err: errors.New("connection reset")},
		},
		{
			name:  "unparseable local response",
			mode:  ModeLocalOnly,
			local: &fakeClient{name: "ollama", available: true, model: "qwen3:8b", text: "I cannot help with that."},
		},
		{
			name:  "cloud not configured",
			mode:  ModeCloudOnly,
			cloud: nil,
		},
		{
			name:  "cloud rejects request",
			mode:  ModeCloudOnly,
			cloud: &fakeClient{name: "gemini", available: true, model: "gemini-pro", err: &llm.StatusError{Backend: "gemini", StatusCode: 403}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var local, cloud llm.Client
			if tt.local != nil {
				local = tt.local
			}
			if tt.cloud != nil {
				cloud = tt.cloud
			}
			svc := newTestService(tt.mode, local, cloud, nil)

			result, err := svc.Analyze(context.Background(), AnalysisRequest{DocumentText: invoiceText})
			require.NoError(t, err)
			assert.Equal(t, SourceFallback, result.Source)
			assert.Equal(t, CoreModelName, result.ModelUsed)
			assert.NotNil(t, result.Core)
		})
	}
}

func TestAnalyze_FailuresRecordedInHealth(t *testing.T) {
	local := &fakeClient{name: "ollama", available: true, model: "qwen3:8b", err: errors.New("request timeout")}
	svc := newTestService(ModeLocalOnly, local, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Analyze(context.Background(), AnalysisRequest{DocumentText: invoiceText})
		require.NoError(t, err)
	}

	status := svc.monitors["ollama"].GetHealthStatus()
	assert.Equal(t, int64(3), status.FailedRequests)
	assert.Equal(t, int64(3), status.ConsecutiveFailures)
	require.Len(t, status.RecentFailures, 3)
	assert.Equal(t, llm.CategoryTimeout, status.RecentFailures[0].Category)
	assert.Equal(t, "qwen3:8b", status.RecentFailures[0].Model)
}

func TestAnalyze_RequestModeOverride(t *testing.T) {
	local := &fakeClient{name: "ollama", available: true, text: localJSON, model: "qwen3:8b"}
	svc := newTestService(ModeAuto, local, nil, nil)

	result, err := svc.Analyze(context.Background(), AnalysisRequest{DocumentText: invoiceText, Mode: ModeLocalOnly})
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, result.Source, "request mode overrides the service default")
	assert.Equal(t, ModeLocalOnly, result.Mode)
}

func TestAnalyze_EmptyDocumentUsesCore(t *testing.T) {
	svc := newTestService(ModeCoreOnly, nil, nil, nil)

	result, err := svc.Analyze(context.Background(), AnalysisRequest{})
	require.NoError(t, err)
	assert.Equal(t, "A", result.RiskScore)
	assert.Equal(t, 4730, result.Valuation)
	assert.Equal(t, 0.5, result.Confidence)
}

func TestAnalyze_CancelledContext(t *testing.T) {
	svc := newTestService(ModeCoreOnly, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analyze(ctx, AnalysisRequest{DocumentText: invoiceText})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_StorageFailureDoesNotFailRequest(t *testing.T) {
	repo := failingRepo{repository.NewMemoryRepository(0)}
	svc := newTestService(ModeCoreOnly, nil, nil, repo)

	result, err := svc.Analyze(context.Background(), AnalysisRequest{DocumentText: invoiceText})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RiskScore)
}

func TestAnalyzeBatch(t *testing.T) {
	repo := repository.NewMemoryRepository(0)
	svc := newTestService(ModeCoreOnly, nil, nil, repo)

	reqs := []AnalysisRequest{
		{DocumentText: invoiceText, RequestID: "batch-1"},
		{DocumentText: "Amount: 800 due soon", RequestID: "batch-1"},
		{DocumentText: "", RequestID: "batch-1"},
	}
	items, err := svc.AnalyzeBatch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, items, 3)

	engine := scoring.New()
	for i, item := range items {
		assert.Equal(t, i, item.Index)
		require.NotNil(t, item.Result)
		assert.Empty(t, item.Error)
		assert.Equal(t, engine.Analyze(reqs[i].DocumentText).Valuation, item.Result.Valuation)
	}
	assert.Equal(t, "C-", items[1].Result.RiskScore)
	assert.Equal(t, 3, repo.Len())
}

func TestAnalyzeBatch_Limits(t *testing.T) {
	svc := newTestService(ModeCoreOnly, nil, nil, nil)

	_, err := svc.AnalyzeBatch(context.Background(), nil)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.Code(err))

	_, err = svc.AnalyzeBatch(context.Background(), make([]AnalysisRequest, MaxBatchSize+1))
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.Code(err))

	items, err := svc.AnalyzeBatch(context.Background(), make([]AnalysisRequest, MaxBatchSize))
	require.NoError(t, err)
	assert.Len(t, items, MaxBatchSize)
}

func TestStatus(t *testing.T) {
	local := listingClient{&fakeClient{name: "ollama", available: true, installed: []string{"qwen3:8b", "mistral:7b"}}}
	cloud := &fakeClient{name: "gemini", available: true}
	svc := newTestService(ModeAuto, local, cloud, nil)

	status := svc.Status(context.Background())
	assert.Equal(t, ModeAuto, status.Mode)
	assert.True(t, status.OllamaAvailable)
	assert.Equal(t, []string{"qwen3:8b", "mistral:7b"}, status.LoadedModels)
	assert.True(t, status.GeminiAvailable)
	assert.Equal(t, 12.0, status.AvailableVRAMGB)
	assert.Contains(t, status.RecommendedStack, "mathematical")
	require.Len(t, status.Backends, 2)
	assert.Equal(t, "gemini", status.Backends[0].Backend)
	assert.Equal(t, "ollama", status.Backends[1].Backend)
}

func TestStatus_NoBackends(t *testing.T) {
	local := listingClient{&fakeClient{name: "ollama", available: false}}
	svc := newTestService(ModeCoreOnly, local, nil, nil)

	status := svc.Status(context.Background())
	assert.False(t, status.OllamaAvailable)
	assert.Empty(t, status.LoadedModels)
	assert.NotNil(t, status.LoadedModels)
	assert.False(t, status.GeminiAvailable)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeAuto, false},
		{"auto", ModeAuto, false},
		{" CORE_ONLY ", ModeCoreOnly, false},
		{"local_only", ModeLocalOnly, false},
		{"cloud_only", ModeCloudOnly, false},
		{"hybrid", ModeHybrid, false},
		{"turbo", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.Code(err), tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestModeBackends(t *testing.T) {
	assert.True(t, ModeHybrid.UsesCloud())
	assert.False(t, ModeHybrid.UsesLocal())
	assert.True(t, ModeAuto.UsesLocal())
	assert.False(t, ModeLocalOnly.UsesCore())
	assert.False(t, ModeCloudOnly.UsesLocal())
}

func TestNewServices(t *testing.T) {
	cfg := &config.Config{
		AnalysisMode:    "core_only",
		OllamaBaseURL:   "http://127.0.0.1:1",
		AvailableVRAMGB: 8,
	}
	svcs, err := NewServices(cfg, nil, logger.Nop())
	require.NoError(t, err)
	require.NotNil(t, svcs.Export)

	result, err := svcs.Analysis.Analyze(context.Background(), AnalysisRequest{DocumentText: invoiceText})
	require.NoError(t, err)

	stored, err := svcs.History.Get(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.RiskScore, stored.RiskScore)

	status := svcs.Analysis.Status(context.Background())
	assert.False(t, status.GeminiAvailable, "no key configured")
	assert.Len(t, status.Backends, 1)

	cfg.AnalysisMode = "turbo"
	_, err = NewServices(cfg, nil, logger.Nop())
	assert.Error(t, err)
}
