package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/flowfi/flowai/internal/llm"
	"github.com/flowfi/flowai/internal/logger"
	"github.com/flowfi/flowai/internal/repository"
	"github.com/flowfi/flowai/internal/scoring"
	"github.com/flowfi/flowai/pkg/config"
)

// Services contains all application services
type Services struct {
	Analysis AnalysisService
	History  HistoryService
	Export   *ExportService
}

// AnalysisService defines the interface for document risk analysis
type AnalysisService interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error)
	AnalyzeBatch(ctx context.Context, reqs []AnalysisRequest) ([]BatchItem, error)
	Status(ctx context.Context) Status
	ModelInfo() scoring.ModelInfo
}

// HistoryService defines the interface for reading stored assessments
type HistoryService interface {
	Get(ctx context.Context, id uuid.UUID) (*repository.Assessment, error)
	List(ctx context.Context, opts repository.ListOptions) ([]repository.Assessment, error)
	Stats(ctx context.Context) (*repository.Stats, error)
}

// NewServices wires the services from configuration. repo may be nil, in
// which case history is kept in memory.
func NewServices(cfg *config.Config, repo repository.AssessmentRepository, log logger.Logger) (*Services, error) {
	mode, err := ParseMode(cfg.AnalysisMode)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		repo = repository.NewMemoryRepository(0)
	}

	local := llm.NewOllamaClient(llm.OllamaConfig{
		BaseURL: cfg.OllamaBaseURL,
		Models:  cfg.GetOllamaModels(),
		Timeout: cfg.BackendTimeout,
	})

	var cloud llm.Client
	if cfg.HasGeminiCredentials() {
		cloud = llm.NewGeminiClient(llm.GeminiConfig{
			APIKey:   cfg.GeminiAPIKey,
			Model:    cfg.GeminiModel,
			Endpoint: cfg.GeminiEndpoint,
			Timeout:  cfg.BackendTimeout,
		})
	}

	analysis := NewAnalysisService(scoring.New(), Options{
		Mode:            mode,
		Local:           local,
		Cloud:           cloud,
		Repository:      repo,
		Logger:          log,
		AvailableVRAMGB: cfg.AvailableVRAMGB,
	})

	history := NewHistoryService(repo)
	return &Services{
		Analysis: analysis,
		History:  history,
		Export:   NewExportService(history),
	}, nil
}

type historyService struct {
	repo repository.AssessmentRepository
}

// NewHistoryService creates a history service over repo
func NewHistoryService(repo repository.AssessmentRepository) HistoryService {
	return &historyService{repo: repo}
}

func (s *historyService) Get(ctx context.Context, id uuid.UUID) (*repository.Assessment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *historyService) List(ctx context.Context, opts repository.ListOptions) ([]repository.Assessment, error) {
	return s.repo.List(ctx, opts)
}

func (s *historyService) Stats(ctx context.Context) (*repository.Stats, error) {
	return s.repo.Stats(ctx)
}
