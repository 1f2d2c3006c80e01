package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/flowfi/flowai/internal/document"
	"github.com/flowfi/flowai/internal/llm"
	"github.com/flowfi/flowai/internal/logger"
	"github.com/flowfi/flowai/internal/models"
	"github.com/flowfi/flowai/internal/repository"
	"github.com/flowfi/flowai/internal/scoring"
)

// CoreModelName is reported as model_used for core results
const CoreModelName = "FlowAI Core v1.0"

// AnalysisRequest is a single document to analyse
type AnalysisRequest struct {
	DocumentText string
	DocumentType string
	// Mode overrides the service default when set
	Mode      Mode
	RequestID string
	// Document, when set, is used instead of DocumentText
	Document *document.Document
}

// AnalysisResult is the service-level answer for one document
type AnalysisResult struct {
	ID           uuid.UUID               `json:"id"`
	RiskScore    string                  `json:"risk_score"`
	Valuation    int                     `json:"valuation"`
	Confidence   float64                 `json:"confidence"`
	Summary      string                  `json:"summary"`
	Reasoning    *string                 `json:"reasoning,omitempty"`
	QuantumScore *float64                `json:"quantum_score,omitempty"`
	ModelUsed    string                  `json:"model_used"`
	Source       Source                  `json:"source"`
	Mode         Mode                    `json:"mode"`
	DocumentType string                  `json:"document_type"`
	Document     document.Document       `json:"document"`
	Core         *scoring.RiskAssessment `json:"core,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
}

// Options configures an analysis service
type Options struct {
	Mode            Mode
	Local           llm.Client
	Cloud           llm.Client
	Repository      repository.AssessmentRepository
	Logger          logger.Logger
	AvailableVRAMGB float64
	// BatchConcurrency bounds concurrent analyses in a batch
	BatchConcurrency int
}

// analysisService orchestrates the core engine and the model backends
type analysisService struct {
	core             *scoring.Engine
	local            llm.Client
	cloud            llm.Client
	repo             repository.AssessmentRepository
	logger           logger.Logger
	mode             Mode
	vramGB           float64
	batchConcurrency int
	monitors         map[string]*llm.HealthMonitor
	now              func() time.Time
}

// NewAnalysisService creates an analysis service around engine
func NewAnalysisService(engine *scoring.Engine, opts Options) AnalysisService {
	return newAnalysisService(engine, opts)
}

func newAnalysisService(engine *scoring.Engine, opts Options) *analysisService {
	if engine == nil {
		engine = scoring.New()
	}
	if opts.Mode == "" {
		opts.Mode = ModeAuto
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewSimpleLogger()
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = DefaultBatchConcurrency
	}

	s := &analysisService{
		core:             engine,
		local:            opts.Local,
		cloud:            opts.Cloud,
		repo:             opts.Repository,
		logger:           opts.Logger,
		mode:             opts.Mode,
		vramGB:           opts.AvailableVRAMGB,
		batchConcurrency: opts.BatchConcurrency,
		monitors:         make(map[string]*llm.HealthMonitor),
		now:              func() time.Time { return time.Now().UTC() },
	}
	for _, c := range []llm.Client{opts.Local, opts.Cloud} {
		if c != nil {
			s.monitors[c.Name()] = llm.NewHealthMonitor(c.Name())
		}
	}

	stack := models.RecommendedStack(s.vramGB)
	names := make([]string, 0, len(stack))
	for role, m := range stack {
		names = append(names, role+"="+m.Name)
	}
	s.logger.Info("Analysis service initialized", "mode", string(s.mode), "vram_gb", s.vramGB, "recommended_models", names)

	return s
}

// ModelInfo returns the core engine's metadata
func (s *analysisService) ModelInfo() scoring.ModelInfo {
	return s.core.ModelInfo()
}

// Analyze runs one document through the configured backends and stores the
// result. Storage failures are logged and never returned.
func (s *analysisService) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	result, err := s.analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	s.store(ctx, req.RequestID, []*AnalysisResult{result})
	return result, nil
}

func (s *analysisService) analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = s.mode
	}
	docType := req.DocumentType
	if docType == "" {
		docType = llm.DefaultDocumentType
	}
	var doc document.Document
	if req.Document != nil {
		doc = *req.Document
	} else {
		doc = document.FromText(req.DocumentText)
	}

	var result *AnalysisResult
	switch {
	case mode.UsesCore():
		result = s.fromCore(doc.Text, SourceCore)
	default:
		result = s.fromBackends(ctx, mode, doc.Text, docType)
	}
	if result == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.logger.Warn("All strategies failed, using FlowAI Core fallback", "mode", string(mode), "request_id", req.RequestID)
		result = s.fromCore(doc.Text, SourceFallback)
	}

	result.ID = uuid.New()
	result.Mode = mode
	result.DocumentType = docType
	result.Document = doc
	result.CreatedAt = s.now()

	s.logger.Info("Document analysed",
		"request_id", req.RequestID,
		"assessment_id", result.ID.String(),
		"source", string(result.Source),
		"risk_score", result.RiskScore,
		"valuation", result.Valuation,
	)
	return result, nil
}

func (s *analysisService) fromCore(text string, source Source) *AnalysisResult {
	a := s.core.Analyze(text)
	reasoning := a.Reasoning
	quantum := a.QuantumScore
	return &AnalysisResult{
		RiskScore:    string(a.RiskGrade),
		Valuation:    a.Valuation,
		Confidence:   a.Confidence,
		Summary:      a.Summary,
		Reasoning:    &reasoning,
		QuantumScore: &quantum,
		ModelUsed:    CoreModelName,
		Source:       source,
		Core:         &a,
	}
}

// fromBackends tries the local then the cloud backend as the mode allows.
// It returns nil when neither produced a usable answer.
func (s *analysisService) fromBackends(ctx context.Context, mode Mode, text, docType string) *AnalysisResult {
	prompt := llm.BuildPrompt(text, docType)

	if mode.UsesLocal() && s.local != nil {
		if result := s.tryBackend(ctx, s.local, prompt, SourceLocal); result != nil {
			return result
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	if mode.UsesCloud() && s.cloud != nil {
		if result := s.tryBackend(ctx, s.cloud, prompt, SourceCloud); result != nil {
			return result
		}
	}
	return nil
}

func (s *analysisService) tryBackend(ctx context.Context, client llm.Client, prompt string, source Source) *AnalysisResult {
	monitor := s.monitors[client.Name()]

	if !client.Available(ctx) {
		s.logger.Debug("Backend not available", "backend", client.Name())
		return nil
	}

	gen, err := client.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error("Backend generation failed", err, "backend", client.Name())
		if monitor != nil && !errors.Is(err, context.Canceled) {
			monitor.RecordFailure(gen.Model, err)
		}
		return nil
	}

	parsed, err := llm.ParseResponse(gen.Text)
	if err != nil {
		s.logger.Error("Failed to parse backend response", err, "backend", client.Name(), "model", gen.Model)
		if monitor != nil {
			monitor.RecordFailure(gen.Model, err)
		}
		return nil
	}
	if monitor != nil {
		monitor.RecordSuccess()
	}

	return &AnalysisResult{
		RiskScore:    parsed.RiskScore,
		Valuation:    parsed.Valuation,
		Confidence:   parsed.Confidence,
		Summary:      parsed.Summary,
		Reasoning:    parsed.Reasoning,
		QuantumScore: parsed.QuantumScore,
		ModelUsed:    backendModelName(source, gen.Model),
		Source:       source,
	}
}

func backendModelName(source Source, model string) string {
	if source == SourceCloud {
		if model == "gemini-pro" {
			return "Gemini Pro"
		}
		return model
	}
	return models.DisplayName(model)
}

func (s *analysisService) store(ctx context.Context, requestID string, results []*AnalysisResult) {
	if s.repo == nil || len(results) == 0 {
		return
	}

	records := make([]*repository.Assessment, len(results))
	for i, r := range results {
		records[i] = toAssessment(requestID, r)
	}

	var err error
	if batch, ok := s.repo.(repository.BatchStorer); ok && len(records) > 1 {
		err = batch.StoreBatch(ctx, records)
	} else {
		for _, rec := range records {
			if storeErr := s.repo.Store(ctx, rec); storeErr != nil {
				err = storeErr
			}
		}
	}
	if err != nil {
		s.logger.Error("Failed to store assessment", err, "request_id", requestID, "count", len(records))
	}
}

func toAssessment(requestID string, r *AnalysisResult) *repository.Assessment {
	a := &repository.Assessment{
		ID:            r.ID,
		RequestID:     requestID,
		DocumentType:  r.DocumentType,
		Mode:          string(r.Mode),
		Source:        string(r.Source),
		ModelUsed:     r.ModelUsed,
		RiskScore:     r.RiskScore,
		Valuation:     r.Valuation,
		Confidence:    r.Confidence,
		QuantumScore:  r.QuantumScore,
		Summary:       r.Summary,
		Reasoning:     r.Reasoning,
		DocumentChars: r.Document.Chars,
		Core:          r.Core,
		CreatedAt:     r.CreatedAt,
	}
	if r.Core != nil {
		pd := r.Core.ProbabilityOfDefault
		a.ProbabilityOfDefault = &pd
	}
	return a
}
