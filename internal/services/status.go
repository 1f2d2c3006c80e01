package services

import (
	"context"
	"sort"

	"github.com/flowfi/flowai/internal/llm"
	"github.com/flowfi/flowai/internal/models"
)

// ModelLister is implemented by backends that can report installed models
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Status describes which backends are usable right now
type Status struct {
	Mode             Mode                            `json:"mode"`
	OllamaAvailable  bool                            `json:"ollama_available"`
	LoadedModels     []string                        `json:"loaded_models"`
	RecommendedStack map[string]models.LanguageModel `json:"recommended_stack"`
	GeminiAvailable  bool                            `json:"gemini_available"`
	AvailableVRAMGB  float64                         `json:"available_vram_gb"`
	Backends         []llm.HealthStatus              `json:"backends"`
}

// Status probes the backends. It never fails; unreachable backends are
// reported as unavailable.
func (s *analysisService) Status(ctx context.Context) Status {
	status := Status{
		Mode:             s.mode,
		LoadedModels:     []string{},
		RecommendedStack: models.RecommendedStack(s.vramGB),
		AvailableVRAMGB:  s.vramGB,
		Backends:         []llm.HealthStatus{},
	}

	if s.local != nil {
		if lister, ok := s.local.(ModelLister); ok {
			loaded, err := lister.ListModels(ctx)
			if err == nil {
				status.OllamaAvailable = true
				status.LoadedModels = loaded
			} else {
				s.logger.Debug("Local backend unreachable", "error", err.Error())
			}
		} else {
			status.OllamaAvailable = s.local.Available(ctx)
		}
	}
	if s.cloud != nil {
		status.GeminiAvailable = s.cloud.Available(ctx)
	}

	names := make([]string, 0, len(s.monitors))
	for name := range s.monitors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		status.Backends = append(status.Backends, s.monitors[name].GetHealthStatus())
	}

	return status
}
