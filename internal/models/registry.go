package models

import (
	"sort"
)

// Capability is a task a language model is suited for
type Capability string

const (
	CapMathematicalReasoning Capability = "mathematical_reasoning"
	CapFinancialAnalysis     Capability = "financial_analysis"
	CapQuantitative          Capability = "quantitative"
	CapOCRVision             Capability = "ocr_vision"
	CapCodeGeneration        Capability = "code_generation"
	CapRiskAssessment        Capability = "risk_assessment"
	CapDocumentParsing       Capability = "document_parsing"
)

// Stack roles returned by RecommendedStack
const (
	RoleMathematical = "mathematical"
	RoleFinancial    = "financial"
	RoleVision       = "vision"
	RoleRisk         = "risk"
)

// LanguageModel describes a locally hostable model
type LanguageModel struct {
	Name          string       `json:"name"`
	Tag           string       `json:"ollama_name"`
	Parameters    string       `json:"parameters"`
	ContextLength int          `json:"context_length"`
	Capabilities  []Capability `json:"capabilities"`
	Description   string       `json:"description"`
	Priority      int          `json:"priority"` // lower is preferred
	RequiresGPU   bool         `json:"requires_gpu"`
	MinVRAMGB     float64      `json:"min_vram_gb"`
}

// Has reports whether the model has the capability
func (m LanguageModel) Has(c Capability) bool {
	for _, have := range m.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

var registry = []LanguageModel{
	{
		Name:          "DeepSeek-R1",
		Tag:           "deepseek-r1:14b",
		Parameters:    "14B",
		ContextLength: 128000,
		Capabilities:  []Capability{CapMathematicalReasoning, CapFinancialAnalysis, CapQuantitative, CapRiskAssessment},
		Description:   "State-of-the-art mathematical reasoning model. Achieves near-perfect scores on AIME and advanced math benchmarks.",
		Priority:      1,
		RequiresGPU:   true,
		MinVRAMGB:     12,
	},
	{
		Name:          "Qwen3-32B",
		Tag:           "qwen3:32b",
		Parameters:    "32B",
		ContextLength: 131072,
		Capabilities:  []Capability{CapMathematicalReasoning, CapFinancialAnalysis, CapQuantitative, CapCodeGeneration},
		Description:   "Qwen3 with thinking mode for step-by-step complex problem solving.",
		Priority:      1,
		RequiresGPU:   true,
		MinVRAMGB:     24,
	},
	{
		Name:          "DeepSeek-R1-8B",
		Tag:           "deepseek-r1:8b",
		Parameters:    "8B",
		ContextLength: 128000,
		Capabilities:  []Capability{CapMathematicalReasoning, CapFinancialAnalysis, CapQuantitative},
		Description:   "Compact version of DeepSeek-R1. Suited to financial document analysis on consumer hardware.",
		Priority:      2,
		RequiresGPU:   true,
		MinVRAMGB:     8,
	},
	{
		Name:          "Qwen3-14B",
		Tag:           "qwen3:14b",
		Parameters:    "14B",
		ContextLength: 131072,
		Capabilities:  []Capability{CapMathematicalReasoning, CapFinancialAnalysis, CapQuantitative},
		Description:   "Balanced Qwen3 model with strong quantitative capabilities.",
		Priority:      2,
		RequiresGPU:   true,
		MinVRAMGB:     12,
	},
	{
		Name:          "Llama-3.2-Vision",
		Tag:           "llama3.2-vision:11b",
		Parameters:    "11B",
		ContextLength: 128000,
		Capabilities:  []Capability{CapOCRVision, CapDocumentParsing, CapFinancialAnalysis},
		Description:   "Invoice and receipt OCR. Extracts structured data from images.",
		Priority:      1,
		RequiresGPU:   true,
		MinVRAMGB:     10,
	},
	{
		Name:          "Mistral-7B",
		Tag:           "mistral:7b",
		Parameters:    "7B",
		ContextLength: 32768,
		Capabilities:  []Capability{CapFinancialAnalysis, CapCodeGeneration, CapRiskAssessment},
		Description:   "Fast general-purpose model for quick analysis.",
		Priority:      3,
		MinVRAMGB:     6,
	},
	{
		Name:          "Phi-3.5",
		Tag:           "phi3.5:3.8b",
		Parameters:    "3.8B",
		ContextLength: 128000,
		Capabilities:  []Capability{CapFinancialAnalysis, CapDocumentParsing},
		Description:   "Lightweight model for financial categorization.",
		Priority:      3,
		MinVRAMGB:     4,
	},
	{
		Name:          "Qwen3-0.6B",
		Tag:           "qwen3:0.6b",
		Parameters:    "0.6B",
		ContextLength: 32768,
		Capabilities:  []Capability{CapFinancialAnalysis},
		Description:   "Ultra-lightweight model for CPU-only inference.",
		Priority:      4,
		MinVRAMGB:     1,
	},
}

// All returns every registered model in registry order
func All() []LanguageModel {
	out := make([]LanguageModel, len(registry))
	copy(out, registry)
	return out
}

// ByCapability returns the models having c, best priority first. Ties keep
// registry order.
func ByCapability(c Capability) []LanguageModel {
	var out []LanguageModel
	for _, m := range registry {
		if m.Has(c) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// BestForTask returns the preferred model for c that fits in maxVRAMGB
func BestForTask(c Capability, maxVRAMGB float64) (LanguageModel, bool) {
	for _, m := range ByCapability(c) {
		if m.MinVRAMGB <= maxVRAMGB {
			return m, true
		}
	}
	return LanguageModel{}, false
}

// RecommendedStack picks one model per role for the available VRAM. A model
// already chosen for an earlier role is not repeated under the financial or
// risk roles.
func RecommendedStack(availableVRAMGB float64) map[string]LanguageModel {
	stack := make(map[string]LanguageModel)

	math, hasMath := BestForTask(CapMathematicalReasoning, availableVRAMGB)
	if hasMath {
		stack[RoleMathematical] = math
	}

	if fin, ok := BestForTask(CapFinancialAnalysis, availableVRAMGB); ok && (!hasMath || fin.Tag != math.Tag) {
		stack[RoleFinancial] = fin
	}

	if vision, ok := BestForTask(CapOCRVision, availableVRAMGB); ok {
		stack[RoleVision] = vision
	}

	if risk, ok := BestForTask(CapRiskAssessment, availableVRAMGB); ok && !inStack(stack, risk.Tag) {
		stack[RoleRisk] = risk
	}

	return stack
}

// Lookup finds a model by its runtime tag
func Lookup(tag string) (LanguageModel, bool) {
	for _, m := range registry {
		if m.Tag == tag {
			return m, true
		}
	}
	return LanguageModel{}, false
}

// DisplayName returns the registered name for tag, or the tag itself
func DisplayName(tag string) string {
	if m, ok := Lookup(tag); ok {
		return m.Name
	}
	return tag
}

func inStack(stack map[string]LanguageModel, tag string) bool {
	for _, m := range stack {
		if m.Tag == tag {
			return true
		}
	}
	return false
}
