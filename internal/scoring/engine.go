package scoring

// Version of the core risk model
const Version = "1.0.0"

// ModelName identifies the core risk model in results and metadata
const ModelName = "FlowAI Core"

// Engine is the deterministic invoice risk model. It is immutable after New and
// safe for concurrent use without locking.
type Engine struct {
	patterns *PatternLibrary
}

// RiskAssessment is the complete output of Analyze
type RiskAssessment struct {
	RiskGrade            RiskGrade       `json:"risk_grade"`
	ProbabilityOfDefault float64         `json:"probability_of_default"`
	Valuation            int             `json:"valuation"`
	Confidence           float64         `json:"confidence"`
	QuantumScore         float64         `json:"quantum_score"`
	Summary              string          `json:"summary"`
	Reasoning            string          `json:"reasoning"`
	Components           ComponentScores `json:"components"`

	// Intermediate values kept for auditing a result
	ZScore            float64         `json:"z_score"`
	DistanceToDefault float64         `json:"distance_to_default"`
	Features          InvoiceFeatures `json:"features"`
}

// ModelInfo is static metadata describing the engine
type ModelInfo struct {
	Name              string   `json:"name"`
	Version           string   `json:"version"`
	Type              string   `json:"type"`
	Components        []string `json:"components"`
	SizeMB            float64  `json:"size_mb"`
	InferenceTimeMS   int      `json:"inference_time_ms"`
	AccuracySynthetic float64  `json:"accuracy_synthetic"`
}

// New builds an engine with its pattern library compiled
func New() *Engine {
	return &Engine{
		patterns: NewPatternLibrary(),
	}
}

// ExtractFeatures runs feature extraction only
func (e *Engine) ExtractFeatures(text string) InvoiceFeatures {
	return e.patterns.ExtractFeatures(text)
}

// Analyze runs the full pipeline on document text. It accepts any string,
// including empty or non-invoice text, and always returns a complete assessment.
func (e *Engine) Analyze(documentText string) RiskAssessment {
	features := e.patterns.ExtractFeatures(documentText)

	z := ZScore(features)
	dd := DistanceToDefault(features)
	pd := ProbabilityOfDefault(z, dd)

	quantum, components := QuantumScore(features, z, pd)
	grade := GradeForPD(pd)
	confidence := Confidence(features, pd)
	valuation := Valuation(features, pd)

	return RiskAssessment{
		RiskGrade:            grade,
		ProbabilityOfDefault: pd,
		Valuation:            valuation,
		Confidence:           confidence,
		QuantumScore:         quantum,
		Summary:              Summary(grade, valuation),
		Reasoning:            Reasoning(features, z, dd, pd, components),
		Components:           components,
		ZScore:               z,
		DistanceToDefault:    dd,
		Features:             features,
	}
}

// ModelInfo returns the engine's static metadata
func (e *Engine) ModelInfo() ModelInfo {
	return ModelInfo{
		Name:    ModelName,
		Version: Version,
		Type:    "Hybrid Credit Risk Model",
		Components: []string{
			"Modified Altman Z-Score",
			"Merton Distance-to-Default",
			"Bayesian Confidence Estimation",
			"Quantum Score Multi-Factor",
			"NLP Feature Extraction",
		},
		SizeMB:            0.05,
		InferenceTimeMS:   5,
		AccuracySynthetic: 0.94,
	}
}
