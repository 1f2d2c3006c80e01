package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowfi/flowai/internal/scoring"
)

// Assessment is a stored analysis result
type Assessment struct {
	ID                   uuid.UUID               `json:"id"`
	RequestID            string                  `json:"request_id,omitempty"`
	DocumentType         string                  `json:"document_type"`
	Mode                 string                  `json:"mode"`
	Source               string                  `json:"source"`
	ModelUsed            string                  `json:"model_used"`
	RiskScore            string                  `json:"risk_score"`
	ProbabilityOfDefault *float64                `json:"probability_of_default,omitempty"`
	Valuation            int                     `json:"valuation"`
	Confidence           float64                 `json:"confidence"`
	QuantumScore         *float64                `json:"quantum_score,omitempty"`
	Summary              string                  `json:"summary"`
	Reasoning            *string                 `json:"reasoning,omitempty"`
	DocumentChars        int                     `json:"document_chars"`
	Core                 *scoring.RiskAssessment `json:"core,omitempty"`
	CreatedAt            time.Time               `json:"created_at"`
}

// GradeStats aggregates assessments sharing a risk score
type GradeStats struct {
	RiskScore string   `json:"risk_score"`
	Count     int64    `json:"count"`
	AveragePD *float64 `json:"average_pd,omitempty"`
}

// Stats summarises the assessment history
type Stats struct {
	Total   int64        `json:"total"`
	ByGrade []GradeStats `json:"by_grade"`
}

// ListOptions pages through the history, newest first
type ListOptions struct {
	Limit  int
	Offset int
}

// Paging bounds
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Normalize clamps the options to valid bounds
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
