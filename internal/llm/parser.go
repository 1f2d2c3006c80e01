package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/flowfi/flowai/internal/errors"
)

// Defaults applied when a model omits a field
const (
	DefaultRiskScore  = "B"
	DefaultValuation  = 10000
	DefaultConfidence = 0.85
	DefaultSummary    = "Analysis complete."
)

// Analysis is the structured assessment a model returns
type Analysis struct {
	RiskScore    string   `json:"risk_score"`
	Valuation    int      `json:"valuation"`
	Confidence   float64  `json:"confidence"`
	Summary      string   `json:"summary"`
	Reasoning    *string  `json:"reasoning,omitempty"`
	QuantumScore *float64 `json:"quantum_score,omitempty"`
}

// ParseResponse decodes a model completion into an Analysis. Markdown code
// fences and a leading "json" tag are stripped first.
func ParseResponse(raw string) (Analysis, error) {
	cleaned := cleanMarkdownWrapper(raw)

	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidResponse, err)
	}
	if fields == nil {
		return Analysis{}, fmt.Errorf("%w: not a JSON object", apperrors.ErrInvalidResponse)
	}

	out := Analysis{
		RiskScore:  DefaultRiskScore,
		Valuation:  DefaultValuation,
		Confidence: DefaultConfidence,
		Summary:    DefaultSummary,
	}

	if v, ok := fields["risk_score"]; ok && v != nil {
		s, isString := v.(string)
		if !isString {
			return Analysis{}, fmt.Errorf("%w: risk_score is %T", apperrors.ErrInvalidResponse, v)
		}
		out.RiskScore = strings.TrimSpace(s)
	}

	if v, ok := fields["valuation"]; ok && v != nil {
		f, err := toFloat(v)
		if err != nil || f >= float64(math.MaxInt) || f <= float64(math.MinInt) {
			return Analysis{}, fmt.Errorf("%w: valuation %v", apperrors.ErrInvalidResponse, v)
		}
		out.Valuation = int(f)
	}

	if v, ok := fields["confidence"]; ok && v != nil {
		f, err := toFloat(v)
		if err != nil {
			return Analysis{}, fmt.Errorf("%w: confidence %v", apperrors.ErrInvalidResponse, v)
		}
		out.Confidence = f
	}

	if v, ok := fields["summary"].(string); ok {
		out.Summary = v
	}

	if v, ok := fields["reasoning"].(string); ok {
		out.Reasoning = &v
	}

	if v, ok := fields["quantum_score"]; ok && v != nil {
		if f, err := toFloat(v); err == nil {
			out.QuantumScore = &f
		}
	}

	return out, nil
}

// cleanMarkdownWrapper strips a ``` fenced block down to its body
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		parts := strings.Split(content, "```")
		if len(parts) > 1 {
			content = parts[1]
		}
		content = strings.TrimPrefix(content, "json")
	}
	return strings.TrimSpace(content)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("not finite")
		}
		return n, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
