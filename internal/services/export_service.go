package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/flowfi/flowai/internal/errors"
	"github.com/flowfi/flowai/internal/repository"
	"github.com/flowfi/flowai/internal/scoring"
)

// ExportFormat specifies the format for exporting assessments
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// ParseExportFormat parses an export format; empty means CSV
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", apperrors.InvalidInput("unsupported export format", nil).WithDetails("expected csv or json")
	}
}

// ExportFilter selects which stored assessments are exported
type ExportFilter struct {
	RiskScores    []string   `json:"risk_scores"`
	Sources       []string   `json:"sources"`
	MinConfidence *float64   `json:"min_confidence"`
	CreatedAfter  *time.Time `json:"created_after"`
	Limit         int        `json:"limit"`
}

// ExportedAssessment is one exported row
type ExportedAssessment struct {
	ID                   string    `json:"id"`
	CreatedAt            time.Time `json:"created_at"`
	RiskScore            string    `json:"risk_score"`
	ProbabilityOfDefault *float64  `json:"probability_of_default,omitempty"`
	Valuation            int       `json:"valuation"`
	Confidence           float64   `json:"confidence"`
	QuantumScore         *float64  `json:"quantum_score,omitempty"`
	Source               string    `json:"source"`
	ModelUsed            string    `json:"model_used"`
	DocumentType         string    `json:"document_type"`
	Summary              string    `json:"summary"`
	RiskIndicators       []string  `json:"risk_indicators"`
}

// ExportService filters and exports assessment history for the risk desk
type ExportService struct {
	history HistoryService
	now     func() time.Time
}

// NewExportService creates a new export service
func NewExportService(history HistoryService) *ExportService {
	return &ExportService{history: history, now: time.Now}
}

// Select returns the assessments matching filter, newest first
func (s *ExportService) Select(ctx context.Context, filter ExportFilter) ([]ExportedAssessment, error) {
	limit := filter.Limit
	if limit <= 0 || limit > repository.MaxListLimit {
		limit = repository.MaxListLimit
	}

	riskScores := toSet(filter.RiskScores)
	sources := toSet(filter.Sources)

	rows := []ExportedAssessment{}
	for offset := 0; len(rows) < limit; offset += repository.MaxListLimit {
		page, err := s.history.List(ctx, repository.ListOptions{Limit: repository.MaxListLimit, Offset: offset})
		if err != nil {
			return nil, err
		}

		for i := range page {
			a := &page[i]
			if !matches(a, filter, riskScores, sources) {
				continue
			}
			rows = append(rows, toExported(a))
			if len(rows) == limit {
				break
			}
		}

		if len(page) < repository.MaxListLimit {
			break
		}
	}

	return rows, nil
}

// Export renders the matching assessments in format
func (s *ExportService) Export(ctx context.Context, filter ExportFilter, format ExportFormat) ([]byte, error) {
	rows, err := s.Select(ctx, filter)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatJSON:
		return json.MarshalIndent(map[string]interface{}{
			"assessments": rows,
			"count":       len(rows),
			"exported_at": s.now().UTC(),
		}, "", "  ")
	case FormatCSV:
		return exportToCSV(rows)
	default:
		return nil, apperrors.InvalidInput("unsupported export format", nil)
	}
}

func matches(a *repository.Assessment, filter ExportFilter, riskScores, sources map[string]bool) bool {
	if len(riskScores) > 0 && !riskScores[a.RiskScore] {
		return false
	}
	if len(sources) > 0 && !sources[a.Source] {
		return false
	}
	if filter.MinConfidence != nil && a.Confidence < *filter.MinConfidence {
		return false
	}
	if filter.CreatedAfter != nil && !a.CreatedAt.After(*filter.CreatedAfter) {
		return false
	}
	return true
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = true
		}
	}
	return set
}

func toExported(a *repository.Assessment) ExportedAssessment {
	return ExportedAssessment{
		ID:                   a.ID.String(),
		CreatedAt:            a.CreatedAt,
		RiskScore:            a.RiskScore,
		ProbabilityOfDefault: a.ProbabilityOfDefault,
		Valuation:            a.Valuation,
		Confidence:           a.Confidence,
		QuantumScore:         a.QuantumScore,
		Source:               a.Source,
		ModelUsed:            a.ModelUsed,
		DocumentType:         a.DocumentType,
		Summary:              a.Summary,
		RiskIndicators:       riskIndicators(a),
	}
}

// riskIndicators flags what a credit analyst should look at first
func riskIndicators(a *repository.Assessment) []string {
	indicators := []string{}

	if g := scoring.RiskGrade(a.RiskScore); g.IsValid() && g.Rank() >= scoring.GradeCPlus.Rank() {
		indicators = append(indicators, "Sub-investment grade")
	}
	if a.Confidence < 0.6 {
		indicators = append(indicators, "Low confidence")
	}
	if a.Source == string(SourceFallback) {
		indicators = append(indicators, "Model backends unavailable")
	}

	if a.Core == nil {
		return indicators
	}
	f := a.Core.Features
	if f.PaymentTermsDays > 60 {
		indicators = append(indicators, "Extended payment terms")
	}
	if f.SentimentScore < 0 {
		indicators = append(indicators, "Distress language")
	}
	if !f.HasTaxID {
		indicators = append(indicators, "No tax ID")
	}
	if !f.HasBankDetails {
		indicators = append(indicators, "No bank details")
	}
	if scoring.InDistressZone(a.Core.ZScore) {
		indicators = append(indicators, "Distress zone")
	}
	return indicators
}

func exportToCSV(rows []ExportedAssessment) ([]byte, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)

	headers := []string{
		"id", "created_at", "risk_score", "probability_of_default", "valuation",
		"confidence", "quantum_score", "source", "model_used", "document_type",
		"summary", "risk_indicators",
	}
	if err := writer.Write(headers); err != nil {
		return nil, err
	}

	for _, r := range rows {
		row := []string{
			r.ID,
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.RiskScore,
			formatNullFloat(r.ProbabilityOfDefault, 6),
			strconv.Itoa(r.Valuation),
			strconv.FormatFloat(r.Confidence, 'f', 4, 64),
			formatNullFloat(r.QuantumScore, 2),
			r.Source,
			r.ModelUsed,
			r.DocumentType,
			r.Summary,
			strings.Join(r.RiskIndicators, "; "),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return []byte(output.String()), nil
}

func formatNullFloat(val *float64, prec int) string {
	if val == nil {
		return ""
	}
	return strconv.FormatFloat(*val, 'f', prec, 64)
}
