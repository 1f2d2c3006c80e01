package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/flowfi/flowai/internal/errors"
	"github.com/flowfi/flowai/internal/scoring"
)

// PostgresRepository implements AssessmentRepository on Postgres
type PostgresRepository struct {
	db dbExecutor
	tx *transactionManager
}

// NewPostgresRepository creates a Postgres-backed assessment repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
		tx: &transactionManager{db: db},
	}
}

const assessmentColumns = `id, request_id, document_type, mode, source, model_used, risk_score,
	probability_of_default, valuation, confidence, quantum_score, summary, reasoning,
	document_chars, core, created_at`

// Store inserts an assessment, assigning an ID and timestamp when missing
func (r *PostgresRepository) Store(ctx context.Context, a *Assessment) error {
	prepareForStore(a)

	var coreJSON []byte
	if a.Core != nil {
		var err error
		coreJSON, err = json.Marshal(a.Core)
		if err != nil {
			return apperrors.InternalError("failed to marshal core assessment", err).WithOperation("Store")
		}
	}

	query := `
		INSERT INTO assessments (` + assessmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.RequestID, a.DocumentType, a.Mode, a.Source, a.ModelUsed, a.RiskScore,
		a.ProbabilityOfDefault, a.Valuation, a.Confidence, a.QuantumScore, a.Summary, a.Reasoning,
		a.DocumentChars, nullableJSON(coreJSON), a.CreatedAt,
	)
	if err != nil {
		return apperrors.DatabaseError("failed to store assessment", err).WithOperation("Store")
	}
	return nil
}

// StoreBatch inserts assessments in one transaction
func (r *PostgresRepository) StoreBatch(ctx context.Context, assessments []*Assessment) error {
	if r.tx == nil {
		return apperrors.InternalError("batch store requires a connection pool", nil).WithOperation("StoreBatch")
	}
	return r.tx.withTransaction(ctx, func(repo *PostgresRepository) error {
		for _, a := range assessments {
			if err := repo.Store(ctx, a); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves a single assessment
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = $1`

	a, err := scanAssessment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("assessment not found", apperrors.ErrAssessmentNotFound).WithOperation("GetByID")
		}
		return nil, apperrors.DatabaseError("failed to get assessment", err).WithOperation("GetByID")
	}
	return a, nil
}

// List returns assessments newest first
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]Assessment, error) {
	opts = opts.Normalize()

	query := `SELECT ` + assessmentColumns + `
		FROM assessments
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to query assessments", err).WithOperation("List")
	}
	defer rows.Close()

	out := []Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, apperrors.DatabaseError("failed to scan assessment", err).WithOperation("List")
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.DatabaseError("failed to iterate assessments", err).WithOperation("List")
	}
	return out, nil
}

// Stats aggregates the history per risk score
func (r *PostgresRepository) Stats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT risk_score, COUNT(*), AVG(probability_of_default)
		FROM assessments
		GROUP BY risk_score
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to query assessment stats", err).WithOperation("Stats")
	}
	defer rows.Close()

	stats := &Stats{ByGrade: []GradeStats{}}
	for rows.Next() {
		var g GradeStats
		var avg sql.NullFloat64
		if err := rows.Scan(&g.RiskScore, &g.Count, &avg); err != nil {
			return nil, apperrors.DatabaseError("failed to scan assessment stats", err).WithOperation("Stats")
		}
		if avg.Valid {
			v := avg.Float64
			g.AveragePD = &v
		}
		stats.Total += g.Count
		stats.ByGrade = append(stats.ByGrade, g)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.DatabaseError("failed to iterate assessment stats", err).WithOperation("Stats")
	}

	sortGradeStats(stats.ByGrade)
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAssessment(row rowScanner) (*Assessment, error) {
	var a Assessment
	var pd, quantum sql.NullFloat64
	var reasoning sql.NullString
	var coreJSON []byte

	err := row.Scan(&a.ID, &a.RequestID, &a.DocumentType, &a.Mode, &a.Source, &a.ModelUsed, &a.RiskScore,
		&pd, &a.Valuation, &a.Confidence, &quantum, &a.Summary, &reasoning,
		&a.DocumentChars, &coreJSON, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	if pd.Valid {
		v := pd.Float64
		a.ProbabilityOfDefault = &v
	}
	if quantum.Valid {
		v := quantum.Float64
		a.QuantumScore = &v
	}
	if reasoning.Valid {
		v := reasoning.String
		a.Reasoning = &v
	}
	if len(coreJSON) > 0 {
		var core scoring.RiskAssessment
		if err := json.Unmarshal(coreJSON, &core); err != nil {
			return nil, fmt.Errorf("failed to decode core assessment: %w", err)
		}
		a.Core = &core
	}
	return &a, nil
}

func prepareForStore(a *Assessment) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

// sortGradeStats orders known grades best first, then anything else by name
func sortGradeStats(stats []GradeStats) {
	sort.SliceStable(stats, func(i, j int) bool {
		gi, gj := scoring.RiskGrade(stats[i].RiskScore), scoring.RiskGrade(stats[j].RiskScore)
		vi, vj := gi.IsValid(), gj.IsValid()
		switch {
		case vi && vj:
			return gi.Rank() < gj.Rank()
		case vi != vj:
			return vi
		default:
			return stats[i].RiskScore < stats[j].RiskScore
		}
	})
}
