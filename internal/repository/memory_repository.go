package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/flowfi/flowai/internal/errors"
)

// DefaultMemoryCapacity bounds the in-memory history
const DefaultMemoryCapacity = 10000

// MemoryRepository keeps the assessment history in process memory. The
// oldest entries are evicted once capacity is reached.
type MemoryRepository struct {
	mu       sync.RWMutex
	items    []Assessment // oldest first
	byID     map[uuid.UUID]int
	capacity int
}

// NewMemoryRepository creates an in-memory repository
func NewMemoryRepository(capacity int) *MemoryRepository {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryRepository{
		byID:     make(map[uuid.UUID]int),
		capacity: capacity,
	}
}

// Store implements AssessmentRepository
func (r *MemoryRepository) Store(ctx context.Context, a *Assessment) error {
	prepareForStore(a)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[a.ID]; exists {
		return apperrors.ValidationError("assessment already stored", nil).WithOperation("Store").WithDetails(a.ID.String())
	}

	r.items = append(r.items, *a)
	if len(r.items) > r.capacity {
		r.items = append([]Assessment(nil), r.items[len(r.items)-r.capacity:]...)
	}
	r.reindex()
	return nil
}

// StoreBatch stores every assessment or none of them
func (r *MemoryRepository) StoreBatch(ctx context.Context, assessments []*Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[uuid.UUID]bool, len(assessments))
	for _, a := range assessments {
		prepareForStore(a)
		if _, exists := r.byID[a.ID]; exists || seen[a.ID] {
			return apperrors.ValidationError("assessment already stored", nil).WithOperation("StoreBatch").WithDetails(a.ID.String())
		}
		seen[a.ID] = true
	}

	for _, a := range assessments {
		r.items = append(r.items, *a)
	}
	if len(r.items) > r.capacity {
		r.items = append([]Assessment(nil), r.items[len(r.items)-r.capacity:]...)
	}
	r.reindex()
	return nil
}

// GetByID implements AssessmentRepository
func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("assessment not found", apperrors.ErrAssessmentNotFound).WithOperation("GetByID")
	}
	a := r.items[idx]
	return &a, nil
}

// List implements AssessmentRepository
func (r *MemoryRepository) List(ctx context.Context, opts ListOptions) ([]Assessment, error) {
	opts = opts.Normalize()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Assessment{}
	for i := len(r.items) - 1 - opts.Offset; i >= 0 && len(out) < opts.Limit; i-- {
		out = append(out, r.items[i])
	}
	return out, nil
}

// Stats implements AssessmentRepository
func (r *MemoryRepository) Stats(ctx context.Context) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type acc struct {
		count   int64
		pdSum   float64
		pdCount int64
	}
	grades := make(map[string]*acc)
	for _, a := range r.items {
		g, ok := grades[a.RiskScore]
		if !ok {
			g = &acc{}
			grades[a.RiskScore] = g
		}
		g.count++
		if a.ProbabilityOfDefault != nil {
			g.pdSum += *a.ProbabilityOfDefault
			g.pdCount++
		}
	}

	stats := &Stats{Total: int64(len(r.items)), ByGrade: make([]GradeStats, 0, len(grades))}
	for score, g := range grades {
		gs := GradeStats{RiskScore: score, Count: g.count}
		if g.pdCount > 0 {
			avg := g.pdSum / float64(g.pdCount)
			gs.AveragePD = &avg
		}
		stats.ByGrade = append(stats.ByGrade, gs)
	}
	sortGradeStats(stats.ByGrade)
	return stats, nil
}

// Len returns the number of stored assessments
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *MemoryRepository) reindex() {
	r.byID = make(map[uuid.UUID]int, len(r.items))
	for i, a := range r.items {
		r.byID[a.ID] = i
	}
}
