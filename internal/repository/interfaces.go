package repository

import (
	"context"

	"github.com/google/uuid"
)

// AssessmentRepository defines the interface for assessment history access
type AssessmentRepository interface {
	Store(ctx context.Context, a *Assessment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Assessment, error)
	List(ctx context.Context, opts ListOptions) ([]Assessment, error)
	Stats(ctx context.Context) (*Stats, error)
}

// BatchStorer stores several assessments atomically
type BatchStorer interface {
	StoreBatch(ctx context.Context, assessments []*Assessment) error
}
