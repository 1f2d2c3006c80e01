package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/flowfi/flowai/internal/errors"
)

// Batch limits
const (
	MaxBatchSize            = 100
	DefaultBatchConcurrency = 8
)

// BatchItem is the outcome for one document of a batch
type BatchItem struct {
	Index  int             `json:"index"`
	Result *AnalysisResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// AnalyzeBatch analyses documents concurrently and returns one item per
// request in input order. A failing document does not fail the batch.
func (s *analysisService) AnalyzeBatch(ctx context.Context, reqs []AnalysisRequest) ([]BatchItem, error) {
	if len(reqs) == 0 {
		return nil, apperrors.InvalidInput("batch contains no documents", nil)
	}
	if len(reqs) > MaxBatchSize {
		return nil, apperrors.InvalidInput("batch too large", nil).
			WithDetails(fmt.Sprintf("at most %d documents per batch, got %d", MaxBatchSize, len(reqs)))
	}

	items := make([]BatchItem, len(reqs))
	results := make([]*AnalysisResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			items[i].Index = i
			result, err := s.analyze(gctx, req)
			if err != nil {
				items[i].Error = err.Error()
				return nil
			}
			items[i].Result = result
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored := make([]*AnalysisResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			stored = append(stored, r)
		}
	}
	requestID := reqs[0].RequestID
	s.store(ctx, requestID, stored)

	s.logger.Info("Batch analysed", "request_id", requestID, "documents", len(reqs), "succeeded", len(stored))
	return items, nil
}
