package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flowfi/flowai/internal/document"
	apperrors "github.com/flowfi/flowai/internal/errors"
	"github.com/flowfi/flowai/internal/middleware"
	"github.com/flowfi/flowai/internal/models"
	"github.com/flowfi/flowai/internal/services"
)

// AnalysisHandler serves document analysis and backend metadata
type AnalysisHandler struct {
	analysis services.AnalysisService
	vramGB   float64
	timeout  time.Duration
}

// NewAnalysisHandler creates a new analysis handler. timeout bounds each
// request including every backend attempt.
func NewAnalysisHandler(analysis services.AnalysisService, vramGB float64, timeout time.Duration) *AnalysisHandler {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &AnalysisHandler{analysis: analysis, vramGB: vramGB, timeout: timeout}
}

// AnalyzeRequest is the body of POST /analyze and one batch entry
type AnalyzeRequest struct {
	DocumentText string `json:"document_text"`
	DocumentType string `json:"document_type"`
	Mode         string `json:"mode"`
}

// BatchRequest is the body of POST /analyze/batch
type BatchRequest struct {
	Documents []AnalyzeRequest `json:"documents"`
}

func (r AnalyzeRequest) toService(requestID string) (services.AnalysisRequest, error) {
	if strings.TrimSpace(r.DocumentText) == "" {
		return services.AnalysisRequest{}, apperrors.InvalidInput("document_text is required", nil)
	}
	mode, err := parseOptionalMode(r.Mode)
	if err != nil {
		return services.AnalysisRequest{}, err
	}
	return services.AnalysisRequest{
		DocumentText: r.DocumentText,
		DocumentType: strings.TrimSpace(r.DocumentType),
		Mode:         mode,
		RequestID:    requestID,
	}, nil
}

func parseOptionalMode(raw string) (services.Mode, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return services.ParseMode(raw)
}

// Analyze scores a JSON-posted document
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var body AnalyzeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	req, err := body.toService(middleware.GetRequestID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	h.run(c, req)
}

// Upload scores an uploaded .txt or .html document sent as multipart field
// "document"
func (h *AnalysisHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("document")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(c, apperrors.PayloadTooLarge("request body too large", err))
			return
		}
		badRequest(c, "No document file provided", nil)
		return
	}
	defer file.Close()

	doc, err := document.FromUpload(file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err)
		return
	}
	if strings.TrimSpace(doc.Text) == "" {
		respondError(c, apperrors.InvalidInput("document contains no text", nil))
		return
	}

	mode, err := parseOptionalMode(c.PostForm("mode"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.run(c, services.AnalysisRequest{
		DocumentType: strings.TrimSpace(c.PostForm("document_type")),
		Mode:         mode,
		RequestID:    middleware.GetRequestID(c),
		Document:     &doc,
	})
}

func (h *AnalysisHandler) run(c *gin.Context, req services.AnalysisRequest) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	result, err := h.analysis.Analyze(ctx, req)
	if err != nil {
		respondError(c, contextError(err))
		return
	}

	c.JSON(http.StatusOK, result)
}

// AnalyzeBatch scores up to services.MaxBatchSize documents
func (h *AnalysisHandler) AnalyzeBatch(c *gin.Context) {
	var body BatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	if len(body.Documents) == 0 {
		respondError(c, apperrors.InvalidInput("documents must not be empty", nil))
		return
	}
	if len(body.Documents) > services.MaxBatchSize {
		respondError(c, apperrors.InvalidInput("batch too large", nil).
			WithDetails(fmt.Sprintf("at most %d documents per batch", services.MaxBatchSize)))
		return
	}

	requestID := middleware.GetRequestID(c)
	reqs := make([]services.AnalysisRequest, len(body.Documents))
	for i, d := range body.Documents {
		req, err := d.toService(requestID)
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				appErr.WithDetails(fmt.Sprintf("documents[%d]", i))
			}
			respondError(c, err)
			return
		}
		reqs[i] = req
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	items, err := h.analysis.AnalyzeBatch(ctx, reqs)
	if err != nil {
		respondError(c, contextError(err))
		return
	}

	succeeded := 0
	for _, item := range items {
		if item.Result != nil {
			succeeded++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"request_id": requestID,
		"count":      len(items),
		"succeeded":  succeeded,
		"failed":     len(items) - succeeded,
		"items":      items,
	})
}

// ModelInfo returns the core engine's metadata
func (h *AnalysisHandler) ModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.analysis.ModelInfo())
}

// Models lists the local model registry with the stack recommended for the
// configured VRAM
func (h *AnalysisHandler) Models(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"models":            models.All(),
		"recommended_stack": models.RecommendedStack(h.vramGB),
		"available_vram_gb": h.vramGB,
	})
}

// Status reports which backends are reachable
func (h *AnalysisHandler) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	c.JSON(http.StatusOK, h.analysis.Status(ctx))
}

// contextError maps an expired request deadline to a 503
func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.BackendUnavailable("analysis timed out", err)
	}
	return err
}
