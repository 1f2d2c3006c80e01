package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flowfi/flowai/internal/repository"
	"github.com/flowfi/flowai/internal/services"
)

// HistoryHandler serves stored assessments
type HistoryHandler struct {
	history services.HistoryService
	export  *services.ExportService
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history services.HistoryService, export *services.ExportService) *HistoryHandler {
	if export == nil {
		export = services.NewExportService(history)
	}
	return &HistoryHandler{history: history, export: export}
}

// List returns stored assessments, newest first
func (h *HistoryHandler) List(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		badRequest(c, "limit must be an integer", err)
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil || offset < 0 {
		badRequest(c, "offset must be a non-negative integer", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	opts := repository.ListOptions{Limit: limit, Offset: offset}.Normalize()
	assessments, err := h.history.List(ctx, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	if assessments == nil {
		assessments = []repository.Assessment{}
	}

	c.JSON(http.StatusOK, gin.H{
		"assessments": assessments,
		"count":       len(assessments),
		"limit":       opts.Limit,
		"offset":      opts.Offset,
	})
}

// Get returns one stored assessment
func (h *HistoryHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid assessment id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	assessment, err := h.history.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// Stats returns counts and average PD per risk score
func (h *HistoryHandler) Stats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	stats, err := h.history.Stats(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Export downloads filtered assessments as CSV or JSON
func (h *HistoryHandler) Export(c *gin.Context) {
	format, err := services.ParseExportFormat(c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}

	limit, err := queryInt(c, "limit")
	if err != nil {
		badRequest(c, "limit must be an integer", err)
		return
	}
	filter := services.ExportFilter{
		RiskScores: queryList(c, "risk_score"),
		Sources:    queryList(c, "source"),
		Limit:      limit,
	}
	if raw := c.Query("min_confidence"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			badRequest(c, "min_confidence must be a number", err)
			return
		}
		filter.MinConfidence = &v
	}
	if raw := c.Query("created_after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(c, "created_after must be an RFC 3339 timestamp", err)
			return
		}
		filter.CreatedAfter = &t
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	data, err := h.export.Export(ctx, filter, format)
	if err != nil {
		respondError(c, err)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == services.FormatJSON {
		contentType = "application/json; charset=utf-8"
	}
	filename := fmt.Sprintf("assessments_%s.%s", time.Now().UTC().Format("20060102_150405"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, data)
}

func queryList(c *gin.Context, name string) []string {
	var values []string
	for _, raw := range c.QueryArray(name) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
