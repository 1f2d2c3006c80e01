package api

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/flowfi/flowai/internal/errors"
	"github.com/flowfi/flowai/internal/middleware"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// respondError writes err with the status its code maps to. Internal errors
// are logged by the request logger and never echoed to the client.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	resp := ErrorResponse{
		Error:     "Internal server error",
		Code:      apperrors.Code(err),
		RequestID: middleware.GetRequestID(c),
	}

	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		if status < 500 || status == 503 {
			resp.Error = appErr.Message
			resp.Details = appErr.Details
		}
	} else if stderrors.Is(err, apperrors.ErrAssessmentNotFound) {
		resp.Error = "Assessment not found"
		resp.Code = apperrors.ErrCodeNotFound
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, message string, cause error) {
	appErr := apperrors.InvalidInput(message, cause)
	if cause != nil {
		appErr = appErr.WithDetails(cause.Error())
	}
	respondError(c, appErr)
}
