package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flowfi/flowai/pkg/config"
)

// SecurityHeadersMiddleware adds security headers to all responses
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// The API serves JSON only
		csp := "default-src 'none'; " +
			"connect-src 'self'; " +
			"object-src 'none'; " +
			"frame-src 'none'; " +
			"base-uri 'none'; " +
			"form-action 'none'"
		c.Header("Content-Security-Policy", csp)

		// Assessments describe counterparties; never cache them
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")

		c.Header("Server", "")

		c.Next()
	}
}

// CORSMiddleware handles Cross-Origin Resource Sharing using the configured
// origins, falling back to localhost origins in development
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowed := make(map[string]bool)
	for _, origin := range cfg.GetAllowedOrigins() {
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With, "+RequestIDHeader)
		c.Header("Access-Control-Expose-Headers", RequestIDHeader)
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// allowedContentTypes are accepted on POST requests
var allowedContentTypes = []string{
	"application/json",
	"multipart/form-data",
}

// blockedAgents are scanner signatures rejected outright
var blockedAgents = []string{
	"sqlmap",
	"nikto",
	"nmap",
	"masscan",
	"<script",
	"javascript:",
}

// InputValidationMiddleware bounds the request body and rejects unsupported
// content types and known scanners
func InputValidationMiddleware(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "Request body too large",
				"code":  "PAYLOAD_TOO_LARGE",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
			contentType := c.GetHeader("Content-Type")
			if contentType == "" {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error": "Content-Type header is required",
					"code":  "INVALID_INPUT",
				})
				return
			}

			valid := false
			for _, allowedType := range allowedContentTypes {
				if strings.HasPrefix(contentType, allowedType) {
					valid = true
					break
				}
			}
			if !valid {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
					"error":         "Unsupported content type",
					"code":          "INVALID_INPUT",
					"allowed_types": allowedContentTypes,
				})
				return
			}
		}

		userAgent := strings.ToLower(c.GetHeader("User-Agent"))
		for _, pattern := range blockedAgents {
			if strings.Contains(userAgent, pattern) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "Request blocked for security reasons",
					"code":  "FORBIDDEN",
				})
				return
			}
		}

		c.Next()
	}
}
