package llm

import (
	"strings"
	"sync"
	"time"
)

// HealthMonitor tracks one backend's success and failure rates
type HealthMonitor struct {
	mu                   sync.RWMutex
	backend              string
	totalRequests        int64
	successfulRequests   int64
	failedRequests       int64
	consecutiveFailures  int64
	lastFailureTime      time.Time
	lastSuccessTime      time.Time
	recentFailures       []FailureRecord
	maxRecentFailures    int
	failureThreshold     float64 // failure rate above which the backend is unhealthy
	consecutiveThreshold int64   // consecutive failures before the backend is unhealthy
	now                  func() time.Time
}

// FailureRecord represents a single failed backend call
type FailureRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model,omitempty"`
	Error     string    `json:"error"`
	Category  string    `json:"category"`
}

// HealthStatus represents the current health of a backend
type HealthStatus struct {
	Backend             string          `json:"backend"`
	IsHealthy           bool            `json:"is_healthy"`
	TotalRequests       int64           `json:"total_requests"`
	SuccessfulRequests  int64           `json:"successful_requests"`
	FailedRequests      int64           `json:"failed_requests"`
	SuccessRate         float64         `json:"success_rate"`
	ConsecutiveFailures int64           `json:"consecutive_failures"`
	LastFailureTime     *time.Time      `json:"last_failure_time,omitempty"`
	LastSuccessTime     *time.Time      `json:"last_success_time,omitempty"`
	RecentFailures      []FailureRecord `json:"recent_failures"`
	HealthIssues        []string        `json:"health_issues"`
	RecommendedActions  []string        `json:"recommended_actions"`
}

// Failure categories
const (
	CategoryTimeout        = "timeout"
	CategoryRateLimit      = "rate_limit"
	CategoryAuthentication = "authentication"
	CategoryNetwork        = "network"
	CategoryOther          = "other"
)

// NewHealthMonitor creates a new health monitor for backend
func NewHealthMonitor(backend string) *HealthMonitor {
	return &HealthMonitor{
		backend:              backend,
		maxRecentFailures:    50,
		failureThreshold:     0.2,
		consecutiveThreshold: 5,
		recentFailures:       make([]FailureRecord, 0, 50),
		now:                  time.Now,
	}
}

// Backend returns the monitored backend's name
func (h *HealthMonitor) Backend() string {
	return h.backend
}

// RecordSuccess records a successful backend call
func (h *HealthMonitor) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.totalRequests++
	h.successfulRequests++
	h.consecutiveFailures = 0
	h.lastSuccessTime = h.now()
}

// RecordFailure records a failed backend call
func (h *HealthMonitor) RecordFailure(model string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}

	h.totalRequests++
	h.failedRequests++
	h.consecutiveFailures++
	h.lastFailureTime = h.now()

	h.recentFailures = append(h.recentFailures, FailureRecord{
		Timestamp: h.lastFailureTime,
		Model:     model,
		Error:     msg,
		Category:  CategorizeError(msg),
	})
	if len(h.recentFailures) > h.maxRecentFailures {
		h.recentFailures = h.recentFailures[1:]
	}
}

// GetHealthStatus returns the current health status
func (h *HealthMonitor) GetHealthStatus() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := HealthStatus{
		Backend:             h.backend,
		TotalRequests:       h.totalRequests,
		SuccessfulRequests:  h.successfulRequests,
		FailedRequests:      h.failedRequests,
		ConsecutiveFailures: h.consecutiveFailures,
		RecentFailures:      make([]FailureRecord, len(h.recentFailures)),
		HealthIssues:        []string{},
		RecommendedActions:  []string{},
		IsHealthy:           true,
	}
	copy(status.RecentFailures, h.recentFailures)

	if h.totalRequests > 0 {
		status.SuccessRate = float64(h.successfulRequests) / float64(h.totalRequests)
	} else {
		status.SuccessRate = 1.0
	}

	if !h.lastFailureTime.IsZero() {
		t := h.lastFailureTime
		status.LastFailureTime = &t
	}
	if !h.lastSuccessTime.IsZero() {
		t := h.lastSuccessTime
		status.LastSuccessTime = &t
	}

	if h.totalRequests >= 10 && status.SuccessRate < (1.0-h.failureThreshold) {
		status.IsHealthy = false
		status.HealthIssues = append(status.HealthIssues, "High failure rate detected (>20%)")
		status.RecommendedActions = append(status.RecommendedActions,
			"Check "+h.backend+" connectivity and credentials")
	}

	if h.consecutiveFailures >= h.consecutiveThreshold {
		status.IsHealthy = false
		status.HealthIssues = append(status.HealthIssues, "Multiple consecutive failures detected")
		status.RecommendedActions = append(status.RecommendedActions,
			"Analysis is falling back to FlowAI Core; verify the "+h.backend+" backend is running")
	}

	// a backend that last succeeded over an hour ago and has failed since
	if !h.lastSuccessTime.IsZero() && h.lastFailureTime.After(h.lastSuccessTime) &&
		h.now().Sub(h.lastSuccessTime) > time.Hour {
		status.IsHealthy = false
		status.HealthIssues = append(status.HealthIssues, "No successful requests in the last hour")
		status.RecommendedActions = append(status.RecommendedActions,
			"Check system connectivity and "+h.backend+" service status")
	}

	h.analyzeFailurePatterns(&status)

	return status
}

// analyzeFailurePatterns flags a category behind more than half of the
// recent failures
func (h *HealthMonitor) analyzeFailurePatterns(status *HealthStatus) {
	if len(h.recentFailures) < 3 {
		return
	}

	counts := make(map[string]int)
	for _, failure := range h.recentFailures {
		counts[failure.Category]++
	}

	total := len(h.recentFailures)
	for _, category := range []string{CategoryTimeout, CategoryRateLimit, CategoryAuthentication, CategoryNetwork} {
		if float64(counts[category])/float64(total) <= 0.5 {
			continue
		}
		switch category {
		case CategoryTimeout:
			status.HealthIssues = append(status.HealthIssues, "Frequent timeout errors detected")
			status.RecommendedActions = append(status.RecommendedActions,
				"Increase BACKEND_TIMEOUT_SECONDS or use a smaller model")
		case CategoryRateLimit:
			status.HealthIssues = append(status.HealthIssues, "Rate limiting detected")
			status.RecommendedActions = append(status.RecommendedActions,
				"Reduce request volume or raise the API quota")
		case CategoryAuthentication:
			status.HealthIssues = append(status.HealthIssues, "Authentication errors detected")
			status.RecommendedActions = append(status.RecommendedActions,
				"Verify the configured API key")
		case CategoryNetwork:
			status.HealthIssues = append(status.HealthIssues, "Network connectivity issues detected")
			status.RecommendedActions = append(status.RecommendedActions,
				"Check network connectivity and the backend base URL")
		}
	}
}

// CategorizeError classifies an error message
func CategorizeError(errorMsg string) string {
	errorMsg = strings.ToLower(errorMsg)

	if strings.Contains(errorMsg, "timeout") || strings.Contains(errorMsg, "deadline") {
		return CategoryTimeout
	}
	if strings.Contains(errorMsg, "rate limit") || strings.Contains(errorMsg, "429") {
		return CategoryRateLimit
	}
	if strings.Contains(errorMsg, "unauthorized") || strings.Contains(errorMsg, "401") || strings.Contains(errorMsg, "403") {
		return CategoryAuthentication
	}
	if strings.Contains(errorMsg, "network") || strings.Contains(errorMsg, "connection") || strings.Contains(errorMsg, "dns") {
		return CategoryNetwork
	}

	return CategoryOther
}

// Reset clears all health monitoring data
func (h *HealthMonitor) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.totalRequests = 0
	h.successfulRequests = 0
	h.failedRequests = 0
	h.consecutiveFailures = 0
	h.lastFailureTime = time.Time{}
	h.lastSuccessTime = time.Time{}
	h.recentFailures = h.recentFailures[:0]
}

// IsHealthy returns true if the backend is operating within healthy parameters
func (h *HealthMonitor) IsHealthy() bool {
	return h.GetHealthStatus().IsHealthy
}

// GetFailureRate returns the current failure rate as a fraction
func (h *HealthMonitor) GetFailureRate() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.totalRequests == 0 {
		return 0.0
	}

	return float64(h.failedRequests) / float64(h.totalRequests)
}
