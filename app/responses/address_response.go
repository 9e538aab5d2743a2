package responses

import (
	"time"

	"github.com/address-completer/app/models"
)

// Error codes carried in ErrorResponse.Error.
const (
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeBatchTooLarge  = "BATCH_TOO_LARGE"
	ErrCodeQuotaExceeded  = "QUOTA_EXCEEDED"
	ErrCodeProviderError  = "PROVIDER_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeJobNotFound    = "JOB_NOT_FOUND"
	ErrCodeJobNotReady    = "JOB_NOT_READY"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// CompleteAddressResponse is the result of a single completion.
type CompleteAddressResponse struct {
	Components       models.AddressComponents `json:"components"`
	FullAddress      string                   `json:"full_address"`
	Romanized        string                   `json:"romanized"`
	ParserVersion    string                   `json:"parser_version"`
	ProcessingTimeMs int64                    `json:"processing_time_ms"`
	CacheHit         bool                     `json:"cache_hit"`
}

// BatchJobResponse acknowledges a submitted batch job.
type BatchJobResponse struct {
	JobID            string `json:"job_id"`
	EstimatedSeconds int    `json:"estimated_seconds"`
	TotalAddresses   int    `json:"total_addresses"`
	Message          string `json:"message"`
}

// JobStatusResponse reports batch job progress.
type JobStatusResponse struct {
	JobID              string  `json:"job_id"`
	Status             string  `json:"status"`
	Progress           float64 `json:"progress"`
	Processed          int     `json:"processed"`
	Resolved           int     `json:"resolved"`
	Total              int     `json:"total"`
	EstimatedRemaining int     `json:"estimated_remaining"`
	Message            string  `json:"message"`
}

// JobResultsResponse carries every result of a finished job.
type JobResultsResponse struct {
	JobID   string                  `json:"job_id"`
	Total   int                     `json:"total"`
	Results []*models.AddressResult `json:"results"`
}

// PlaceMatchResponse is the best place for an address.
type PlaceMatchResponse struct {
	Found      bool                 `json:"found"`
	Keywords   string               `json:"keywords"`
	Candidates int                  `json:"candidates"`
	Place      *models.PoiCandidate `json:"place,omitempty"`
	Score      int                  `json:"score"`
	Similarity float64              `json:"similarity"`
}

// KeyValidationResponse reports whether a key works.
type KeyValidationResponse struct {
	Valid   bool `json:"valid"`
	Applied bool `json:"applied"`
}

// WalkingValidationResponse reports the walking check.
type WalkingValidationResponse struct {
	Valid            bool   `json:"valid"`
	Distance         int    `json:"distance,omitempty"`
	Duration         string `json:"duration,omitempty"`
	AlternativeCount int    `json:"alternative_count,omitempty"`
	Location         string `json:"location,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string      `json:"error"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp string      `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// NewErrorResponse stamps an ErrorResponse with the current time.
func NewErrorResponse(code, message string, details interface{}, requestID string) ErrorResponse {
	return ErrorResponse{
		Error:     code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().Format(time.RFC3339),
		RequestID: requestID,
	}
}

// SuccessResponse wraps simple acknowledgements.
type SuccessResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// HealthCheckResponse is returned by the health endpoints.
type HealthCheckResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}

// SystemStatsResponse is the admin statistics view.
type SystemStatsResponse struct {
	Gateway    interface{} `json:"gateway"`
	Cache      interface{} `json:"cache,omitempty"`
	Jobs       interface{} `json:"jobs"`
	SystemInfo SystemInfo  `json:"system_info"`
}

// SystemInfo describes the running process.
type SystemInfo struct {
	Version       string                 `json:"version"`
	ParserVersion string                 `json:"parser_version"`
	Environment   string                 `json:"environment"`
	Uptime        string                 `json:"uptime"`
	Goroutines    int                    `json:"goroutines"`
	MemoryUsage   map[string]interface{} `json:"memory_usage"`
}
