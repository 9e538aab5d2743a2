package controllers

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/address-completer/app/requests"
	"github.com/address-completer/app/responses"
	"github.com/address-completer/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AddressController serves address completion and batch jobs.
type AddressController struct {
	addressService *services.AddressService
	maxBatch       int
	version        string
	logger         *zap.Logger
}

func NewAddressController(addressService *services.AddressService, maxBatch int, version string, logger *zap.Logger) *AddressController {
	return &AddressController{
		addressService: addressService,
		maxBatch:       maxBatch,
		version:        version,
		logger:         logger,
	}
}

// CompleteAddress completes a single address or coordinate.
func (ac *AddressController) CompleteAddress(c *gin.Context) {
	var req requests.CompleteAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, responses.ErrCodeInvalidRequest, "invalid request: "+err.Error(), nil)
		return
	}

	result, err := ac.addressService.CompleteAddress(c.Request.Context(), req)
	if errors.Is(err, services.ErrEmptyAddress) {
		respondError(c, http.StatusBadRequest, responses.ErrCodeInvalidRequest, err.Error(), nil)
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, responses.ErrCodeInternal, err.Error(), nil)
		return
	}

	c.JSON(http.StatusOK, responses.CompleteAddressResponse{
		Components:       result.Components,
		FullAddress:      result.FullAddress,
		Romanized:        result.Romanized,
		ParserVersion:    ac.addressService.ParserVersion(),
		ProcessingTimeMs: result.ProcessingTimeMs,
		CacheHit:         result.CacheHit,
	})
}

// SubmitBatch starts a background job over many addresses.
func (ac *AddressController) SubmitBatch(c *gin.Context) {
	var req requests.BatchCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, responses.ErrCodeInvalidRequest, "invalid request: "+err.Error(), nil)
		return
	}

	if ac.maxBatch > 0 && len(req.Addresses) > ac.maxBatch {
		respondError(c, http.StatusBadRequest, responses.ErrCodeBatchTooLarge,
			fmt.Sprintf("at most %d addresses per job", ac.maxBatch),
			gin.H{"submitted": len(req.Addresses), "limit": ac.maxBatch})
		return
	}

	jobID := ac.addressService.SubmitBatchJob(req.Addresses, req.Options)

	c.JSON(http.StatusAccepted, responses.BatchJobResponse{
		JobID:            jobID,
		EstimatedSeconds: ac.addressService.EstimateBatchProcessingTime(len(req.Addresses)),
		TotalAddresses:   len(req.Addresses),
		Message:          "job accepted",
	})
}

func (ac *AddressController) GetJobStatus(c *gin.Context) {
	jobID := c.Param("jobID")

	status, err := ac.addressService.GetJobStatus(jobID)
	if err != nil {
		respondError(c, http.StatusNotFound, responses.ErrCodeJobNotFound, err.Error(), gin.H{"job_id": jobID})
		return
	}

	c.JSON(http.StatusOK, responses.JobStatusResponse{
		JobID:              status.JobID,
		Status:             status.Status,
		Progress:           status.Progress,
		Processed:          status.Processed,
		Resolved:           status.Resolved,
		Total:              status.Total,
		EstimatedRemaining: status.EstimatedRemaining,
		Message:            status.Message,
	})
}

// GetJobResults returns job results as JSON, or as NDJSON with
// ?format=ndjson, gzip compressed with &gzip=1.
func (ac *AddressController) GetJobResults(c *gin.Context) {
	jobID := c.Param("jobID")

	if c.Query("format") == "ndjson" {
		ac.streamNDJSONResults(c, jobID, c.Query("gzip") == "1")
		return
	}

	results, err := ac.addressService.GetJobResults(jobID)
	if err != nil {
		ac.respondJobError(c, jobID, err)
		return
	}

	c.JSON(http.StatusOK, responses.JobResultsResponse{
		JobID:   jobID,
		Total:   len(results),
		Results: results,
	})
}

func (ac *AddressController) respondJobError(c *gin.Context, jobID string, err error) {
	if errors.Is(err, services.ErrJobNotReady) {
		respondError(c, http.StatusConflict, responses.ErrCodeJobNotReady, err.Error(), gin.H{"job_id": jobID})
		return
	}
	respondError(c, http.StatusNotFound, responses.ErrCodeJobNotFound, err.Error(), gin.H{"job_id": jobID})
}

func (ac *AddressController) streamNDJSONResults(c *gin.Context, jobID string, gzipEnabled bool) {
	resultChannel, err := ac.addressService.GetJobResultsStream(jobID)
	if err != nil {
		ac.respondJobError(c, jobID, err)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	var writer gin.ResponseWriter = c.Writer
	if gzipEnabled {
		c.Header("Content-Encoding", "gzip")
		gzWriter := gzip.NewWriter(c.Writer)
		defer gzWriter.Close()
		writer = &gzipResponseWriter{
			ResponseWriter: c.Writer,
			gzWriter:       gzWriter,
		}
	}
	c.Status(http.StatusOK)

	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)
	for result := range resultChannel {
		if err := encoder.Encode(result); err != nil {
			ac.logger.Error("Cannot encode NDJSON result", zap.Error(err))
			// drain so the producer goroutine exits
			for range resultChannel {
			}
			return
		}
		writer.Flush()
	}
}

// HealthCheck reports liveness.
func (ac *AddressController) HealthCheck(c *gin.Context) {
	uptime := time.Since(ac.addressService.GetStartTime())

	c.JSON(http.StatusOK, responses.HealthCheckResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    uptime.Round(time.Second).String(),
		Version:   ac.version,
		Services: map[string]string{
			"address_completer": "healthy",
		},
	})
}

type gzipResponseWriter struct {
	gin.ResponseWriter
	gzWriter *gzip.Writer
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzWriter.Write(data)
}

func (w *gzipResponseWriter) Flush() {
	_ = w.gzWriter.Flush()
	w.ResponseWriter.Flush()
}
