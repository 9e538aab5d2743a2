package services

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/address-completer/app/models"
	"github.com/address-completer/app/requests"
	"github.com/address-completer/helpers/utils"
	"github.com/address-completer/internal/parser"
	"go.uber.org/zap"
)

// Job states.
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

var (
	ErrEmptyAddress = errors.New("address or location is required")
	ErrJobNotFound  = errors.New("job not found")
	ErrJobNotReady  = errors.New("job results not ready")
)

// Resolver turns one request into address components. It never fails;
// an unresolved request yields the empty record.
type Resolver interface {
	Resolve(ctx context.Context, req parser.Request) models.AddressComponents
}

// WeatherSource looks weather up by administrative name.
type WeatherSource interface {
	DistrictByName(ctx context.Context, name string) (models.DistrictInfo, error)
	Weather(ctx context.Context, adcode string) (*models.WeatherSnapshot, error)
}

// AddressServiceOptions tunes completion and batch processing.
type AddressServiceOptions struct {
	ParserVersion  string
	RequestTimeout time.Duration
	Workers        int
	// PerAddress is the expected cost of one uncached completion.
	PerAddress time.Duration
	// Weather refreshes weather on cache hits; cached records never carry it.
	Weather WeatherSource
}

// AddressService completes addresses, caches results and runs batch jobs.
type AddressService struct {
	resolver  Resolver
	cache     ICacheService
	logger    *zap.Logger
	opts      AddressServiceOptions
	startTime time.Time

	completions atomic.Int64
	resolved    atomic.Int64
	cacheHits   atomic.Int64
	totalMs     atomic.Int64

	mu         sync.RWMutex
	jobs       map[string]*JobStatus
	jobResults map[string][]*models.AddressResult
}

// JobStatus is the progress of one batch job.
type JobStatus struct {
	JobID              string
	Status             string
	Progress           float64
	Processed          int
	Resolved           int
	Total              int
	EstimatedRemaining int
	Message            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewAddressService creates the service; cache may be nil.
func NewAddressService(resolver Resolver, cache ICacheService, logger *zap.Logger, opts AddressServiceOptions) *AddressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.PerAddress <= 0 {
		opts.PerAddress = 300 * time.Millisecond
	}
	return &AddressService{
		resolver:   resolver,
		cache:      cache,
		logger:     logger,
		opts:       opts,
		startTime:  time.Now(),
		jobs:       make(map[string]*JobStatus),
		jobResults: make(map[string][]*models.AddressResult),
	}
}

// ParserVersion is the version stamped on cached results.
func (as *AddressService) ParserVersion() string {
	return as.opts.ParserVersion
}

// CompleteAddress resolves one request, consulting the cache first.
// Cache failures are logged and never fail the request.
func (as *AddressService) CompleteAddress(ctx context.Context, req requests.CompleteAddressRequest) (*models.AddressResult, error) {
	address := strings.TrimSpace(req.Address)
	location := strings.TrimSpace(req.Location)
	if address == "" && location == "" {
		return nil, ErrEmptyAddress
	}

	start := time.Now()
	key := CacheKey(address, location, req.CoordSys)
	useCache := as.cache != nil && req.Options.CacheEnabled()

	if useCache {
		cached, found, err := as.cache.Get(ctx, key)
		if err != nil {
			as.logger.Warn("Cache lookup failed", zap.Error(err))
		} else if found {
			components := *cached
			components.Weather = as.currentWeather(ctx, components)
			result := as.buildResult(address, location, components, start, true)
			as.record(result)
			return result, nil
		}
	}

	resolveCtx, cancel := context.WithTimeout(ctx, as.opts.RequestTimeout)
	defer cancel()

	components := as.resolver.Resolve(resolveCtx, parser.Request{
		Address:  address,
		Location: location,
		CoordSys: req.CoordSys,
	})

	stored := components
	stored.Weather = nil
	if useCache && !stored.IsEmpty() {
		if err := as.cache.Set(ctx, key, &stored); err != nil {
			as.logger.Warn("Cache store failed", zap.Error(err))
		}
	}

	result := as.buildResult(address, location, components, start, false)
	as.record(result)
	as.logger.Debug("Address completed",
		zap.String("address", address),
		zap.String("full_address", result.FullAddress),
		zap.Int64("processing_time_ms", result.ProcessingTimeMs))
	return result, nil
}

// currentWeather fetches weather for a cached record by its most specific
// administrative name that the lookup places in the record's province.
func (as *AddressService) currentWeather(ctx context.Context, c models.AddressComponents) *models.WeatherSnapshot {
	if as.opts.Weather == nil {
		return nil
	}
	for _, name := range []string{c.District, c.City, c.Province} {
		if name == "" {
			continue
		}
		info, err := as.opts.Weather.DistrictByName(ctx, name)
		if err != nil || info.Adcode == "" || (c.Province != "" && info.Province != c.Province) {
			continue
		}
		snapshot, err := as.opts.Weather.Weather(ctx, info.Adcode)
		if err != nil {
			as.logger.Debug("Weather refresh failed", zap.String("adcode", info.Adcode), zap.Error(err))
			return nil
		}
		return snapshot
	}
	return nil
}

func (as *AddressService) buildResult(address, location string, components models.AddressComponents, start time.Time, cacheHit bool) *models.AddressResult {
	full := components.FullAddress()
	return &models.AddressResult{
		Address:          address,
		Location:         location,
		Components:       components,
		FullAddress:      full,
		Romanized:        utils.Romanize(full),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		CacheHit:         cacheHit,
	}
}

// CompletionMetrics summarizes completions since start.
type CompletionMetrics struct {
	Completions         int64   `json:"completions"`
	Resolved            int64   `json:"resolved"`
	CacheHits           int64   `json:"cache_hits"`
	ResolvedRate        float64 `json:"resolved_rate"`
	AvgProcessingTimeMs float64 `json:"avg_processing_time_ms"`
}

func (as *AddressService) record(result *models.AddressResult) {
	as.completions.Add(1)
	as.totalMs.Add(result.ProcessingTimeMs)
	if result.Resolved() {
		as.resolved.Add(1)
	}
	if result.CacheHit {
		as.cacheHits.Add(1)
	}
}

// Metrics returns completion counters.
func (as *AddressService) Metrics() CompletionMetrics {
	m := CompletionMetrics{
		Completions: as.completions.Load(),
		Resolved:    as.resolved.Load(),
		CacheHits:   as.cacheHits.Load(),
	}
	if m.Completions > 0 {
		m.ResolvedRate = float64(m.Resolved) / float64(m.Completions)
		m.AvgProcessingTimeMs = float64(as.totalMs.Load()) / float64(m.Completions)
	}
	return m
}

// EstimateBatchProcessingTime estimates seconds for addressCount uncached completions.
func (as *AddressService) EstimateBatchProcessingTime(addressCount int) int {
	total := time.Duration(addressCount) * as.opts.PerAddress
	seconds := int(total / time.Second)
	if seconds < 1 && addressCount > 0 {
		seconds = 1
	}
	return seconds
}

// SubmitBatchJob registers a job and processes it in the background.
func (as *AddressService) SubmitBatchJob(addresses []string, options requests.CompleteOptions) string {
	jobID := utils.GenerateUUID()
	now := time.Now()

	as.mu.Lock()
	as.jobs[jobID] = &JobStatus{
		JobID:     jobID,
		Status:    JobStatusPending,
		Total:     len(addresses),
		Message:   "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
	as.mu.Unlock()

	go as.ProcessBatchJob(context.Background(), jobID, addresses, options)
	return jobID
}

// ProcessBatchJob completes addresses with a worker pool, keeping input order in the results.
func (as *AddressService) ProcessBatchJob(ctx context.Context, jobID string, addresses []string, options requests.CompleteOptions) {
	as.updateJob(jobID, func(job *JobStatus) {
		job.Status = JobStatusRunning
		job.Total = len(addresses)
		job.Message = "processing"
	})

	results := make([]*models.AddressResult, len(addresses))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < as.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				result := as.completeOne(ctx, addresses[i], options)
				results[i] = result
				as.updateJob(jobID, func(job *JobStatus) {
					job.Processed++
					if result.Resolved() {
						job.Resolved++
					}
					job.Progress = float64(job.Processed) / float64(job.Total)
					job.EstimatedRemaining = as.EstimateBatchProcessingTime(job.Total-job.Processed) / as.opts.Workers
				})
			}
		}()
	}

feed:
	for i := range addresses {
		select {
		case <-ctx.Done():
			break feed
		case indexes <- i:
		}
	}
	close(indexes)
	wg.Wait()

	as.mu.Lock()
	if ctx.Err() == nil {
		as.jobResults[jobID] = results
	}
	if job, exists := as.jobs[jobID]; exists {
		job.UpdatedAt = time.Now()
		job.EstimatedRemaining = 0
		if ctx.Err() != nil {
			job.Status = JobStatusFailed
			job.Message = ctx.Err().Error()
		} else {
			job.Status = JobStatusDone
			job.Progress = 1
			job.Message = "completed"
		}
	}
	as.mu.Unlock()

	as.logger.Info("Batch job completed",
		zap.String("job_id", jobID),
		zap.Int("total_addresses", len(addresses)))
}

func (as *AddressService) completeOne(ctx context.Context, address string, options requests.CompleteOptions) *models.AddressResult {
	result, err := as.CompleteAddress(ctx, requests.CompleteAddressRequest{Address: address, Options: options})
	if err != nil {
		return &models.AddressResult{
			Address:    address,
			Components: models.EmptyComponents(),
			Error:      err.Error(),
		}
	}
	return result
}

func (as *AddressService) updateJob(jobID string, update func(*JobStatus)) {
	as.mu.Lock()
	defer as.mu.Unlock()

	if job, exists := as.jobs[jobID]; exists {
		update(job)
		job.UpdatedAt = time.Now()
	}
}

// GetJobStatus returns a copy of the job's progress.
func (as *AddressService) GetJobStatus(jobID string) (*JobStatus, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	job, exists := as.jobs[jobID]
	if !exists {
		return nil, ErrJobNotFound
	}
	snapshot := *job
	return &snapshot, nil
}

// GetJobResults returns the results of a finished job.
func (as *AddressService) GetJobResults(jobID string) ([]*models.AddressResult, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	if _, exists := as.jobs[jobID]; !exists {
		return nil, ErrJobNotFound
	}
	results, exists := as.jobResults[jobID]
	if !exists {
		return nil, ErrJobNotReady
	}
	return results, nil
}

// GetJobResultsStream yields the results of a finished job one by one.
func (as *AddressService) GetJobResultsStream(jobID string) (<-chan *models.AddressResult, error) {
	results, err := as.GetJobResults(jobID)
	if err != nil {
		return nil, err
	}

	resultChannel := make(chan *models.AddressResult, 100)
	go func() {
		defer close(resultChannel)
		for _, result := range results {
			resultChannel <- result
		}
	}()
	return resultChannel, nil
}

// ProcessBatch reads one address per line from r and writes one JSON
// result per line to w. Blank lines are skipped.
func (as *AddressService) ProcessBatch(ctx context.Context, r io.Reader, w io.Writer) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	writer := bufio.NewWriter(w)
	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)

	processed := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			_ = writer.Flush()
			return processed, err
		}
		address := strings.TrimSpace(scanner.Text())
		if address == "" {
			continue
		}

		result := as.completeOne(ctx, address, requests.CompleteOptions{})
		if err := encoder.Encode(result); err != nil {
			return processed, fmt.Errorf("write result: %w", err)
		}
		processed++

		if processed%100 == 0 {
			as.logger.Info("Batch progress", zap.Int("processed", processed))
		}
	}
	if err := scanner.Err(); err != nil {
		return processed, fmt.Errorf("read input: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return processed, fmt.Errorf("flush output: %w", err)
	}

	as.logger.Info("Completed batch processing", zap.Int("total", processed))
	return processed, nil
}

// JobCounts returns the number of jobs per state.
func (as *AddressService) JobCounts() map[string]int {
	as.mu.RLock()
	defer as.mu.RUnlock()

	counts := map[string]int{
		JobStatusPending: 0,
		JobStatusRunning: 0,
		JobStatusDone:    0,
		JobStatusFailed:  0,
	}
	for _, job := range as.jobs {
		counts[job.Status]++
	}
	return counts
}

// GetStartTime returns when the service was created.
func (as *AddressService) GetStartTime() time.Time {
	return as.startTime
}
