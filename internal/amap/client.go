package amap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL       = "https://restapi.amap.com"
	DefaultTimeout       = 10 * time.Second
	DefaultMinInterval   = 100 * time.Millisecond
	DefaultSearchPrefix  = "/v3/place"
	DefaultSearchLimit   = 100
	DefaultDailyLimit    = 5000
	statusOK             = "1"
	maxResponseBodyBytes = 4 << 20
)

// Config configures the provider client.
type Config struct {
	BaseURL      string
	Key          string
	Timeout      time.Duration
	MinInterval  time.Duration
	SearchPrefix string
	SearchLimit  int
	DailyLimit   int
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MinInterval < 0 {
		c.MinInterval = 0
	}
	if c.SearchPrefix == "" {
		c.SearchPrefix = DefaultSearchPrefix
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = DefaultSearchLimit
	}
	if c.DailyLimit <= 0 {
		c.DailyLimit = DefaultDailyLimit
	}
	return c
}

// Client is the rate limited, quota tracked and cached gateway to the Amap REST API.
// One Client is shared by all resolutions in the process.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	quota      *QuotaTracker
	logger     *zap.Logger

	keyMu sync.RWMutex
	key   string

	cacheMu sync.RWMutex
	cache   map[string]interface{}

	statsMu     sync.Mutex
	lastRequest time.Time
	cacheHits   int64
	calls       int64
}

// NewClient creates a Client with empty cache and quota state.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		quota:      NewQuotaTracker(cfg.SearchPrefix, cfg.SearchLimit, cfg.DailyLimit),
		logger:     logger,
		key:        cfg.Key,
		cache:      make(map[string]interface{}),
	}
}

// Key returns the API key in use.
func (c *Client) Key() string {
	c.keyMu.RLock()
	defer c.keyMu.RUnlock()
	return c.key
}

// SetKey replaces the API key for subsequent calls.
func (c *Client) SetKey(key string) {
	c.keyMu.Lock()
	c.key = key
	c.keyMu.Unlock()
}

// Call performs one GET against path with the configured key.
func (c *Client) Call(ctx context.Context, path string, params url.Values) (*RawResponse, error) {
	return c.call(ctx, path, params, c.Key())
}

func (c *Client) call(ctx context.Context, path string, params url.Values, key string) (*RawResponse, error) {
	if err := c.quota.Charge(path); err != nil {
		c.logger.Warn("Provider quota exhausted", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ServiceError{Code: CodeServiceFailure, Message: "请求被取消", Err: err}
	}
	c.markRequest()

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("key", key)
	query.Set("output", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, &ServiceError{Code: CodeServiceFailure, Message: "请求失败", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Provider request failed", zap.String("path", path), zap.Error(err))
		return nil, &ServiceError{Code: CodeServiceFailure, Message: "请求失败", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, &ServiceError{Code: CodeServiceFailure, Message: "读取响应失败", Err: err}
	}

	raw := &RawResponse{Path: path, Body: body}
	if err := json.Unmarshal(body, raw); err != nil {
		c.logger.Warn("Provider returned malformed payload",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode))
		return nil, &DecodeError{Path: path, Err: err}
	}

	if raw.Status.String() != statusOK {
		svcErr := newServiceError(raw.InfoCode.String(), raw.Info.String())
		c.logger.Warn("Provider rejected request",
			zap.String("path", path),
			zap.String("code", svcErr.Code),
			zap.String("message", svcErr.Message))
		return nil, svcErr
	}

	return raw, nil
}

func (c *Client) markRequest() {
	c.statsMu.Lock()
	c.lastRequest = time.Now()
	c.calls++
	c.statsMu.Unlock()
}

func (c *Client) cached(key string) (interface{}, bool) {
	c.cacheMu.RLock()
	v, ok := c.cache[key]
	c.cacheMu.RUnlock()
	if ok {
		c.statsMu.Lock()
		c.cacheHits++
		c.statsMu.Unlock()
	}
	return v, ok
}

func (c *Client) store(key string, v interface{}) {
	c.cacheMu.Lock()
	c.cache[key] = v
	c.cacheMu.Unlock()
}

// Stats is a snapshot of the gateway bookkeeping.
type Stats struct {
	QuotaDate    string         `json:"quota_date"`
	DailyCounts  map[string]int `json:"daily_counts"`
	DailyLimits  map[string]int `json:"daily_limits"`
	LastRequest  time.Time      `json:"last_request"`
	OutboundCall int64          `json:"outbound_calls"`
	CacheHits    int64          `json:"cache_hits"`
	CacheEntries int            `json:"cache_entries"`
}

// Stats returns the current quota usage and cache counters.
func (c *Client) Stats() Stats {
	date, usage := c.quota.Usage()
	limits := make(map[string]int, len(usage))
	for path := range usage {
		limits[path] = c.quota.Limit(path)
	}

	c.cacheMu.RLock()
	entries := len(c.cache)
	c.cacheMu.RUnlock()

	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return Stats{
		QuotaDate:    date,
		DailyCounts:  usage,
		DailyLimits:  limits,
		LastRequest:  c.lastRequest,
		OutboundCall: c.calls,
		CacheHits:    c.cacheHits,
		CacheEntries: entries,
	}
}

func cacheKey(kind string, args ...string) string {
	return fmt.Sprintf("%s_%s", kind, strings.Join(args, "_"))
}
