package services

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/address-completer/app/models"
	"github.com/address-completer/app/requests"
	"github.com/address-completer/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeResolver struct {
	mu       sync.Mutex
	calls    []parser.Request
	resolved map[string]models.AddressComponents
}

func (f *fakeResolver) Resolve(_ context.Context, req parser.Request) models.AddressComponents {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.resolved[req.Address]
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{resolved: map[string]models.AddressComponents{
		"西湖区文三路": {Province: "浙江省", City: "杭州市", District: "西湖区", Street: "文三路"},
		"朝阳区":    {Province: "北京市", City: "北京市", District: "朝阳区"},
	}}
}

func newTestAddressService(resolver Resolver, cache ICacheService) *AddressService {
	return NewAddressService(resolver, cache, zap.NewNop(), AddressServiceOptions{
		ParserVersion: "test",
		Workers:       3,
		PerAddress:    100 * time.Millisecond,
	})
}

func TestAddressService_CompleteAddress(t *testing.T) {
	ctx := context.Background()
	resolver := newFakeResolver()
	as := newTestAddressService(resolver, NewCacheService(time.Hour, "test"))

	result, err := as.CompleteAddress(ctx, requests.CompleteAddressRequest{Address: " 朝阳区 "})
	require.NoError(t, err)
	assert.Equal(t, "朝阳区", result.Address)
	assert.Equal(t, "北京市朝阳区", result.FullAddress)
	assert.NotEmpty(t, result.Romanized)
	assert.False(t, result.CacheHit)

	result, err = as.CompleteAddress(ctx, requests.CompleteAddressRequest{Address: "朝阳区"})
	require.NoError(t, err)
	assert.True(t, result.CacheHit)
	assert.Equal(t, "朝阳区", result.Components.District)
	assert.Equal(t, 1, resolver.callCount())

	m := as.Metrics()
	assert.Equal(t, int64(2), m.Completions)
	assert.Equal(t, int64(1), m.CacheHits)
	assert.Equal(t, 1.0, m.ResolvedRate)
}

type fakeWeather struct {
	mu          sync.Mutex
	districts   map[string]models.DistrictInfo
	temperature string
	adcodes     []string
}

func (f *fakeWeather) DistrictByName(_ context.Context, name string) (models.DistrictInfo, error) {
	if info, ok := f.districts[name]; ok {
		return info, nil
	}
	return models.DistrictInfo{}, errLayerDown
}

func (f *fakeWeather) Weather(_ context.Context, adcode string) (*models.WeatherSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adcodes = append(f.adcodes, adcode)
	return &models.WeatherSnapshot{Current: &models.CurrentWeather{Temperature: f.temperature}}, nil
}

func TestAddressService_CachedWeatherIsRefreshed(t *testing.T) {
	ctx := context.Background()
	resolver := &fakeResolver{resolved: map[string]models.AddressComponents{
		"朝阳区": {
			Province: "北京市", City: "北京市", District: "朝阳区",
			Weather: &models.WeatherSnapshot{Current: &models.CurrentWeather{Temperature: "5℃"}},
		},
	}}
	weather := &fakeWeather{
		districts: map[string]models.DistrictInfo{
			// same name in another province is skipped
			"朝阳区": {Province: "吉林省", City: "长春市", District: "朝阳区", Adcode: "220104"},
			"北京市": {Province: "北京市", Adcode: "110000"},
		},
		temperature: "25℃",
	}
	cache := NewCacheService(time.Hour, "test")
	as := NewAddressService(resolver, cache, zap.NewNop(), AddressServiceOptions{
		ParserVersion: "test",
		Weather:       weather,
	})

	first, err := as.CompleteAddress(ctx, requests.CompleteAddressRequest{Address: "朝阳区"})
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	require.NotNil(t, first.Components.Weather)
	assert.Equal(t, "5℃", first.Components.Weather.Current.Temperature)

	stored, found, err := cache.Get(ctx, CacheKey("朝阳区", "", ""))
	require.NoError(t, err)
	require.True(t, found)
	assert.Nil(t, stored.Weather)

	second, err := as.CompleteAddress(ctx, requests.CompleteAddressRequest{Address: "朝阳区"})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	require.NotNil(t, second.Components.Weather)
	assert.Equal(t, "25℃", second.Components.Weather.Current.Temperature)
	assert.Equal(t, []string{"110000"}, weather.adcodes)
	assert.Equal(t, 1, resolver.callCount())

	t.Run("Without_Source_Hit_Has_No_Weather", func(t *testing.T) {
		plain := NewAddressService(resolver, cache, zap.NewNop(), AddressServiceOptions{ParserVersion: "test"})
		result, err := plain.CompleteAddress(ctx, requests.CompleteAddressRequest{Address: "朝阳区"})
		require.NoError(t, err)
		assert.True(t, result.CacheHit)
		assert.Nil(t, result.Components.Weather)
	})
}

func TestAddressService_CompleteAddressEmpty(t *testing.T) {
	as := newTestAddressService(newFakeResolver(), nil)

	_, err := as.CompleteAddress(context.Background(), requests.CompleteAddressRequest{Address: "   "})
	assert.ErrorIs(t, err, ErrEmptyAddress)
}

func TestAddressService_CacheBypass(t *testing.T) {
	ctx := context.Background()
	resolver := newFakeResolver()
	cache := NewCacheService(time.Hour, "test")
	as := newTestAddressService(resolver, cache)
	off := false

	for i := 0; i < 2; i++ {
		_, err := as.CompleteAddress(ctx, requests.CompleteAddressRequest{
			Address: "朝阳区",
			Options: requests.CompleteOptions{UseCache: &off},
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, resolver.callCount())
	assert.Zero(t, cache.Size())
}

func TestAddressService_UnresolvedIsNotCached(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(time.Hour, "test")
	as := newTestAddressService(newFakeResolver(), cache)

	result, err := as.CompleteAddress(ctx, requests.CompleteAddressRequest{Address: "火星"})
	require.NoError(t, err)
	assert.False(t, result.Resolved())
	assert.Equal(t, "", result.FullAddress)
	assert.Zero(t, cache.Size())
}

func TestAddressService_LocationOnly(t *testing.T) {
	resolver := newFakeResolver()
	as := newTestAddressService(resolver, nil)

	_, err := as.CompleteAddress(context.Background(), requests.CompleteAddressRequest{
		Location: "116.48,39.99",
		CoordSys: "gps",
	})
	require.NoError(t, err)
	require.Equal(t, 1, resolver.callCount())
	assert.Equal(t, parser.Request{Location: "116.48,39.99", CoordSys: "gps"}, resolver.calls[0])
}

func TestAddressService_BatchJob(t *testing.T) {
	as := newTestAddressService(newFakeResolver(), NewCacheService(time.Hour, "test"))
	addresses := []string{"西湖区文三路", "火星", "朝阳区", ""}

	jobID := as.SubmitBatchJob(addresses, requests.CompleteOptions{})

	require.Eventually(t, func() bool {
		status, err := as.GetJobStatus(jobID)
		return err == nil && status.Status == JobStatusDone
	}, 2*time.Second, 10*time.Millisecond)

	status, err := as.GetJobStatus(jobID)
	require.NoError(t, err)
	assert.Equal(t, 4, status.Processed)
	assert.Equal(t, 2, status.Resolved)
	assert.Equal(t, 1.0, status.Progress)

	results, err := as.GetJobResults(jobID)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, "西湖区文三路", results[0].Address)
	assert.Equal(t, "文三路", results[0].Components.Street)
	assert.False(t, results[1].Resolved())
	assert.Equal(t, "朝阳区", results[2].Components.District)
	assert.Equal(t, ErrEmptyAddress.Error(), results[3].Error)

	stream, err := as.GetJobResultsStream(jobID)
	require.NoError(t, err)
	count := 0
	for range stream {
		count++
	}
	assert.Equal(t, 4, count)

	assert.Equal(t, 1, as.JobCounts()[JobStatusDone])
}

func TestAddressService_JobErrors(t *testing.T) {
	as := newTestAddressService(newFakeResolver(), nil)

	_, err := as.GetJobStatus("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	_, err = as.GetJobResults("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	as.jobs["pending"] = &JobStatus{JobID: "pending", Status: JobStatusPending}
	_, err = as.GetJobResults("pending")
	assert.ErrorIs(t, err, ErrJobNotReady)
}

func TestAddressService_CancelledBatchJob(t *testing.T) {
	as := newTestAddressService(newFakeResolver(), nil)
	as.jobs["job"] = &JobStatus{JobID: "job", Status: JobStatusPending}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	as.ProcessBatchJob(ctx, "job", []string{"朝阳区", "西湖区文三路"}, requests.CompleteOptions{})

	status, err := as.GetJobStatus("job")
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, status.Status)
	_, err = as.GetJobResults("job")
	assert.ErrorIs(t, err, ErrJobNotReady)
}

func TestAddressService_ProcessBatch(t *testing.T) {
	as := newTestAddressService(newFakeResolver(), nil)
	input := strings.NewReader("西湖区文三路\n\n  朝阳区  \n火星\n")
	var out strings.Builder

	n, err := as.ProcessBatch(context.Background(), input, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var lines []models.AddressResult
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	for scanner.Scan() {
		var r models.AddressResult
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		lines = append(lines, r)
	}
	require.Len(t, lines, 3)
	assert.Equal(t, "浙江省杭州市西湖区文三路", lines[0].FullAddress)
	assert.Equal(t, "朝阳区", lines[1].Address)
	assert.Contains(t, out.String(), `"province":""`)
}

func TestAddressService_EstimateBatchProcessingTime(t *testing.T) {
	as := newTestAddressService(newFakeResolver(), nil)

	assert.Equal(t, 0, as.EstimateBatchProcessingTime(0))
	assert.Equal(t, 1, as.EstimateBatchProcessingTime(3))
	assert.Equal(t, 20, as.EstimateBatchProcessingTime(200))
}
