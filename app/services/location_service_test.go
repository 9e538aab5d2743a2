package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/address-completer/app/models"
	"github.com/address-completer/app/requests"
	"github.com/address-completer/internal/amap"
	"github.com/address-completer/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGateway struct {
	key         string
	validKeys   map[string]bool
	pois        []models.PoiCandidate
	poiErr      error
	poiKeywords string
	geocodes    []amap.Geocode
	geocodeErr  error
	paths       []amap.WalkingPath
	walkErr     error
	walkCalled  bool
}

func (f *fakeGateway) InputTips(context.Context, string) (*amap.TipsResult, error) {
	return &amap.TipsResult{Count: "0"}, nil
}

func (f *fakeGateway) Geocode(context.Context, string, string) ([]amap.Geocode, error) {
	return f.geocodes, f.geocodeErr
}

func (f *fakeGateway) CurrentCity(context.Context) (string, error) { return "杭州市", nil }

func (f *fakeGateway) CurrentCityInfo(context.Context) (models.CityInfo, error) {
	return models.CityInfo{Province: "浙江省", City: "杭州市", Adcode: "330100"}, nil
}

func (f *fakeGateway) Weather(context.Context, string) (*models.WeatherSnapshot, error) {
	return nil, amap.ErrNotFound
}

func (f *fakeGateway) ValidateKey(_ context.Context, key string) bool { return f.validKeys[key] }

func (f *fakeGateway) SetKey(key string) { f.key = key }

func (f *fakeGateway) SearchPOIV2(_ context.Context, keywords, _, _ string) ([]models.PoiCandidate, error) {
	f.poiKeywords = keywords
	return f.pois, f.poiErr
}

func (f *fakeGateway) WalkingRoute(context.Context, string, string) ([]amap.WalkingPath, error) {
	f.walkCalled = true
	return f.paths, f.walkErr
}

func (f *fakeGateway) Stats() amap.Stats { return amap.Stats{QuotaDate: "2024-01-01"} }

func walkingPath(t *testing.T, distance string) amap.WalkingPath {
	var p amap.WalkingPath
	require.NoError(t, json.Unmarshal([]byte(`{"distance":"`+distance+`","cost":{"duration":"600"}}`), &p))
	return p
}

func newTestLocationService(gw *fakeGateway) *LocationService {
	return NewLocationService(gw, parser.NewPoiMatcher(0.6, 0.4), zap.NewNop())
}

func TestLocationService_ValidateKey(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{key: "old", validKeys: map[string]bool{"good": true}}
	ls := newTestLocationService(gw)

	resp := ls.ValidateKey(ctx, "bad", true)
	assert.False(t, resp.Valid)
	assert.Equal(t, "old", gw.key)

	resp = ls.ValidateKey(ctx, "good", false)
	assert.True(t, resp.Valid)
	assert.False(t, resp.Applied)
	assert.Equal(t, "old", gw.key)

	resp = ls.ValidateKey(ctx, "good", true)
	assert.True(t, resp.Applied)
	assert.Equal(t, "good", gw.key)
}

func TestLocationService_MatchPlace(t *testing.T) {
	ctx := context.Background()

	t.Run("best candidate", func(t *testing.T) {
		gw := &fakeGateway{pois: []models.PoiCandidate{
			{Name: "清华大学附属小学", Adname: "海淀区"},
			{Name: "清华大学", Adname: "海淀区", Type: "科教文化服务;学校;高等院校"},
		}}
		ls := newTestLocationService(gw)

		resp, err := ls.MatchPlace(ctx, requests.MatchPlaceRequest{Address: "北京市海淀区清华大学东门"})
		require.NoError(t, err)
		assert.True(t, resp.Found)
		assert.Equal(t, "清华大学", resp.Place.Name)
		assert.Equal(t, 2, resp.Candidates)
		assert.Equal(t, gw.poiKeywords, resp.Keywords)
		assert.NotEqual(t, "北京市海淀区清华大学东门", resp.Keywords)
		assert.Greater(t, resp.Similarity, 0.0)
	})

	t.Run("explicit keywords", func(t *testing.T) {
		gw := &fakeGateway{}
		ls := newTestLocationService(gw)

		resp, err := ls.MatchPlace(ctx, requests.MatchPlaceRequest{Address: "文三路", Keywords: "咖啡"})
		require.NoError(t, err)
		assert.False(t, resp.Found)
		assert.Equal(t, "咖啡", gw.poiKeywords)
	})

	t.Run("no result", func(t *testing.T) {
		ls := newTestLocationService(&fakeGateway{poiErr: amap.ErrNotFound})

		resp, err := ls.MatchPlace(ctx, requests.MatchPlaceRequest{Address: "文三路"})
		require.NoError(t, err)
		assert.False(t, resp.Found)
	})

	t.Run("provider error", func(t *testing.T) {
		ls := newTestLocationService(&fakeGateway{poiErr: amap.ErrQuotaExceeded})

		_, err := ls.MatchPlace(ctx, requests.MatchPlaceRequest{Address: "文三路"})
		assert.ErrorIs(t, err, amap.ErrQuotaExceeded)
	})
}

func TestLocationService_ValidateWalking(t *testing.T) {
	ctx := context.Background()
	geocoded := []amap.Geocode{{Location: "120.1,30.2"}}

	t.Run("within limit", func(t *testing.T) {
		gw := &fakeGateway{geocodes: geocoded, paths: []amap.WalkingPath{walkingPath(t, "1200"), walkingPath(t, "1500")}}
		resp := newTestLocationService(gw).ValidateWalking(ctx, "120.0,30.2", "文三路1号", 0)
		assert.True(t, resp.Valid)
		assert.Equal(t, 1200, resp.Distance)
		assert.Equal(t, 2, resp.AlternativeCount)
		assert.Equal(t, "120.1,30.2", resp.Location)
	})

	t.Run("too far", func(t *testing.T) {
		gw := &fakeGateway{geocodes: geocoded, paths: []amap.WalkingPath{walkingPath(t, "6000")}}
		resp := newTestLocationService(gw).ValidateWalking(ctx, "120.0,30.2", "文三路1号", 0)
		assert.False(t, resp.Valid)
		assert.Equal(t, 6000, resp.Distance)
	})

	t.Run("custom limit", func(t *testing.T) {
		gw := &fakeGateway{geocodes: geocoded, paths: []amap.WalkingPath{walkingPath(t, "6000")}}
		resp := newTestLocationService(gw).ValidateWalking(ctx, "120.0,30.2", "文三路1号", 8000)
		assert.True(t, resp.Valid)
	})

	t.Run("not geocodable", func(t *testing.T) {
		gw := &fakeGateway{geocodeErr: amap.ErrNotFound}
		resp := newTestLocationService(gw).ValidateWalking(ctx, "120.0,30.2", "不存在的地方", 0)
		assert.False(t, resp.Valid)
		assert.False(t, gw.walkCalled)
	})

	t.Run("provider error is valid", func(t *testing.T) {
		gw := &fakeGateway{geocodes: geocoded, walkErr: &amap.ServiceError{Code: amap.CodeServiceFailure}}
		resp := newTestLocationService(gw).ValidateWalking(ctx, "120.0,30.2", "文三路1号", 0)
		assert.True(t, resp.Valid)
	})

	t.Run("no origin", func(t *testing.T) {
		gw := &fakeGateway{geocodes: geocoded}
		resp := newTestLocationService(gw).ValidateWalking(ctx, "", "文三路1号", 0)
		assert.True(t, resp.Valid)
		assert.False(t, gw.walkCalled)
	})

	t.Run("coordinate destination skips geocoding", func(t *testing.T) {
		gw := &fakeGateway{geocodeErr: amap.ErrNotFound, paths: []amap.WalkingPath{walkingPath(t, "10")}}
		resp := newTestLocationService(gw).ValidateWalking(ctx, "120.0,30.2", "120.001,30.2", 0)
		assert.True(t, resp.Valid)
		assert.Equal(t, 10, resp.Distance)
	})
}

func TestAdminService(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(0, "old")
	addresses := newTestAddressService(newFakeResolver(), cache)
	admin := NewAdminService(&fakeGateway{}, cache, addresses, zap.NewNop(), "1.0.0", "test")

	c := sampleComponents("")
	require.NoError(t, cache.Set(ctx, "k", c))

	stats := admin.GetSystemStats(ctx)
	assert.Equal(t, "test", stats.SystemInfo.ParserVersion)
	assert.Equal(t, "1.0.0", stats.SystemInfo.Version)
	assert.NotNil(t, stats.Cache)
	assert.Equal(t, "2024-01-01", admin.QuotaStats().QuotaDate)

	version, err := admin.InvalidateCache(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "test", version)
	assert.Zero(t, cache.Size())

	require.NoError(t, admin.ClearCache(ctx))

	noCache := NewAdminService(&fakeGateway{}, nil, addresses, zap.NewNop(), "1.0.0", "test")
	assert.ErrorIs(t, noCache.ClearCache(ctx), ErrNoCache)
	_, err = noCache.InvalidateCache(ctx, "v")
	assert.ErrorIs(t, err, ErrNoCache)
	assert.Nil(t, noCache.GetSystemStats(ctx).Cache)
}
