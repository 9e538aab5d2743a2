package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/address-completer/app/models"
	"github.com/address-completer/app/requests"
	"github.com/address-completer/app/responses"
	"github.com/address-completer/internal/amap"
	"github.com/address-completer/internal/parser"
	"go.uber.org/zap"
)

// DefaultWalkingLimit is the longest walk, in meters, that still validates.
const DefaultWalkingLimit = 5000

var coordinatePattern = regexp.MustCompile(`^-?\d{1,3}(\.\d+)?,-?\d{1,2}(\.\d+)?$`)

// Gateway is the provider surface used outside address completion.
type Gateway interface {
	InputTips(ctx context.Context, keywords string) (*amap.TipsResult, error)
	Geocode(ctx context.Context, address, city string) ([]amap.Geocode, error)
	CurrentCity(ctx context.Context) (string, error)
	CurrentCityInfo(ctx context.Context) (models.CityInfo, error)
	Weather(ctx context.Context, adcode string) (*models.WeatherSnapshot, error)
	ValidateKey(ctx context.Context, key string) bool
	SetKey(key string)
	SearchPOIV2(ctx context.Context, keywords, region, types string) ([]models.PoiCandidate, error)
	WalkingRoute(ctx context.Context, origin, destination string) ([]amap.WalkingPath, error)
	Stats() amap.Stats
}

// LocationService exposes the provider lookups and place matching.
type LocationService struct {
	gateway Gateway
	matcher *parser.PoiMatcher
	special *parser.SpecialPlaceDetector
	logger  *zap.Logger
}

func NewLocationService(gateway Gateway, matcher *parser.PoiMatcher, logger *zap.Logger) *LocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationService{
		gateway: gateway,
		matcher: matcher,
		special: parser.NewSpecialPlaceDetector(),
		logger:  logger,
	}
}

func (ls *LocationService) Tips(ctx context.Context, keywords string) (*amap.TipsResult, error) {
	return ls.gateway.InputTips(ctx, keywords)
}

func (ls *LocationService) Geocode(ctx context.Context, address, city string) ([]amap.Geocode, error) {
	return ls.gateway.Geocode(ctx, address, city)
}

func (ls *LocationService) CurrentCity(ctx context.Context) (string, error) {
	return ls.gateway.CurrentCity(ctx)
}

func (ls *LocationService) CurrentCityInfo(ctx context.Context) (models.CityInfo, error) {
	return ls.gateway.CurrentCityInfo(ctx)
}

func (ls *LocationService) Weather(ctx context.Context, adcode string) (*models.WeatherSnapshot, error) {
	return ls.gateway.Weather(ctx, adcode)
}

// ValidateKey checks key and, when apply is set and the key works, switches to it.
func (ls *LocationService) ValidateKey(ctx context.Context, key string, apply bool) responses.KeyValidationResponse {
	valid := ls.gateway.ValidateKey(ctx, key)
	applied := false
	if valid && apply {
		ls.gateway.SetKey(key)
		applied = true
		ls.logger.Info("API key replaced")
	}
	return responses.KeyValidationResponse{Valid: valid, Applied: applied}
}

// MatchPlace searches places for the request and picks the best match for
// its address. Keywords default to the special-place span of the address,
// then to the address itself.
func (ls *LocationService) MatchPlace(ctx context.Context, req requests.MatchPlaceRequest) (*responses.PlaceMatchResponse, error) {
	keywords := strings.TrimSpace(req.Keywords)
	if keywords == "" {
		keywords = ls.special.MatchSpan(req.Address)
	}
	if keywords == "" {
		keywords = req.Address
	}

	resp := &responses.PlaceMatchResponse{Keywords: keywords}

	candidates, err := ls.gateway.SearchPOIV2(ctx, keywords, req.Region, req.Types)
	if errors.Is(err, amap.ErrNotFound) {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	resp.Candidates = len(candidates)

	best, score, ok := ls.matcher.BestMatch(candidates, req.Address)
	if !ok {
		return resp, nil
	}
	resp.Found = true
	resp.Place = best
	resp.Score = score
	resp.Similarity = ls.matcher.Similarity(keywords, best.Name)
	return resp, nil
}

// ValidateWalking geocodes the destination and checks the shortest walk
// from origin against maxDistance. An address that cannot be geocoded is
// invalid; provider failures and a missing origin count as valid.
func (ls *LocationService) ValidateWalking(ctx context.Context, origin, destination string, maxDistance int) responses.WalkingValidationResponse {
	if maxDistance <= 0 {
		maxDistance = DefaultWalkingLimit
	}

	location := strings.TrimSpace(destination)
	if !coordinatePattern.MatchString(location) {
		geocodes, err := ls.gateway.Geocode(ctx, destination, "")
		if errors.Is(err, amap.ErrNotFound) || (err == nil && len(geocodes) == 0) {
			return responses.WalkingValidationResponse{Valid: false}
		}
		if err != nil {
			ls.logger.Warn("Walking validation geocode failed", zap.Error(err))
			return responses.WalkingValidationResponse{Valid: true}
		}
		location = geocodes[0].Location.String()
	}

	if strings.TrimSpace(origin) == "" {
		return responses.WalkingValidationResponse{Valid: true, Location: location}
	}

	paths, err := ls.gateway.WalkingRoute(ctx, origin, location)
	if err != nil || len(paths) == 0 {
		ls.logger.Warn("Walking route failed", zap.Error(err))
		return responses.WalkingValidationResponse{Valid: true, Location: location}
	}

	shortest := paths[0]
	distance := shortest.Meters()
	return responses.WalkingValidationResponse{
		Valid:            distance <= maxDistance,
		Distance:         distance,
		Duration:         shortest.Cost.Duration.String(),
		AlternativeCount: len(paths),
		Location:         location,
	}
}

// GatewayStats returns quota usage and cache counters of the provider client.
func (ls *LocationService) GatewayStats() amap.Stats {
	return ls.gateway.Stats()
}
