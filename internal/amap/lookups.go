package amap

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/address-completer/app/models"
	"go.uber.org/zap"
)

const (
	pathGeocode      = "/v3/geocode/geo"
	pathRegeocode    = "/v3/geocode/regeo"
	pathConvert      = "/v3/assistant/coordinate/convert"
	pathDistrict     = "/v3/config/district"
	pathWeather      = "/v3/weather/weatherInfo"
	pathPlaceV1      = "/v3/place/text"
	pathPlaceV2      = "/v5/place/text"
	pathInputTips    = "/v3/assistant/inputtips"
	pathIP           = "/v3/ip"
	pathWalking      = "/v5/direction/walking"
	coordSysAutonavi = "autonavi"
)

// municipalities have no city level distinct from the province.
var municipalityPrefixes = map[string]bool{"11": true, "12": true, "31": true, "50": true}

// Geocode forward-geocodes an address; city narrows the search when set.
func (c *Client) Geocode(ctx context.Context, address, city string) ([]Geocode, error) {
	params := url.Values{"address": {address}}
	if city != "" {
		params.Set("city", city)
	}
	raw, err := c.Call(ctx, pathGeocode, params)
	if err != nil {
		return nil, err
	}
	var resp geocodeResponse
	if err := raw.Decode(&resp); err != nil {
		return nil, err
	}
	if len(resp.Geocodes) == 0 {
		return nil, ErrNotFound
	}
	return resp.Geocodes, nil
}

// ReverseGeocode resolves "lng,lat" coordinates to an address breakdown.
func (c *Client) ReverseGeocode(ctx context.Context, location string) (*ReverseGeocode, error) {
	raw, err := c.Call(ctx, pathRegeocode, url.Values{
		"location":   {location},
		"extensions": {"all"},
	})
	if err != nil {
		return nil, err
	}
	var resp regeoResponse
	if err := raw.Decode(&resp); err != nil {
		return nil, err
	}
	if resp.Regeocode == nil {
		return nil, ErrNotFound
	}
	return resp.Regeocode, nil
}

// ConvertCoordinates converts locations from coordsys (gps, mapbar, baidu) to
// the provider's system.
func (c *Client) ConvertCoordinates(ctx context.Context, locations, coordsys string) (string, error) {
	if coordsys == "" || coordsys == coordSysAutonavi {
		return locations, nil
	}
	raw, err := c.Call(ctx, pathConvert, url.Values{
		"locations": {locations},
		"coordsys":  {coordsys},
	})
	if err != nil {
		return "", err
	}
	var resp convertResponse
	if err := raw.Decode(&resp); err != nil {
		return "", err
	}
	if resp.Locations == "" {
		return "", ErrNotFound
	}
	return resp.Locations.String(), nil
}

// Districts looks up administrative units by name or adcode, including
// subdistrict levels below each match. Results are cached per process.
func (c *Client) Districts(ctx context.Context, keywords string, subdistrict int) ([]DistrictNode, error) {
	key := cacheKey("districts", keywords, strconv.Itoa(subdistrict))
	if v, ok := c.cached(key); ok {
		return v.([]DistrictNode), nil
	}

	raw, err := c.Call(ctx, pathDistrict, url.Values{
		"keywords":    {keywords},
		"subdistrict": {strconv.Itoa(subdistrict)},
	})
	if err != nil {
		return nil, err
	}
	var resp districtResponse
	if err := raw.Decode(&resp); err != nil {
		return nil, err
	}
	if len(resp.Districts) == 0 {
		return nil, ErrNotFound
	}
	c.store(key, resp.Districts)
	return resp.Districts, nil
}

// DistrictByName resolves an exact administrative name. Successful lookups are
// cached for the process lifetime keyed by the queried name.
func (c *Client) DistrictByName(ctx context.Context, name string) (models.DistrictInfo, error) {
	key := cacheKey("district", name)
	if v, ok := c.cached(key); ok {
		return v.(models.DistrictInfo), nil
	}

	nodes, err := c.Districts(ctx, name, 0)
	if err != nil {
		return models.DistrictInfo{}, err
	}
	node := nodes[0]
	info := models.DistrictInfo{
		Province: node.Province.String(),
		City:     node.CityName.String(),
		District: node.Name.String(),
		Adcode:   node.Adcode.String(),
	}
	if info.Province == "" {
		c.fillParents(ctx, node, &info)
	}
	if info.Province == "" {
		return models.DistrictInfo{}, ErrNotFound
	}

	c.store(key, info)
	return info, nil
}

// fillParents derives province and city names from the adcode hierarchy.
func (c *Client) fillParents(ctx context.Context, node DistrictNode, info *models.DistrictInfo) {
	adcode := node.Adcode.String()
	if len(adcode) != 6 {
		return
	}
	level := node.Level.String()
	switch level {
	case "province":
		info.Province = node.Name.String()
		return
	case "city", "district":
	default:
		return
	}

	provinceCode := adcode[:2] + "0000"
	province, err := c.nameOf(ctx, provinceCode)
	if err != nil {
		c.logger.Debug("Cannot resolve province of district",
			zap.String("adcode", adcode), zap.Error(err))
		return
	}
	info.Province = province

	switch {
	case level == "city":
		info.City = node.Name.String()
	case municipalityPrefixes[adcode[:2]]:
		info.City = province
	default:
		if city, err := c.nameOf(ctx, adcode[:4]+"00"); err == nil {
			info.City = city
		}
	}
}

func (c *Client) nameOf(ctx context.Context, adcode string) (string, error) {
	nodes, err := c.Districts(ctx, adcode, 0)
	if err != nil {
		return "", err
	}
	return nodes[0].Name.String(), nil
}

// StreetsUnder lists street level units below adcode.
func (c *Client) StreetsUnder(ctx context.Context, adcode string) ([]string, error) {
	nodes, err := c.Districts(ctx, adcode, 3)
	if err != nil {
		return nil, err
	}
	var streets []string
	var walk func([]DistrictNode)
	walk = func(list []DistrictNode) {
		for _, n := range list {
			if n.Level.String() == "street" && n.Name != "" {
				streets = append(streets, n.Name.String())
			}
			walk(n.Districts)
		}
	}
	walk(nodes)
	return streets, nil
}

// Weather returns live conditions and the forecast for adcode. A nil snapshot
// with a nil error means the provider had no data.
func (c *Client) Weather(ctx context.Context, adcode string) (*models.WeatherSnapshot, error) {
	raw, err := c.Call(ctx, pathWeather, url.Values{
		"city":       {adcode},
		"extensions": {"all"},
	})
	if err != nil {
		return nil, err
	}
	var resp weatherResponse
	if err := raw.Decode(&resp); err != nil {
		return nil, err
	}
	return buildWeatherSnapshot(resp), nil
}

// SearchPOI runs the v1 keyword place search.
func (c *Client) SearchPOI(ctx context.Context, keywords, city, types string) ([]models.PoiCandidate, error) {
	raw, err := c.Call(ctx, pathPlaceV1, url.Values{
		"keywords":   {keywords},
		"city":       {city},
		"types":      {types},
		"extensions": {"all"},
	})
	if err != nil {
		return nil, err
	}
	var resp poiV1Response
	if err := raw.Decode(&resp); err != nil {
		return nil, err
	}
	candidates := make([]models.PoiCandidate, 0, len(resp.Pois))
	for _, p := range resp.Pois {
		candidates = append(candidates, p.candidate())
	}
	return candidates, nil
}

// SearchPOIV2 runs the v2 keyword place search; results are cached per process.
func (c *Client) SearchPOIV2(ctx context.Context, keywords, region, types string) ([]models.PoiCandidate, error) {
	key := cacheKey("poi", keywords, region, types)
	if v, ok := c.cached(key); ok {
		return v.([]models.PoiCandidate), nil
	}

	cityLimit := "false"
	if region != "" {
		cityLimit = "true"
	}
	raw, err := c.Call(ctx, pathPlaceV2, url.Values{
		"keywords":    {keywords},
		"region":      {region},
		"types":       {types},
		"show_fields": {"business,children,indoor,navi"},
		"page_size":   {"25"},
		"city_limit":  {cityLimit},
	})
	if err != nil {
		return nil, err
	}
	var resp poiV2Response
	if err := raw.Decode(&resp); err != nil {
		return nil, err
	}
	candidates := make([]models.PoiCandidate, 0, len(resp.Pois))
	for _, p := range resp.Pois {
		candidates = append(candidates, p.candidate())
	}
	c.store(key, candidates)
	return candidates, nil
}

// InputTips returns autocomplete suggestions scoped to the current IP city.
func (c *Client) InputTips(ctx context.Context, keywords string) (*TipsResult, error) {
	key := cacheKey("tips", keywords)
	if v, ok := c.cached(key); ok {
		return v.(*TipsResult), nil
	}

	city, err := c.CurrentCity(ctx)
	if err != nil {
		c.logger.Debug("Input tips without city scope", zap.Error(err))
		city = ""
	}
	cityLimit := "false"
	if city != "" {
		cityLimit = "true"
	}

	raw, err := c.Call(ctx, pathInputTips, url.Values{
		"keywords":  {keywords},
		"datatype":  {"all"},
		"city":      {city},
		"citylimit": {cityLimit},
	})
	if err != nil {
		return nil, err
	}
	var resp TipsResult
	if err := raw.Decode(&resp); err != nil {
		return nil, err
	}
	c.store(key, &resp)
	return &resp, nil
}

// CurrentCity returns the city of the caller's IP; cached once resolved.
func (c *Client) CurrentCity(ctx context.Context) (string, error) {
	key := cacheKey("current", "city")
	if v, ok := c.cached(key); ok {
		return v.(string), nil
	}
	info, err := c.CurrentCityInfo(ctx)
	if err != nil {
		return "", err
	}
	c.store(key, info.City)
	return info.City, nil
}

// CurrentCityInfo locates the caller's IP.
func (c *Client) CurrentCityInfo(ctx context.Context) (models.CityInfo, error) {
	raw, err := c.Call(ctx, pathIP, url.Values{})
	if err != nil {
		return models.CityInfo{}, err
	}
	var resp ipResponse
	if err := raw.Decode(&resp); err != nil {
		return models.CityInfo{}, err
	}
	return models.CityInfo{
		Province:  resp.Province.String(),
		City:      resp.City.String(),
		Adcode:    resp.Adcode.String(),
		Rectangle: resp.Rectangle.String(),
	}, nil
}

// ValidateKey reports whether key authenticates against the provider.
func (c *Client) ValidateKey(ctx context.Context, key string) bool {
	if strings.TrimSpace(key) == "" {
		return false
	}
	_, err := c.call(ctx, pathIP, url.Values{}, key)
	if err != nil {
		c.logger.Info("API key validation failed", zap.Error(err))
		return false
	}
	return true
}

// WalkingRoute returns walking alternatives between two "lng,lat" points,
// shortest first.
func (c *Client) WalkingRoute(ctx context.Context, origin, destination string) ([]WalkingPath, error) {
	raw, err := c.Call(ctx, pathWalking, url.Values{
		"origin":            {origin},
		"destination":       {destination},
		"show_fields":       {"cost,navi"},
		"alternative_route": {"3"},
	})
	if err != nil {
		return nil, err
	}
	var resp walkingResponse
	if err := raw.Decode(&resp); err != nil {
		return nil, err
	}
	paths := resp.Route.Paths
	if len(paths) == 0 {
		return nil, ErrNotFound
	}
	sort.SliceStable(paths, func(i, j int) bool {
		return paths[i].Meters() < paths[j].Meters()
	})
	return paths, nil
}

// Meters is the path distance; unparsable values sort last.
func (p WalkingPath) Meters() int {
	d, err := strconv.Atoi(p.Distance.String())
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return d
}

// String renders a one-line summary for logs.
func (p WalkingPath) String() string {
	return fmt.Sprintf("%sm/%ss", p.Distance, p.Cost.Duration)
}
