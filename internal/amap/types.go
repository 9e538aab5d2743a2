package amap

import (
	"encoding/json"
	"strings"

	"github.com/address-completer/app/models"
)

// FlexString decodes provider fields that are a string when set and an
// empty array when unset.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	switch {
	case trimmed == "null":
		*f = ""
		return nil
	case strings.HasPrefix(trimmed, "["):
		var parts []string
		if err := json.Unmarshal(b, &parts); err != nil {
			*f = ""
			return nil
		}
		*f = FlexString(strings.Join(parts, ""))
		return nil
	case strings.HasPrefix(trimmed, "\""):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	default:
		// bare numbers
		*f = FlexString(trimmed)
		return nil
	}
}

func (f FlexString) String() string { return string(f) }

// RawResponse is a decoded provider response that passed the status check.
type RawResponse struct {
	Path     string          `json:"-"`
	Status   FlexString      `json:"status"`
	Info     FlexString      `json:"info"`
	InfoCode FlexString      `json:"infocode"`
	Body     json.RawMessage `json:"-"`
}

// Decode unmarshals the full response body into v.
func (r *RawResponse) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &DecodeError{Path: r.Path, Err: err}
	}
	return nil
}

// Geocode is one forward-geocoding candidate.
type Geocode struct {
	FormattedAddress FlexString `json:"formatted_address"`
	Country          FlexString `json:"country"`
	Province         FlexString `json:"province"`
	City             FlexString `json:"city"`
	CityCode         FlexString `json:"citycode"`
	District         FlexString `json:"district"`
	Township         FlexString `json:"township"`
	Street           FlexString `json:"street"`
	Number           FlexString `json:"number"`
	Adcode           FlexString `json:"adcode"`
	Location         FlexString `json:"location"`
	Level            FlexString `json:"level"`
}

type geocodeResponse struct {
	Count    FlexString `json:"count"`
	Geocodes []Geocode  `json:"geocodes"`
}

type StreetNumber struct {
	Street   FlexString `json:"street"`
	Number   FlexString `json:"number"`
	Location FlexString `json:"location"`
}

// AddressComponent is the reverse-geocoding breakdown.
type AddressComponent struct {
	Country      FlexString   `json:"country"`
	Province     FlexString   `json:"province"`
	City         FlexString   `json:"city"`
	CityCode     FlexString   `json:"citycode"`
	District     FlexString   `json:"district"`
	Adcode       FlexString   `json:"adcode"`
	Township     FlexString   `json:"township"`
	TownCode     FlexString   `json:"towncode"`
	StreetNumber StreetNumber `json:"streetNumber"`
}

// ReverseGeocode is the result of a coordinate lookup.
type ReverseGeocode struct {
	FormattedAddress FlexString       `json:"formatted_address"`
	AddressComponent AddressComponent `json:"addressComponent"`
}

type regeoResponse struct {
	Regeocode *ReverseGeocode `json:"regeocode"`
}

type convertResponse struct {
	Locations FlexString `json:"locations"`
}

// DistrictNode is one level of the administrative tree.
type DistrictNode struct {
	Name      FlexString     `json:"name"`
	Adcode    FlexString     `json:"adcode"`
	CityCode  FlexString     `json:"citycode"`
	Center    FlexString     `json:"center"`
	Level     FlexString     `json:"level"`
	Province  FlexString     `json:"province"`
	CityName  FlexString     `json:"cityname"`
	Districts []DistrictNode `json:"districts"`
}

type districtResponse struct {
	Districts []DistrictNode `json:"districts"`
}

type liveWeather struct {
	Province      FlexString `json:"province"`
	City          FlexString `json:"city"`
	Adcode        FlexString `json:"adcode"`
	Weather       FlexString `json:"weather"`
	Temperature   FlexString `json:"temperature"`
	WindDirection FlexString `json:"winddirection"`
	WindPower     FlexString `json:"windpower"`
	Humidity      FlexString `json:"humidity"`
	ReportTime    FlexString `json:"reporttime"`
}

type forecastCast struct {
	Date         FlexString `json:"date"`
	Week         FlexString `json:"week"`
	DayWeather   FlexString `json:"dayweather"`
	NightWeather FlexString `json:"nightweather"`
	DayTemp      FlexString `json:"daytemp"`
	NightTemp    FlexString `json:"nighttemp"`
	DayWind      FlexString `json:"daywind"`
	NightWind    FlexString `json:"nightwind"`
	DayPower     FlexString `json:"daypower"`
	NightPower   FlexString `json:"nightpower"`
}

type weatherResponse struct {
	Lives     []liveWeather `json:"lives"`
	Forecasts []struct {
		City       FlexString     `json:"city"`
		Adcode     FlexString     `json:"adcode"`
		ReportTime FlexString     `json:"reporttime"`
		Casts      []forecastCast `json:"casts"`
	} `json:"forecasts"`
}

// poiV1 is a /v3/place/text record.
type poiV1 struct {
	Name         FlexString `json:"name"`
	Address      FlexString `json:"address"`
	Adname       FlexString `json:"adname"`
	Type         FlexString `json:"type"`
	Alias        FlexString `json:"alias"`
	BusinessArea FlexString `json:"business_area"`
	Location     FlexString `json:"location"`
	Children     []poiV1    `json:"children"`
}

func (p poiV1) candidate() models.PoiCandidate {
	c := models.PoiCandidate{
		Name:         p.Name.String(),
		Address:      p.Address.String(),
		Adname:       p.Adname.String(),
		Type:         p.Type.String(),
		Alias:        p.Alias.String(),
		BusinessArea: p.BusinessArea.String(),
		Location:     p.Location.String(),
	}
	for _, child := range p.Children {
		c.Children = append(c.Children, child.candidate())
	}
	return c
}

type poiV1Response struct {
	Pois []poiV1 `json:"pois"`
}

// poiV2 is a /v5/place/text record; business data sits in a nested object.
type poiV2 struct {
	Name     FlexString `json:"name"`
	Address  FlexString `json:"address"`
	Adname   FlexString `json:"adname"`
	Type     FlexString `json:"type"`
	Alias    FlexString `json:"alias"`
	Location FlexString `json:"location"`
	Business struct {
		BusinessArea FlexString `json:"business_area"`
		Alias        FlexString `json:"alias"`
	} `json:"business"`
	Children []poiV2 `json:"children"`
}

func (p poiV2) candidate() models.PoiCandidate {
	alias := p.Alias.String()
	if alias == "" {
		alias = p.Business.Alias.String()
	}
	c := models.PoiCandidate{
		Name:         p.Name.String(),
		Address:      p.Address.String(),
		Adname:       p.Adname.String(),
		Type:         p.Type.String(),
		Alias:        alias,
		BusinessArea: p.Business.BusinessArea.String(),
		Location:     p.Location.String(),
	}
	for _, child := range p.Children {
		c.Children = append(c.Children, child.candidate())
	}
	return c
}

type poiV2Response struct {
	Pois []poiV2 `json:"pois"`
}

// Tip is one input suggestion.
type Tip struct {
	ID       FlexString `json:"id"`
	Name     FlexString `json:"name"`
	District FlexString `json:"district"`
	Adcode   FlexString `json:"adcode"`
	Location FlexString `json:"location"`
	Address  FlexString `json:"address"`
	Typecode FlexString `json:"typecode"`
}

// TipsResult is the input-tips response.
type TipsResult struct {
	Count FlexString `json:"count"`
	Tips  []Tip      `json:"tips"`
}

type ipResponse struct {
	Province  FlexString `json:"province"`
	City      FlexString `json:"city"`
	Adcode    FlexString `json:"adcode"`
	Rectangle FlexString `json:"rectangle"`
}

// WalkingPath is one walking route alternative.
type WalkingPath struct {
	Distance FlexString `json:"distance"`
	Cost     struct {
		Duration FlexString `json:"duration"`
	} `json:"cost"`
	Steps []struct {
		Instruction  FlexString `json:"instruction"`
		Road         FlexString `json:"road_name"`
		StepDistance FlexString `json:"step_distance"`
	} `json:"steps"`
}

type walkingResponse struct {
	Count FlexString `json:"count"`
	Route struct {
		Origin      FlexString    `json:"origin"`
		Destination FlexString    `json:"destination"`
		Paths       []WalkingPath `json:"paths"`
	} `json:"route"`
}
