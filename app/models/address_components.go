package models

import "strings"

// AddressComponents is the structured record produced for one address.
// Every string field is always present in JSON output, empty when unknown.
type AddressComponents struct {
	Province string           `json:"province" bson:"province"`
	City     string           `json:"city" bson:"city"`
	District string           `json:"district" bson:"district"`
	Street   string           `json:"street" bson:"street"`
	Building string           `json:"building" bson:"building"`
	Unit     string           `json:"unit" bson:"unit"`
	Room     string           `json:"room" bson:"room"`
	Name     string           `json:"name" bson:"name"`
	Phone    string           `json:"phone" bson:"phone"`
	Weather  *WeatherSnapshot `json:"weather" bson:"weather,omitempty"`
}

// EmptyComponents returns the all-empty record used when resolution fails.
func EmptyComponents() AddressComponents {
	return AddressComponents{}
}

// IsEmpty reports whether no field was resolved.
func (ac AddressComponents) IsEmpty() bool {
	return ac.Province == "" && ac.City == "" && ac.District == "" && ac.Street == "" &&
		ac.Building == "" && ac.Unit == "" && ac.Room == "" && ac.Name == "" && ac.Phone == "" &&
		ac.Weather == nil
}

// FullAddress joins the address parts in administrative order, skipping
// duplicates such as a municipality repeated as province and city.
func (ac AddressComponents) FullAddress() string {
	parts := []string{ac.Province, ac.City, ac.District, ac.Street, ac.Building, ac.Unit, ac.Room}
	var b strings.Builder
	prev := ""
	for _, p := range parts {
		if p == "" || p == prev {
			continue
		}
		b.WriteString(p)
		prev = p
	}
	return b.String()
}

// WeatherSnapshot holds current conditions and/or a multi-day forecast.
type WeatherSnapshot struct {
	Current  *CurrentWeather `json:"current,omitempty" bson:"current,omitempty"`
	Forecast []DailyForecast `json:"forecast,omitempty" bson:"forecast,omitempty"`
}

// IsEmpty reports whether the snapshot carries neither part.
func (ws *WeatherSnapshot) IsEmpty() bool {
	return ws == nil || (ws.Current == nil && len(ws.Forecast) == 0)
}

type WeatherDesc struct {
	Code string `json:"code" bson:"code"`
	Desc string `json:"desc" bson:"desc"`
}

type Wind struct {
	Direction string `json:"direction" bson:"direction"`
	Power     string `json:"power" bson:"power"`
}

// CurrentWeather is a live observation.
type CurrentWeather struct {
	Weather     WeatherDesc `json:"weather" bson:"weather"`
	Temperature string      `json:"temperature" bson:"temperature"`
	Wind        Wind        `json:"wind" bson:"wind"`
	Humidity    string      `json:"humidity" bson:"humidity"`
	ReportTime  string      `json:"reporttime" bson:"reporttime"`
}

// HalfDayForecast is the day or night part of a forecast entry.
type HalfDayForecast struct {
	Weather     WeatherDesc `json:"weather" bson:"weather"`
	Temperature string      `json:"temperature" bson:"temperature"`
	Wind        Wind        `json:"wind" bson:"wind"`
}

type DailyForecast struct {
	Date  string          `json:"date" bson:"date"`
	Week  string          `json:"week" bson:"week"`
	Day   HalfDayForecast `json:"day" bson:"day"`
	Night HalfDayForecast `json:"night" bson:"night"`
}
