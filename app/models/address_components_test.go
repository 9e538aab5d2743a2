package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyComponents_AllFieldsPresent(t *testing.T) {
	data, err := json.Marshal(EmptyComponents())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	for _, key := range []string{"province", "city", "district", "street", "building", "unit", "room", "name", "phone"} {
		value, ok := decoded[key]
		assert.True(t, ok, "missing key %s", key)
		assert.Equal(t, "", value)
	}
	value, ok := decoded["weather"]
	assert.True(t, ok)
	assert.Nil(t, value)
}

func TestAddressComponents_IsEmpty(t *testing.T) {
	assert.True(t, EmptyComponents().IsEmpty())
	assert.False(t, AddressComponents{Phone: "13812345678"}.IsEmpty())
	assert.False(t, AddressComponents{Weather: &WeatherSnapshot{}}.IsEmpty())
}

func TestAddressComponents_FullAddress(t *testing.T) {
	ac := AddressComponents{
		Province: "北京市",
		City:     "北京市",
		District: "海淀区",
		Street:   "中关村大街",
		Building: "3号楼",
		Unit:     "2单元",
		Room:     "501",
	}
	assert.Equal(t, "北京市海淀区中关村大街3号楼2单元501", ac.FullAddress())
}

func TestWeatherSnapshot_IsEmpty(t *testing.T) {
	var nilSnapshot *WeatherSnapshot
	assert.True(t, nilSnapshot.IsEmpty())
	assert.True(t, (&WeatherSnapshot{}).IsEmpty())
	assert.False(t, (&WeatherSnapshot{Current: &CurrentWeather{}}).IsEmpty())
	assert.False(t, (&WeatherSnapshot{Forecast: []DailyForecast{{Date: "2024-01-01"}}}).IsEmpty())
}
