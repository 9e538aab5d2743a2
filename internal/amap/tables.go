package amap

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed data/tables.yaml
var tablesYAML []byte

// Tables holds the provider vocabularies loaded from the embedded YAML.
type Tables struct {
	InfoCodes     map[string]string `yaml:"info_codes"`
	Weather       map[string]string `yaml:"weather"`
	WindDirection map[string]string `yaml:"wind_direction"`
	WindPower     map[string]string `yaml:"wind_power"`
	Defaults      struct {
		Weather       string `yaml:"weather"`
		WindDirection string `yaml:"wind_direction"`
		WindPower     string `yaml:"wind_power"`
	} `yaml:"defaults"`
}

var tables = mustLoadTables()

// LoadTables parses the embedded provider tables.
func LoadTables() (*Tables, error) {
	t := &Tables{}
	if err := yaml.Unmarshal(tablesYAML, t); err != nil {
		return nil, fmt.Errorf("parse provider tables: %w", err)
	}
	return t, nil
}

func mustLoadTables() *Tables {
	t, err := LoadTables()
	if err != nil {
		panic(err)
	}
	return t
}

// InfoMessage returns the human readable message for a provider info code.
func InfoMessage(code string) (string, bool) {
	msg, ok := tables.InfoCodes[code]
	return msg, ok
}

func describeWeather(code string) string {
	if desc, ok := tables.Weather[code]; ok {
		return desc
	}
	return tables.Defaults.Weather
}

func describeWindDirection(code string) string {
	if desc, ok := tables.WindDirection[code]; ok {
		return desc
	}
	return tables.Defaults.WindDirection
}

func describeWindPower(code string) string {
	if desc, ok := tables.WindPower[code]; ok {
		return desc
	}
	return tables.Defaults.WindPower
}
