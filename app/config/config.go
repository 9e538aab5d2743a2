package config

import (
	"os"
	"strconv"
	"time"

	"github.com/address-completer/internal/amap"
	"gopkg.in/yaml.v3"
)

type AmapCfg struct {
	BaseURL           string `yaml:"base_url" json:"base_url"`
	TimeoutMS         int    `yaml:"timeout_ms" json:"timeout_ms"`
	MinIntervalMS     int    `yaml:"min_interval_ms" json:"min_interval_ms"`
	SearchPathPrefix  string `yaml:"search_path_prefix" json:"search_path_prefix"`
	SearchDailyLimit  int    `yaml:"search_daily_limit" json:"search_daily_limit"`
	DefaultDailyLimit int    `yaml:"default_daily_limit" json:"default_daily_limit"`
}

type PoiCfg struct {
	JWWeight  float64 `yaml:"jw_weight" json:"jw_weight"`
	LevWeight float64 `yaml:"lev_weight" json:"lev_weight"`
}

type CacheCfg struct {
	Backend  string `yaml:"backend" json:"backend"`
	TTLHours int    `yaml:"ttl_hours" json:"ttl_hours"`
	L1Size   int    `yaml:"l1_size" json:"l1_size"`
}

type BatchCfg struct {
	MaxAddresses int `yaml:"max_addresses" json:"max_addresses"`
	Workers      int `yaml:"workers" json:"workers"`
}

type ParserCfg struct {
	ParserVersion string   `yaml:"parser_version" json:"parser_version"`
	Amap          AmapCfg  `yaml:"amap" json:"amap"`
	Poi           PoiCfg   `yaml:"poi" json:"poi"`
	Cache         CacheCfg `yaml:"cache" json:"cache"`
	Batch         BatchCfg `yaml:"batch" json:"batch"`
}

var C = Defaults()

// Defaults is the configuration used when no file overrides a value.
func Defaults() ParserCfg {
	return ParserCfg{
		ParserVersion: "v1",
		Amap: AmapCfg{
			BaseURL:           amap.DefaultBaseURL,
			TimeoutMS:         int(amap.DefaultTimeout / time.Millisecond),
			MinIntervalMS:     int(amap.DefaultMinInterval / time.Millisecond),
			SearchPathPrefix:  amap.DefaultSearchPrefix,
			SearchDailyLimit:  amap.DefaultSearchLimit,
			DefaultDailyLimit: amap.DefaultDailyLimit,
		},
		Poi:   PoiCfg{JWWeight: 0.6, LevWeight: 0.4},
		Cache: CacheCfg{Backend: "memory", TTLHours: 24, L1Size: 10000},
		Batch: BatchCfg{MaxAddresses: 2000, Workers: 4},
	}
}

func Load(path string) error {
	cfg := Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return err
	}
	// ENV overrides
	if v := os.Getenv("AMAP_BASE_URL"); v != "" {
		cfg.Amap.BaseURL = v
	}
	if v, err := strconv.Atoi(os.Getenv("AMAP_MIN_INTERVAL_MS")); err == nil && v >= 0 {
		cfg.Amap.MinIntervalMS = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v, err := strconv.Atoi(os.Getenv("L1_CACHE_SIZE")); err == nil && v > 0 {
		cfg.Cache.L1Size = v
	}
	if v := os.Getenv("PARSER_VERSION"); v != "" {
		cfg.ParserVersion = v
	}
	C = cfg
	return nil
}

// GatewayConfig maps the amap section onto the client configuration.
func (c ParserCfg) GatewayConfig(key string) amap.Config {
	return amap.Config{
		BaseURL:      c.Amap.BaseURL,
		Key:          key,
		Timeout:      time.Duration(c.Amap.TimeoutMS) * time.Millisecond,
		MinInterval:  time.Duration(c.Amap.MinIntervalMS) * time.Millisecond,
		SearchPrefix: c.Amap.SearchPathPrefix,
		SearchLimit:  c.Amap.SearchDailyLimit,
		DailyLimit:   c.Amap.DefaultDailyLimit,
	}
}

func CacheTTL() time.Duration { return time.Duration(C.Cache.TTLHours) * time.Hour }

func RequestTimeout() time.Duration { return 30 * time.Second }
