package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort     string        `mapstructure:"SERVER_PORT"`
	PostgresURL    string        `mapstructure:"POSTGRES_URL"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	MapboxToken    string        `mapstructure:"MAPBOX_ACCESS_TOKEN"`
	MapStyle       string        `mapstructure:"MAP_STYLE"`
	MapZoom        float64       `mapstructure:"MAP_ZOOM"`
	LocationSource string        `mapstructure:"LOCATION_SOURCE"`
	ReplayGPXPath  string        `mapstructure:"REPLAY_GPX_PATH"`
	ReplayInterval time.Duration `mapstructure:"REPLAY_INTERVAL"`
}

const (
	SourcePush = "push"
	SourceGPX  = "gpx"
)

// Load reads the environment once. Postgres and Redis are optional: empty values disable the
// ride archive and the redis fan-out.
func Load() Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SERVER_PORT", ":8080")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAPBOX_ACCESS_TOKEN", "")
	v.SetDefault("MAP_STYLE", "mapbox://styles/mapbox/streets-v11")
	v.SetDefault("MAP_ZOOM", 15)
	v.SetDefault("LOCATION_SOURCE", SourcePush)
	v.SetDefault("REPLAY_GPX_PATH", "")
	v.SetDefault("REPLAY_INTERVAL", "1s")

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}
