package config

import (
	"time"

	"github.com/spf13/viper"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port    string
	Env     string
	AppName string
	Version string

	// BodyLimit is the maximum request body in bytes
	BodyLimit int

	// CORSOrigins is passed to the cors middleware as-is
	CORSOrigins string

	RateLimitMax    int
	RateLimitWindow time.Duration
}

func loadServerConfig(v *viper.Viper) ServerConfig {
	v.SetDefault("PORT", "5000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "FlavorMind API")
	v.SetDefault("API_VERSION", "v1")
	v.SetDefault("BODY_LIMIT", 10*1024*1024)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_MAX_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_MS", 900000)

	return ServerConfig{
		Port:            v.GetString("PORT"),
		Env:             v.GetString("APP_ENV"),
		AppName:         v.GetString("APP_NAME"),
		Version:         v.GetString("API_VERSION"),
		BodyLimit:       v.GetInt("BODY_LIMIT"),
		CORSOrigins:     v.GetString("CORS_ORIGINS"),
		RateLimitMax:    v.GetInt("RATE_LIMIT_MAX_REQUESTS"),
		RateLimitWindow: time.Duration(v.GetInt64("RATE_LIMIT_WINDOW_MS")) * time.Millisecond,
	}
}

// IsProduction reports whether diagnostic error output must be suppressed.
func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}
