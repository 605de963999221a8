// Package config loads typed application configuration from the environment
// and an optional .env file through Viper.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Storage modes.
const (
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds every section of the application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Notifx   NotifxConfig
	Jobx     JobxConfig
}

// Load reads .env (if present), then the environment. Env vars win over .env.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	return FromViper(v)
}

// FromViper builds and validates a Config from an already prepared Viper.
func FromViper(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()

	cfg := &Config{
		Server:   loadServerConfig(v),
		Database: loadDatabaseConfig(v),
		Redis:    loadRedisConfig(v),
		Storage:  loadStorageConfig(v),
		Auth:     loadAuthConfig(v),
		Notifx:   loadNotifxConfig(v),
		Jobx:     loadJobxConfig(v),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field rules. Production refuses weak secrets.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("config: PORT must be set"))
	}

	switch c.Storage.Mode {
	case StorageRedis, StoragePostgres, StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("config: STORAGE_MODE must be redis, postgres or memory, got %q", c.Storage.Mode))
	}
	if c.Storage.Mode != StorageMemory && c.Database.URL == "" {
		errs = append(errs, errors.New("config: DATABASE_URL must be set unless STORAGE_MODE=memory"))
	}

	if c.Server.IsProduction() && len(c.Auth.JWT.Secret) < 32 {
		errs = append(errs, errors.New("config: JWT_SECRET must be at least 32 bytes in production"))
	}
	if c.Auth.JWT.Secret == "" {
		errs = append(errs, errors.New("config: JWT_SECRET must be set"))
	}
	if c.Auth.OTP.MaxAttempts < 1 {
		errs = append(errs, errors.New("config: OTP_MAX_ATTEMPTS must be at least 1"))
	}
	if c.Auth.OTP.TTL <= 0 {
		errs = append(errs, errors.New("config: OTP_TTL must be positive"))
	}
	if c.Auth.Password.BcryptCost < 4 || c.Auth.Password.BcryptCost > 31 {
		errs = append(errs, errors.New("config: BCRYPT_COST must be between 4 and 31"))
	}

	if len(c.Jobx.Queues) == 0 {
		errs = append(errs, errors.New("config: JOBX_QUEUES must name at least one queue"))
	}

	switch c.Notifx.Provider {
	case "console", "ses":
	default:
		errs = append(errs, fmt.Errorf("config: NOTIFX_PROVIDER must be console or ses, got %q", c.Notifx.Provider))
	}

	return errors.Join(errs...)
}

// splitList parses a comma separated value, dropping blanks.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
