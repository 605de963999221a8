package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig configures the Postgres pool behind accounts and identities.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// AutoMigrate applies embedded migrations at startup
	AutoMigrate bool
}

// RedisConfig configures the Redis client.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// StorageConfig selects where state lives.
// redis: accounts and identities in Postgres, challenges and revocations in Redis.
// postgres: accounts and identities in Postgres, the rest in process memory.
// memory: everything in process, no external services.
type StorageConfig struct {
	Mode string
}

func loadDatabaseConfig(v *viper.Viper) DatabaseConfig {
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	return DatabaseConfig{
		URL:             v.GetString("DATABASE_URL"),
		MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
	}
}

func loadRedisConfig(v *viper.Viper) RedisConfig {
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	return RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}
}

func loadStorageConfig(v *viper.Viper) StorageConfig {
	v.SetDefault("STORAGE_MODE", StorageRedis)
	return StorageConfig{Mode: v.GetString("STORAGE_MODE")}
}

func (s StorageConfig) UsesRedis() bool    { return s.Mode == StorageRedis }
func (s StorageConfig) UsesPostgres() bool { return s.Mode != StorageMemory }
