package redis

import (
	"time"

	"github.com/Alijeyrad/clinic_ledger/config"
)

// Config holds Redis connection settings
type Config struct {
	Addr     string
	DB       int
	Username string
	Password string

	PoolSize     int
	MinIdleConns int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func orDefault[T int | time.Duration](v, def T) T {
	if v > 0 {
		return v
	}
	return def
}

// FromCentralConfig converts central config.RedisConfig, filling unset
// values from DefaultConfig.
func FromCentralConfig(c config.RedisConfig) Config {
	def := DefaultConfig()
	return Config{
		Addr:         c.Addr,
		DB:           c.DB,
		Username:     c.Username,
		Password:     c.Password,
		PoolSize:     orDefault(c.PoolSize, def.PoolSize),
		MinIdleConns: orDefault(c.MinIdleConns, def.MinIdleConns),
		DialTimeout:  orDefault(time.Duration(c.DialTimeoutSeconds)*time.Second, def.DialTimeout),
		ReadTimeout:  orDefault(time.Duration(c.ReadTimeoutSeconds)*time.Second, def.ReadTimeout),
		WriteTimeout: orDefault(time.Duration(c.WriteTimeoutSeconds)*time.Second, def.WriteTimeout),
	}
}
