package database

import (
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/Alijeyrad/clinic_ledger/config"
)

const (
	defaultConnLifetime = 5 * time.Minute
	defaultSlowQuery    = 200 * time.Millisecond
)

// Config is the pool's view of config.DatabaseConfig with defaults applied.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration

	// SlowQuery logs statements running longer. Zero disables the tracer.
	SlowQuery time.Duration
}

// DSN renders a postgres:// URL; credentials are escaped.
func (c Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.DBName,
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

func FromCentralConfig(c config.DatabaseConfig) Config {
	out := Config{
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		DBName:          c.DBName,
		SSLMode:         c.SSLMode,
		MaxConns:        int32(c.Pool.MaxConns),
		MinConns:        int32(c.Pool.MinConns),
		MaxConnLifetime: time.Duration(c.Pool.ConnMaxLifetimeMin) * time.Minute,
	}
	if out.Host == "" {
		out.Host = "localhost"
	}
	if out.Port == 0 {
		out.Port = 5432
	}
	if out.MaxConnLifetime <= 0 {
		out.MaxConnLifetime = defaultConnLifetime
	}
	if c.Logging.Enabled {
		out.SlowQuery = time.Duration(c.Logging.SlowQueryThresholdMs) * time.Millisecond
		if out.SlowQuery <= 0 {
			out.SlowQuery = defaultSlowQuery
		}
	}
	return out
}
