package database

import (
	"strings"
	"testing"
	"time"

	"github.com/Alijeyrad/clinic_ledger/config"
)

func TestFromCentralConfig(t *testing.T) {
	tests := []struct {
		name    string
		in      config.DatabaseConfig
		wantDSN string
		slow    time.Duration
	}{
		{
			name:    "defaults",
			in:      config.DatabaseConfig{DBName: "clinic_ledger"},
			wantDSN: "postgres://localhost:5432/clinic_ledger",
		},
		{
			name: "escaped credentials",
			in: config.DatabaseConfig{
				Host: "db", Port: 6432, User: "ledger", Password: "p@ss/word",
				DBName: "clinic_ledger", SSLMode: "require",
			},
			wantDSN: "postgres://ledger:p%40ss%2Fword@db:6432/clinic_ledger?sslmode=require",
		},
		{
			name: "slow query logging",
			in: config.DatabaseConfig{
				DBName:  "clinic_ledger",
				Logging: config.DatabaseLoggingConfig{Enabled: true},
			},
			wantDSN: "postgres://localhost:5432/clinic_ledger",
			slow:    defaultSlowQuery,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := FromCentralConfig(tt.in)
			if got := c.DSN(); got != tt.wantDSN {
				t.Errorf("DSN() = %q, want %q", got, tt.wantDSN)
			}
			if c.SlowQuery != tt.slow {
				t.Errorf("SlowQuery = %v, want %v", c.SlowQuery, tt.slow)
			}
			if c.MaxConnLifetime != defaultConnLifetime {
				t.Errorf("MaxConnLifetime = %v", c.MaxConnLifetime)
			}
		})
	}
}

func TestMigrationsOrdered(t *testing.T) {
	ms, err := Migrations()
	if err != nil {
		t.Fatalf("Migrations() error = %v", err)
	}
	if len(ms) == 0 {
		t.Fatal("no embedded migrations")
	}
	for i := 1; i < len(ms); i++ {
		if ms[i-1].Version >= ms[i].Version {
			t.Errorf("migrations out of order: %s before %s", ms[i-1].Version, ms[i].Version)
		}
	}
	if !strings.Contains(ms[0].SQL, "CREATE TABLE") {
		t.Errorf("first migration has no CREATE TABLE")
	}
}
