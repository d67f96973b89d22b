package redis

import (
	"testing"
	"time"

	"github.com/Alijeyrad/clinic_ledger/config"
)

func TestFromCentralConfig(t *testing.T) {
	tests := []struct {
		name string
		in   config.RedisConfig
		want Config
	}{
		{
			name: "defaults fill unset values",
			in:   config.RedisConfig{Addr: "cache:6379"},
			want: Config{
				Addr: "cache:6379", PoolSize: 10, MinIdleConns: 2,
				DialTimeout: 5 * time.Second, ReadTimeout: 3 * time.Second, WriteTimeout: 3 * time.Second,
			},
		},
		{
			name: "explicit values win",
			in: config.RedisConfig{
				Addr: "cache:6379", DB: 2, PoolSize: 50, MinIdleConns: 5,
				DialTimeoutSeconds: 1, ReadTimeoutSeconds: 2, WriteTimeoutSeconds: 4,
			},
			want: Config{
				Addr: "cache:6379", DB: 2, PoolSize: 50, MinIdleConns: 5,
				DialTimeout: time.Second, ReadTimeout: 2 * time.Second, WriteTimeout: 4 * time.Second,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromCentralConfig(tt.in); got != tt.want {
				t.Errorf("FromCentralConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSessionKey(t *testing.T) {
	if got := SessionKey("abc"); got != "session:abc" {
		t.Errorf("SessionKey() = %q", got)
	}
}
