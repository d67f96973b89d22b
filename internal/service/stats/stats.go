package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
	"github.com/Alijeyrad/clinic_ledger/internal/store"
)

// Cache is the subset of pkg/redis.JSONCache the service needs.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Home returns today's dashboard figures in the clinic time zone.
	Home(ctx context.Context) (domain.HomeStats, error)
	// Invalidate drops cached figures so the next Home reads the store.
	Invalidate(ctx context.Context) error
}

type Options struct {
	Location *time.Location
	// TTL of cached figures. Zero disables caching.
	TTL time.Duration
	Now func() time.Time
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type statsService struct {
	st    store.StatsReader
	cache Cache
	opts  Options
}

func New(st store.StatsReader, cache Cache, opts Options) Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &statsService{st: st, cache: cache, opts: opts}
}

func homeKey(day domain.Day) string { return "home:" + day.String() }

func (s *statsService) cached() bool { return s.cache != nil && s.opts.TTL > 0 }

func (s *statsService) today() domain.Day {
	return domain.Today(s.opts.Now(), s.opts.Location)
}

func (s *statsService) Home(ctx context.Context) (domain.HomeStats, error) {
	today := s.today()
	key := homeKey(today)

	if s.cached() {
		var out domain.HomeStats
		hit, err := s.cache.Get(ctx, key, &out)
		if err != nil {
			slog.WarnContext(ctx, "stats cache read failed", "err", err)
		} else if hit {
			return out, nil
		}
	}

	out, err := s.st.HomeStats(ctx, today, s.opts.Location)
	if err != nil {
		return domain.HomeStats{}, fmt.Errorf("home stats: %w", err)
	}

	if s.cached() {
		if err := s.cache.Set(ctx, key, out, s.opts.TTL); err != nil {
			slog.WarnContext(ctx, "stats cache write failed", "err", err)
		}
	}
	return out, nil
}

func (s *statsService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, homeKey(s.today())); err != nil {
		return fmt.Errorf("invalidate stats: %w", err)
	}
	return nil
}
