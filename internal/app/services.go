package app

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/clinic_ledger/config"
	"github.com/Alijeyrad/clinic_ledger/internal/service/attendance"
	"github.com/Alijeyrad/clinic_ledger/internal/service/notification"
	"github.com/Alijeyrad/clinic_ledger/internal/service/patient"
	"github.com/Alijeyrad/clinic_ledger/internal/service/payment"
	"github.com/Alijeyrad/clinic_ledger/internal/service/stats"
	"github.com/Alijeyrad/clinic_ledger/internal/store"
	"github.com/Alijeyrad/clinic_ledger/pkg/events"
	redispkg "github.com/Alijeyrad/clinic_ledger/pkg/redis"
)

const statsCachePrefix = "ledger:stats:"

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideDeriver,
		ProvideAttendanceService,
		ProvidePatientService,
		ProvidePaymentService,
		ProvideNotificationService,
		ProvideStatsService,
	),
)

func ProvideDeriver(cfg *config.Config) (*notification.Deriver, error) {
	return notification.NewDeriver(cfg.Ledger.MilestoneSize)
}

func ProvideAttendanceService(st store.Store, d *notification.Deriver, pub events.Publisher, cfg *config.Config) attendance.Service {
	return attendance.New(st, d, pub, attendance.Options{
		BulkReconcile: cfg.Ledger.BulkReconcile,
		Location:      cfg.Ledger.Location(),
	})
}

func ProvidePatientService(st store.Store, pub events.Publisher) patient.Service {
	return patient.New(st, pub, nil)
}

func ProvidePaymentService(st store.Store, pub events.Publisher, cfg *config.Config) payment.Service {
	return payment.New(st, pub, payment.Options{Location: cfg.Ledger.Location()})
}

func ProvideNotificationService(st store.Store) notification.Service {
	return notification.New(st)
}

type statsParams struct {
	fx.In

	Store store.Store
	Redis *redis.Client `optional:"true"`
	Cfg   *config.Config
}

func ProvideStatsService(p statsParams) stats.Service {
	opts := stats.Options{
		Location: p.Cfg.Ledger.Location(),
		TTL:      p.Cfg.Ledger.StatsCacheTTL(),
	}
	if p.Redis == nil {
		return stats.New(p.Store, nil, opts)
	}
	return stats.New(p.Store, redispkg.NewJSONCache(p.Redis, statsCachePrefix), opts)
}
