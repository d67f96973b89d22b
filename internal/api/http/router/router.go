package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/clinic_ledger/config"
	"github.com/Alijeyrad/clinic_ledger/internal/api/http/handler"
	"github.com/Alijeyrad/clinic_ledger/internal/api/http/middleware"
	"github.com/Alijeyrad/clinic_ledger/internal/service/attendance"
	"github.com/Alijeyrad/clinic_ledger/internal/service/notification"
	"github.com/Alijeyrad/clinic_ledger/internal/service/patient"
	"github.com/Alijeyrad/clinic_ledger/internal/service/payment"
	"github.com/Alijeyrad/clinic_ledger/internal/service/stats"
	"github.com/Alijeyrad/clinic_ledger/pkg/token"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Params struct {
	fx.In

	Cfg             *config.Config
	Redis           *goredis.Client `optional:"true"`
	DB              Pinger
	Tokens          *token.Manager
	AttendanceSvc   attendance.Service
	PatientSvc      patient.Service
	NotificationSvc notification.Service
	PaymentSvc      payment.Service
	StatsSvc        stats.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Middlewares
	authCfg := middleware.AuthConfig{
		Tokens:         r.p.Tokens,
		RequireSession: r.p.Cfg.Authentication.RequireSession,
	}
	if r.p.Redis != nil {
		authCfg.Sessions = r.p.Redis
	}
	authRequired := middleware.AuthRequired(authCfg)

	// 3. Handlers
	attendanceH := handler.NewAttendanceHandler(r.p.AttendanceSvc, r.p.PatientSvc, r.p.Cfg.Ledger.Location())
	patientH := handler.NewPatientHandler(r.p.PatientSvc)
	notificationH := handler.NewNotificationHandler(r.p.NotificationSvc)
	paymentH := handler.NewPaymentHandler(r.p.PaymentSvc)
	statsH := handler.NewStatsHandler(r.p.StatsSvc)

	api := app.Group("/api/v1", authRequired)

	r.registerAttendanceRoutes(api, attendanceH)
	r.registerPatientRoutes(api, patientH)
	r.registerNotificationRoutes(api, notificationH)
	r.registerPaymentRoutes(api, paymentH)
	r.registerStatsRoutes(api, statsH)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
			defer cancel()
			return r.p.DB.Ping(ctx) == nil
		},
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
