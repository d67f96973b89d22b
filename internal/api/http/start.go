package http

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/fx"

	"github.com/Alijeyrad/clinic_ledger/config"
	"github.com/Alijeyrad/clinic_ledger/internal/api/http/router"
	"github.com/Alijeyrad/clinic_ledger/internal/app"
)

// Start builds the application graph and blocks until SIGINT or SIGTERM.
func Start(cfg *config.Config, timeout time.Duration, opts ...fx.Option) {
	fx.New(append([]fx.Option{
		fx.Supply(cfg),
		app.InfraModule,
		app.ServiceModule,
		app.WorkerModule,
		router.Module,
		Module,

		// NewServer only runs, and registers its OnStart hook, when something
		// asks for the app.
		fx.Invoke(func(*fiber.App) {}),

		fx.StopTimeout(timeout),
	}, opts...)...).Run()
}
