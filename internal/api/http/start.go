package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Alijeyrad/simorq_scheduler/config"
	"github.com/Alijeyrad/simorq_scheduler/internal/api/http/router"
	"github.com/Alijeyrad/simorq_scheduler/internal/app"
)

// Start builds the dependency graph and serves until SIGINT or SIGTERM. A
// graph that cannot be built is returned as an error before anything starts.
func Start(cfg *config.Config, timeout time.Duration) error {
	app := fx.New(
		fx.Supply(cfg),
		app.InfraModule,
		app.ServiceModule,
		app.WorkerModule,
		router.Module,
		Module,

		// NewServer registers the listen hook, so the app must be requested.
		fx.Invoke(func(*fiber.App) {}),

		fx.StopTimeout(timeout),
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
	)
	if err := app.Err(); err != nil {
		return fmt.Errorf("build server: %w", err)
	}
	app.Run()
	return nil
}
