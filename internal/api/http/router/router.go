package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_scheduler/config"
	"github.com/Alijeyrad/simorq_scheduler/internal/api/http/handler"
	"github.com/Alijeyrad/simorq_scheduler/internal/api/http/middleware"
	"github.com/Alijeyrad/simorq_scheduler/internal/service/feed"
	"github.com/Alijeyrad/simorq_scheduler/internal/service/scheduling"
	"github.com/Alijeyrad/simorq_scheduler/internal/service/weeks"
	pasetotoken "github.com/Alijeyrad/simorq_scheduler/pkg/paseto"
	redispkg "github.com/Alijeyrad/simorq_scheduler/pkg/redis"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg           *config.Config
	Redis         *redis.Client      `optional:"true"`
	Sessions      *redispkg.Sessions `optional:"true"`
	PasetoMgr     *pasetotoken.Manager
	SchedulingSvc scheduling.Service
	Pagers        *weeks.Registry
	FeedSvc       feed.Service
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
	var sessions middleware.SessionChecker
	if r.p.Sessions != nil && r.p.Cfg.Authentication.RequireSession {
		sessions = r.p.Sessions
	}
	authRequired := middleware.AuthRequired(r.p.PasetoMgr, sessions)

	// 3. Handlers
	scheduleH := handler.NewScheduleHandler(r.p.SchedulingSvc, r.p.Pagers, r.p.FeedSvc, handler.ScheduleOptions{
		MaxSlotsPerDay: r.p.Cfg.Scheduler.MaxSlotsPerDay,
		FeedWeeks:      r.p.Cfg.Scheduler.FeedWeeks,
	})

	api := app.Group("/api/v1")
	r.registerScheduleRoutes(api, scheduleH, authRequired)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			if r.p.Redis == nil {
				return true
			}
			ctx, cancel := context.WithTimeout(c.Context(), time.Second)
			defer cancel()
			return r.p.Redis.Ping(ctx).Err() == nil
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
