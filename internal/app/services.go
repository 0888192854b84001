package app

import (
	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_scheduler/config"
	"github.com/Alijeyrad/simorq_scheduler/internal/service/feed"
	"github.com/Alijeyrad/simorq_scheduler/internal/service/scheduling"
	"github.com/Alijeyrad/simorq_scheduler/internal/service/weeks"
	"github.com/Alijeyrad/simorq_scheduler/internal/store"
	"github.com/Alijeyrad/simorq_scheduler/pkg/events"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideSchedulingService,
		ProvidePagerRegistry,
		ProvideFeedService,
	),
)

func ProvideSchedulingService(db store.Store, emitter *events.Emitter) scheduling.Service {
	return scheduling.New(db, emitter)
}

func ProvidePagerRegistry(svc scheduling.Service, cfg *config.Config) (*weeks.Registry, error) {
	return weeks.NewRegistry(svc, cfg.Scheduler.PagerRegistrySize, cfg.Scheduler.WeekCacheSize)
}

func ProvideFeedService(db store.Store) feed.Service {
	return feed.New(db)
}
