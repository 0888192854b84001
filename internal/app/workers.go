package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_scheduler/config"
	"github.com/Alijeyrad/simorq_scheduler/internal/service/scheduling"
	"github.com/Alijeyrad/simorq_scheduler/pkg/events"
)

// WorkerModule registers the NATS audit subscriber and the orphan sweep.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc  fx.Lifecycle
	Cfg *config.Config
	NC  *nats.Conn `optional:"true"`
	Svc scheduling.Service
}

func RegisterWorkers(p WorkerParams) {
	var sub *nats.Subscription
	var sweeper *cron.Cron

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if p.NC != nil {
				s, err := startAuditWorker(p.NC)
				if err != nil {
					return err
				}
				sub = s
			}

			c, err := startOrphanSweep(p.Cfg.Scheduler.OrphanSweepCron, p.Svc)
			if err != nil {
				return err
			}
			sweeper = c
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if sweeper != nil {
				<-sweeper.Stop().Done()
			}
			if sub != nil {
				// Drain handled by ProvideNatsClient
				return sub.Unsubscribe()
			}
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// audit_worker
// ---------------------------------------------------------------------------

// startAuditWorker logs every scheduler event. Subjects look like
// scheduler.<entity>.<action>.<ownerID> with the entity id as payload.
func startAuditWorker(nc *nats.Conn) (*nats.Subscription, error) {
	return nc.Subscribe(events.SubjectPrefix+".>", func(msg *nats.Msg) {
		parts := strings.Split(msg.Subject, ".")
		if len(parts) < 4 {
			slog.Warn("audit_worker: unexpected subject", "subject", msg.Subject)
			return
		}
		slog.Info("audit_worker: schedule changed",
			"event", parts[1]+"."+parts[2],
			"owner_id", parts[3],
			"entity_id", strings.TrimSpace(string(msg.Data)),
		)
	})
}

// ---------------------------------------------------------------------------
// orphan_sweep
// ---------------------------------------------------------------------------

// startOrphanSweep schedules SweepOrphans on spec. An empty spec disables it
// and returns a nil cron.
func startOrphanSweep(spec string, svc scheduling.Service) (*cron.Cron, error) {
	if spec == "" {
		return nil, nil
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { runOrphanSweep(svc) }); err != nil {
		return nil, err
	}
	c.Start()
	slog.Info("orphan sweep scheduled", "cron", spec)
	return c, nil
}

func runOrphanSweep(svc scheduling.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := svc.SweepOrphans(ctx)
	if err != nil {
		slog.Error("orphan_sweep: failed", "err", err)
		return
	}
	if n > 0 {
		slog.Info("orphan_sweep: removed exceptions", "count", n)
	}
}
