package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"
	"golang.org/x/time/rate"

	"github.com/Alijeyrad/clinic_ledger/config"
	"github.com/Alijeyrad/clinic_ledger/internal/service/stats"
	"github.com/Alijeyrad/clinic_ledger/pkg/email"
	"github.com/Alijeyrad/clinic_ledger/pkg/events"
)

const workerTimeout = 30 * time.Second

var errThrottled = errors.New("milestone mail throttled")

// WorkerModule registers all NATS event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc       fx.Lifecycle
	NC       *nats.Conn `optional:"true"`
	Cfg      *config.Config
	StatsSvc stats.Service
	Email    *email.Client
}

func RegisterWorkers(p WorkerParams) {
	if p.NC == nil {
		return
	}

	var subs []*nats.Subscription
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sub, err := p.NC.Subscribe(events.SubjectAll, statsInvalidator(p.StatsSvc))
			if err != nil {
				return fmt.Errorf("stats_worker: subscribe: %w", err)
			}
			subs = append(subs, sub)

			mailer := newMilestoneMailer(p.Email, p.Cfg.Ledger)
			if mailer == nil {
				slog.Info("milestone_mail_worker: disabled")
				return nil
			}
			sub, err = p.NC.Subscribe(events.SubjectMilestoneReached, func(msg *nats.Msg) {
				ctx, cancel := context.WithTimeout(context.Background(), workerTimeout)
				defer cancel()
				if err := mailer.handle(ctx, msg.Data); err != nil {
					slog.Warn("milestone_mail_worker: send failed", "err", err)
				}
			})
			if err != nil {
				return fmt.Errorf("milestone_mail_worker: subscribe: %w", err)
			}
			subs = append(subs, sub)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Drain handled by ProvideNatsClient
			for _, s := range subs {
				if err := s.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
					slog.Debug("worker unsubscribe failed", "subject", s.Subject, "err", err)
				}
			}
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// stats_worker
// ---------------------------------------------------------------------------

// statsInvalidator drops the cached dashboard on every ledger change.
func statsInvalidator(svc stats.Service) nats.MsgHandler {
	return func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), workerTimeout)
		defer cancel()
		if err := svc.Invalidate(ctx); err != nil {
			slog.Warn("stats_worker: invalidate failed", "subject", msg.Subject, "err", err)
		}
	}
}

// statsInvalidatingPublisher drops the cached dashboard on every ledger
// change without leaving the process.
type statsInvalidatingPublisher struct {
	svc stats.Service
}

func (p statsInvalidatingPublisher) Publish(ctx context.Context, subject string, _ any) error {
	if err := p.svc.Invalidate(ctx); err != nil {
		return fmt.Errorf("%s: %w", subject, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// milestone_mail_worker
// ---------------------------------------------------------------------------

type milestoneMailer struct {
	client  *email.Client
	to      []string
	limiter *rate.Limiter
}

// newMilestoneMailer returns nil when mail is off or has no recipients.
func newMilestoneMailer(client *email.Client, cfg config.LedgerConfig) *milestoneMailer {
	if client == nil || !client.Enabled() {
		return nil
	}
	var to []string
	for _, addr := range strings.Split(cfg.MilestoneEmailTo, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return nil
	}

	perMin := cfg.MilestoneEmailPerMin
	if perMin <= 0 {
		perMin = 10
	}
	return &milestoneMailer{
		client:  client,
		to:      to,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin),
	}
}

func (m *milestoneMailer) handle(ctx context.Context, data []byte) error {
	var ev events.MilestoneReached
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode milestone: %w", err)
	}
	if !m.limiter.Allow() {
		return errThrottled
	}

	msg, err := email.BuildMilestoneEmail(m.to, email.MilestoneData{
		AppName:     m.client.AppName(),
		PatientName: ev.PatientName,
		Count:       ev.Count,
		TotalBill:   ev.TotalBill.StringFixed(2),
		Date:        ev.Date,
	})
	if err != nil {
		return err
	}
	return m.client.Send(ctx, msg)
}
