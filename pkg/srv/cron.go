package srv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sandevgo/brotherbot/pkg/log"
)

const cronStopTimeout = 10 * time.Second

type Job func(ctx context.Context)

// Cron runs periodic jobs as a Service. Jobs receive the context the
// service was started with.
type Cron struct {
	cron *cron.Cron

	mu  sync.RWMutex
	ctx context.Context
}

func NewCron(ctx context.Context) *Cron {
	logger := log.NewCronLoggerFromCtx(ctx)
	return &Cron{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx: ctx,
	}
}

// Register adds a job. spec accepts descriptors such as "@every 5s".
func (c *Cron) Register(name, spec string, job Job) error {
	_, err := c.cron.AddFunc(spec, func() {
		ctx := c.context()
		log.FromCtx(ctx).Debug().Str("job", name).Msg("running scheduled job")
		job(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s (%q): %w", name, spec, err)
	}
	return nil
}

func (c *Cron) Start(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	log.FromCtx(ctx).Info().Int("jobs", len(c.cron.Entries())).Msg("starting scheduler")
	c.cron.Start()
	return nil
}

func (c *Cron) Shutdown(ctx context.Context) error {
	stopped := c.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-time.After(cronStopTimeout):
		return fmt.Errorf("scheduler jobs still running after %s", cronStopTimeout)
	}
}

func (c *Cron) context() context.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ctx
}
