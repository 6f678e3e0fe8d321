// Package worker bootstraps the River job queue and the periodic invite
// code sweep.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

// sweepInterval is how often expired invite codes are purged.
const sweepInterval = time.Hour

// Sweeper deletes expired invite codes. invite.Service satisfies it.
type Sweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// InviteSweepArgs is the periodic job that purges expired invite codes.
type InviteSweepArgs struct{}

// Kind returns the unique job type identifier for invite sweep jobs.
func (InviteSweepArgs) Kind() string { return "invite_sweep" }

type inviteSweepWorker struct {
	river.WorkerDefaults[InviteSweepArgs]
	sweeper Sweeper
	log     *slog.Logger
}

func (w *inviteSweepWorker) Work(ctx context.Context, _ *river.Job[InviteSweepArgs]) error {
	deleted, err := w.sweeper.DeleteExpired(ctx, time.Now())
	if err != nil {
		return err
	}
	if deleted > 0 {
		w.log.Info("expired invite codes purged", "count", deleted)
	}
	return nil
}

// Queue is the interface exposed by both the real River client and tickerQueue.
type Queue interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Client wraps river.Client and exposes a Start/Stop lifecycle.
type Client struct {
	client *river.Client[pgx.Tx]
	log    *slog.Logger
}

// Start begins processing queued jobs.
func (c *Client) Start(ctx context.Context) error { return c.client.Start(ctx) }

// Stop gracefully shuts down the worker client.
func (c *Client) Stop(ctx context.Context) error { return c.client.Stop(ctx) }

// tickerQueue runs the invite sweep on a plain ticker when River is
// unavailable (DB_DRIVER=sqlite).
type tickerQueue struct {
	sweeper Sweeper
	log     *slog.Logger
	cancel  context.CancelFunc
	done    chan struct{}
}

func (q *tickerQueue) Start(ctx context.Context) error {
	q.log.Info("job queue running in ticker mode (sqlite driver, River requires postgres)")
	ctx, q.cancel = context.WithCancel(context.WithoutCancel(ctx))
	q.done = make(chan struct{})
	go func() {
		defer close(q.done)
		t := time.NewTicker(sweepInterval)
		defer t.Stop()
		for {
			if deleted, err := q.sweeper.DeleteExpired(ctx, time.Now()); err != nil {
				q.log.Warn("invite sweep failed", "error", err)
			} else if deleted > 0 {
				q.log.Info("expired invite codes purged", "count", deleted)
			}
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()
	return nil
}

func (q *tickerQueue) Stop(ctx context.Context) error {
	q.cancel()
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// New creates a queue implementation appropriate for the given driver.
//   - "postgres": returns a River client with the invite sweep registered as
//     a periodic job.
//   - anything else: returns a ticker-based queue running the same sweep.
//
// pool may be nil when driver != "postgres".
func New(ctx context.Context, pool *pgxpool.Pool, driver string, concurrency int, sweeper Sweeper, log *slog.Logger) (Queue, error) {
	if driver != "postgres" {
		return &tickerQueue{sweeper: sweeper, log: log}, nil
	}
	workers := river.NewWorkers()
	river.AddWorker(workers, &inviteSweepWorker{sweeper: sweeper, log: log})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: concurrency},
		},
		Workers: workers,
		Logger:  log,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(sweepInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return InviteSweepArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create river client: %w", err)
	}
	return &Client{client: client, log: log}, nil
}

// MigrateRiver runs River's built-in schema migrations against the given pool.
// Only call this when DB_DRIVER=postgres.
func MigrateRiver(ctx context.Context, db *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(db), nil)
	if err != nil {
		return fmt.Errorf("create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("run river migrations: %w", err)
	}
	return nil
}
