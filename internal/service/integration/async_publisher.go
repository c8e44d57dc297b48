package integration

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/enrollment-service/internal/models"
	"github.com/RubachokBoss/enrollment-service/internal/worker"
)

var ErrPublishQueueFull = errors.New("event publish queue is full")

// asyncPublisher hands events to a worker pool so request handling never
// waits on the broker. Delivery failures are logged by the workers.
type asyncPublisher struct {
	next   EventPublisher
	pool   *worker.Pool
	logger zerolog.Logger
}

func NewAsyncPublisher(next EventPublisher, workers, queueSize int, logger zerolog.Logger) EventPublisher {
	pool := worker.NewPool(workers, queueSize, time.Second, logger)
	pool.Start()

	return &asyncPublisher{
		next:   next,
		pool:   pool,
		logger: logger,
	}
}

func (p *asyncPublisher) Publish(ctx context.Context, event *models.EnrollmentEvent) error {
	ev := *event
	// The request context ends with the response; delivery must outlive it.
	detached := context.WithoutCancel(ctx)

	ok := p.pool.Submit(func() {
		if err := p.next.Publish(detached, &ev); err != nil {
			p.logger.Error().
				Err(err).
				Str("event", ev.Type).
				Str("enrollment_id", ev.EnrollmentID).
				Msg("Failed to deliver enrollment event")
		}
	})
	if !ok {
		return ErrPublishQueueFull
	}

	return nil
}

// Close delivers everything already queued, then closes the wrapped publisher.
func (p *asyncPublisher) Close() error {
	p.pool.Stop()

	stats := p.pool.Stats()
	if stats.Dropped > 0 {
		p.logger.Warn().Int("dropped", stats.Dropped).Msg("Enrollment events dropped while the queue was full")
	}

	return p.next.Close()
}
