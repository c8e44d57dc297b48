package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type Task func()

// Pool runs submitted tasks on a fixed set of goroutines. A task that panics
// is logged and does not take its worker down.
type Pool struct {
	tasks         chan Task
	wg            sync.WaitGroup
	workers       int
	submitTimeout time.Duration
	logger        zerolog.Logger

	// mu guards stopped and the close of tasks against concurrent sends.
	mu      sync.RWMutex
	stopped bool

	busy    atomic.Int64
	dropped atomic.Int64
}

func NewPool(workers, queueSize int, submitTimeout time.Duration, logger zerolog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	return &Pool{
		tasks:         make(chan Task, queueSize),
		workers:       workers,
		submitTimeout: submitTimeout,
		logger:        logger,
	}
}

func (p *Pool) Start() {
	p.logger.Info().Int("workers", p.workers).Int("queue_capacity", cap(p.tasks)).Msg("Starting worker pool")

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop refuses new tasks and waits until the queued ones have run.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info().Msg("Worker pool stopped")
}

// Submit queues a task. When the queue stays full for submitTimeout, or the
// pool is stopped, the task is dropped and Submit reports false.
func (p *Pool) Submit(task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		p.logger.Warn().Msg("Worker pool is stopped, dropping task")
		return false
	}

	select {
	case p.tasks <- task:
		return true
	default:
	}

	p.logger.Warn().Msg("Worker pool task queue is full")

	timer := time.NewTimer(p.submitTimeout)
	defer timer.Stop()

	select {
	case p.tasks <- task:
		return true
	case <-timer.C:
		p.logger.Error().Msg("Failed to submit task to worker pool (timeout)")
		p.dropped.Add(1)
		return false
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		p.busy.Add(1)
		p.run(id, task)
		p.busy.Add(-1)
	}

	p.logger.Debug().Int("worker_id", id).Msg("Worker stopped")
}

func (p *Pool) run(id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Int("worker_id", id).
				Interface("panic", r).
				Msg("Worker recovered from panic")
		}
	}()

	task()
}

type Stats struct {
	Workers       int `json:"workers"`
	Busy          int `json:"busy"`
	QueueLength   int `json:"queue_length"`
	QueueCapacity int `json:"queue_capacity"`
	Dropped       int `json:"dropped"`
}

func (p *Pool) Stats() Stats {
	return Stats{
		Workers:       p.workers,
		Busy:          int(p.busy.Load()),
		QueueLength:   len(p.tasks),
		QueueCapacity: cap(p.tasks),
		Dropped:       int(p.dropped.Load()),
	}
}
