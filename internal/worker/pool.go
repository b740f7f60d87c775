// Package worker runs the background generation workers that drain the
// pending generation queue.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"parley/conversation-api/internal/domain/generation"
	"parley/conversation-api/internal/infrastructure/metrics"
)

// Pool manages multiple background workers.
type Pool struct {
	workers           []*Worker
	generations       generation.Repository
	generationService generation.Service
	workerCount       int
	taskTimeout       time.Duration
	log               zerolog.Logger
	wg                sync.WaitGroup
}

// Config contains worker pool configuration.
type Config struct {
	WorkerCount int
	TaskTimeout time.Duration
}

// NewPool creates a new worker pool.
func NewPool(
	generations generation.Repository,
	generationService generation.Service,
	cfg Config,
	log zerolog.Logger,
) *Pool {
	return &Pool{
		generations:       generations,
		generationService: generationService,
		workerCount:       cfg.WorkerCount,
		taskTimeout:       cfg.TaskTimeout,
		log:               log.With().Str("component", "worker-pool").Logger(),
	}
}

// Start initializes and starts all workers.
func (p *Pool) Start(ctx context.Context) error {
	p.log.Info().Int("worker_count", p.workerCount).Msg("starting worker pool")

	p.workers = make([]*Worker, p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		worker := NewWorker(
			i+1,
			p.generations,
			p.generationService,
			p.taskTimeout,
			p.log,
		)
		p.workers[i] = worker

		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Start(ctx)
		}(worker)
	}

	p.log.Info().Msg("worker pool started")
	return nil
}

// Stop gracefully shuts down all workers. In-flight generations run to
// completion within the shutdown window.
func (p *Pool) Stop() {
	p.log.Info().Msg("stopping worker pool")

	for _, worker := range p.workers {
		worker.Stop()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info().Msg("all workers stopped gracefully")
	case <-time.After(30 * time.Second):
		p.log.Warn().Msg("worker pool shutdown timed out")
	}
}

// observeQueueDepth is called by workers after each poll so the gauge stays
// roughly current without a dedicated sampler.
func observeQueueDepth(depth int64) {
	metrics.QueueDepth.Set(float64(depth))
}
