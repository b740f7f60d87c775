package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"parley/conversation-api/internal/domain/generation"
	"parley/conversation-api/internal/infrastructure/metrics"
)

// Worker claims pending generations and drives them to completion.
type Worker struct {
	id                int
	generations       generation.Repository
	generationService generation.Service
	taskTimeout       time.Duration
	log               zerolog.Logger
	stopChan          chan struct{}
}

// NewWorker creates a new background worker.
func NewWorker(
	id int,
	generations generation.Repository,
	generationService generation.Service,
	taskTimeout time.Duration,
	log zerolog.Logger,
) *Worker {
	return &Worker{
		id:                id,
		generations:       generations,
		generationService: generationService,
		taskTimeout:       taskTimeout,
		log:               log.With().Int("worker_id", id).Str("component", "worker").Logger(),
		stopChan:          make(chan struct{}),
	}
}

// Start begins claiming generations from the queue.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info().Msg("worker started")

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker stopped by context")
			return
		case <-w.stopChan:
			w.log.Info().Msg("worker stopped")
			return
		case <-ticker.C:
			w.processNext(ctx)
		}
	}
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	close(w.stopChan)
}

func (w *Worker) processNext(ctx context.Context) {
	gen, err := w.generations.ClaimNextPending(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to claim generation")
		return
	}
	if gen == nil {
		return
	}

	if depth, err := w.generations.PendingCount(ctx); err == nil {
		observeQueueDepth(depth)
	}

	w.log.Info().
		Str("generation_id", gen.PublicID).
		Str("model", gen.Model).
		Msg("processing generation")

	start := time.Now()
	taskCtx, cancel := context.WithTimeout(ctx, w.taskTimeout)
	defer cancel()

	if err := w.generationService.ExecuteBackground(taskCtx, gen.PublicID); err != nil {
		metrics.GenerationsTotal.WithLabelValues("failed").Inc()
		metrics.GenerationDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())
		w.log.Error().Err(err).Str("generation_id", gen.PublicID).Msg("generation execution failed")
		// The claim moved the row to streaming; without this the
		// conversation would report a run in progress forever.
		if markErr := w.generations.MarkFailed(ctx, gen.PublicID, "internal_error", err.Error()); markErr != nil {
			w.log.Error().Err(markErr).Str("generation_id", gen.PublicID).Msg("failed to mark generation failed")
		}
		return
	}

	metrics.GenerationsTotal.WithLabelValues("completed").Inc()
	metrics.GenerationDuration.WithLabelValues("completed").Observe(time.Since(start).Seconds())
	w.log.Info().Str("generation_id", gen.PublicID).Msg("generation processed")
}
