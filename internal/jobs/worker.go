// Package jobs runs the background extraction worker.
//
// The worker polls the extraction queue on a fixed interval, claims jobs one
// at a time and hands them to the thesis service. Claiming is atomic at the
// database level, so several workers can share a queue without double
// processing. The worker stops when its context is cancelled.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-juris-backend/internal/domain"
	"github.com/tbourn/go-juris-backend/internal/repo"
)

// Runner processes one claimed extraction job.
type Runner interface {
	RunExtraction(ctx context.Context, job *domain.ExtractionJob) error
}

// Worker polls the queue and dispatches claimed jobs.
type Worker struct {
	DB       *gorm.DB
	Runner   Runner
	Interval time.Duration
}

// NewWorker constructs a Worker with a sane default interval.
func NewWorker(db *gorm.DB, r Runner, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Worker{DB: db, Runner: r, Interval: interval}
}

// Run blocks, draining the queue once per tick until ctx is cancelled. It is
// meant to be launched in its own goroutine from main.
func (w *Worker) Run(ctx context.Context) {
	log.Info().Dur("interval", w.Interval).Msg("extraction worker started")
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.drain(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("extraction worker stopped")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain claims and runs jobs until the queue is empty or ctx is cancelled.
func (w *Worker) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := repo.ClaimNextJob(ctx, w.DB)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Error().Err(err).Msg("job claim failed")
			}
			return
		}
		log.Info().Str("job_id", job.ID).Str("draft_id", job.DraftID).Msg("extraction job claimed")
		if err := w.Runner.RunExtraction(ctx, job); err != nil {
			// RunExtraction records job failures itself; an error here means
			// even that bookkeeping failed.
			log.Error().Err(err).Str("job_id", job.ID).Msg("extraction job errored")
		}
	}
}
