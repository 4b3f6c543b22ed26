package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docsift/internal/store"
)

// Worker processes a single document job.
type Worker struct {
	analyzer Analyzer
	store    RecordStore
	log      *slog.Logger
}

func NewWorker(analyzer Analyzer, store RecordStore, log *slog.Logger) *Worker {
	return &Worker{
		analyzer: analyzer,
		store:    store,
		log:      log,
	}
}

// Process runs dedup, analysis and storage for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	defer job.releaseData()

	// Phase 1: Dedup check
	if w.store != nil {
		existing, err := w.store.GetByHash(ctx, job.ContentHash)
		switch {
		case err == nil:
			log.Info("duplicate document, returning stored record", "record_id", existing.ID)
			job.SetRecord(existing)
			job.SetStatus(StatusDuplicate, "dedup")
			return
		case !errors.Is(err, store.ErrNotFound):
			log.Warn("dedup check failed, proceeding", "error", err)
		}
	}

	// Phase 2: Analyze
	job.SetStatus(StatusAnalyzing, "analyzing")
	rec, err := w.analyzer.AnalyzeReader(ctx, bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("analysis failed", "error", err)
		job.AddError(fmt.Sprintf("analyze: %s", err))
		job.SetStatus(StatusFailed, "analyzing")
		return
	}
	rec.ID = NewID()
	rec.ContentHash = job.ContentHash
	if rec.Source == "" {
		rec.Source = job.Filename
	}
	job.SetRecord(rec)
	log.Info("analysis complete", "record_id", rec.ID, "words", rec.TextLength, "keywords", len(rec.Keywords))

	// Phase 3: Store
	if w.store == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}
	job.SetStatus(StatusStoring, "storing")
	if err := w.store.Save(ctx, rec); err != nil {
		log.Error("store failed", "record_id", rec.ID, "error", err)
		job.AddError(fmt.Sprintf("store %s: %s", rec.ID, err))
		job.SetStatus(StatusPartial, "storing")
		return
	}
	job.SetStatus(StatusCompleted, "done")
}
