// Package timing derives the target slide timeline for the translated
// narration: each speech segment is mapped to the slide shown at the matching
// moment of the source video, then consecutive same-slide segments collapse
// into the timeline the assembler renders.
package timing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"slidesync/internal/config"
	"slidesync/internal/logging"
	"slidesync/internal/manifest"
	"slidesync/internal/queue"
	"slidesync/internal/services"
	"slidesync/internal/stage"
	"slidesync/internal/timeline"
)

const (
	progressStageMapping = "Mapping timeline"
	// TargetTimingFileName is the derived target timeline inside the job
	// work dir.
	TargetTimingFileName = "timing_target.json"
)

// Retimer integrates timeline derivation with the workflow manager.
type Retimer struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewRetimer constructs the timeline mapping stage.
func NewRetimer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Retimer {
	return &Retimer{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "timing"),
	}
}

// SetLogger allows the workflow manager to route stage logs into the
// job-scoped log.
func (r *Retimer) SetLogger(logger *slog.Logger) {
	if r == nil {
		return
	}
	r.logger = logging.NewComponentLogger(logger, "timing")
}

// Prepare primes progress fields before executing the stage.
func (r *Retimer) Prepare(ctx context.Context, job *queue.Job) error {
	if r == nil || r.cfg == nil || r.store == nil {
		return services.Wrap(services.ErrConfiguration, "timing", "prepare", "Timing stage is not configured", nil)
	}
	job.InitProgress(progressStageMapping, "Loading detected timeline")
	return r.store.Update(ctx, job)
}

// Execute maps the speech manifest onto the detected timeline and persists
// the derived target timeline.
func (r *Retimer) Execute(ctx context.Context, job *queue.Job) error {
	if job == nil {
		return services.Wrap(services.ErrValidation, "timing", "execute", "Queue job is nil", nil)
	}
	logger := logging.WithContext(ctx, r.logger)

	detected, err := stage.LoadTiming(job.TimingPath)
	if err != nil {
		return err
	}
	speech, err := stage.LoadSpeechManifest(job.ManifestPath)
	if err != nil {
		return err
	}
	if len(speech.Segments) == 0 {
		return services.Wrap(services.ErrValidation, "timing", "execute",
			"Speech manifest has no segments", nil)
	}

	spans := speech.Intervals()
	labels := timeline.MapMidpoints(spans, detected.Segments)
	target := timeline.DeriveTarget(spans, labels, speech.Duration)

	unmatched := 0
	for _, label := range labels {
		if !label.Valid {
			unmatched++
		}
	}
	if unmatched > 0 {
		logger.Warn("segments without a slide match",
			logging.Int("unmatched", unmatched),
			logging.Int("total", len(labels)),
		)
	}

	targetPath := filepath.Join(job.WorkDir, TargetTimingFileName)
	timing := manifest.NewTiming(job.VideoPath, target, speech.Duration, "derived")
	if err := timing.Save(targetPath); err != nil {
		return services.Wrap(services.ErrTransient, "timing", "save timing", "Cannot write target timing file", err)
	}

	logger.Info("target timeline derived",
		logging.Int("speech_segments", len(speech.Segments)),
		logging.Int("target_segments", len(target)),
		logging.Float64("duration", speech.Duration),
	)

	job.TargetTimingPath = targetPath
	job.SegmentCount = len(speech.Segments)
	job.SetProgressComplete(progressStageMapping, fmt.Sprintf("Derived %d segments", len(target)))
	return r.store.Update(ctx, job)
}

// HealthCheck reports stage readiness; mapping is pure computation so only
// wiring can be wrong.
func (r *Retimer) HealthCheck(ctx context.Context) stage.Health {
	if r == nil || r.cfg == nil || r.store == nil {
		return stage.Unhealthy("timing", "stage not configured")
	}
	return stage.Healthy("timing")
}
