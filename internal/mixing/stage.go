package mixing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"slidesync/internal/config"
	"slidesync/internal/deps"
	"slidesync/internal/logging"
	"slidesync/internal/media/ffmpeg"
	"slidesync/internal/queue"
	"slidesync/internal/reconcile"
	"slidesync/internal/services"
	"slidesync/internal/stage"
)

const (
	progressStageMixing     = "Mixing audio"
	progressPercentPrepared = 50.0
	// MixedAudioFileName is the assembled narration track inside the job
	// work dir.
	MixedAudioFileName = "dubbed_audio.wav"
)

// Dubber integrates audio reconciliation and mixing with the workflow
// manager: every speech segment is fitted to its slot, then all segments are
// placed onto a silent base track.
type Dubber struct {
	store      *queue.Store
	cfg        *config.Config
	reconciler *reconcile.Reconciler
	mixer      *Mixer
	logger     *slog.Logger
}

// NewDubber constructs the mixing stage.
func NewDubber(cfg *config.Config, store *queue.Store, engine *ffmpeg.Engine, logger *slog.Logger) *Dubber {
	return &Dubber{
		cfg:        cfg,
		store:      store,
		reconciler: reconcile.New(engine, cfg, logger),
		mixer:      New(engine, cfg, logger),
		logger:     logging.NewComponentLogger(logger, "mix"),
	}
}

// SetLogger allows the workflow manager to route stage logs into the
// job-scoped log.
func (d *Dubber) SetLogger(logger *slog.Logger) {
	if d == nil {
		return
	}
	d.logger = logging.NewComponentLogger(logger, "mix")
}

// Prepare primes progress fields before executing the stage.
func (d *Dubber) Prepare(ctx context.Context, job *queue.Job) error {
	if d == nil || d.cfg == nil || d.store == nil {
		return services.Wrap(services.ErrConfiguration, "mix", "prepare", "Mixing stage is not configured", nil)
	}
	job.InitProgress(progressStageMixing, "Reconciling segment durations")
	return d.store.Update(ctx, job)
}

// Execute reconciles and mixes the dubbed audio track.
func (d *Dubber) Execute(ctx context.Context, job *queue.Job) error {
	if job == nil {
		return services.Wrap(services.ErrValidation, "mix", "execute", "Queue job is nil", nil)
	}
	logger := logging.WithContext(ctx, d.logger)

	speech, err := stage.LoadSpeechManifest(job.ManifestPath)
	if err != nil {
		return err
	}

	manifestDir := filepath.Dir(job.ManifestPath)
	result, err := d.reconciler.Prepare(ctx, speech.Segments, manifestDir, job.WorkDir)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "mix", "reconcile", "Segment reconciliation failed", err)
	}

	logger.Info("segments reconciled",
		logging.Int("total", len(speech.Segments)),
		logging.Int("sped_up", result.SpedUp),
		logging.Int("truncated", result.Truncated),
		logging.Int("skipped", result.Skipped),
	)

	job.SetProgress(progressStageMixing,
		fmt.Sprintf("Placing %d segments", len(result.Prepared)), progressPercentPrepared)
	if err := d.store.Update(ctx, job); err != nil {
		return err
	}

	placements := make([]Placement, len(result.Prepared))
	for i, prepared := range result.Prepared {
		placements[i] = Placement{Start: prepared.Segment.Start, Path: prepared.Path}
	}

	mixedPath := filepath.Join(job.WorkDir, MixedAudioFileName)
	if err := d.mixer.Mix(ctx, placements, speech.Duration, job.WorkDir, mixedPath); err != nil {
		return services.Wrap(services.ErrExternalTool, "mix", "mix", "Audio mixing failed", err)
	}

	job.MixedAudioPath = mixedPath
	job.SegmentCount = len(speech.Segments)
	job.TruncatedCount = result.Truncated
	job.SetProgressComplete(progressStageMixing,
		fmt.Sprintf("Mixed %d segments", len(result.Prepared)))
	return d.store.Update(ctx, job)
}

// HealthCheck verifies the external tools mixing depends on.
func (d *Dubber) HealthCheck(ctx context.Context) stage.Health {
	if d == nil || d.cfg == nil || d.store == nil {
		return stage.Unhealthy("mix", "stage not configured")
	}
	if err := deps.Verify(d.cfg); err != nil {
		return stage.Unhealthy("mix", err.Error())
	}
	return stage.Healthy("mix")
}
