package stitching

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"slidesync/internal/config"
	"slidesync/internal/deps"
	"slidesync/internal/fileutil"
	"slidesync/internal/logging"
	"slidesync/internal/media/ffmpeg"
	"slidesync/internal/queue"
	"slidesync/internal/services"
	"slidesync/internal/stage"
)

const (
	progressStageAssembling = "Assembling video"
	progressPercentRendered = 60.0
	progressPercentStitched = 85.0
	// SlidesOnlyFileName is the stitched silent video inside the job work dir.
	SlidesOnlyFileName = "slides_only.mp4"
)

// Assembler integrates video assembly with the workflow manager: it renders
// one clip per target segment, stitches them with crossfades, and muxes the
// dubbed audio track underneath.
type Assembler struct {
	store    *queue.Store
	cfg      *config.Config
	engine   *ffmpeg.Engine
	stitcher *Stitcher
	logger   *slog.Logger
}

// NewAssembler constructs the assembly stage.
func NewAssembler(cfg *config.Config, store *queue.Store, engine *ffmpeg.Engine, logger *slog.Logger) *Assembler {
	return &Assembler{
		cfg:      cfg,
		store:    store,
		engine:   engine,
		stitcher: New(engine, cfg, logger),
		logger:   logging.NewComponentLogger(logger, "assemble"),
	}
}

// SetLogger allows the workflow manager to route stage logs into the
// job-scoped log.
func (a *Assembler) SetLogger(logger *slog.Logger) {
	if a == nil {
		return
	}
	a.logger = logging.NewComponentLogger(logger, "assemble")
}

// Prepare primes progress fields and ensures the output directory exists.
func (a *Assembler) Prepare(ctx context.Context, job *queue.Job) error {
	if a == nil || a.cfg == nil || a.store == nil {
		return services.Wrap(services.ErrConfiguration, "assemble", "prepare", "Assembly stage is not configured", nil)
	}
	if err := os.MkdirAll(a.cfg.Paths.OutputDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "assemble", "prepare", "Cannot create output directory", err)
	}
	job.InitProgress(progressStageAssembling, "Rendering slide clips")
	return a.store.Update(ctx, job)
}

// Execute renders, stitches, and muxes the final video.
func (a *Assembler) Execute(ctx context.Context, job *queue.Job) error {
	if job == nil {
		return services.Wrap(services.ErrValidation, "assemble", "execute", "Queue job is nil", nil)
	}
	logger := logging.WithContext(ctx, a.logger)

	target, err := stage.LoadTiming(job.TargetTimingPath)
	if err != nil {
		return err
	}
	if !fileutil.NonEmpty(job.MixedAudioPath) {
		return services.Wrap(services.ErrValidation, "assemble", "execute",
			"Mixed audio track missing; rerun the mix stage", nil)
	}

	clips, err := a.stitcher.RenderSegments(ctx, target.Segments, job.SlidesDir, job.WorkDir)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "assemble", "render segments", "Clip rendering failed", err)
	}
	job.SetProgress(progressStageAssembling,
		fmt.Sprintf("Stitching %d clips", len(clips)), progressPercentRendered)
	if err := a.store.Update(ctx, job); err != nil {
		return err
	}

	slidesOnly := filepath.Join(job.WorkDir, SlidesOnlyFileName)
	if fileutil.NonEmpty(slidesOnly) {
		logger.Info("stitched video already exists, skipping", logging.String("path", slidesOnly))
	} else if err := a.stitcher.Stitch(ctx, clips, slidesOnly); err != nil {
		return services.Wrap(services.ErrExternalTool, "assemble", "stitch", "Video stitching failed", err)
	}

	job.SetProgress(progressStageAssembling, "Muxing dubbed audio", progressPercentStitched)
	if err := a.store.Update(ctx, job); err != nil {
		return err
	}

	staged := filepath.Join(job.WorkDir, outputFileName(job))
	if fileutil.NonEmpty(staged) {
		logger.Info("muxed output already exists, reusing", logging.String("path", staged))
	} else if err := a.engine.Mux(ctx, slidesOnly, job.MixedAudioPath, staged); err != nil {
		return services.Wrap(services.ErrExternalTool, "assemble", "mux", "Final mux failed", err)
	}

	duration, size, err := a.stitcher.VerifyOutput(ctx, staged, target.Duration)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "assemble", "verify", "Cannot verify final output", err)
	}

	finalPath := filepath.Join(a.cfg.Paths.OutputDir, outputFileName(job))
	if err := fileutil.CopyFileVerified(staged, finalPath); err != nil {
		return services.Wrap(services.ErrTransient, "assemble", "place output",
			"Cannot place final video in the output directory", err)
	}
	logger.Info("final video assembled",
		logging.String("path", finalPath),
		logging.Float64("duration", duration),
		logging.Int64("size_bytes", size),
	)

	job.FinalFile = finalPath
	job.SetProgressComplete(progressStageAssembling, "Final video ready")
	return a.store.Update(ctx, job)
}

// HealthCheck verifies the external tools assembly depends on.
func (a *Assembler) HealthCheck(ctx context.Context) stage.Health {
	if a == nil || a.cfg == nil || a.store == nil {
		return stage.Unhealthy("assemble", "stage not configured")
	}
	if err := deps.Verify(a.cfg); err != nil {
		return stage.Unhealthy("assemble", err.Error())
	}
	return stage.Healthy("assemble")
}

// outputFileName derives the final filename from the job title or the source
// video basename.
func outputFileName(job *queue.Job) string {
	base := strings.TrimSpace(job.Title)
	if base == "" {
		base = strings.TrimSuffix(filepath.Base(job.VideoPath), filepath.Ext(job.VideoPath))
	}
	return base + "_dubbed.mp4"
}
