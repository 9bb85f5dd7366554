package stitching

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"slidesync/internal/config"
	"slidesync/internal/fileutil"
	"slidesync/internal/logging"
	"slidesync/internal/media/ffmpeg"
	"slidesync/internal/slides"
	"slidesync/internal/timeline"
)

// Stitcher renders slide clips from a target timeline and joins them into a
// single silent-audio video track.
type Stitcher struct {
	engine     *ffmpeg.Engine
	cfg        *config.Config
	transition float64
	tolerance  float64
	logger     *slog.Logger
}

// New constructs a Stitcher.
func New(engine *ffmpeg.Engine, cfg *config.Config, logger *slog.Logger) *Stitcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stitcher{
		engine:     engine,
		cfg:        cfg,
		transition: cfg.Video.TransitionSeconds,
		tolerance:  cfg.Video.DurationToleranceSeconds,
		logger:     logger,
	}
}

// RenderSegments produces one clip per target segment under workDir. Segments
// without a slide (null label, or a missing image file) render as black.
// Existing non-empty clips are reused so an interrupted run resumes where it
// stopped.
func (s *Stitcher) RenderSegments(ctx context.Context, segments []timeline.Segment, slidesDir, workDir string) ([]string, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments to render")
	}

	clips := make([]string, 0, len(segments))
	for i, segment := range segments {
		clipPath := filepath.Join(workDir, fmt.Sprintf("seg_%04d.mp4", i))
		clips = append(clips, clipPath)
		if fileutil.NonEmpty(clipPath) {
			continue
		}

		imagePath := ""
		if segment.Label.Valid {
			candidate := slides.ImagePath(slidesDir, segment.Label.Number)
			if fileutil.Exists(candidate) {
				imagePath = candidate
			} else {
				s.logger.Warn("slide image missing, rendering black",
					logging.Int("slide", segment.Label.Number),
					logging.String("path", candidate),
				)
			}
		}

		if err := s.engine.RenderSlideClip(ctx, imagePath, "", segment.Duration(), clipPath); err != nil {
			return nil, fmt.Errorf("render segment %d: %w", i, err)
		}
	}
	return clips, nil
}

// Stitch joins clips into outputPath with crossfades. A single clip is
// re-encoded as-is. When the crossfade graph fails the clips are joined with
// hard cuts instead, which always works but loses the transitions.
func (s *Stitcher) Stitch(ctx context.Context, clips []string, outputPath string) error {
	switch len(clips) {
	case 0:
		return fmt.Errorf("no clips to stitch")
	case 1:
		return s.engine.Transcode(ctx, clips[0], outputPath)
	}

	durations := make([]float64, len(clips))
	for i, clip := range clips {
		duration, err := s.engine.Duration(ctx, clip)
		if err != nil {
			return fmt.Errorf("probe clip %s: %w", clip, err)
		}
		durations[i] = duration
	}

	offsets := Offsets(durations, s.transition)
	if err := s.engine.Run(ctx, s.crossfadeArgs(clips, offsets, outputPath)); err != nil {
		s.logger.Warn("crossfade stitch failed, falling back to hard cuts", logging.Error(err))
		return s.engine.ConcatClips(ctx, clips, outputPath)
	}
	return nil
}

func (s *Stitcher) crossfadeArgs(clips []string, offsets []float64, outputPath string) []string {
	args := []string{"-y"}
	for _, clip := range clips {
		args = append(args, "-i", clip)
	}
	args = append(args,
		"-filter_complex", crossfadeFilter(offsets, s.transition),
		"-map", "[vout]",
		"-map", "[aout]",
		"-c:v", s.cfg.Video.Codec,
		"-crf", fmt.Sprint(s.cfg.Video.CRF),
		"-preset", s.cfg.Video.Preset,
		"-c:a", "aac",
		"-b:a", s.cfg.Audio.Bitrate,
		outputPath,
	)
	return args
}

// VerifyOutput probes the finished file and logs a warning when its length
// drifts from the expected duration by more than the configured tolerance.
func (s *Stitcher) VerifyOutput(ctx context.Context, path string, expectedDuration float64) (float64, int64, error) {
	result, err := s.engine.Probe(ctx, path)
	if err != nil {
		return 0, 0, fmt.Errorf("verify output: %w", err)
	}
	duration := result.DurationSeconds()
	diff := duration - expectedDuration
	if diff < 0 {
		diff = -diff
	}
	if diff > s.tolerance {
		s.logger.Warn("output duration drifts from source",
			logging.Float64("expected", expectedDuration),
			logging.Float64("actual", duration),
		)
	}
	return duration, result.SizeBytes(), nil
}
