package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"slidesync/internal/config"
	"slidesync/internal/fileutil"
	"slidesync/internal/logging"
	"slidesync/internal/manifest"
	"slidesync/internal/media/ffmpeg"
)

// Prepared pairs a segment with the audio file that should be placed at its
// slot: the original file, a tempo-adjusted copy, or a truncated copy.
type Prepared struct {
	Segment manifest.SpeechSegment
	Path    string
	Plan    Plan
}

// Result summarizes a reconciliation pass.
type Result struct {
	Prepared  []Prepared
	SpedUp    int
	Truncated int
	Skipped   int
}

// Reconciler applies reconciliation plans with ffmpeg.
type Reconciler struct {
	engine   *ffmpeg.Engine
	maxTempo float64
	logger   *slog.Logger
}

// New constructs a Reconciler.
func New(engine *ffmpeg.Engine, cfg *config.Config, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reconciler{engine: engine, maxTempo: cfg.Audio.MaxTempo, logger: logger}
}

// Prepare reconciles every segment. Adjusted artifacts are written into
// workDir with deterministic names (adj_0007.wav, trunc_0007.wav) and reused
// when they already exist from a previous run. Relative audio paths resolve
// against manifestDir.
func (r *Reconciler) Prepare(ctx context.Context, segments []manifest.SpeechSegment, manifestDir, workDir string) (Result, error) {
	var result Result

	for _, seg := range segments {
		source := seg.AudioFile
		if !filepath.IsAbs(source) {
			source = filepath.Join(manifestDir, source)
		}

		natural := seg.NaturalDuration
		if natural <= 0 {
			probed, err := r.engine.Duration(ctx, source)
			if err != nil {
				return result, fmt.Errorf("segment %d: %w", seg.Index, err)
			}
			natural = probed
		}

		plan := PlanSegment(seg, natural, r.maxTempo)
		switch plan.Decision {
		case DecisionSkipped:
			r.logger.Warn("segment has zero or negative slot, skipping",
				logging.Int("segment", seg.Index),
				logging.Float64("start", seg.Start),
				logging.Float64("end", seg.End),
			)
			result.Skipped++
			continue

		case DecisionAsIs:
			result.Prepared = append(result.Prepared, Prepared{Segment: seg, Path: source, Plan: plan})

		case DecisionSpedUp:
			out := filepath.Join(workDir, fmt.Sprintf("adj_%04d.wav", seg.Index))
			if !fileutil.NonEmpty(out) {
				if err := r.engine.AdjustTempo(ctx, source, out, plan.Tempo); err != nil {
					return result, fmt.Errorf("segment %d: speed adjust: %w", seg.Index, err)
				}
			}
			result.SpedUp++
			result.Prepared = append(result.Prepared, Prepared{Segment: seg, Path: out, Plan: plan})

		case DecisionTruncated:
			r.logger.Warn("segment too long for slot, truncating",
				logging.Int("segment", seg.Index),
				logging.Float64("natural", natural),
				logging.Float64("slot", seg.Slot()),
				logging.Float64("overrun_pct", (plan.Ratio-1)*100),
			)
			out := filepath.Join(workDir, fmt.Sprintf("trunc_%04d.wav", seg.Index))
			if !fileutil.NonEmpty(out) {
				if err := r.engine.TruncateWithFade(ctx, source, out, plan.TargetDuration); err != nil {
					return result, fmt.Errorf("segment %d: truncate: %w", seg.Index, err)
				}
			}
			result.Truncated++
			result.Prepared = append(result.Prepared, Prepared{Segment: seg, Path: out, Plan: plan})
		}
	}

	return result, nil
}
