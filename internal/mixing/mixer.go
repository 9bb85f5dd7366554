package mixing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"slidesync/internal/config"
	"slidesync/internal/fileutil"
	"slidesync/internal/logging"
	"slidesync/internal/media/ffmpeg"
)

// Mixer assembles the dubbed audio track.
type Mixer struct {
	engine        *ffmpeg.Engine
	batchSize     int
	sampleRate    int
	channelLayout string
	logger        *slog.Logger
}

// New constructs a Mixer.
func New(engine *ffmpeg.Engine, cfg *config.Config, logger *slog.Logger) *Mixer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Mixer{
		engine:        engine,
		batchSize:     cfg.Audio.MixBatchSize,
		sampleRate:    cfg.Audio.SampleRate,
		channelLayout: cfg.Audio.ChannelLayout,
		logger:        logger,
	}
}

// Mix writes the full dubbed track to outputPath. An existing non-empty
// output is reused. With no placements the track is pure silence of the
// timeline length.
func (m *Mixer) Mix(ctx context.Context, placements []Placement, totalDuration float64, workDir, outputPath string) error {
	if fileutil.NonEmpty(outputPath) {
		m.logger.Info("mixed track already exists, skipping", logging.String("path", outputPath))
		return nil
	}

	if len(placements) == 0 {
		m.logger.Warn("no segments to place, producing silent track")
		return m.engine.GenerateSilence(ctx, outputPath, totalDuration)
	}

	batches := Batches(placements, m.batchSize)
	if len(batches) == 1 {
		return m.engine.Run(ctx, batchArgs(batches[0], totalDuration, m.sampleRate, m.channelLayout, outputPath))
	}

	m.logger.Info("mixing in batches",
		logging.Int("segments", len(placements)),
		logging.Int("batches", len(batches)),
	)

	var batchFiles []string
	offset := 0
	for _, batch := range batches {
		batchFile := filepath.Join(workDir, fmt.Sprintf("batch_%04d.wav", offset))
		if !fileutil.NonEmpty(batchFile) {
			if err := m.engine.Run(ctx, batchArgs(batch, totalDuration, m.sampleRate, m.channelLayout, batchFile)); err != nil {
				return fmt.Errorf("mix batch at %d: %w", offset, err)
			}
		}
		batchFiles = append(batchFiles, batchFile)
		offset += len(batch)
	}

	return m.engine.Run(ctx, mergeArgs(batchFiles, totalDuration, outputPath))
}
