package slides

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"slidesync/internal/config"
	"slidesync/internal/deps"
	"slidesync/internal/fileutil"
	"slidesync/internal/logging"
	"slidesync/internal/manifest"
	"slidesync/internal/media/ffmpeg"
	"slidesync/internal/queue"
	"slidesync/internal/services"
	"slidesync/internal/stage"
	"slidesync/internal/timeline"
)

const (
	progressStageDetecting   = "Detecting slides"
	progressPercentExtracted = 20.0
	// TimingFileName is the detected source timeline inside the job work dir.
	TimingFileName = "timing.json"
)

// Detector integrates slide detection with the workflow manager: it samples
// the source video, classifies each sample against the exported slide images,
// and persists the detected timeline.
type Detector struct {
	store  *queue.Store
	cfg    *config.Config
	engine *ffmpeg.Engine
	logger *slog.Logger
}

// NewDetector constructs the detection stage.
func NewDetector(cfg *config.Config, store *queue.Store, engine *ffmpeg.Engine, logger *slog.Logger) *Detector {
	return &Detector{
		cfg:    cfg,
		store:  store,
		engine: engine,
		logger: logging.NewComponentLogger(logger, "detect"),
	}
}

// SetLogger allows the workflow manager to route stage logs into the
// job-scoped log.
func (d *Detector) SetLogger(logger *slog.Logger) {
	if d == nil {
		return
	}
	d.logger = logging.NewComponentLogger(logger, "detect")
}

// Prepare assigns the job its work directory and primes progress fields.
func (d *Detector) Prepare(ctx context.Context, job *queue.Job) error {
	if d == nil || d.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "detect", "prepare", "Detection stage is not configured", nil)
	}
	if d.store == nil {
		return services.Wrap(services.ErrConfiguration, "detect", "prepare", "Queue store unavailable", nil)
	}
	if strings.TrimSpace(job.WorkDir) == "" {
		job.WorkDir = filepath.Join(d.cfg.Paths.WorkDir, fmt.Sprintf("job_%04d", job.ID))
	}
	if err := os.MkdirAll(job.WorkDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "detect", "prepare", "Cannot create job work directory", err)
	}
	job.InitProgress(progressStageDetecting, "Sampling source video")
	return d.store.Update(ctx, job)
}

// Execute detects the slide timeline of the source video.
func (d *Detector) Execute(ctx context.Context, job *queue.Job) error {
	if job == nil {
		return services.Wrap(services.ErrValidation, "detect", "execute", "Queue job is nil", nil)
	}
	logger := logging.WithContext(ctx, d.logger)

	if !fileutil.Exists(job.VideoPath) {
		return services.Wrap(services.ErrValidation, "detect", "execute",
			fmt.Sprintf("Source video not found: %s", job.VideoPath), nil)
	}

	duration, err := d.engine.Duration(ctx, job.VideoPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "detect", "probe video", "Cannot read source video duration", err)
	}
	job.SourceDuration = duration

	timingPath := filepath.Join(job.WorkDir, TimingFileName)
	if fileutil.NonEmpty(timingPath) {
		if _, err := manifest.LoadTiming(timingPath); err == nil {
			logger.Info("timing file already exists, skipping detection", logging.String("path", timingPath))
			job.TimingPath = timingPath
			job.SetProgressComplete(progressStageDetecting, "Reused existing timing")
			return d.store.Update(ctx, job)
		}
		logger.Warn("existing timing file unreadable, re-detecting", logging.String("path", timingPath))
	}

	framesDir := filepath.Join(job.WorkDir, "frames")
	frames, err := listFrames(framesDir)
	if err != nil {
		return services.Wrap(services.ErrTransient, "detect", "list frames", "Cannot inspect frames directory", err)
	}
	if len(frames) == 0 {
		logger.Info("extracting frames", logging.String("video", job.VideoPath))
		if err := d.engine.ExtractFrames(ctx, job.VideoPath, framesDir); err != nil {
			return services.Wrap(services.ErrExternalTool, "detect", "extract frames", "Frame extraction failed", err)
		}
		frames, err = listFrames(framesDir)
		if err != nil {
			return services.Wrap(services.ErrTransient, "detect", "list frames", "Cannot inspect frames directory", err)
		}
	} else {
		logger.Info("frames already extracted, reusing", logging.Int("count", len(frames)))
	}
	if len(frames) == 0 {
		return services.Wrap(services.ErrValidation, "detect", "extract frames",
			"No frames extracted; source video may be empty or unreadable", nil)
	}

	if err := d.updateProgress(ctx, job, fmt.Sprintf("Classifying %d frames", len(frames)), progressPercentExtracted); err != nil {
		return err
	}

	detection := d.cfg.Detection
	refs, err := LoadReferences(job.SlidesDir, detection.RasterWidth, detection.RasterHeight)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "detect", "load slides",
			fmt.Sprintf("Reference slides unavailable in %s", job.SlidesDir), err)
	}
	classifier, err := NewClassifier(refs, detection.SSIMThreshold)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "detect", "build classifier", "Cannot build slide classifier", err)
	}

	samples := make([]timeline.SampleMatch, 0, len(frames))
	for i, framePath := range frames {
		frame, err := LoadGrayscale(framePath, detection.RasterWidth, detection.RasterHeight)
		if err != nil {
			return services.Wrap(services.ErrTransient, "detect", "load frame",
				fmt.Sprintf("Cannot decode frame %s", filepath.Base(framePath)), err)
		}
		samples = append(samples, classifier.Classify(frame, i))

		if (i+1)%50 == 0 {
			percent := progressPercentExtracted + (100-progressPercentExtracted)*float64(i+1)/float64(len(frames))
			if err := d.updateProgress(ctx, job, fmt.Sprintf("Classified %d/%d frames", i+1, len(frames)), percent); err != nil {
				return err
			}
		}
	}

	segments := timeline.Segments(samples, float64(detection.FrameRate), duration)
	timing := manifest.NewTiming(job.VideoPath, segments, duration, "detected")
	if err := timing.Save(timingPath); err != nil {
		return services.Wrap(services.ErrTransient, "detect", "save timing", "Cannot write timing file", err)
	}

	logger.Info("detection complete",
		logging.Int("samples", len(samples)),
		logging.Int("segments", len(segments)),
		logging.Int("slides", timing.SlideCount),
		logging.Float64("duration", duration),
	)

	job.TimingPath = timingPath
	job.SetProgressComplete(progressStageDetecting, fmt.Sprintf("Detected %d segments", len(segments)))
	return d.store.Update(ctx, job)
}

// HealthCheck verifies the external tools detection depends on.
func (d *Detector) HealthCheck(ctx context.Context) stage.Health {
	if d == nil || d.cfg == nil || d.store == nil {
		return stage.Unhealthy("detect", "stage not configured")
	}
	if err := deps.Verify(d.cfg); err != nil {
		return stage.Unhealthy("detect", err.Error())
	}
	return stage.Healthy("detect")
}

func (d *Detector) updateProgress(ctx context.Context, job *queue.Job, message string, percent float64) error {
	job.SetProgress(progressStageDetecting, message, percent)
	return d.store.Update(ctx, job)
}

// listFrames returns the extracted frame images in sample order. Frame N+1 is
// sample N, at the configured frames per second.
func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var frames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "frame_") && strings.HasSuffix(name, ".png") {
			frames = append(frames, filepath.Join(dir, name))
		}
	}
	sort.Strings(frames)
	return frames, nil
}
