package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"slidesync/internal/config"
	"slidesync/internal/logging"
)

// stderrTailLimit caps how much trailing ffmpeg stderr is kept in errors.
const stderrTailLimit = 2000

// defaultProbeTimeout bounds ffprobe inspections, which finish in seconds on
// healthy files. The configured ffmpeg timeout is far too generous here.
const defaultProbeTimeout = 30 * time.Second

// Engine executes ffmpeg and ffprobe with the configured binaries and
// per-invocation timeout.
type Engine struct {
	binary       string
	probeBinary  string
	timeout      time.Duration
	probeTimeout time.Duration
	cfg          *config.Config
	logger       *slog.Logger
}

// New constructs an Engine from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		binary:       cfg.FFmpegBinary(),
		probeBinary:  cfg.FFprobeBinary(),
		timeout:      time.Duration(cfg.FFmpeg.TimeoutSeconds) * time.Second,
		probeTimeout: defaultProbeTimeout,
		cfg:          cfg,
		logger:       logger,
	}
}

// ErrTimedOut marks invocations killed by the per-call timeout.
var ErrTimedOut = errors.New("ffmpeg timed out")

// Run executes ffmpeg with the given arguments, blocking until it exits or
// the timeout fires. On failure the error carries the stderr tail.
func (e *Engine) Run(ctx context.Context, args []string) error {
	runCtx := ctx
	var cancel context.CancelFunc
	if e.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, e.binary, args...)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	e.logger.Debug("running ffmpeg",
		logging.String("binary", e.binary),
		logging.String("args", strings.Join(args, " ")),
	)

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimedOut, e.timeout)
	}
	return fmt.Errorf("ffmpeg: %w: %s", err, stderrTail(stderr.String()))
}

func stderrTail(output string) string {
	output = strings.TrimSpace(output)
	if len(output) > stderrTailLimit {
		output = output[len(output)-stderrTailLimit:]
	}
	return output
}

// FormatSeconds renders a duration value the way ffmpeg arguments expect,
// without trailing zeros.
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
