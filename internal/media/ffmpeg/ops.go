package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

// FramePattern is the deterministic frame filename pattern; frame_00001.png
// is second 0 at one sample per second.
const FramePattern = "frame_%05d.png"

// ExtractFrames samples the video at the configured frame rate into
// framesDir, scaled to the canonical video geometry so frames compare cleanly
// against exported slide images.
func (e *Engine) ExtractFrames(ctx context.Context, videoPath, framesDir string) error {
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return fmt.Errorf("create frames dir: %w", err)
	}
	args := ffmpeggo.Input(videoPath).
		Output(filepath.Join(framesDir, FramePattern), ffmpeggo.KwArgs{
			"vf":  fmt.Sprintf("fps=%d,scale=%d:%d", e.cfg.Detection.FrameRate, e.cfg.Video.Width, e.cfg.Video.Height),
			"q:v": 2,
		}).
		OverWriteOutput().
		GetArgs()
	return e.Run(ctx, args)
}

// GenerateSilence writes a silent audio file of the given duration using the
// configured sample rate and channel layout.
func (e *Engine) GenerateSilence(ctx context.Context, outputPath string, duration float64) error {
	source := fmt.Sprintf("anullsrc=r=%d:cl=%s:d=%s",
		e.cfg.Audio.SampleRate, e.cfg.Audio.ChannelLayout, FormatSeconds(duration))
	args := ffmpeggo.Input(source, ffmpeggo.KwArgs{"f": "lavfi"}).
		Output(outputPath, ffmpeggo.KwArgs{"t": FormatSeconds(duration)}).
		OverWriteOutput().
		GetArgs()
	return e.Run(ctx, args)
}

// AdjustTempo speeds audio up by the given factor, preserving pitch.
func (e *Engine) AdjustTempo(ctx context.Context, inputPath, outputPath string, tempo float64) error {
	args := ffmpeggo.Input(inputPath).
		Output(outputPath, ffmpeggo.KwArgs{"af": fmt.Sprintf("atempo=%.4f", tempo)}).
		OverWriteOutput().
		GetArgs()
	return e.Run(ctx, args)
}

// TruncateWithFade cuts audio to duration with a short fade-out so the cut is
// not audible as a click.
func (e *Engine) TruncateWithFade(ctx context.Context, inputPath, outputPath string, duration float64) error {
	fadeSeconds := float64(e.cfg.Audio.FadeMillis) / 1000
	fadeStart := duration - fadeSeconds
	if fadeStart < 0 {
		fadeStart = 0
	}
	args := ffmpeggo.Input(inputPath).
		Output(outputPath, ffmpeggo.KwArgs{
			"t":  FormatSeconds(duration),
			"af": fmt.Sprintf("afade=t=out:st=%.3f:d=%.3f", fadeStart, fadeSeconds),
		}).
		OverWriteOutput().
		GetArgs()
	return e.Run(ctx, args)
}

// Transcode rewrites a media file into the container implied by the output
// extension. Used to collapse a single mixing batch into the final track.
func (e *Engine) Transcode(ctx context.Context, inputPath, outputPath string) error {
	args := ffmpeggo.Input(inputPath).
		Output(outputPath).
		OverWriteOutput().
		GetArgs()
	return e.Run(ctx, args)
}

// ConcatClips joins video clips with hard cuts via the concat demuxer. The
// list file is written next to the output and removed afterwards.
func (e *Engine) ConcatClips(ctx context.Context, clips []string, outputPath string) error {
	listPath := filepath.Join(filepath.Dir(outputPath), "concat_list.txt")
	var list strings.Builder
	for _, clip := range clips {
		safe := strings.ReplaceAll(filepath.ToSlash(clip), "'", `'\''`)
		fmt.Fprintf(&list, "file '%s'\n", safe)
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listPath)

	args := ffmpeggo.Input(listPath, ffmpeggo.KwArgs{"f": "concat", "safe": 0}).
		Output(outputPath, ffmpeggo.KwArgs{
			"c:v":    e.cfg.Video.Codec,
			"crf":    e.cfg.Video.CRF,
			"preset": e.cfg.Video.Preset,
			"c:a":    "aac",
			"b:a":    e.cfg.Audio.Bitrate,
		}).
		OverWriteOutput().
		GetArgs()
	return e.Run(ctx, args)
}

// RenderSlideClip renders a fixed-duration video clip from a still slide
// image (or black when imagePath is empty) and an audio file (or generated
// silence when audioPath is empty).
func (e *Engine) RenderSlideClip(ctx context.Context, imagePath, audioPath string, duration float64, outputPath string) error {
	video := e.cfg.Video
	args := []string{"-y"}

	vf := "format=yuv420p"
	if imagePath != "" {
		args = append(args, "-loop", "1", "-i", imagePath)
		vf = fmt.Sprintf("scale=%d:%d,format=yuv420p", video.Width, video.Height)
	} else {
		args = append(args, "-f", "lavfi", "-i",
			fmt.Sprintf("color=c=black:s=%dx%d:r=%d", video.Width, video.Height, video.FPS))
	}

	if audioPath != "" {
		args = append(args, "-i", audioPath)
	} else {
		args = append(args, "-f", "lavfi", "-i",
			fmt.Sprintf("anullsrc=r=%d:cl=%s", e.cfg.Audio.SampleRate, e.cfg.Audio.ChannelLayout))
	}

	args = append(args,
		"-t", FormatSeconds(duration),
		"-vf", vf,
		"-c:v", video.Codec, "-crf", fmt.Sprint(video.CRF), "-preset", video.Preset,
		"-r", fmt.Sprint(video.FPS),
		"-c:a", "aac", "-b:a", e.cfg.Audio.Bitrate,
		"-shortest",
		outputPath,
	)
	return e.Run(ctx, args)
}

// Mux combines the stitched video track with the mixed audio track into the
// final output, copying video and re-encoding audio.
func (e *Engine) Mux(ctx context.Context, videoPath, audioPath, outputPath string) error {
	args := []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", e.cfg.Audio.Bitrate,
		"-shortest",
		outputPath,
	}
	return e.Run(ctx, args)
}
