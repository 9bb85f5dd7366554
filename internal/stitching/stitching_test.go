package stitching

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"slidesync/internal/config"
	"slidesync/internal/media/ffmpeg"
	"slidesync/internal/timeline"
)

func TestOffsetsAccumulate(t *testing.T) {
	offsets := Offsets([]float64{5, 5, 5}, 0.5)
	want := []float64{4.5, 9.0}
	if len(offsets) != len(want) {
		t.Fatalf("offsets = %v, want %v", offsets, want)
	}
	for i := range want {
		if math.Abs(offsets[i]-want[i]) > 1e-9 {
			t.Fatalf("offset %d = %v, want %v", i, offsets[i], want[i])
		}
	}
	if got := StitchedDuration([]float64{5, 5, 5}, 0.5); math.Abs(got-14) > 1e-9 {
		t.Fatalf("stitched duration = %v, want 14", got)
	}
}

func TestOffsetsFewClips(t *testing.T) {
	if Offsets(nil, 0.5) != nil {
		t.Fatal("no clips should yield nil offsets")
	}
	if Offsets([]float64{7}, 0.5) != nil {
		t.Fatal("single clip should yield nil offsets")
	}
	if got := StitchedDuration([]float64{7}, 0.5); got != 7 {
		t.Fatalf("single clip duration = %v, want 7", got)
	}
}

func TestCrossfadeFilterTwoInputs(t *testing.T) {
	graph := crossfadeFilter([]float64{4.5}, 0.5)
	for _, want := range []string{
		"[0:v][1:v]xfade=transition=fade:duration=0.5:offset=4.500[vout]",
		"[0:a][1:a]acrossfade=d=0.5:c1=tri:c2=tri[aout]",
	} {
		if !strings.Contains(graph, want) {
			t.Fatalf("graph missing %q:\n%s", want, graph)
		}
	}
}

func TestCrossfadeFilterChained(t *testing.T) {
	graph := crossfadeFilter([]float64{4.5, 9.0}, 0.5)
	for _, want := range []string{
		"[0:v][1:v]xfade=transition=fade:duration=0.5:offset=4.500[v1]",
		"[v1][2:v]xfade=transition=fade:duration=0.5:offset=9.000[vout]",
		"[0:a][1:a]acrossfade=d=0.5:c1=tri:c2=tri[a1]",
		"[a1][2:a]acrossfade=d=0.5:c1=tri:c2=tri[aout]",
	} {
		if !strings.Contains(graph, want) {
			t.Fatalf("graph missing %q:\n%s", want, graph)
		}
	}
}

// newStubStitcher wires a Stitcher to shell-script stand-ins for ffmpeg and
// ffprobe. ffmpeg records its arguments and exits with ffmpegExit when the
// arguments contain filter_complex; ffprobe reports a 5 second container.
func newStubStitcher(t *testing.T, crossfadeExit int) (*Stitcher, func() []string) {
	t.Helper()
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")

	ffmpegStub := filepath.Join(dir, "ffmpeg")
	script := "#!/bin/sh\n" +
		"printf '%s\\n' \"$*\" >> " + argsFile + "\n" +
		"case \"$*\" in *filter_complex*) exit " + strconv.Itoa(crossfadeExit) + ";; esac\n" +
		"exit 0\n"
	if err := os.WriteFile(ffmpegStub, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	probeStub := filepath.Join(dir, "ffprobe")
	probeScript := "#!/bin/sh\n" +
		"printf '{\"streams\":[],\"format\":{\"duration\":\"5.0\",\"size\":\"1024\"}}'\n"
	if err := os.WriteFile(probeStub, []byte(probeScript), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.FFmpeg.Binary = ffmpegStub
	cfg.FFmpeg.ProbeBinary = probeStub
	engine := ffmpeg.New(&cfg, nil)

	invocations := func() []string {
		data, err := os.ReadFile(argsFile)
		if err != nil {
			return nil
		}
		return strings.Split(strings.TrimSpace(string(data)), "\n")
	}
	return New(engine, &cfg, nil), invocations
}

func TestRenderSegmentsBlackFallback(t *testing.T) {
	stitcher, invocations := newStubStitcher(t, 0)
	workDir := t.TempDir()
	slidesDir := t.TempDir()

	slidePath := filepath.Join(slidesDir, "slide_01.png")
	if err := os.WriteFile(slidePath, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	segments := []timeline.Segment{
		{Label: timeline.SlideLabel(1), Start: 0, End: 5},
		{Label: timeline.NoSlide(), Start: 5, End: 8},
		{Label: timeline.SlideLabel(9), Start: 8, End: 12}, // no slide_09.png exported
	}
	clips, err := stitcher.RenderSegments(context.Background(), segments, slidesDir, workDir)
	if err != nil {
		t.Fatalf("RenderSegments: %v", err)
	}
	if len(clips) != 3 {
		t.Fatalf("clips = %d, want 3", len(clips))
	}

	calls := invocations()
	if len(calls) != 3 {
		t.Fatalf("expected 3 render invocations, got %d", len(calls))
	}
	if !strings.Contains(calls[0], slidePath) || !strings.Contains(calls[0], "-loop 1") {
		t.Fatalf("first clip should render the slide image: %s", calls[0])
	}
	for _, call := range calls[1:] {
		if !strings.Contains(call, "color=c=black") {
			t.Fatalf("expected black fallback: %s", call)
		}
	}
}

func TestRenderSegmentsReusesClips(t *testing.T) {
	stitcher, invocations := newStubStitcher(t, 0)
	workDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(workDir, "seg_0000.mp4"), []byte("clip"), 0o644); err != nil {
		t.Fatal(err)
	}
	segments := []timeline.Segment{{Label: timeline.NoSlide(), Start: 0, End: 5}}
	if _, err := stitcher.RenderSegments(context.Background(), segments, t.TempDir(), workDir); err != nil {
		t.Fatalf("RenderSegments: %v", err)
	}
	if calls := invocations(); calls != nil {
		t.Fatalf("ffmpeg must not run for an existing clip, got %v", calls)
	}
}

func TestStitchCrossfade(t *testing.T) {
	stitcher, invocations := newStubStitcher(t, 0)
	out := filepath.Join(t.TempDir(), "slides_only.mp4")

	if err := stitcher.Stitch(context.Background(), []string{"/a.mp4", "/b.mp4", "/c.mp4"}, out); err != nil {
		t.Fatalf("Stitch: %v", err)
	}
	calls := invocations()
	if len(calls) != 1 {
		t.Fatalf("expected one ffmpeg invocation, got %d", len(calls))
	}
	// Probed clips are 5s each with a 0.5s transition.
	for _, want := range []string{"offset=4.500", "offset=9.000", "-map [vout]", "-map [aout]"} {
		if !strings.Contains(calls[0], want) {
			t.Fatalf("crossfade call missing %q:\n%s", want, calls[0])
		}
	}
}

func TestStitchFallsBackToHardCuts(t *testing.T) {
	stitcher, invocations := newStubStitcher(t, 1)
	out := filepath.Join(t.TempDir(), "slides_only.mp4")

	if err := stitcher.Stitch(context.Background(), []string{"/a.mp4", "/b.mp4"}, out); err != nil {
		t.Fatalf("Stitch fallback: %v", err)
	}
	calls := invocations()
	if len(calls) != 2 {
		t.Fatalf("expected crossfade attempt plus concat, got %d calls", len(calls))
	}
	if !strings.Contains(calls[1], "-f concat") {
		t.Fatalf("fallback call should use the concat demuxer: %s", calls[1])
	}
}

func TestStitchSingleClipTranscodes(t *testing.T) {
	stitcher, invocations := newStubStitcher(t, 0)
	out := filepath.Join(t.TempDir(), "slides_only.mp4")

	if err := stitcher.Stitch(context.Background(), []string{"/only.mp4"}, out); err != nil {
		t.Fatalf("Stitch: %v", err)
	}
	calls := invocations()
	if len(calls) != 1 || strings.Contains(calls[0], "filter_complex") {
		t.Fatalf("single clip should re-encode without a graph: %v", calls)
	}
}

func TestVerifyOutput(t *testing.T) {
	stitcher, _ := newStubStitcher(t, 0)
	duration, size, err := stitcher.VerifyOutput(context.Background(), "/final.mp4", 5.5)
	if err != nil {
		t.Fatalf("VerifyOutput: %v", err)
	}
	if duration != 5.0 {
		t.Fatalf("duration = %v, want 5.0", duration)
	}
	if size != 1024 {
		t.Fatalf("size = %v, want 1024", size)
	}
}
