package slides

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"slidesync/internal/manifest"
	"slidesync/internal/media/ffmpeg"
	"slidesync/internal/queue"
	"slidesync/internal/testsupport"
	"slidesync/internal/timeline"
)

func newDetectFixture(t *testing.T) (*Detector, *queue.Store, *queue.Job) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	// Tiny rasters keep the SSIM work negligible.
	cfg.Detection.RasterWidth = 16
	cfg.Detection.RasterHeight = 16

	dir := t.TempDir()
	probeStub := filepath.Join(dir, "ffprobe")
	probeScript := "#!/bin/sh\n" +
		"printf '{\"streams\":[],\"format\":{\"duration\":\"4.0\",\"size\":\"64\"}}'\n"
	if err := os.WriteFile(probeStub, []byte(probeScript), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg.FFmpeg.ProbeBinary = probeStub
	cfg.FFmpeg.Binary = filepath.Join(dir, "ffmpeg-not-called")

	store := testsupport.MustOpenStore(t, cfg)

	base := t.TempDir()
	videoPath := filepath.Join(base, "lecture.mp4")
	if err := os.WriteFile(videoPath, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	slidesDir := filepath.Join(base, "slides")
	if err := os.MkdirAll(slidesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(slidesDir, "slide_01.png"), uniform(230), 64, 64)
	writePNG(t, filepath.Join(slidesDir, "slide_02.png"), checker(4, 0, 255), 64, 64)

	job := testsupport.NewJob(t, store, videoPath, slidesDir, "/manifest.json")
	job.WorkDir = filepath.Join(base, "work")

	// Pre-extracted frames: two of slide 1, then two of slide 2.
	framesDir := filepath.Join(job.WorkDir, "frames")
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(framesDir, fmt.Sprintf(ffmpeg.FramePattern, 1)), uniform(230), 64, 64)
	writePNG(t, filepath.Join(framesDir, fmt.Sprintf(ffmpeg.FramePattern, 2)), uniform(230), 64, 64)
	writePNG(t, filepath.Join(framesDir, fmt.Sprintf(ffmpeg.FramePattern, 3)), checker(4, 0, 255), 64, 64)
	writePNG(t, filepath.Join(framesDir, fmt.Sprintf(ffmpeg.FramePattern, 4)), checker(4, 0, 255), 64, 64)

	if err := store.Update(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	engine := ffmpeg.New(cfg, nil)
	return NewDetector(cfg, store, engine, nil), store, job
}

func TestDetectorExecuteWritesTiming(t *testing.T) {
	detector, store, job := newDetectFixture(t)

	if err := detector.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if job.SourceDuration != 4.0 {
		t.Fatalf("source duration = %v, want 4.0", job.SourceDuration)
	}
	timing, err := manifest.LoadTiming(job.TimingPath)
	if err != nil {
		t.Fatalf("LoadTiming: %v", err)
	}
	want := []timeline.Segment{
		{Label: timeline.SlideLabel(1), Start: 0, End: 2},
		{Label: timeline.SlideLabel(2), Start: 2, End: 4},
	}
	if len(timing.Segments) != len(want) {
		t.Fatalf("segments = %+v, want %+v", timing.Segments, want)
	}
	for i := range want {
		if timing.Segments[i] != want[i] {
			t.Fatalf("segment %d = %+v, want %+v", i, timing.Segments[i], want[i])
		}
	}
	if timing.SlideCount != 2 {
		t.Fatalf("slide count = %d, want 2", timing.SlideCount)
	}

	stored, err := store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.TimingPath == "" {
		t.Fatal("timing path not persisted")
	}
}

func TestDetectorExecuteHonorsFrameRate(t *testing.T) {
	detector, _, job := newDetectFixture(t)
	// Two samples per second: boundaries are sample/rate, not the raw index.
	detector.cfg.Detection.FrameRate = 2

	if err := detector.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	timing, err := manifest.LoadTiming(job.TimingPath)
	if err != nil {
		t.Fatalf("LoadTiming: %v", err)
	}
	want := []timeline.Segment{
		{Label: timeline.SlideLabel(1), Start: 0, End: 1},
		{Label: timeline.SlideLabel(2), Start: 1, End: 4},
	}
	if len(timing.Segments) != len(want) {
		t.Fatalf("segments = %+v, want %+v", timing.Segments, want)
	}
	for i := range want {
		if timing.Segments[i] != want[i] {
			t.Fatalf("segment %d = %+v, want %+v", i, timing.Segments[i], want[i])
		}
	}
}

func TestDetectorExecuteReusesExistingTiming(t *testing.T) {
	detector, _, job := newDetectFixture(t)

	if err := detector.Execute(context.Background(), job); err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	first, err := os.Stat(job.TimingPath)
	if err != nil {
		t.Fatal(err)
	}

	if err := detector.Execute(context.Background(), job); err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	second, err := os.Stat(job.TimingPath)
	if err != nil {
		t.Fatal(err)
	}
	if !second.ModTime().Equal(first.ModTime()) {
		t.Fatal("second run should reuse the existing timing file")
	}
}

func TestDetectorExecuteMissingSlidesParksForReview(t *testing.T) {
	detector, _, job := newDetectFixture(t)
	job.SlidesDir = t.TempDir() // no slide images

	err := detector.Execute(context.Background(), job)
	if err == nil {
		t.Fatal("expected error for empty slides dir")
	}
	if queue.FailureStatus(err) != queue.StatusReview {
		t.Fatalf("missing slides should park for review, got %s", queue.FailureStatus(err))
	}
}

func TestDetectorExecuteMissingVideoFails(t *testing.T) {
	detector, _, job := newDetectFixture(t)
	job.VideoPath = "/does/not/exist.mp4"

	if err := detector.Execute(context.Background(), job); err == nil {
		t.Fatal("expected error for missing video")
	}
}
