package stitching

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slidesync/internal/fileutil"
	"slidesync/internal/manifest"
	"slidesync/internal/media/ffmpeg"
	"slidesync/internal/queue"
	"slidesync/internal/testsupport"
	"slidesync/internal/timeline"
)

func TestAssemblerExecuteProducesFinalVideo(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	ffmpegStub := filepath.Join(dir, "ffmpeg")
	// Records the call and creates its output (the last argument) so the
	// staged mux result exists for placement.
	script := "#!/bin/sh\nprintf '%s\\n' \"$*\" >> " + argsFile + "\n" +
		"for last; do :; done\nprintf 'x' > \"$last\"\nexit 0\n"
	if err := os.WriteFile(ffmpegStub, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	probeStub := filepath.Join(dir, "ffprobe")
	probeScript := "#!/bin/sh\n" +
		"printf '{\"streams\":[],\"format\":{\"duration\":\"5.0\",\"size\":\"2048\"}}'\n"
	if err := os.WriteFile(probeStub, []byte(probeScript), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg.FFmpeg.Binary = ffmpegStub
	cfg.FFmpeg.ProbeBinary = probeStub

	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, "/videos/lecture.mp4", t.TempDir(), "/manifest.json")
	job.WorkDir = t.TempDir()

	target := manifest.NewTiming("/videos/lecture.mp4", []timeline.Segment{
		{Label: timeline.NoSlide(), Start: 0, End: 5},
		{Label: timeline.NoSlide(), Start: 5, End: 10},
	}, 10, "derived")
	targetPath := filepath.Join(job.WorkDir, "timing_target.json")
	if err := target.Save(targetPath); err != nil {
		t.Fatal(err)
	}
	job.TargetTimingPath = targetPath

	mixedPath := filepath.Join(job.WorkDir, "dubbed_audio.wav")
	testsupport.WriteFile(t, mixedPath, 64)
	job.MixedAudioPath = mixedPath

	if err := store.Update(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	engine := ffmpeg.New(cfg, nil)
	assembler := NewAssembler(cfg, store, engine, nil)
	if err := assembler.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := assembler.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantFinal := filepath.Join(cfg.Paths.OutputDir, "lecture_dubbed.mp4")
	if job.FinalFile != wantFinal {
		t.Fatalf("final file = %q, want %q", job.FinalFile, wantFinal)
	}
	if info, err := os.Stat(wantFinal); err != nil || info.Size() == 0 {
		t.Fatalf("final video not placed in the output directory: %v", err)
	}
	if !fileutil.NonEmpty(filepath.Join(job.WorkDir, "lecture_dubbed.mp4")) {
		t.Fatal("muxed output should be staged in the work dir for resume")
	}

	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	recorded := string(data)
	// Two rendered clips, one crossfade, one mux.
	if !strings.Contains(recorded, "color=c=black") {
		t.Fatalf("expected black clip renders:\n%s", recorded)
	}
	if !strings.Contains(recorded, "xfade=transition=fade") {
		t.Fatalf("expected crossfade stitch:\n%s", recorded)
	}
	if !strings.Contains(recorded, "-map 0:v:0 -map 1:a:0 -c:v copy") {
		t.Fatalf("expected mux call:\n%s", recorded)
	}
}

func TestAssemblerExecuteRequiresMixedAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, "/videos/lecture.mp4", "/slides", "/manifest.json")
	job.WorkDir = t.TempDir()

	target := manifest.NewTiming("", []timeline.Segment{
		{Label: timeline.NoSlide(), Start: 0, End: 5},
	}, 5, "derived")
	targetPath := filepath.Join(job.WorkDir, "timing_target.json")
	if err := target.Save(targetPath); err != nil {
		t.Fatal(err)
	}
	job.TargetTimingPath = targetPath

	engine := ffmpeg.New(cfg, nil)
	assembler := NewAssembler(cfg, store, engine, nil)
	err := assembler.Execute(context.Background(), job)
	if err == nil {
		t.Fatal("expected error without mixed audio")
	}
	if queue.FailureStatus(err) != queue.StatusReview {
		t.Fatalf("missing mixed audio should park for review, got %s", queue.FailureStatus(err))
	}
}
