package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	cfgPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
work_dir = %q
output_dir = %q
log_dir = %q
`, filepath.Join(base, "work"), filepath.Join(base, "output"), filepath.Join(base, "logs"))
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestQueueListEmpty(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCommand(t, "--config", cfgPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "Queue is empty") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestAddThenList(t *testing.T) {
	cfgPath := writeTestConfig(t)
	base := t.TempDir()

	videoPath := filepath.Join(base, "lecture.mp4")
	slidesDir := filepath.Join(base, "slides")
	manifestPath := filepath.Join(base, "manifest.json")
	if err := os.WriteFile(videoPath, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(slidesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(manifestPath, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "--config", cfgPath, "add", videoPath,
		"--slides", slidesDir, "--manifest", manifestPath)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Queued job") || !strings.Contains(out, "lecture") {
		t.Fatalf("unexpected add output: %s", out)
	}

	// A second add for the same video must be rejected while the job is live.
	if _, err := runCommand(t, "--config", cfgPath, "add", videoPath,
		"--slides", slidesDir, "--manifest", manifestPath); err == nil {
		t.Fatal("duplicate add should fail")
	}

	out, err = runCommand(t, "--config", cfgPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "pending") {
		t.Fatalf("list should show the pending job: %s", out)
	}

	out, err = runCommand(t, "--config", cfgPath, "queue", "status")
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	if !strings.Contains(out, "pending") {
		t.Fatalf("status should count the pending job: %s", out)
	}
}

func TestAddRejectsMissingInputs(t *testing.T) {
	cfgPath := writeTestConfig(t)
	if _, err := runCommand(t, "--config", cfgPath, "add", "/does/not/exist.mp4",
		"--slides", t.TempDir(), "--manifest", "/missing.json"); err == nil {
		t.Fatal("add with missing video should fail")
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "slidesync.toml")
	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("unexpected output: %s", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[paths]") {
		t.Fatalf("sample config missing paths section:\n%s", data)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("config init without --overwrite should refuse to clobber")
	}
}
