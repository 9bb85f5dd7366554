package workflow

import (
	"context"
	"testing"

	"slidesync/internal/logging"
	"slidesync/internal/queue"
	"slidesync/internal/services"
	"slidesync/internal/stage"
	"slidesync/internal/testsupport"
)

type fakeHandler struct {
	name     string
	prepares int
	executes int
	execErr  error
}

func (h *fakeHandler) Prepare(ctx context.Context, job *queue.Job) error {
	h.prepares++
	return nil
}

func (h *fakeHandler) Execute(ctx context.Context, job *queue.Job) error {
	h.executes++
	return h.execErr
}

func (h *fakeHandler) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy(h.name)
}

func fakeStageSet() (StageSet, []*fakeHandler) {
	handlers := []*fakeHandler{
		{name: "detect"},
		{name: "time"},
		{name: "mix"},
		{name: "assemble"},
	}
	return StageSet{
		Detector:  handlers[0],
		Retimer:   handlers[1],
		Dubber:    handlers[2],
		Assembler: handlers[3],
	}, handlers
}

func newTestManager(t *testing.T) (*Manager, *queue.Store, []*fakeHandler) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	set, handlers := fakeStageSet()
	return NewManager(cfg, store, logging.NewNop(), set), store, handlers
}

func TestRunJobAdvancesThroughAllStages(t *testing.T) {
	mgr, store, handlers := newTestManager(t)
	job := testsupport.NewJob(t, store, "/videos/lecture.mp4", "/slides", "/manifest.json")

	final, err := mgr.RunJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("RunJob: %v", err)
	}
	if final.Status != queue.StatusCompleted {
		t.Fatalf("status = %s, want %s", final.Status, queue.StatusCompleted)
	}
	for _, handler := range handlers {
		if handler.prepares != 1 || handler.executes != 1 {
			t.Fatalf("handler %s ran prepare=%d execute=%d, want 1/1", handler.name, handler.prepares, handler.executes)
		}
	}
}

func TestStageFailureParksValidationErrorsForReview(t *testing.T) {
	mgr, store, handlers := newTestManager(t)
	job := testsupport.NewJob(t, store, "/videos/lecture.mp4", "/slides", "/manifest.json")

	handlers[0].execErr = services.Wrap(services.ErrValidation, "detect", "execute", "Source video not found", nil)
	if _, err := mgr.RunJob(context.Background(), job.ID); err == nil {
		t.Fatal("expected RunJob to surface the stage error")
	}

	stored, err := store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusReview {
		t.Fatalf("status = %s, want %s", stored.Status, queue.StatusReview)
	}
	if !stored.NeedsReview {
		t.Fatal("job should need review")
	}
	if stored.ReviewReason == "" {
		t.Fatal("review reason should be recorded")
	}
	// Later stages never ran.
	if handlers[1].executes != 0 {
		t.Fatal("time stage must not run after detect failed")
	}
}

func TestStageFailureMarksToolErrorsFailed(t *testing.T) {
	mgr, store, handlers := newTestManager(t)
	job := testsupport.NewJob(t, store, "/videos/lecture.mp4", "/slides", "/manifest.json")

	handlers[2].execErr = services.Wrap(services.ErrExternalTool, "mix", "mix", "Audio mixing failed", nil)
	if _, err := mgr.RunJob(context.Background(), job.ID); err == nil {
		t.Fatal("expected RunJob to surface the stage error")
	}

	stored, err := store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want %s", stored.Status, queue.StatusFailed)
	}
	if stored.ErrorMessage == "" {
		t.Fatal("error message should be recorded")
	}
	// Detect and time completed before the mix failure.
	if handlers[0].executes != 1 || handlers[1].executes != 1 {
		t.Fatal("earlier stages should have completed")
	}
}

func TestRetryFailedRequeuesJob(t *testing.T) {
	mgr, store, handlers := newTestManager(t)
	job := testsupport.NewJob(t, store, "/videos/lecture.mp4", "/slides", "/manifest.json")

	handlers[3].execErr = services.Wrap(services.ErrExternalTool, "assemble", "mux", "Final mux failed", nil)
	if _, err := mgr.RunJob(context.Background(), job.ID); err == nil {
		t.Fatal("expected RunJob to surface the stage error")
	}

	requeued, err := store.RetryFailed(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if requeued != 1 {
		t.Fatalf("requeued = %d, want 1", requeued)
	}

	handlers[3].execErr = nil
	final, err := mgr.RunJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("RunJob after retry: %v", err)
	}
	if final.Status != queue.StatusCompleted {
		t.Fatalf("status = %s, want %s", final.Status, queue.StatusCompleted)
	}
}

func TestStartEnforcesSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set, _ := fakeStageSet()
	first := NewManager(cfg, store, logging.NewNop(), set)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()

	secondSet, _ := fakeStageSet()
	second := NewManager(cfg, store, logging.NewNop(), secondSet)
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second Start should fail while the lock is held")
	}
}

func TestStatusReportsStageHealth(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	summary := mgr.Status(context.Background())
	if summary.Running {
		t.Fatal("manager should not report running before Start")
	}
	for _, name := range []string{"detect", "time", "mix", "assemble"} {
		health, ok := summary.StageHealth[name]
		if !ok {
			t.Fatalf("missing health for stage %s", name)
		}
		if !health.Ready {
			t.Fatalf("stage %s should be healthy: %s", name, health.Detail)
		}
	}
}
