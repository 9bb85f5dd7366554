package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"slidesync/internal/config"
	"slidesync/internal/logging"
	"slidesync/internal/queue"
	"slidesync/internal/stage"
)

// StageSet bundles the concrete workflow handlers the manager orchestrates.
type StageSet struct {
	Detector  stage.Handler
	Retimer   stage.Handler
	Dubber    stage.Handler
	Assembler stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

// loggerAware lets the manager route stage logs through a job-scoped logger.
type loggerAware interface {
	SetLogger(*slog.Logger)
}

// Manager coordinates queue processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	pollInterval time.Duration
	errorRetry   time.Duration

	stages       []pipelineStage
	stageByStart map[queue.Status]pipelineStage

	lockPath string
	lock     *flock.Flock

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *queue.Job
}

// NewManager constructs a workflow manager with the given stage handlers.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger, set StageSet) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "slidesync.lock")
	m := &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		errorRetry:   time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
	}
	m.configureStages(set)
	return m
}

func (m *Manager) configureStages(set StageSet) {
	m.stages = []pipelineStage{
		{
			name:             "detect",
			handler:          set.Detector,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusDetecting,
			doneStatus:       queue.StatusDetected,
		},
		{
			name:             "time",
			handler:          set.Retimer,
			startStatus:      queue.StatusDetected,
			processingStatus: queue.StatusTiming,
			doneStatus:       queue.StatusTimed,
		},
		{
			name:             "mix",
			handler:          set.Dubber,
			startStatus:      queue.StatusTimed,
			processingStatus: queue.StatusMixing,
			doneStatus:       queue.StatusMixed,
		},
		{
			name:             "assemble",
			handler:          set.Assembler,
			startStatus:      queue.StatusMixed,
			processingStatus: queue.StatusAssembling,
			doneStatus:       queue.StatusCompleted,
		},
	}
	m.stageByStart = make(map[queue.Status]pipelineStage, len(m.stages))
	for _, stg := range m.stages {
		m.stageByStart[stg.startStatus] = stg
	}
}

// Start acquires the single-runner lock, rolls interrupted jobs back to their
// stage boundaries, and begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}

	ok, err := m.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another slidesync instance is already running (lock: %s)", m.lockPath)
	}

	reset, err := m.store.ResetStuckProcessing(ctx)
	if err != nil {
		_ = m.lock.Unlock()
		return fmt.Errorf("reset stuck jobs: %w", err)
	}
	if reset > 0 {
		m.logger.Info("rolled interrupted jobs back to stage start", logging.Int("jobs", reset))
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	go m.run(runCtx)

	m.logger.Info("workflow started", logging.String("lock", m.lockPath))
	return nil
}

// Stop terminates background processing, waits for the in-flight stage, and
// releases the lock.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	if err := m.lock.Unlock(); err != nil {
		m.logger.Warn("failed to release lock", logging.Error(err))
	}
	m.logger.Info("workflow stopped")
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := m.nextJob(ctx)
		if err != nil {
			m.setLastError(err)
			m.logger.Error("failed to fetch next queue job",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
			m.waitOrShutdown(ctx, m.errorRetry)
			continue
		}
		if job == nil {
			m.waitOrShutdown(ctx, m.pollInterval)
			continue
		}

		if err := m.processJob(ctx, job); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

// nextJob returns the oldest job whose status starts a stage, scanning stages
// in pipeline order so late-stage jobs finish before new ones start.
func (m *Manager) nextJob(ctx context.Context) (*queue.Job, error) {
	for i := len(m.stages) - 1; i >= 0; i-- {
		job, err := m.store.NextForStatus(ctx, m.stages[i].startStatus)
		if err != nil {
			return nil, err
		}
		if job != nil {
			return job, nil
		}
	}
	return nil, nil
}

func (m *Manager) waitOrShutdown(ctx context.Context, wait time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(job *queue.Job) {
	m.mu.Lock()
	if job != nil {
		cp := *job
		m.lastJob = &cp
	} else {
		m.lastJob = nil
	}
	m.mu.Unlock()
}
