package workflow

import (
	"context"
	"fmt"

	"slidesync/internal/logging"
	"slidesync/internal/queue"
)

// RunJob processes a single job through every remaining stage without
// starting the background loop. Used by the one-shot CLI path.
func (m *Manager) RunJob(ctx context.Context, id int64) (*queue.Job, error) {
	job, err := m.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %d not found", id)
	}

	for !queue.IsTerminal(job.Status) {
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		default:
		}

		if _, ok := m.stageByStart[job.Status]; !ok {
			return job, fmt.Errorf("job %d stuck in status %s", id, job.Status)
		}
		if err := m.processJob(ctx, job); err != nil {
			return job, err
		}

		job, err = m.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if job == nil {
			return nil, fmt.Errorf("job %d disappeared mid-run", id)
		}
	}

	m.logger.Info("job run finished",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("status", string(job.Status)),
	)
	return job, nil
}
