package storage

import (
	"context"

	"flowScope/internal/model"
)

// Storage defines a sink for queue runs and observed flow snapshots.
type Storage interface {
	PutQueueRun(ctx context.Context, run model.QueueRun) error
	PutSnapshots(ctx context.Context, records []model.SnapshotRecord) error
}

// RunRecorder persists every finished queue run.
type RunRecorder struct {
	Sink Storage
}

func (r *RunRecorder) OnStep(context.Context, model.QueueRun, string) {}

func (r *RunRecorder) OnFinish(ctx context.Context, run model.QueueRun) error {
	if r == nil || r.Sink == nil {
		return nil
	}
	return r.Sink.PutQueueRun(ctx, run)
}
