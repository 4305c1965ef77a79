// Package queue runs ordered lists of irreversible actions one at a time.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"flowScope/internal/model"
)

// ErrAlreadyRunning is returned when Run is called while a run is in flight.
var ErrAlreadyRunning = errors.New("transaction queue is already running")

// Step is one committed-or-failed action. Do must return only after the
// action is durably committed, or with the error that prevented it.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
}

// State is a point-in-time view of the orchestrator.
type State struct {
	Status         model.QueueStatus `json:"status"`
	CompletedCount int               `json:"completed_count"`
	IsRunning      bool              `json:"is_running"`
	Error          string            `json:"error,omitempty"`
}

// Observer is notified of progress. OnFinish errors are logged, not returned.
type Observer interface {
	OnStep(ctx context.Context, run model.QueueRun, step string)
	OnFinish(ctx context.Context, run model.QueueRun) error
}

// Orchestrator executes steps strictly in order and stops at the first
// failure. Committed steps are never retried or rolled back.
type Orchestrator struct {
	logger    *zap.Logger
	observers []Observer
	now       func() time.Time

	mu  sync.Mutex
	run model.QueueRun
}

// NewOrchestrator builds an idle Orchestrator.
func NewOrchestrator(logger *zap.Logger, observers ...Observer) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		logger:    logger,
		observers: observers,
		now:       time.Now,
		run:       model.QueueRun{Status: model.QueueIdle},
	}
}

// State returns a copy of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return State{
		Status:         o.run.Status,
		CompletedCount: o.run.CompletedCount,
		IsRunning:      o.run.Status == model.QueueRunning,
		Error:          o.run.Error,
	}
}

// LastRun returns the record of the current or most recent run.
func (o *Orchestrator) LastRun() model.QueueRun {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.run
}

// Run resets the state and executes steps in order. The first failing step's
// error is recorded verbatim and returned unmodified; later steps are not
// invoked. ctx is handed to each step and is not checked between steps.
func (o *Orchestrator) Run(ctx context.Context, steps []Step) error {
	o.mu.Lock()
	if o.run.Status == model.QueueRunning {
		o.mu.Unlock()
		return ErrAlreadyRunning
	}
	o.run = model.QueueRun{
		ID:         uuid.New(),
		Status:     model.QueueRunning,
		TotalSteps: len(steps),
		StartedAt:  o.now().UTC(),
	}
	runID := o.run.ID
	o.mu.Unlock()

	logger := o.logger.With(zap.String("run_id", runID.String()))
	logger.Info("queue start", zap.Int("steps", len(steps)))

	// A panicking step fails the run before the panic propagates.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("step panicked", zap.Any("panic", r))
			o.finish(ctx, model.QueueFailed, fmt.Sprintf("step panicked: %v", r))
			panic(r)
		}
	}()

	for i, step := range steps {
		logger.Info("step start", zap.Int("index", i), zap.String("step", step.Name))

		if err := step.Do(ctx); err != nil {
			logger.Warn("step failed", zap.Int("index", i), zap.String("step", step.Name), zap.Error(err))
			o.finish(ctx, model.QueueFailed, err.Error())
			return err
		}

		o.mu.Lock()
		o.run.CompletedCount++
		snapshot := o.run
		o.mu.Unlock()

		for _, obs := range o.observers {
			obs.OnStep(ctx, snapshot, step.Name)
		}
		logger.Info("step committed", zap.Int("index", i), zap.String("step", step.Name), zap.Int("completed", snapshot.CompletedCount))
	}

	o.finish(ctx, model.QueueSucceeded, "")
	logger.Info("queue complete", zap.Int("steps", len(steps)))
	return nil
}

func (o *Orchestrator) finish(ctx context.Context, status model.QueueStatus, errMsg string) {
	o.mu.Lock()
	o.run.Status = status
	o.run.Error = errMsg
	o.run.FinishedAt = o.now().UTC()
	snapshot := o.run
	o.mu.Unlock()

	for _, obs := range o.observers {
		if err := obs.OnFinish(ctx, snapshot); err != nil {
			o.logger.Warn("queue observer", zap.String("run_id", snapshot.ID.String()), zap.Error(err))
		}
	}
}
