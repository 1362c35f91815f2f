package saga

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// compensationTimeout bounds cleanup after a failed saga, even when the
// caller's context has already been cancelled
const compensationTimeout = 10 * time.Second

// Manager runs step lists to completion or compensation
type Manager struct {
	logger    *zap.Logger
	observers []Observer
}

// NewManager creates a new saga manager
func NewManager(logger *zap.Logger, observers ...Observer) *Manager {
	return &Manager{logger: logger, observers: observers}
}

// Run executes steps in order. When a step fails, that step and every
// completed step are compensated in reverse order and the step error is returned.
func (m *Manager) Run(ctx context.Context, sagaID SagaID, steps []Step, data SagaData) (*SagaInstance, error) {
	instance := &SagaInstance{
		ID:        sagaID,
		State:     SagaStateRunning,
		Steps:     make([]StepExecution, len(steps)),
		StartedAt: time.Now(),
	}
	for i, step := range steps {
		instance.Steps[i] = StepExecution{ID: step.ID(), State: StepStatePending}
	}

	for i, step := range steps {
		if err := m.executeStep(ctx, instance, i, step, data); err != nil {
			m.logger.Error("Step failed",
				zap.String("sagaID", string(sagaID)),
				zap.String("stepID", string(step.ID())),
				zap.Error(err))

			m.compensate(instance, steps[:i+1], data)
			instance.Error = err.Error()
			return instance, err
		}
	}

	instance.State = SagaStateCompleted
	instance.CompletedAt = time.Now()

	m.logger.Debug("Saga completed",
		zap.String("sagaID", string(sagaID)),
		zap.Duration("elapsed", instance.CompletedAt.Sub(instance.StartedAt)))
	return instance, nil
}

// executeStep executes a single step under its own deadline when it has one
func (m *Manager) executeStep(ctx context.Context, instance *SagaInstance, index int, step Step, data SagaData) error {
	if err := ctx.Err(); err != nil {
		instance.Steps[index].State = StepStateFailed
		instance.Steps[index].Error = err.Error()
		return fmt.Errorf("step %s not started: %w", step.ID(), err)
	}

	stepCtx := ctx
	if timed, ok := step.(TimedStep); ok && timed.Timeout() > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, timed.Timeout())
		defer cancel()
	}

	instance.Steps[index].State = StepStateRunning
	start := time.Now()

	err := step.Execute(stepCtx, data)

	exec := &instance.Steps[index]
	exec.Duration = time.Since(start)
	if err != nil {
		exec.State = StepStateFailed
		exec.Error = err.Error()
	} else {
		exec.State = StepStateCompleted
	}

	for _, observe := range m.observers {
		observe(instance.ID, *exec)
	}
	return err
}

// compensate undoes steps in reverse order
func (m *Manager) compensate(instance *SagaInstance, steps []Step, data SagaData) {
	ctx, cancel := context.WithTimeout(context.Background(), compensationTimeout)
	defer cancel()

	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if err := step.Compensate(ctx, data); err != nil {
			m.logger.Error("Compensation failed",
				zap.String("sagaID", string(instance.ID)),
				zap.String("stepID", string(step.ID())),
				zap.Error(err))
			continue
		}
		instance.Steps[i].State = StepStateCompensated
	}

	instance.State = SagaStateCompensated
	instance.CompletedAt = time.Now()

	m.logger.Info("Saga compensated", zap.String("sagaID", string(instance.ID)))
}
