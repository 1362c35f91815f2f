package saga

import (
	"context"
	"time"
)

// SagaState represents the current state of a saga execution
type SagaState string

const (
	SagaStateRunning     SagaState = "running"
	SagaStateCompleted   SagaState = "completed"
	SagaStateCompensated SagaState = "compensated"
)

// StepState represents the state of an individual step
type StepState string

const (
	StepStatePending     StepState = "pending"
	StepStateRunning     StepState = "running"
	StepStateCompleted   StepState = "completed"
	StepStateFailed      StepState = "failed"
	StepStateCompensated StepState = "compensated"
)

// SagaID uniquely identifies a saga instance
type SagaID string

// StepID uniquely identifies a step within a saga
type StepID string

// SagaData holds the shared data for a saga execution.
// Steps of one saga run sequentially, so it needs no locking.
type SagaData map[string]interface{}

// Step represents a single step in a saga
type Step interface {
	ID() StepID
	Execute(ctx context.Context, data SagaData) error
	// Compensate undoes whatever Execute left behind. It is also called for
	// the failing step, so it must tolerate a partial Execute.
	Compensate(ctx context.Context, data SagaData) error
}

// TimedStep is a Step with its own execution deadline
type TimedStep interface {
	Step
	Timeout() time.Duration
}

// SagaInstance records one execution of a step list
type SagaInstance struct {
	ID          SagaID          `json:"id"`
	State       SagaState       `json:"state"`
	Steps       []StepExecution `json:"steps"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
	Error       string          `json:"error,omitempty"`
}

// StepExecution represents the execution state of a step
type StepExecution struct {
	ID       StepID        `json:"id"`
	State    StepState     `json:"state"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Observer is notified after every step execution
type Observer func(id SagaID, exec StepExecution)
