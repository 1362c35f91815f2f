package saga

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type recordingStep struct {
	id      StepID
	err     error
	timeout time.Duration
	block   bool
	log     *[]string
}

func (s *recordingStep) ID() StepID { return s.id }

func (s *recordingStep) Timeout() time.Duration { return s.timeout }

func (s *recordingStep) Execute(ctx context.Context, data SagaData) error {
	*s.log = append(*s.log, "exec:"+string(s.id))
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	data[string(s.id)] = true
	return s.err
}

func (s *recordingStep) Compensate(ctx context.Context, data SagaData) error {
	*s.log = append(*s.log, "comp:"+string(s.id))
	return nil
}

func equalLog(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected log %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected log %v, got %v", want, got)
		}
	}
}

func TestManager_RunCompletes(t *testing.T) {
	var log []string
	steps := []Step{
		&recordingStep{id: "a", log: &log},
		&recordingStep{id: "b", log: &log},
	}

	var observed []StepExecution
	m := NewManager(zap.NewNop(), func(id SagaID, exec StepExecution) {
		observed = append(observed, exec)
	})

	data := SagaData{}
	instance, err := m.Run(context.Background(), "req-1", steps, data)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if instance.State != SagaStateCompleted {
		t.Errorf("Expected completed state, got %s", instance.State)
	}
	equalLog(t, log, []string{"exec:a", "exec:b"})
	if data["a"] != true || data["b"] != true {
		t.Error("Steps should share saga data")
	}
	if len(observed) != 2 || observed[1].State != StepStateCompleted {
		t.Errorf("Expected two completed observations, got %+v", observed)
	}
}

func TestManager_RunCompensatesInReverse(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	steps := []Step{
		&recordingStep{id: "a", log: &log},
		&recordingStep{id: "b", log: &log},
		&recordingStep{id: "c", log: &log, err: boom},
		&recordingStep{id: "d", log: &log},
	}

	m := NewManager(zap.NewNop())
	instance, err := m.Run(context.Background(), "req-2", steps, SagaData{})

	if !errors.Is(err, boom) {
		t.Fatalf("Expected step error, got %v", err)
	}
	if instance.State != SagaStateCompensated {
		t.Errorf("Expected compensated state, got %s", instance.State)
	}
	equalLog(t, log, []string{"exec:a", "exec:b", "exec:c", "comp:c", "comp:b", "comp:a"})
	if instance.Steps[3].State != StepStatePending {
		t.Errorf("Step after failure should never run, got %s", instance.Steps[3].State)
	}
}

func TestManager_StepTimeout(t *testing.T) {
	var log []string
	steps := []Step{
		&recordingStep{id: "slow", log: &log, block: true, timeout: 20 * time.Millisecond},
	}

	m := NewManager(zap.NewNop())
	start := time.Now()
	_, err := m.Run(context.Background(), "req-3", steps, SagaData{})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Step timeout was not applied")
	}
}

func TestManager_CancelledContextSkipsSteps(t *testing.T) {
	var log []string
	steps := []Step{&recordingStep{id: "a", log: &log}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewManager(zap.NewNop())
	_, err := m.Run(ctx, "req-4", steps, SagaData{})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context canceled, got %v", err)
	}
	equalLog(t, log, []string{"comp:a"})
}
