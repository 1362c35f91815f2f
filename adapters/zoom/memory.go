package zoom

import (
	"context"
	"sync/atomic"

	"github.com/satriahrh/parlez/domain/repositories"
)

// Memory is a process-wide latched flag
type Memory struct {
	flag atomic.Bool
}

var _ repositories.ZoomSignal = (*Memory)(nil)

// NewMemory creates a cleared flag
func NewMemory() *Memory {
	return &Memory{}
}

// Set latches the flag; repeated sets before a poll collapse into one
func (m *Memory) Set(ctx context.Context) error {
	m.flag.Store(true)
	return nil
}

// PollAndReset returns true to exactly one caller per latched set
func (m *Memory) PollAndReset(ctx context.Context) (bool, error) {
	return m.flag.CompareAndSwap(true, false), nil
}
