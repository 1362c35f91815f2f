package repositories

import "context"

// ZoomSignal is a latched flag telling the presentation client to zoom in.
// PollAndReset returns the current value and clears it atomically, so a single
// Set is observed by at most one poller.
type ZoomSignal interface {
	Set(ctx context.Context) error
	PollAndReset(ctx context.Context) (bool, error)
}
