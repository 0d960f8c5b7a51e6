// Package notify delivers operator reports over external channels.
package notify

import "context"

// Notifier pushes a text message to a recipient. Implementations may block
// on network I/O; callers must never invoke them while holding the job
// store lock.
type Notifier interface {
	Deliver(ctx context.Context, recipient, text string) error
}

// Multi fans out to every configured channel. The first error is returned
// after all channels have been attempted.
type Multi []Notifier

func (m Multi) Deliver(ctx context.Context, recipient, text string) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Deliver(ctx, recipient, text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
