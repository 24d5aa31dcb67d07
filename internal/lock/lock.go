// Package lock provides the guard that keeps sync passes from overlapping.
package lock

import (
	"context"
	"sync"
)

// Release gives a held lock back
type Release func(ctx context.Context) error

// Locker hands out a single exclusive lease
type Locker interface {
	// TryLock returns acquired=false without blocking when the lease is held elsewhere
	TryLock(ctx context.Context) (release Release, acquired bool, err error)
}

// Local guards passes within one process
type Local struct {
	mu sync.Mutex
}

// NewLocal creates an in-process Locker
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) TryLock(_ context.Context) (Release, bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(l.mu.Unlock)
		return nil
	}, true, nil
}

var _ Locker = (*Local)(nil)
