package room

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
)

// Lock is a mutex that hands ownership to waiters in arrival order. A blocked
// Acquire gives up when its context is done.
type Lock struct {
	slot chan struct{}
}

func NewLock() *Lock {
	return &Lock{
		slot: make(chan struct{}, 1),
	}
}

func (that *Lock) Acquire(ctx context.Context) error {
	select {
	case that.slot <- struct{}{}:
		return nil
	default:
	}

	select {
	case that.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", apperror.ErrLockTimeout, ctx.Err())
	}
}

// Release must only be called by the current owner.
func (that *Lock) Release() {
	<-that.slot
}
