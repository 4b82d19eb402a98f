package services

import (
	"context"
	"sync/atomic"
	"time"
)

// storageTimeoutNanos bounds every storage round-trip started by a service
// so a wedged pool surfaces as an error instead of a hung request.
var storageTimeoutNanos atomic.Int64

func init() {
	storageTimeoutNanos.Store(int64(5 * time.Second))
}

// SetStorageTimeout overrides the per-call storage deadline. Called once at
// startup from config.
func SetStorageTimeout(d time.Duration) {
	if d > 0 {
		storageTimeoutNanos.Store(int64(d))
	}
}

func storageCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(storageTimeoutNanos.Load()))
}
