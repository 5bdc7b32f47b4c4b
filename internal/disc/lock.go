package disc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"cdrip/internal/services"
)

const lockRetryDelay = 250 * time.Millisecond

// DriveLock is an advisory file lock that serializes drive access between
// cdrip processes, so a rip and a CD playback never read the disc together.
type DriveLock struct {
	path string
	lock *flock.Flock
}

// NewDriveLock returns a lock backed by the file at path.
func NewDriveLock(path string) *DriveLock {
	return &DriveLock{path: path, lock: flock.New(path)}
}

// Path returns the lock file location.
func (l *DriveLock) Path() string { return l.path }

// Acquire waits up to timeout for the lock. A timeout <= 0 tries once.
// Contention is reported as a precondition failure.
func (l *DriveLock) Acquire(ctx context.Context, timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return services.Wrap(services.ErrPrecondition, "disc", "lock", "create lock directory", err)
	}

	var (
		ok  bool
		err error
	)
	if timeout <= 0 {
		ok, err = l.lock.TryLock()
	} else {
		lockCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		ok, err = l.lock.TryLockContext(lockCtx, lockRetryDelay)
		if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = nil
		}
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrPrecondition, "disc", "lock", l.path, err)
	}
	if !ok {
		return services.Wrap(services.ErrPrecondition, "disc", "lock",
			fmt.Sprintf("optical drive busy (held by another cdrip process, lock %s)", l.path), nil)
	}
	return nil
}

// Release unlocks the drive. Releasing an unheld lock is a no-op.
func (l *DriveLock) Release() error {
	if !l.lock.Locked() {
		return nil
	}
	return l.lock.Unlock()
}
