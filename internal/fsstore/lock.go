package fsstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	LockFileName  = "moodbot.lock"
	lockRetryWait = 25 * time.Millisecond
)

// WithLock runs fn while holding an exclusive lock on dir/LockFileName.
// It waits for a concurrent holder until ctx is done.
func WithLock(ctx context.Context, dir string, fn func() error) error {
	d, err := normalizePath(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d, dirPerm); err != nil {
		return fmt.Errorf("fsstore ensure dir %s: %w", d, err)
	}
	return withLockFile(ctx, filepath.Join(d, LockFileName), fn)
}

func writeLockOwner(file *os.File) {
	_ = file.Truncate(0)
	_, _ = fmt.Fprintf(file, "pid=%d\n", os.Getpid())
}

func waitRetry(ctx context.Context, lockPath string) error {
	timer := time.NewTimer(lockRetryWait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %v", ErrLockTimeout, lockPath, ctx.Err())
	case <-timer.C:
		return nil
	}
}
