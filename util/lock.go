package util

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"infraglue.org/failure"
)

// ErrLocked is returned by Lock when another holder kept the lock for the
// whole acquisition timeout.
var ErrLocked = errors.New("lock held by another process")

// lockRetry is how often a busy lock is retried.
var lockRetry = 100 * time.Millisecond

// FileLock is an exclusive advisory lock on a file.
type FileLock struct {
	f *os.File
}

// Lock takes an exclusive lock on path, creating the file if needed. It
// retries until timeout has elapsed and then returns ErrLocked. A zero
// timeout tries exactly once.
func Lock(path string, timeout time.Duration) (*FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, failure.Wrap(failure.Validation, err, "lock dir")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, failure.Wrap(failure.Validation, err, "lock file")
	}
	deadline := time.Now().Add(timeout)
	for {
		ok, err := tryLock(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "lock %s", path)
		}
		if ok {
			return &FileLock{f: f}, nil
		}
		if !time.Now().Before(deadline) {
			f.Close()
			return nil, ErrLocked
		}
		time.Sleep(lockRetry)
	}
}

// Unlock releases the lock. The lock file is left in place so that the
// next holder locks the same inode.
func (l *FileLock) Unlock() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unlock(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
