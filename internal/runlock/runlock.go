// Package runlock serialises batch runs that write into the same output tree.
package runlock

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another run holds the lock for the same target.
var ErrLocked = errors.New("output directory is in use by another scalabatch run")

// Lock is an exclusive advisory lock keyed by an output directory.
type Lock struct {
	target string
	path   string
	lock   *flock.Flock
}

// PathFor returns the lock file used for target under lockDir.
func PathFor(lockDir, target string) string {
	abs, err := filepath.Abs(target)
	if err != nil {
		abs = filepath.Clean(target)
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(lockDir, "target-"+hex.EncodeToString(sum[:8])+".lock")
}

// Acquire takes the lock for target without blocking.
func Acquire(lockDir, target string) (*Lock, error) {
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock dir: %w", err)
	}
	path := PathFor(lockDir, target)
	l := &Lock{target: target, path: path, lock: flock.New(path)}
	ok, err := l.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s (lock %s)", ErrLocked, target, path)
	}
	return l, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
