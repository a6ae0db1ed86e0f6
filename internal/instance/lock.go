// Package instance keeps a data directory to a single running engine;
// the event hub lives in process memory and cannot be shared.
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

var ErrAlreadyRunning = errors.New("another engine already uses this data directory")

const lockName = "hackhub.lock"

// Acquire takes an exclusive, non-blocking lock on dataDir. Call Unlock
// on the result when the process is done with the directory.
func Acquire(dataDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	fl := flock.New(filepath.Join(dataDir, lockName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", fl.Path(), err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return fl, nil
}
