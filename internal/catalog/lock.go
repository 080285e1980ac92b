package catalog

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gofrs/flock"
)

const lockPollInterval = 200 * time.Millisecond

// acquireLock takes the catalog's advisory lock, polling until the
// configured timeout. The returned func releases it.
func (c *Catalog) acquireLock() (func(), error) {
	l := flock.New(c.LockPath())

	if c.lockTimeout < 0 {
		if err := l.Lock(); err != nil {
			return nil, errors.Wrapf(err, "cannot acquire catalog lock %s", c.LockPath())
		}
		return func() { _ = l.Unlock() }, nil
	}

	deadline := timeNow().Add(c.lockTimeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, errors.Wrapf(err, "cannot acquire catalog lock %s", c.LockPath())
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if c.lockTimeout == 0 || timeNow().After(deadline) {
			return nil, errors.Wrapf(ErrLockTimeout, "%s after %s", c.LockPath(), c.lockTimeout)
		}
		time.Sleep(lockPollInterval)
	}
}
