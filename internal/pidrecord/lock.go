package pidrecord

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryInterval is the interval between attempts to acquire the
// record lock. Contention is rare (two racing CLI invocations), so a
// coarse interval costs nothing.
const lockRetryInterval = 50 * time.Millisecond

// Lock acquires an exclusive lock guarding mutations of the record.
// The lock lives in a sidecar file next to the record so that locking
// never interferes with the record's own create/remove cycle. The
// returned release func is safe to call once; the sidecar file is left
// on disk to avoid invalidating a lock acquired concurrently by
// another process.
func (f File) Lock(ctx context.Context) (release func(), err error) {
	fl := flock.New(f.Path + ".lock")
	locked, err := fl.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquiring record lock %s: %w", fl.Path(), err)
	}
	if !locked {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acquiring record lock %s: %w", fl.Path(), ctx.Err())
		}
		return nil, fmt.Errorf("acquiring record lock %s: lock not acquired", fl.Path())
	}
	return func() { _ = fl.Close() }, nil
}
