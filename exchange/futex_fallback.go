//go:build !linux

package exchange

import (
	"sync/atomic"
	"time"
)

// Platforms without futexes fall back to polling the phase word. Wakes are
// no-ops; waiters notice the change on their next poll.

const fallbackPollInterval = 200 * time.Microsecond

func futexWaitTimeout(addr *uint32, val uint32, timeout time.Duration) error {
	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for atomic.LoadUint32(addr) == val {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return ErrFutexTimeout
		}
		time.Sleep(fallbackPollInterval)
	}

	return nil
}

func futexWake(_ *uint32, _ int) (int, error) {
	return 0, nil
}
