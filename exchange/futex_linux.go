//go:build linux

package exchange

import (
	"fmt"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"
)

// Futex operations without FUTEX_PRIVATE_FLAG: the phase words live in a
// file-backed mapping shared between two processes, so the private
// optimization must not be used.
const (
	futexOpWait = 0 // FUTEX_WAIT
	futexOpWake = 1 // FUTEX_WAKE
)

// futexWaitTimeout blocks until the value at addr is no longer val, the
// word is woken, or the timeout elapses. Spurious wakeups are possible;
// callers must re-check their condition in a loop.
func futexWaitTimeout(addr *uint32, val uint32, timeout time.Duration) error {
	// Re-check atomically right before the syscall so a wake between the
	// caller's snapshot and the futex entry is not lost.
	if atomic.LoadUint32(addr) != val {
		return nil
	}

	var ts syscall.Timespec
	tsPtr := uintptr(0)
	if timeout > 0 {
		ns := timeout.Nanoseconds()
		ts.Sec = ns / 1e9
		ts.Nsec = ns % 1e9
		tsPtr = uintptr(unsafe.Pointer(&ts))
	}

	_, _, errno := syscall.Syscall6(
		syscall.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		futexOpWait,
		uintptr(val),
		tsPtr,
		0,
		0,
	)

	switch errno {
	case 0:
		return nil
	case syscall.EAGAIN, syscall.EINTR:
		// Value changed before sleeping, or interrupted by a signal.
		return nil
	case syscall.ETIMEDOUT:
		return ErrFutexTimeout
	default:
		return fmt.Errorf("futex wait failed: %w", errno)
	}
}

// futexWake wakes up to n waiters blocked on addr.
func futexWake(addr *uint32, n int) (int, error) {
	r1, _, errno := syscall.Syscall6(
		syscall.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		futexOpWake,
		uintptr(n),
		0,
		0,
		0,
	)

	if errno != 0 {
		return 0, fmt.Errorf("futex wake failed: %w", errno)
	}

	return int(r1), nil
}
