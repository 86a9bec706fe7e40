package shm

import (
	"errors"

	"golang.org/x/sys/unix"
)

// FlockMutex is an advisory lock over an already-open LockFile descriptor.
// It implements sync.Locker's method set (Lock/Unlock) plus TryLock, so it
// composes with FlockMutexAndLock below.
//
// Any flock failure other than EWOULDBLOCK on the non-blocking path is
// treated as unrecoverable: it means the fd or the requested operation
// itself is invalid, which would otherwise silently corrupt the create/open
// protocol. Lock/Unlock call the configured TerminateFunc in that case
// instead of returning an error, mirroring the original's std::terminate().
type FlockMutex struct {
	fd         int
	blockingOp int
	tryOp      int
	terminate  TerminateFunc
}

// NewExclusiveFlockMutex returns a FlockMutex that takes an exclusive lock
// on lf's descriptor.
func NewExclusiveFlockMutex(lf *LockFile, terminate TerminateFunc) *FlockMutex {
	return &FlockMutex{
		fd:         int(lf.fd()), //nolint:gosec // fd from os-managed descriptor
		blockingOp: unix.LOCK_EX,
		tryOp:      unix.LOCK_EX | unix.LOCK_NB,
		terminate:  terminate,
	}
}

// NewSharedFlockMutex returns a FlockMutex that takes a shared lock on lf's
// descriptor.
func NewSharedFlockMutex(lf *LockFile, terminate TerminateFunc) *FlockMutex {
	return &FlockMutex{
		fd:         int(lf.fd()), //nolint:gosec // fd from os-managed descriptor
		blockingOp: unix.LOCK_SH,
		tryOp:      unix.LOCK_SH | unix.LOCK_NB,
		terminate:  terminate,
	}
}

// Lock blocks until the lock is acquired. Any error terminates the process.
func (m *FlockMutex) Lock() {
	if err := unix.Flock(m.fd, m.blockingOp); err != nil {
		m.terminate("flock locking operation failed: %v", err)
	}
}

// TryLock makes one non-blocking attempt. It returns false (no error) if the
// lock is already held elsewhere; any other failure terminates the process.
func (m *FlockMutex) TryLock() bool {
	err := unix.Flock(m.fd, m.tryOp)
	if err == nil {
		return true
	}

	if errors.Is(err, unix.EWOULDBLOCK) {
		return false
	}

	m.terminate("flock try-locking operation failed: %v", err)

	return false
}

// Unlock releases the lock. Any error terminates the process.
func (m *FlockMutex) Unlock() {
	if err := unix.Flock(m.fd, unix.LOCK_UN); err != nil {
		m.terminate("flock unlocking operation failed: %v", err)
	}
}

// FlockMutexAndLock aggregates a FlockMutex with a deferred guard over it,
// the Go analogue of the original's std::unique_lock<T> pairing. It is not
// copyable: copying would let two holders believe they each independently
// control the same OS-level lock state.
type FlockMutexAndLock struct {
	_     [0]func() // marks this type as non-comparable/non-copyable by convention
	mutex *FlockMutex
	held  bool
}

// NewFlockMutexAndLock wraps mutex in a deferred (unlocked) guard.
func NewFlockMutexAndLock(mutex *FlockMutex) *FlockMutexAndLock {
	return &FlockMutexAndLock{mutex: mutex}
}

// TryLock attempts to acquire the guarded mutex, recording whether it
// succeeded so a later Unlock only fires if this call actually took it.
func (g *FlockMutexAndLock) TryLock() bool {
	g.held = g.mutex.TryLock()
	return g.held
}

// Unlock releases the mutex if TryLock previously succeeded; a no-op
// otherwise.
func (g *FlockMutexAndLock) Unlock() {
	if !g.held {
		return
	}

	g.held = false

	g.mutex.Unlock()
}
