package shm

import (
	"errors"

	"github.com/eclipse-score/corelibs-go/internal/osfs"
)

// Sentinel errors for the expected-contention class described in
// SPEC_FULL.md §7. Callers distinguish them with errors.Is.
// Anything outside this set reaching a caller is itself a bug: unrecoverable
// conditions go through the configured TerminateFunc instead of returning.
var (
	// ErrAlreadyExists is returned by Create/CreateAnonymous when the
	// backing object already exists (EEXIST-equivalent).
	ErrAlreadyExists = errors.New("shm: resource already exists")

	// ErrNotExist is returned by Open when the backing object is missing
	// (ENOENT-equivalent).
	ErrNotExist = errors.New("shm: resource does not exist")

	// ErrWouldBlock re-exports osfs.ErrWouldBlock for callers that want
	// errors.Is. FlockMutex.TryLock does not return it: contention is
	// reported as a false result.
	ErrWouldBlock = osfs.ErrWouldBlock

	// ErrLockFileStuck is returned by waitForLockFileGone when the lock file
	// is still present after the wait budget. The condition is first passed
	// to TerminateFunc; the error reaches a caller only when the configured
	// TerminateFunc returns instead of exiting.
	ErrLockFileStuck = errors.New("shm: lock file still present after wait budget")

	// ErrInvalidIdentifier is returned when a caller passes a zero
	// memory identifier to CreateAnonymous.
	ErrInvalidIdentifier = errors.New("shm: memory identifier must be non-zero")

	// ErrAllocationExceedsRegion is returned by Allocate when the request
	// does not fit, after the condition has been passed to TerminateFunc; it
	// reaches a caller only when the configured TerminateFunc returns.
	ErrAllocationExceedsRegion = errors.New("shm: allocation exceeds reserved region")
)
