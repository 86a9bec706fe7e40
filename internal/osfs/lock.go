package osfs

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// ErrWouldBlock is returned by [Locker.TryLock]/[Locker.TryRLock] when the
// lock is already held elsewhere.
var ErrWouldBlock = errors.New("osfs: lock would block")

// ErrInvalidTimeout is returned when a non-positive timeout is passed to
// [Locker.LockWithTimeout]/[Locker.RLockWithTimeout].
var ErrInvalidTimeout = errors.New("osfs: invalid timeout")

// errInodeMismatch is an internal sentinel: the path was replaced between
// opening the lock file and flock-ing it (TOCTOU). The caller retries.
var errInodeMismatch = errors.New("osfs: lock file replaced concurrently")

const (
	lockFilePerm = 0o600
	lockDirPerm  = 0o755
)

type lockType int

const (
	sharedLock    lockType = unix.LOCK_SH
	exclusiveLock lockType = unix.LOCK_EX
)

// Locker creates advisory flock(2)-based locks anchored at filesystem paths.
//
// It is the injected-dependency replacement for a global lock singleton: a
// caller constructs one with the FS it wants instead of reaching for
// package-level state. pkg/shm does not use it; its lock-file protocol and
// allocation lock work on descriptors directly.
type Locker struct {
	fs    FS
	flock func(fd int, how int) error
}

// NewLocker returns a Locker that creates lock files through fsys.
func NewLocker(fsys FS) *Locker {
	return &Locker{fs: fsys, flock: flockSyscall}
}

// Lock is a held advisory lock. Close releases it. The zero value is not
// usable; obtain a Lock via one of the Locker methods.
type Lock struct {
	mu   sync.Mutex
	file File
}

// Close releases the lock and closes the underlying file descriptor. Safe to
// call multiple times and safe to call on a nil *Lock.
func (l *Lock) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	unlockErr := flockRetryEINTR(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	return errors.Join(unlockErr, closeErr)
}

// Lock blocks until it acquires an exclusive lock on path, creating the lock
// file (and its parent directories) if necessary.
func (lk *Locker) Lock(path string) (*Lock, error) {
	return lk.lockBlocking(path, exclusiveLock)
}

// RLock blocks until it acquires a shared lock on path.
func (lk *Locker) RLock(path string) (*Lock, error) {
	return lk.lockBlocking(path, sharedLock)
}

// TryLock makes a single non-blocking attempt to acquire an exclusive lock.
// Returns ErrWouldBlock if another holder has the lock.
func (lk *Locker) TryLock(path string) (*Lock, error) {
	return lk.tryOnce(path, exclusiveLock)
}

// TryRLock makes a single non-blocking attempt to acquire a shared lock.
func (lk *Locker) TryRLock(path string) (*Lock, error) {
	return lk.tryOnce(path, sharedLock)
}

// LockWithTimeout polls for an exclusive lock until it succeeds or timeout
// elapses, using capped exponential backoff between attempts.
func (lk *Locker) LockWithTimeout(path string, timeout time.Duration) (*Lock, error) {
	return lk.lockPolling(path, exclusiveLock, timeout)
}

// RLockWithTimeout polls for a shared lock until it succeeds or timeout
// elapses.
func (lk *Locker) RLockWithTimeout(path string, timeout time.Duration) (*Lock, error) {
	return lk.lockPolling(path, sharedLock, timeout)
}

func (lk *Locker) lockBlocking(path string, lt lockType) (*Lock, error) {
	for {
		lock, err := lk.acquire(path, lt, false)
		if errors.Is(err, errInodeMismatch) {
			continue
		}

		return lock, err
	}
}

func (lk *Locker) tryOnce(path string, lt lockType) (*Lock, error) {
	for {
		lock, err := lk.acquire(path, lt, true)
		if errors.Is(err, errInodeMismatch) {
			continue
		}

		return lock, err
	}
}

func (lk *Locker) lockPolling(path string, lt lockType, timeout time.Duration) (*Lock, error) {
	if timeout <= 0 {
		return nil, ErrInvalidTimeout
	}

	deadline := time.Now().Add(timeout)
	backoff := time.Millisecond

	const maxBackoff = 25 * time.Millisecond

	for {
		lock, err := lk.acquire(path, lt, true)

		switch {
		case err == nil:
			return lock, nil
		case errors.Is(err, errInodeMismatch):
			continue
		case !errors.Is(err, ErrWouldBlock):
			return nil, err
		}

		if time.Now().After(deadline) {
			return nil, ErrWouldBlock
		}

		time.Sleep(backoff)

		backoff = min(backoff*2, maxBackoff)
	}
}

// acquire opens (creating parents as needed) the lock file, flocks it, and
// verifies the file it locked is still the file at path.
//
// The inode check guards against a narrow but real race: between opening
// path and flock-ing the resulting descriptor, another process could have
// unlinked and recreated path (e.g. a crashed-creator cleanup). flock locks
// the open file, not the path, so without this check we could hold a lock on
// a file nobody can see anymore while a fresh file sits at path unlocked.
func (lk *Locker) acquire(path string, lt lockType, nonBlocking bool) (*Lock, error) {
	file, err := lk.openLockFile(path)
	if err != nil {
		return nil, err
	}

	how := int(lt)
	if nonBlocking {
		how |= unix.LOCK_NB
	}

	flockErr := flockRetryEINTR(int(file.Fd()), how)
	if flockErr != nil {
		_ = file.Close()

		if nonBlocking && errors.Is(flockErr, unix.EWOULDBLOCK) {
			return nil, ErrWouldBlock
		}

		return nil, fmt.Errorf("osfs: flock %q: %w", path, flockErr)
	}

	matches, err := inodeMatchesPath(lk.fs, file, path)
	if err != nil {
		_ = flockRetryEINTR(int(file.Fd()), unix.LOCK_UN)
		_ = file.Close()

		return nil, fmt.Errorf("osfs: verify lock file identity %q: %w", path, err)
	}

	if !matches {
		_ = flockRetryEINTR(int(file.Fd()), unix.LOCK_UN)
		_ = file.Close()

		return nil, errInodeMismatch
	}

	return &Lock{file: file}, nil
}

func (lk *Locker) openLockFile(path string) (File, error) {
	file, err := lk.fs.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFilePerm)
	if err == nil {
		return file, nil
	}

	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("osfs: open lock file %q: %w", path, err)
	}

	dir := parentDir(path)

	mkdirErr := lk.fs.MkdirAll(dir, lockDirPerm)
	if mkdirErr != nil {
		return nil, fmt.Errorf("osfs: create lock file directory %q: %w", dir, mkdirErr)
	}

	file, err = lk.fs.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFilePerm)
	if err != nil {
		return nil, fmt.Errorf("osfs: open lock file %q: %w", path, err)
	}

	return file, nil
}

// inodeMatchesPath reports whether file's (dev,ino) still matches the file
// currently at path.
func inodeMatchesPath(fsys FS, file File, path string) (bool, error) {
	openInfo, err := file.Stat()
	if err != nil {
		return false, fmt.Errorf("stat open fd: %w", err)
	}

	pathInfo, err := fsys.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("stat path: %w", err)
	}

	return os.SameFile(openInfo, pathInfo), nil
}

const maxEINTRRetries = 10000

func flockSyscall(fd int, how int) error {
	return unix.Flock(fd, how)
}

func flockRetryEINTR(fd int, how int) error {
	for range maxEINTRRetries {
		err := flockSyscall(fd, how)
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}

	return fmt.Errorf("osfs: flock retried %d times on EINTR", maxEINTRRetries)
}

func parentDir(path string) string {
	i := len(path) - 1
	for i >= 0 && path[i] != '/' {
		i--
	}

	if i <= 0 {
		return "."
	}

	return path[:i]
}
