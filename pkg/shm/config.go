// Package shm implements a named or anonymous mmap-backed shared-memory
// region with a monotonic bump allocator, guarded by a lock-file-based
// create/open protocol so concurrent creators and openers never race.
//
// A Resource is obtained via [Create], [CreateAnonymous], [CreateOrOpen] or
// [Open]. Allocation within it never shrinks and never frees; it exists to
// hand out sub-regions of one mapped segment to cooperating processes, not
// to replace a general-purpose allocator.
package shm

import (
	"log"
	"os"
	"time"

	"github.com/eclipse-score/corelibs-go/internal/osfs"
)

// TerminateFunc is called in place of the original's std::terminate() for
// conditions the protocol treats as unrecoverable programmer-or-environment
// failures (see SPEC_FULL.md §7). The default logs
// and calls os.Exit(1); tests inject one that records the call instead.
type TerminateFunc func(format string, args ...any)

// Config carries the overridable knobs of the create/open protocol. The
// zero value is not usable directly; build one with NewConfig and Option
// functions, mirroring the teacher's functional-options convention.
type Config struct {
	fs             osfs.FS
	tempDir        string
	shmDir         string
	lockWaitBudget time.Duration
	lockWaitPoll   time.Duration
	terminate      TerminateFunc
	typedMemory    TypedMemoryProvider
	aclFactory     ACLFactory
}

// Option configures a Config.
type Option func(*Config)

// WithFS overrides the filesystem abstraction. Defaults to osfs.NewReal().
func WithFS(fsys osfs.FS) Option {
	return func(c *Config) { c.fs = fsys }
}

// WithTempDir overrides the directory lock files are created under.
// Defaults to os.TempDir().
func WithTempDir(dir string) Option {
	return func(c *Config) { c.tempDir = dir }
}

// WithShmDir overrides the directory named shared-memory objects are
// created under. Defaults to /dev/shm. Tests use this to avoid depending on
// /dev/shm's real permissions.
func WithShmDir(dir string) Option {
	return func(c *Config) { c.shmDir = dir }
}

// WithLockWaitBudget overrides the total time an opener waits for a
// creator's lock file to disappear. Defaults to 500ms.
func WithLockWaitBudget(d time.Duration) Option {
	return func(c *Config) { c.lockWaitBudget = d }
}

// WithLockWaitPollInterval overrides the polling interval used while
// waiting on the lock file. Defaults to 10ms.
func WithLockWaitPollInterval(d time.Duration) Option {
	return func(c *Config) { c.lockWaitPoll = d }
}

// WithTerminateFunc overrides the hook called on unrecoverable errors.
func WithTerminateFunc(fn TerminateFunc) Option {
	return func(c *Config) { c.terminate = fn }
}

// WithTypedMemoryProvider injects a typed-memory allocator. Defaults to nil
// (ordinary system shared memory only); see DESIGN.md for why this path is
// unexercised on Linux outside of tests.
func WithTypedMemoryProvider(p TypedMemoryProvider) Option {
	return func(c *Config) { c.typedMemory = p }
}

// WithACLFactory overrides how an ACL is constructed from an open fd.
func WithACLFactory(f ACLFactory) Option {
	return func(c *Config) { c.aclFactory = f }
}

// NewConfig builds a Config with defaults matching the protocol's
// originally observed timings, then applies opts in order.
func NewConfig(opts ...Option) *Config {
	fsys := osfs.NewReal()

	c := &Config{
		fs:             fsys,
		tempDir:        os.TempDir(),
		shmDir:         "/dev/shm",
		lockWaitBudget: 500 * time.Millisecond,
		lockWaitPoll:   10 * time.Millisecond,
		terminate:      defaultTerminate,
		aclFactory:     NewUnixACL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func defaultTerminate(format string, args ...any) {
	log.Printf("shm: fatal: "+format, args...)
	os.Exit(1)
}
