package shm

import (
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/eclipse-score/corelibs-go/internal/osfs"
)

// InitializeFunc runs exactly once, on the process that wins the create
// race, with the Resource already mapped and its control block ready for
// the caller's own payload to be laid out via Allocate. It is the Go
// rendition of the original's post-construction initializer callback.
type InitializeFunc func(*Resource) error

// locker is the allocation-serialization primitive a Resource holds: either
// a real FlockMutex (cross-process) in every configuration this port
// supports, since flock works the same whether the other end reached the
// fd via a shared path or via fd inheritance.
type locker interface {
	Lock()
	Unlock()
}

// Resource is a named or anonymous mmap-backed shared-memory region with a
// monotonic bump allocator. See the package doc for the create/open
// protocol it implements.
type Resource struct {
	cfg              *Config
	fd               int
	path             string // empty for anonymous resources
	anonymous        bool
	memoryIdentifier uint64
	data             []byte
	cb               *controlBlock
	allocMu          locker
	typedMemory      bool

	mu     sync.Mutex
	closed bool
}

func identifierForPath(path string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(path))

	return h.Sum64()
}

func alignUp(v, alignment uintptr) uintptr {
	if alignment == 0 {
		alignment = 1
	}

	return (v + alignment - 1) &^ (alignment - 1)
}

func lockFilePath(cfg *Config, path string) string {
	name := strings.ReplaceAll(strings.TrimPrefix(path, "/"), "/", "_")

	return filepath.Join(cfg.tempDir, name+"_lock")
}

func shmObjectPath(cfg *Config, path string) string {
	return filepath.Join(cfg.shmDir, strings.TrimPrefix(path, "/"))
}

// Create creates a new named shared-memory region of userSize usable bytes
// (plus the control block's own reservation), running init exactly once on
// success before returning. It fails with ErrAlreadyExists if path is
// already taken or is in the middle of being created by another process.
func Create(cfg *Config, path string, userSize uintptr, init InitializeFunc, perms UserPermissions) (*Resource, error) {
	if cfg == nil {
		cfg = NewConfig()
	}

	lf, err := CreateLockFile(cfg.fs, lockFilePath(cfg, path))
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("shm: create %q: %w", path, ErrAlreadyExists)
		}

		return nil, err
	}

	res, err := createNamedBackingObject(cfg, path, userSize, perms)
	if err != nil {
		_ = lf.Close()

		return nil, err
	}

	if init != nil {
		if err := init(res); err != nil {
			_ = res.UnlinkFilesystemEntry()
			_ = res.Close()
			_ = lf.Close()

			return nil, fmt.Errorf("shm: initialize %q: %w", path, err)
		}
	}

	// Closing (and thereby unlinking) the lock file is the signal openers
	// poll for: creation, including init, is now complete.
	if err := lf.Close(); err != nil {
		return nil, fmt.Errorf("shm: finalize create %q: %w", path, err)
	}

	return res, nil
}

func createNamedBackingObject(cfg *Config, path string, userSize uintptr, perms UserPermissions) (*Resource, error) {
	total := userSize + controlBlockSize

	var (
		fd          int
		typedMemory bool
	)

	if cfg.typedMemory != nil {
		tfd, err := cfg.typedMemory.AllocateNamedTypedMemory(total, path, perms)
		if err == nil {
			fd, typedMemory = tfd, true
		}
	}

	if !typedMemory {
		f, err := cfg.fs.OpenFile(shmObjectPath(cfg, path), os.O_CREATE|os.O_EXCL|os.O_RDWR, os.FileMode(perms.statMode())) //nolint:gosec // statMode is one of three fixed constants
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				return nil, fmt.Errorf("shm: create %q: %w", path, ErrAlreadyExists)
			}

			return nil, fmt.Errorf("shm: create backing object %q: %w", path, err)
		}

		fd = int(f.Fd()) //nolint:gosec // fd from os-managed descriptor

		if err := unix.Ftruncate(fd, int64(total)); err != nil { //nolint:gosec // total is a small configured size
			_ = f.Close()

			return nil, fmt.Errorf("shm: ftruncate %q: %w", path, err)
		}
	}

	// Permissions are applied only to ordinary shm objects; a typed-memory
	// object keeps the access its provider gave it.
	if !typedMemory {
		if err := applyPermissions(fd, cfg.aclFactory, perms); err != nil {
			_ = unix.Close(fd)

			return nil, err
		}
	}

	data, err := mapRegion(fd, total)
	if err != nil {
		_ = unix.Close(fd)

		return nil, err
	}

	id := identifierForPath(path)

	res := &Resource{
		cfg:              cfg,
		fd:               fd,
		path:             path,
		memoryIdentifier: id,
		data:             data,
		cb:               newControlBlockView(data),
		allocMu:          newAllocMutex(fd, cfg.terminate),
		typedMemory:      typedMemory,
	}

	if !registryInsert(id, res) {
		_ = res.Close()
		cfg.terminate("shm: memory identifier for %q already registered in this process", path)

		return nil, ErrAlreadyExists
	}

	res.cb.init(id)

	return res, nil
}

// CreateAnonymous creates an in-process shared-memory region identified
// only by id, shared with other processes solely via fd inheritance. id
// must be non-zero.
func CreateAnonymous(cfg *Config, id uint64, userSize uintptr, init InitializeFunc, perms UserPermissions) (*Resource, error) {
	if cfg == nil {
		cfg = NewConfig()
	}

	if id == 0 {
		return nil, ErrInvalidIdentifier
	}

	total := userSize + controlBlockSize

	var (
		fd          int
		typedMemory bool
		err         error
	)

	if cfg.typedMemory != nil {
		fd, err = cfg.typedMemory.AllocateAndOpenAnonymousTypedMemory(total)
		typedMemory = err == nil
	}

	if !typedMemory {
		fd, err = unix.MemfdCreate(fmt.Sprintf("shm-anon-%d", id), 0)
		if err != nil {
			return nil, fmt.Errorf("shm: create anonymous memfd: %w", err)
		}

		if err := unix.Ftruncate(fd, int64(total)); err != nil { //nolint:gosec // total is a small configured size
			_ = unix.Close(fd)

			return nil, fmt.Errorf("shm: ftruncate anonymous memfd: %w", err)
		}

		// Sealing against further grow/shrink is best-effort: not every
		// kernel this runs on supports it, and the allocator never needs
		// to resize the region after this point regardless.
		_, _ = unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS, unix.F_SEAL_SHRINK|unix.F_SEAL_GROW)
	}

	if err := applyPermissions(fd, cfg.aclFactory, perms); err != nil {
		_ = unix.Close(fd)

		return nil, err
	}

	data, err := mapRegion(fd, total)
	if err != nil {
		_ = unix.Close(fd)

		return nil, err
	}

	res := &Resource{
		cfg:              cfg,
		fd:               fd,
		anonymous:        true,
		memoryIdentifier: id,
		data:             data,
		cb:               newControlBlockView(data),
		allocMu:          newAllocMutex(fd, cfg.terminate),
		typedMemory:      typedMemory,
	}

	if !registryInsert(id, res) {
		_ = res.Close()
		cfg.terminate("shm: anonymous memory identifier %d already registered in this process", id)

		return nil, ErrAlreadyExists
	}

	res.cb.init(id)

	if init != nil {
		if err := init(res); err != nil {
			_ = res.Close()

			return nil, fmt.Errorf("shm: initialize anonymous %d: %w", id, err)
		}
	}

	return res, nil
}

// CreateOrOpen opens path if it already exists, otherwise creates it. If it
// loses a race to another creator between the two attempts, it waits for
// that creator's lock file to disappear and then opens.
func CreateOrOpen(cfg *Config, path string, userSize uintptr, init InitializeFunc, perms UserPermissions) (*Resource, error) {
	if cfg == nil {
		cfg = NewConfig()
	}

	res, err := Open(cfg, path, true)
	if err == nil {
		return res, nil
	}

	if !errors.Is(err, ErrNotExist) {
		return nil, err
	}

	res, err = Create(cfg, path, userSize, init, perms)
	if err == nil {
		return res, nil
	}

	if !errors.Is(err, ErrAlreadyExists) {
		return nil, err
	}

	if err := waitForLockFileGone(cfg, path); err != nil {
		return nil, err
	}

	return Open(cfg, path, true)
}

// Open opens an existing named shared-memory region. readWrite selects
// PROT_READ|PROT_WRITE instead of PROT_READ for the mapping.
func Open(cfg *Config, path string, readWrite bool) (*Resource, error) {
	if cfg == nil {
		cfg = NewConfig()
	}

	if err := waitForLockFileGone(cfg, path); err != nil {
		return nil, err
	}

	flag := os.O_RDONLY
	if readWrite {
		flag = os.O_RDWR
	}

	f, err := cfg.fs.OpenFile(shmObjectPath(cfg, path), flag, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("shm: open %q: %w", path, ErrNotExist)
		}

		return nil, fmt.Errorf("shm: open %q: %w", path, err)
	}

	fd := int(f.Fd()) //nolint:gosec // fd from os-managed descriptor

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("shm: fstat %q: %w", path, err)
	}

	if cfg.typedMemory != nil {
		if err := verifySoleOwner(cfg.aclFactory(fd)); err != nil {
			_ = f.Close()
			cfg.terminate("shm: typed-memory ACL probe failed for %q: %v", path, err)

			return nil, err
		}
	}

	total := uintptr(stat.Size) //nolint:gosec // size is controlled by this package's own Create

	prot := unix.PROT_READ
	if readWrite {
		prot |= unix.PROT_WRITE
	}

	data, err := unix.Mmap(fd, 0, int(total), prot, unix.MAP_SHARED) //nolint:gosec // size is controlled by this package's own Create
	if err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("shm: mmap: %w", err)
	}

	cb := newControlBlockView(data)
	id := cb.proxyID()

	if existing, ok := registryLookup(id); ok {
		_ = unix.Munmap(data)
		_ = f.Close()

		return existing, nil
	}

	res := &Resource{
		cfg:              cfg,
		fd:               fd,
		path:             path,
		memoryIdentifier: id,
		data:             data,
		cb:               cb,
		allocMu:          newAllocMutex(fd, cfg.terminate),
	}

	if !registryInsert(id, res) {
		existing, _ := registryLookup(id)
		_ = res.Close()

		return existing, nil
	}

	return res, nil
}

// verifySoleOwner enforces the typed-memory probe's "exactly one executing
// user" rule: no uid, or more than one uid, with execute permission on the
// backing object means the typed-memory daemon's access policy was violated.
func verifySoleOwner(acl ACL) error {
	uids, err := acl.FindUserIDsWithPermission(PermExecute)
	if err != nil {
		return err
	}

	if len(uids) != 1 {
		return fmt.Errorf("shm: typed-memory object has %d executing users, want exactly one", len(uids))
	}

	return nil
}

func waitForLockFileGone(cfg *Config, path string) error {
	lp := lockFilePath(cfg, path)

	deadline := cfg.lockWaitBudget
	for elapsed := time.Duration(0); ; elapsed += cfg.lockWaitPoll {
		_, err := cfg.fs.Open(lp)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		if elapsed >= deadline {
			cfg.terminate("shm: lock file %q still present after %s", lp, deadline)

			return ErrLockFileStuck
		}

		time.Sleep(cfg.lockWaitPoll)
	}
}

func applyPermissions(fd int, aclFactory ACLFactory, perms UserPermissions) error {
	if err := unix.Fchmod(fd, perms.statMode()); err != nil {
		return fmt.Errorf("shm: apply permissions: %w", err)
	}

	if perms.kind != permUserMap {
		return nil
	}

	acl := aclFactory(fd)

	for perm, uids := range perms.userGrants {
		for _, uid := range uids {
			if err := acl.AllowUser(uid, perm); err != nil {
				return fmt.Errorf("shm: grant permission to uid %d: %w", uid, err)
			}
		}
	}

	return nil
}

func mapRegion(fd int, size uintptr) ([]byte, error) {
	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED) //nolint:gosec // size is a small configured value
	if err != nil {
		return nil, fmt.Errorf("shm: mmap: %w", err)
	}

	return data, nil
}

func newAllocMutex(fd int, terminate TerminateFunc) locker {
	return &FlockMutex{
		fd:         fd,
		blockingOp: unix.LOCK_EX,
		tryOp:      unix.LOCK_EX | unix.LOCK_NB,
		terminate:  terminate,
	}
}

// Allocate carves bytes, aligned to alignment, out of the region's unused
// tail and returns a slice viewing it. Allocation is monotonic: there is no
// corresponding free, only Deallocate's documented no-op.
func (r *Resource) Allocate(bytes, alignment uintptr) ([]byte, error) {
	r.allocMu.Lock()
	defer r.allocMu.Unlock()

	cur := uintptr(r.cb.allocatedBytes())
	start := alignUp(cur, alignment)
	end := start + bytes

	if end > uintptr(len(r.data)) {
		r.cfg.terminate("shm: allocation of %d bytes (from offset %d, alignment %d) exceeds region of %d bytes",
			bytes, cur, alignment, len(r.data))

		return nil, ErrAllocationExceedsRegion
	}

	r.cb.addAllocatedBytes(uint64(end - cur)) //nolint:gosec // end >= cur by construction

	return r.data[start:end], nil
}

// Deallocate is a documented no-op: this allocator is monotonic and never
// reclaims space, matching the original's bump-allocator semantics.
func (r *Resource) Deallocate(_ []byte) {}

// Close unmaps the region and closes its descriptor. It does not remove the
// backing filesystem entry; see UnlinkFilesystemEntry for that.
func (r *Resource) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true

	registryRemove(r.memoryIdentifier)

	var errs []error

	if r.data != nil {
		if err := unix.Munmap(r.data); err != nil {
			errs = append(errs, fmt.Errorf("shm: munmap: %w", err))
		}
	}

	if err := unix.Close(r.fd); err != nil {
		errs = append(errs, fmt.Errorf("shm: close fd: %w", err))
	}

	return errors.Join(errs...)
}

// UnlinkFilesystemEntry removes a named resource's backing filesystem
// object. It does not close or unmap the resource; callers that no longer
// need the mapping should also call Close.
func (r *Resource) UnlinkFilesystemEntry() error {
	if r.anonymous {
		return nil
	}

	if r.cfg.typedMemory != nil {
		if err := r.cfg.typedMemory.Unlink(r.path); err == nil {
			return nil
		}
	}

	if err := r.cfg.fs.Remove(shmObjectPath(r.cfg, r.path)); err != nil {
		return fmt.Errorf("shm: unlink %q: %w", r.path, err)
	}

	return nil
}

// Equal reports whether other refers to the same underlying mapping, i.e.
// the same open file descriptor.
func (r *Resource) Equal(other *Resource) bool {
	if other == nil {
		return false
	}

	return r.fd == other.fd
}

// Path returns the filesystem path and true for a named resource, or
// ("", false) for an anonymous one.
func (r *Resource) Path() (string, bool) {
	return r.path, !r.anonymous
}

// Identifier returns the resource's memory identifier: a content hash of
// its path for named resources, or the caller-supplied id for anonymous
// ones.
func (r *Resource) Identifier() uint64 {
	return r.memoryIdentifier
}

// UsableSize returns the number of bytes available for allocation, i.e.
// the mapped region's size minus the control block's own reservation.
func (r *Resource) UsableSize() uintptr {
	return uintptr(len(r.data)) - controlBlockSize
}

// AllocatedBytes returns the high-watermark of bytes handed out so far,
// including the control block's own reservation.
func (r *Resource) AllocatedBytes() uint64 {
	return r.cb.allocatedBytes()
}

// UserAllocatedBytes returns the high-watermark of bytes handed out to
// callers via Allocate, excluding the control block's own reservation — zero
// immediately after Create/CreateAnonymous/Open, before any Allocate call.
func (r *Resource) UserAllocatedBytes() uint64 {
	return r.cb.allocatedBytes() - uint64(controlBlockSize)
}

// IsInTypedMemory reports whether this resource's backing object was
// allocated from a TypedMemoryProvider rather than ordinary system memory.
func (r *Resource) IsInTypedMemory() bool {
	return r.typedMemory
}
