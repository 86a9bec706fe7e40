package shm

import (
	"fmt"
	"os"

	"github.com/eclipse-score/corelibs-go/internal/osfs"
)

// LockFile is an RAII-equivalent handle on a lock file used by the
// create/open protocol to serialize creators and signal openers. Create
// marks the returned LockFile as owning the path; CreateOrOpen lets the
// caller choose; Open never owns. Close always closes the descriptor and,
// only if owning, unlinks the path — the Go substitute for the original's
// destructor-does-cleanup-based-on-a-move-tracked-flag design, made
// explicit since Go has no destructive move.
type LockFile struct {
	fs     osfs.FS
	path   string
	file   osfs.File
	owns   bool
	closed bool
}

const lockFileReadOnlyMode = 0o444

// CreateLockFile creates path exclusively and chmods it to 0444. The
// returned LockFile owns the path: Close will unlink it.
func CreateLockFile(fsys osfs.FS, path string) (*LockFile, error) {
	file, err := fsys.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDONLY, lockFileReadOnlyMode)
	if err != nil {
		return nil, fmt.Errorf("shm: create lock file %q: %w", path, err)
	}

	if err := file.Chmod(lockFileReadOnlyMode); err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("shm: chmod lock file %q: %w", path, err)
	}

	return &LockFile{fs: fsys, path: path, file: file, owns: true}, nil
}

// CreateOrOpenLockFile creates path if missing, or opens it if present.
// Ownership is controlled explicitly by takeOwnership since create-or-open
// cannot tell, from the open() result alone, which process actually won the
// race to create it.
func CreateOrOpenLockFile(fsys osfs.FS, path string, takeOwnership bool) (*LockFile, error) {
	file, err := fsys.OpenFile(path, os.O_CREATE|os.O_RDONLY, lockFileReadOnlyMode)
	if err != nil {
		return nil, fmt.Errorf("shm: create-or-open lock file %q: %w", path, err)
	}

	if err := file.Chmod(lockFileReadOnlyMode); err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("shm: chmod lock file %q: %w", path, err)
	}

	return &LockFile{fs: fsys, path: path, file: file, owns: takeOwnership}, nil
}

// OpenLockFile opens an existing lock file read-only. The returned LockFile
// never owns the path.
func OpenLockFile(fsys osfs.FS, path string) (*LockFile, error) {
	file, err := fsys.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("shm: open lock file %q: %w", path, err)
	}

	return &LockFile{fs: fsys, path: path, file: file, owns: false}, nil
}

// TakeOwnership upgrades a non-owning LockFile to owning: Close will now
// unlink the path. Callers must ensure at most one LockFile handle for a
// given path ends up owning it.
func (l *LockFile) TakeOwnership() {
	l.owns = true
}

// Close closes the underlying descriptor and, if the LockFile owns the
// path, unlinks it. Safe to call multiple times.
func (l *LockFile) Close() error {
	if l.closed {
		return nil
	}

	l.closed = true

	closeErr := l.file.Close()

	if !l.owns {
		return closeErr
	}

	if err := l.fs.Remove(l.path); err != nil && closeErr == nil {
		return fmt.Errorf("shm: unlink lock file %q: %w", l.path, err)
	}

	return closeErr
}

func (l *LockFile) fd() uintptr {
	return l.file.Fd()
}
