package shm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ACL grants or queries per-user access to a Resource's backing object.
//
// The original ran on QNX with a real POSIX-ACL-like eACL facility. Linux
// POSIX ACLs would need libacl via cgo; this port stays cgo-free and
// degrades to the three owner/group/other permission bits unix.Fchmod
// already gives us. AllowUser is therefore best-effort: it ignores the uid
// and widens the "other" bits for every grant rather than adding a true
// per-uid ACL entry. This gap is recorded in DESIGN.md, not hidden.
type ACL interface {
	AllowUser(uid int, perm Permission) error
	VerifyMaskPermissions(perms UserPermissions) error
	FindUserIDsWithPermission(perm Permission) ([]int, error)
}

// ACLFactory builds an ACL bound to an open file descriptor.
type ACLFactory func(fd int) ACL

type unixACL struct {
	fd int
}

// NewUnixACL is the default ACLFactory: a thin degrade-to-unix-bits ACL.
func NewUnixACL(fd int) ACL {
	return &unixACL{fd: fd}
}

func (a *unixACL) AllowUser(_ int, perm Permission) error {
	var stat unix.Stat_t
	if err := unix.Fstat(a.fd, &stat); err != nil {
		return fmt.Errorf("shm: fstat for ACL AllowUser: %w", err)
	}

	mode := stat.Mode

	switch perm {
	case PermRead:
		mode |= 0o004
	case PermWrite:
		mode |= 0o002
	case PermExecute:
		mode |= 0o001
	}

	if err := unix.Fchmod(a.fd, uint32(mode)&0o777); err != nil { //nolint:gosec // masked to valid mode bits
		return fmt.Errorf("shm: fchmod for ACL AllowUser: %w", err)
	}

	return nil
}

func (a *unixACL) VerifyMaskPermissions(perms UserPermissions) error {
	var stat unix.Stat_t
	if err := unix.Fstat(a.fd, &stat); err != nil {
		return fmt.Errorf("shm: fstat for ACL VerifyMaskPermissions: %w", err)
	}

	want := perms.statMode()
	if uint32(stat.Mode)&0o777 != want { //nolint:gosec // masked comparison
		return fmt.Errorf("shm: mode %o does not match expected %o", stat.Mode&0o777, want)
	}

	return nil
}

func (a *unixACL) FindUserIDsWithPermission(perm Permission) ([]int, error) {
	var stat unix.Stat_t
	if err := unix.Fstat(a.fd, &stat); err != nil {
		return nil, fmt.Errorf("shm: fstat for ACL FindUserIDsWithPermission: %w", err)
	}

	var bit uint32

	switch perm {
	case PermRead:
		bit = 0o400
	case PermWrite:
		bit = 0o200
	case PermExecute:
		bit = 0o100
	}

	if uint32(stat.Mode)&bit != 0 { //nolint:gosec // masked comparison
		return []int{int(stat.Uid)}, nil
	}

	return nil, nil
}
