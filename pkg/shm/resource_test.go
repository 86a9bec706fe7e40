package shm_test

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/eclipse-score/corelibs-go/pkg/shm"
)

func testConfig(t *testing.T, opts ...shm.Option) *shm.Config {
	t.Helper()

	dir := t.TempDir()

	base := []shm.Option{
		shm.WithTempDir(dir),
		shm.WithShmDir(dir),
		shm.WithTerminateFunc(func(format string, args ...any) {
			t.Fatalf("unexpected terminate: "+format, args...)
		}),
	}

	return shm.NewConfig(append(base, opts...)...)
}

func Test_Create_Then_Open_See_Same_Identifier(t *testing.T) {
	cfg := testConfig(t)

	created, err := shm.Create(cfg, "/region", 256, nil, shm.WorldReadable())
	require.NoError(t, err)

	defer func() { _ = created.Close() }()

	opened, err := shm.Open(cfg, "/region", true)
	require.NoError(t, err)

	defer func() { _ = opened.Close() }()

	require.True(t, created.Equal(opened))
	require.Equal(t, created.Identifier(), opened.Identifier())
}

func Test_Create_Fails_If_Path_Already_Exists(t *testing.T) {
	cfg := testConfig(t)

	first, err := shm.Create(cfg, "/dup", 64, nil, shm.WorldReadable())
	require.NoError(t, err)

	defer func() { _ = first.Close() }()

	_, err = shm.Create(cfg, "/dup", 64, nil, shm.WorldReadable())
	require.ErrorIs(t, err, shm.ErrAlreadyExists)
}

func Test_Open_Missing_Path_Returns_ErrNotExist(t *testing.T) {
	cfg := testConfig(t)

	_, err := shm.Open(cfg, "/missing", true)
	require.ErrorIs(t, err, shm.ErrNotExist)
}

func Test_CreateOrOpen_Creates_When_Missing_Then_Opens_Existing(t *testing.T) {
	cfg := testConfig(t)

	created, err := shm.CreateOrOpen(cfg, "/shared", 64, nil, shm.WorldReadable())
	require.NoError(t, err)

	defer func() { _ = created.Close() }()

	again, err := shm.CreateOrOpen(cfg, "/shared", 64, nil, shm.WorldReadable())
	require.NoError(t, err)

	defer func() { _ = again.Close() }()

	require.True(t, created.Equal(again))
}

func Test_Allocate_Bumps_Cursor_And_Respects_Alignment(t *testing.T) {
	cfg := testConfig(t)

	res, err := shm.Create(cfg, "/alloc", 256, nil, shm.WorldReadable())
	require.NoError(t, err)

	defer func() { _ = res.Close() }()

	before := res.AllocatedBytes()

	a, err := res.Allocate(3, 1)
	require.NoError(t, err)
	require.Len(t, a, 3)

	b, err := res.Allocate(8, 8)
	require.NoError(t, err)
	require.Len(t, b, 8)

	after := res.AllocatedBytes()
	require.Greater(t, after, before)
}

func Test_UserAllocatedBytes_Zero_Immediately_After_Create(t *testing.T) {
	cfg := testConfig(t)

	res, err := shm.Create(cfg, "/fresh", 256, nil, shm.WorldReadable())
	require.NoError(t, err)

	defer func() { _ = res.Close() }()

	require.Equal(t, uint64(0), res.UserAllocatedBytes())

	_, err = res.Allocate(10, 1)
	require.NoError(t, err)

	require.Equal(t, uint64(10), res.UserAllocatedBytes())
}

func Test_Allocate_Exceeding_Region_Reports_Error(t *testing.T) {
	var terminated bool

	cfg := shm.NewConfig(
		shm.WithTempDir(t.TempDir()),
		shm.WithShmDir(t.TempDir()),
		shm.WithTerminateFunc(func(format string, args ...any) { terminated = true }),
	)

	res, err := shm.Create(cfg, "/small", 16, nil, shm.WorldReadable())
	require.NoError(t, err)

	defer func() { _ = res.Close() }()

	_, err = res.Allocate(1024, 1)
	require.ErrorIs(t, err, shm.ErrAllocationExceedsRegion)
	require.True(t, terminated)
}

func Test_CreateAnonymous_Rejects_Zero_Identifier(t *testing.T) {
	cfg := testConfig(t)

	_, err := shm.CreateAnonymous(cfg, 0, 64, nil, shm.WorldReadable())
	require.ErrorIs(t, err, shm.ErrInvalidIdentifier)
}

func Test_CreateAnonymous_Initializes_And_Allocates(t *testing.T) {
	cfg := testConfig(t)

	var initRan bool

	res, err := shm.CreateAnonymous(cfg, 99, 128, func(r *shm.Resource) error {
		initRan = true

		_, allocErr := r.Allocate(16, 8)

		return allocErr
	}, shm.WorldReadable())
	require.NoError(t, err)
	require.True(t, initRan)

	defer func() { _ = res.Close() }()

	path, named := res.Path()
	require.False(t, named)
	require.Empty(t, path)
	require.Equal(t, uint64(99), res.Identifier())
}

func Test_Create_Init_Failure_Propagates_And_Cleans_Up(t *testing.T) {
	cfg := testConfig(t)

	_, err := shm.Create(cfg, "/bad-init", 64, func(*shm.Resource) error {
		return errBoom
	}, shm.WorldReadable())
	require.ErrorIs(t, err, errBoom)

	// A second Create for the same path must succeed: the failed attempt's
	// lock file and backing object must not linger.
	res, err := shm.Create(cfg, "/bad-init", 64, nil, shm.WorldReadable())
	require.NoError(t, err)

	_ = res.Close()
}

var errBoom = errInit{}

type errInit struct{}

func (errInit) Error() string { return "boom" }

func Test_UnlinkFilesystemEntry_Removes_Backing_Object_Not_Mapping(t *testing.T) {
	cfg := testConfig(t)

	res, err := shm.Create(cfg, "/unlink-me", 64, nil, shm.WorldReadable())
	require.NoError(t, err)

	require.NoError(t, res.UnlinkFilesystemEntry())

	// The mapping itself is still valid until Close.
	_, err = res.Allocate(4, 1)
	require.NoError(t, err)

	require.NoError(t, res.Close())
}

type fakeTypedMemory struct {
	mu        sync.Mutex
	dir       string
	allocated map[string]bool
}

// newFakeTypedMemory binds named allocations to real files under dir (the
// same directory the test's Config resolves shm paths against), so that a
// subsequent ordinary Open still finds the object — mirroring how the
// original's typed memory stays reachable through the regular shm
// namespace once bound to a name.
func newFakeTypedMemory(dir string) *fakeTypedMemory {
	return &fakeTypedMemory{dir: dir, allocated: map[string]bool{}}
}

func (f *fakeTypedMemory) AllocateNamedTypedMemory(size uintptr, path string, _ shm.UserPermissions) (int, error) {
	full := filepath.Join(f.dir, strings.TrimPrefix(path, "/"))

	fd, err := unix.Open(full, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, 0o644)
	if err != nil {
		return 0, fmt.Errorf("fakeTypedMemory: open %q: %w", full, err)
	}

	if err := unix.Ftruncate(fd, int64(size)); err != nil { //nolint:gosec // test-only size
		_ = unix.Close(fd)

		return 0, fmt.Errorf("fakeTypedMemory: ftruncate: %w", err)
	}

	f.mu.Lock()
	f.allocated[path] = true
	f.mu.Unlock()

	return fd, nil
}

func (f *fakeTypedMemory) AllocateAndOpenAnonymousTypedMemory(size uintptr) (int, error) {
	return memfdForTest("anon", size)
}

func (f *fakeTypedMemory) Unlink(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.allocated, path)

	return nil
}

func Test_Create_Prefers_TypedMemory_When_Available(t *testing.T) {
	dir := t.TempDir()
	provider := newFakeTypedMemory(dir)
	cfg := testConfig(t, shm.WithShmDir(dir), shm.WithTypedMemoryProvider(provider))

	res, err := shm.Create(cfg, "/typed", 64, nil, shm.WorldReadable())
	require.NoError(t, err)

	defer func() { _ = res.Close() }()

	require.True(t, res.IsInTypedMemory())
}

type manyOwnersACL struct{}

func (manyOwnersACL) AllowUser(int, shm.Permission) error             { return nil }
func (manyOwnersACL) VerifyMaskPermissions(shm.UserPermissions) error { return nil }

func (manyOwnersACL) FindUserIDsWithPermission(shm.Permission) ([]int, error) {
	return []int{1000, 1001}, nil
}

func Test_Open_TypedMemory_ACL_Probe_Violation_Terminates(t *testing.T) {
	dir := t.TempDir()
	provider := newFakeTypedMemory(dir)

	createCfg := shm.NewConfig(
		shm.WithTempDir(dir),
		shm.WithShmDir(dir),
		shm.WithTypedMemoryProvider(provider),
		shm.WithTerminateFunc(func(format string, args ...any) {
			t.Fatalf("unexpected terminate during setup: "+format, args...)
		}),
	)

	res, err := shm.Create(createCfg, "/typed-probe", 64, nil, shm.WorldReadable())
	require.NoError(t, err)

	defer func() { _ = res.Close() }()

	var terminated bool

	openCfg := shm.NewConfig(
		shm.WithTempDir(dir),
		shm.WithShmDir(dir),
		shm.WithTypedMemoryProvider(provider),
		shm.WithACLFactory(func(int) shm.ACL { return manyOwnersACL{} }),
		shm.WithTerminateFunc(func(format string, args ...any) { terminated = true }),
	)

	_, err = shm.Open(openCfg, "/typed-probe", true)
	require.Error(t, err)
	require.True(t, terminated)
}

func Test_WorldWritable_Resulting_Object_Is_Mode_0666(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, shm.WithShmDir(dir))

	res, err := shm.Create(cfg, "/writable", 64, nil, shm.WorldWritable())
	require.NoError(t, err)

	defer func() { _ = res.Close() }()

	info, err := osStat(filepath.Join(dir, "writable"))
	require.NoError(t, err)
	require.Equal(t, "-rw-rw-rw-", info.Mode().String())
}
