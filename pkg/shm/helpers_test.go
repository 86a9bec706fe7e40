package shm_test

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// memfdForTest backs the fake TypedMemoryProvider with a real sealable
// anonymous fd, the same primitive CreateAnonymous falls back to, so the
// typed-memory branches exercise a real mmap-able descriptor.
func memfdForTest(name string, size uintptr) (int, error) {
	fd, err := unix.MemfdCreate(fmt.Sprintf("fake-typed-%s", name), 0)
	if err != nil {
		return 0, fmt.Errorf("memfdForTest: %w", err)
	}

	if err := unix.Ftruncate(fd, int64(size)); err != nil { //nolint:gosec // test-only size
		_ = unix.Close(fd)

		return 0, fmt.Errorf("memfdForTest: ftruncate: %w", err)
	}

	return fd, nil
}

func osStat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}
