package shm

import (
	"sync/atomic"
	"unsafe"
)

// controlBlockSize is the space the Resource reserves for itself at the
// start of the mapped region, sized and aligned so that the first user
// allocation after it starts at a worst-case-aligned address (the Go
// analogue of alignof(std::max_align_t); 16 bytes covers every scalar and
// pointer alignment requirement on every platform this module targets).
const controlBlockSize = 32

// controlBlock is a view over the first controlBlockSize bytes of a mapped
// region. Unlike the original, it carries no interprocess mutex of its own:
// per the flock-based-exclusion redesign (see DESIGN.md), allocation
// serialization is handled by Resource.allocMu, not by state living in
// shared memory. The only fields that must be visible cross-process are the
// bump-allocation cursor and the resource's identifier.
type controlBlock struct {
	mem []byte
}

func newControlBlockView(mem []byte) *controlBlock {
	return &controlBlock{mem: mem}
}

func (c *controlBlock) allocatedBytesPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&c.mem[0])) //nolint:gosec // mem is guaranteed >= controlBlockSize and 8-byte aligned by mmap
}

func (c *controlBlock) proxyIDPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&c.mem[8])) //nolint:gosec // see allocatedBytesPtr
}

func (c *controlBlock) init(memoryIdentifier uint64) {
	atomic.StoreUint64(c.allocatedBytesPtr(), controlBlockSize)
	atomic.StoreUint64(c.proxyIDPtr(), memoryIdentifier)
}

func (c *controlBlock) allocatedBytes() uint64 {
	return atomic.LoadUint64(c.allocatedBytesPtr())
}

func (c *controlBlock) addAllocatedBytes(n uint64) {
	atomic.AddUint64(c.allocatedBytesPtr(), n)
}

func (c *controlBlock) proxyID() uint64 {
	return atomic.LoadUint64(c.proxyIDPtr())
}
