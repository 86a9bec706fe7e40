package shm

import "testing"

func Test_ControlBlock_Init_Sets_AllocatedBytes_And_ProxyID(t *testing.T) {
	mem := make([]byte, controlBlockSize)
	cb := newControlBlockView(mem)

	cb.init(42)

	if got := cb.allocatedBytes(); got != controlBlockSize {
		t.Fatalf("allocatedBytes() = %d, want %d", got, controlBlockSize)
	}

	if got := cb.proxyID(); got != 42 {
		t.Fatalf("proxyID() = %d, want 42", got)
	}
}

func Test_ControlBlock_AddAllocatedBytes_Is_Monotonic(t *testing.T) {
	mem := make([]byte, controlBlockSize)
	cb := newControlBlockView(mem)
	cb.init(1)

	cb.addAllocatedBytes(100)
	cb.addAllocatedBytes(50)

	if got, want := cb.allocatedBytes(), uint64(controlBlockSize+150); got != want {
		t.Fatalf("allocatedBytes() = %d, want %d", got, want)
	}
}

func Test_ControlBlock_View_Over_Larger_Region_Only_Touches_Header(t *testing.T) {
	mem := make([]byte, controlBlockSize+64)
	for i := range mem {
		mem[i] = 0xff
	}

	cb := newControlBlockView(mem)
	cb.init(7)

	for i := controlBlockSize; i < len(mem); i++ {
		if mem[i] != 0xff {
			t.Fatalf("byte %d outside header was modified by init", i)
		}
	}
}
