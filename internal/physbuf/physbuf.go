// Package physbuf obtains page-aligned anonymous memory for callers that
// want a physmem buffer to hand to vm.New but don't already have one, via
// an anonymous mmap rather than a plain make([]byte, ...).
package physbuf

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const frameSize = 4096

// Buffer is a page-aligned byte slice backed by an anonymous mmap region.
// Release must be called exactly once to return the mapping to the OS.
type Buffer struct {
	mem []byte
}

// Alloc maps numFrames*4096 bytes of zeroed, anonymous, page-aligned
// memory. mmap itself guarantees page alignment, which a heap-allocated
// []byte does not.
func Alloc(numFrames uint32) (*Buffer, error) {
	if numFrames == 0 {
		return nil, fmt.Errorf("physbuf.Alloc: numFrames must be positive")
	}

	size := int(numFrames) * frameSize

	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("physbuf.Alloc: mmap %d bytes: %w", size, err)
	}

	return &Buffer{mem: mem}, nil
}

// Bytes returns the underlying buffer.
func (b *Buffer) Bytes() []byte { return b.mem }

// Release unmaps the buffer. The Buffer must not be used afterward.
func (b *Buffer) Release() error {
	if b.mem == nil {
		return nil
	}

	err := unix.Munmap(b.mem)
	b.mem = nil

	return err
}
