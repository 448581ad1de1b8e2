// Package allocator manages a pool of fixed-size frames carved out of a
// caller-owned byte buffer, using a singly linked free list threaded
// through the unallocated frames themselves rather than any side-table.
package allocator

import "encoding/binary"

// Config holds FramePool construction parameters. Mirrors the functional
// options style used across this codebase's allocators: a zero Config plus
// Options yields sane defaults.
type Config struct {
	frameSize uint32
}

// Option configures a FramePool at construction time.
type Option func(*Config)

// WithFrameSize overrides the frame size. Production callers never need
// this (the frame size is fixed by the virtual-memory layout), but tests
// use small pools for cheap fixtures.
func WithFrameSize(size uint32) Option {
	return func(c *Config) { c.frameSize = size }
}

func defaultConfig() Config {
	return Config{frameSize: 4096}
}

// Stats reports a point-in-time view of pool occupancy.
type Stats struct {
	TotalFrames uint32
	FreeFrames  uint32
}

// FramePool hands out and reclaims fixed-size frames from a shared byte
// buffer. The free list's link pointers live inside the free frames'
// leading bytes; a FramePool carries no allocation-side-table of its own.
// headCell is a 4-byte window into the owner's persisted metadata — the
// head of the list is part of that state, not private to the pool.
type FramePool struct {
	mem       []byte
	frameSize uint32
	numFrames uint32
	headCell  []byte
	freeCount uint32
}

// New constructs a FramePool over mem, with numFrames total frames
// (including frame 0, which the pool never touches — callers reserve it
// for their own metadata before frame index 1). headCell must be a 4-byte
// slice the owner persists alongside its other state; New does not
// initialize the free list, see Init.
func New(mem []byte, numFrames uint32, headCell []byte, opts ...Option) *FramePool {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	return &FramePool{
		mem:       mem,
		frameSize: cfg.frameSize,
		numFrames: numFrames,
		headCell:  headCell,
	}
}

func (p *FramePool) frame(idx uint32) []byte {
	off := idx * p.frameSize
	return p.mem[off : off+p.frameSize]
}

func (p *FramePool) head() uint32 { return binary.LittleEndian.Uint32(p.headCell) }

func (p *FramePool) setHead(idx uint32) { binary.LittleEndian.PutUint32(p.headCell, idx) }

// Init threads frames [1, numFrames) onto the free list in ascending
// order, with frame 1 as the head: each frame's link cell holds the index
// of the next frame, and the last one holds 0. Frame 0 is never part of
// the list.
func (p *FramePool) Init() {
	if p.numFrames <= 1 {
		p.setHead(0)
		p.freeCount = 0

		return
	}

	for i := uint32(1); i < p.numFrames; i++ {
		next := i + 1
		if next == p.numFrames {
			next = 0
		}

		binary.LittleEndian.PutUint32(p.frame(i)[0:4], next)
	}

	p.setHead(1)
	p.freeCount = p.numFrames - 1
}

// Alloc detaches the head of the free list and returns its frame index.
// The returned frame's contents are undefined; callers zero it themselves
// if they need cleared memory. The second return is false when the pool is
// exhausted.
func (p *FramePool) Alloc() (uint32, bool) {
	idx := p.head()
	if idx == 0 {
		return 0, false
	}

	next := binary.LittleEndian.Uint32(p.frame(idx)[0:4])
	p.setHead(next)
	p.freeCount--

	return idx, true
}

// Free prepends frame idx to the free list. idx must be a frame index in
// [1, numFrames) and not already present on the list; violating this is a
// programming error in the caller, not a reported failure.
func (p *FramePool) Free(idx uint32) {
	binary.LittleEndian.PutUint32(p.frame(idx)[0:4], p.head())
	p.setHead(idx)
	p.freeCount++
}

// FrameSize returns the configured frame size in bytes.
func (p *FramePool) FrameSize() uint32 { return p.frameSize }

// Stats reports current pool occupancy.
func (p *FramePool) Stats() Stats {
	return Stats{TotalFrames: p.numFrames - 1, FreeFrames: p.freeCount}
}
