package vm

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/orizon-lang/orizonvm/internal/allocator"
)

// formatVersion tags the layout of frame 0 so a future reader can reject a
// physmem region written by an incompatible build instead of silently
// misinterpreting it.
var formatVersion = semver.MustParse("1.0.0")

// Frame 0 ("instance metadata") layout. All integers are little-endian.
const (
	hdrMagicOff    = 0
	hdrMagicLen    = 4
	hdrVersionOff  = hdrMagicOff + hdrMagicLen
	hdrVersionLen  = 12
	hdrFramesOff   = hdrVersionOff + hdrVersionLen
	hdrSwapCntOff  = hdrFramesOff + 4
	hdrFreeHeadOff = hdrSwapCntOff + 4
	hdrASIDOff     = hdrFreeHeadOff + 4
	hdrASIDLen     = MaxASIDs * 4
	hdrBitmapOff   = hdrASIDOff + hdrASIDLen
)

var hdrMagic = [hdrMagicLen]byte{'O', 'V', 'M', '1'}

// SwapBackend is the random-access handle C3 reads and writes 4096-byte
// frames through. *os.File satisfies it; tests may substitute an in-memory
// or mock-generated implementation.
type SwapBackend interface {
	io.ReaderAt
	io.WriterAt
}

// Instance is a running virtual-memory subsystem over a caller-owned
// physmem buffer. It is not safe for concurrent use: the caller serializes
// all calls against one Instance. Distinct Instances share nothing.
type Instance struct {
	mem           []byte
	numFrames     uint32
	frames        *allocator.FramePool
	swap          *swapManager
	numSwapFrames uint32
	logger        *log.Logger
}

func bitmapBytes(numSwapFrames uint32) int {
	return int((numSwapFrames + 7) / 8)
}

// Option configures an Instance at construction time.
type Option func(*instanceConfig)

type instanceConfig struct {
	logger *log.Logger
}

// WithLogger attaches a logger used to report evictions and swap I/O
// failures. The default discards all output.
func WithLogger(l *log.Logger) Option {
	return func(c *instanceConfig) { c.logger = l }
}

// New initializes a virtual-memory instance over physmem, which must be at
// least FrameSize*numPhysFrames bytes. swap and numSwapFrames are optional
// (pass a nil swap to disable swapping; numSwapFrames is then ignored).
//
// New lays out instance metadata in frame 0, threads the free list over
// frames [1, numPhysFrames), and zeroes the ASID table and swap bitmap. It
// fails only when the requested configuration cannot be represented: an
// out-of-range frame or swap-page count, a physmem buffer smaller than
// required, or swap metadata that would not fit within frame 0.
func New(physmem []byte, numPhysFrames uint32, swap SwapBackend, numSwapFrames uint32, opts ...Option) (*Instance, error) {
	if numPhysFrames < MinPhysFrames || numPhysFrames > MaxPhysFrames {
		return nil, fmt.Errorf("vm.New: num_phys_pages %d outside [%d, %d]", numPhysFrames, MinPhysFrames, MaxPhysFrames)
	}

	if uint64(len(physmem)) < uint64(numPhysFrames)*FrameSize {
		return nil, fmt.Errorf("vm.New: physmem buffer too small for %d frames", numPhysFrames)
	}

	if swap != nil {
		if numSwapFrames < MinSwapFrames || numSwapFrames > MaxSwapFrames {
			return nil, fmt.Errorf("vm.New: num_swap_pages %d outside [%d, %d]", numSwapFrames, MinSwapFrames, MaxSwapFrames)
		}
	} else {
		numSwapFrames = 0
	}

	if hdrBitmapOff+bitmapBytes(numSwapFrames) > FrameSize {
		return nil, fmt.Errorf("vm.New: instance metadata for %d swap frames does not fit in frame 0", numSwapFrames)
	}

	cfg := instanceConfig{logger: log.New(io.Discard, "", 0)}
	for _, o := range opts {
		o(&cfg)
	}

	frame0 := physmem[0:FrameSize]
	for i := range frame0 {
		frame0[i] = 0
	}

	copy(frame0[hdrMagicOff:hdrMagicOff+hdrMagicLen], hdrMagic[:])
	copy(frame0[hdrVersionOff:hdrVersionOff+hdrVersionLen], []byte(formatVersion.String()))
	binary.LittleEndian.PutUint32(frame0[hdrFramesOff:], numPhysFrames)
	binary.LittleEndian.PutUint32(frame0[hdrSwapCntOff:], numSwapFrames)

	inst := &Instance{
		mem:           physmem,
		numFrames:     numPhysFrames,
		numSwapFrames: numSwapFrames,
		logger:        cfg.logger,
	}

	inst.frames = allocator.New(physmem, numPhysFrames, frame0[hdrFreeHeadOff:hdrFreeHeadOff+4])
	inst.frames.Init()

	bitmap := frame0[hdrBitmapOff : hdrBitmapOff+bitmapBytes(numSwapFrames)]

	var backend SwapBackend
	if swap != nil {
		backend = swap
	}

	inst.swap = newSwapManager(backend, bitmap, numSwapFrames)

	return inst, nil
}

func (inst *Instance) frame0() []byte { return inst.mem[0:FrameSize] }

func (inst *Instance) asidSlot(a ASID) []byte {
	off := hdrASIDOff + int(a)*4
	return inst.frame0()[off : off+4]
}

func (inst *Instance) asidTable(a ASID) PAddr {
	return PAddr(binary.LittleEndian.Uint32(inst.asidSlot(a)))
}

func (inst *Instance) setASIDTable(a ASID, table PAddr) {
	binary.LittleEndian.PutUint32(inst.asidSlot(a), uint32(table))
}

func (inst *Instance) frameBytes(p PAddr) []byte {
	idx := uint32(p) / FrameSize
	off := idx * FrameSize

	return inst.mem[off : off+FrameSize]
}

func (inst *Instance) readPTE(table PAddr, index uint32) pte {
	b := inst.frameBytes(table)[index*4 : index*4+4]
	return pte(binary.LittleEndian.Uint32(b))
}

func (inst *Instance) writePTE(table PAddr, index uint32, v pte) {
	b := inst.frameBytes(table)[index*4 : index*4+4]
	binary.LittleEndian.PutUint32(b, uint32(v))
}

func zeroFrame(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func tableIsEmpty(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}

	return true
}

// FormatVersion reports the on-disk metadata version New stamps into frame
// 0, for diagnostic tooling such as cmd/orizonvm-inspect.
func FormatVersion(physmem []byte) (string, error) {
	if len(physmem) < FrameSize {
		return "", fmt.Errorf("vm.FormatVersion: buffer shorter than one frame")
	}

	b := physmem[hdrVersionOff : hdrVersionOff+hdrVersionLen]

	return strings.TrimRight(string(b), "\x00"), nil
}
