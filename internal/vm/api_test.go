package vm

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"testing"

	"github.com/orizon-lang/orizonvm/internal/testrunner/assert"
	"github.com/orizon-lang/orizonvm/internal/vmerrors"
)

func newTestInstance(t *testing.T, numFrames uint32, swap SwapBackend, numSwapFrames uint32) *Instance {
	t.Helper()

	mem := make([]byte, uint64(numFrames)*FrameSize)

	inst, err := New(mem, numFrames, swap, numSwapFrames)
	assert.NoError(t, err)

	return inst
}

// S1 — basic round-trip.
func TestBasicRoundTrip(t *testing.T) {
	inst := newTestInstance(t, 8, nil, 0)

	pt, err := inst.NewAddrSpace(0)
	assert.NoError(t, err)
	assert.Equal(t, pt, PAddr(0x1000))

	const v = VAddr(0x0040_3000)

	err = inst.MapPage(0, v, true, true, false, true)
	assert.NoError(t, err)

	got, err := inst.Translate(0, VAddr(0x0040_3ABC), AccessRead, true)
	assert.NoError(t, err)
	assert.Equal(t, uint32(got)&0xFFF, uint32(0xABC))

	mapped, err := inst.Translate(0, v, AccessRead, true)
	assert.NoError(t, err)
	assert.Equal(t, PAddr(uint32(got)&0xFFFFF000), PAddr(uint32(mapped)&0xFFFFF000))
}

// S2 — permission denial.
func TestPermissionDenial(t *testing.T) {
	inst := newTestInstance(t, 8, nil, 0)

	_, err := inst.NewAddrSpace(0)
	assert.NoError(t, err)

	const v = VAddr(0x0040_3000)
	assert.NoError(t, inst.MapPage(0, v, true, true, false, true))

	_, err = inst.Translate(0, v, AccessExec, true)
	assert.ErrorIs(t, err, vmerrors.ErrBadPerm)

	_, err = inst.Translate(0, v, AccessRead, false)
	assert.NoError(t, err)
}

// S3 — duplicate.
func TestDuplicateMapConsumesNoFrame(t *testing.T) {
	inst := newTestInstance(t, 8, nil, 0)

	_, err := inst.NewAddrSpace(0)
	assert.NoError(t, err)

	const v = VAddr(0x0040_3000)
	assert.NoError(t, inst.MapPage(0, v, true, true, false, true))

	_, before := inst.FrameStats()

	err = inst.MapPage(0, v, true, true, false, true)
	assert.ErrorIs(t, err, vmerrors.ErrDuplicate)

	_, after := inst.FrameStats()
	assert.Equal(t, before, after)
}

// S4 — unmap collapses tables.
func TestUnmapCollapsesL2Table(t *testing.T) {
	inst := newTestInstance(t, 8, nil, 0)

	_, err := inst.NewAddrSpace(0)
	assert.NoError(t, err)

	_, afterNewAddrSpace := inst.FrameStats()

	const v = VAddr(0x0040_3000)
	assert.NoError(t, inst.MapPage(0, v, true, true, false, true))
	assert.NoError(t, inst.UnmapPage(0, v))

	_, afterUnmap := inst.FrameStats()
	assert.Equal(t, afterNewAddrSpace, afterUnmap)

	pt := inst.asidTable(0)
	e1 := inst.readPTE(pt, l1Index(v))
	assert.False(t, e1.present())
}

// S5 — eviction and swap-in.
func TestEvictionAndSwapIn(t *testing.T) {
	swap := newMemSwap(4)
	inst := newTestInstance(t, 4, swap, 4)

	_, err := inst.NewAddrSpace(0)
	assert.NoError(t, err)

	assert.NoError(t, inst.MapPage(0, VAddr(0x0000_0000), true, true, false, true))

	_, free := inst.FrameStats()
	assert.Equal(t, free, uint32(0))

	assert.NoError(t, inst.MapPage(0, VAddr(0x0000_1000), true, true, false, true))

	got, err := inst.Translate(0, VAddr(0x0000_0ABC), AccessRead, true)
	assert.NoError(t, err)
	assert.Equal(t, uint32(got)&0xFFF, uint32(0xABC))
}

// S6 — destroy reclaims.
func TestDestroyThenRecreateReclaims(t *testing.T) {
	inst := newTestInstance(t, 8, nil, 0)

	pt, err := inst.NewAddrSpace(0)
	assert.NoError(t, err)
	assert.NoError(t, inst.MapPage(0, VAddr(0x1000_0000), true, true, false, true))

	assert.NoError(t, inst.DestroyAddrSpace(0))

	total, _ := inst.FrameStats()
	_, freeAfterDestroy := inst.FrameStats()
	assert.Equal(t, freeAfterDestroy, total)

	pt2, err := inst.NewAddrSpace(0)
	assert.NoError(t, err)
	assert.Equal(t, pt, pt2)
}

func TestOutOfRangeASID(t *testing.T) {
	inst := newTestInstance(t, 4, nil, 0)

	_, err := inst.NewAddrSpace(MaxASIDs)
	assert.ErrorIs(t, err, vmerrors.ErrBadAddr)
}

func TestDestroyInactiveASID(t *testing.T) {
	inst := newTestInstance(t, 4, nil, 0)

	err := inst.DestroyAddrSpace(7)
	assert.ErrorIs(t, err, vmerrors.ErrBadAddr)
}

func TestMapOutOfMemoryWithoutSwap(t *testing.T) {
	inst := newTestInstance(t, 4, nil, 0)

	_, err := inst.NewAddrSpace(0)
	assert.NoError(t, err)

	assert.NoError(t, inst.MapPage(0, VAddr(0x0000_0000), true, true, false, true))

	err = inst.MapPage(0, VAddr(0x0000_1000), true, true, false, true)
	assert.ErrorIs(t, err, vmerrors.ErrOutOfMemory)
}

func TestSwapWriteFailureDuringEvictionIsIoError(t *testing.T) {
	inst := newTestInstance(t, 4, &failingSwap{err: errors.New("disk full")}, 4)

	_, err := inst.NewAddrSpace(0)
	assert.NoError(t, err)

	assert.NoError(t, inst.MapPage(0, VAddr(0x0000_0000), true, true, false, true))

	err = inst.MapPage(0, VAddr(0x0000_1000), true, true, false, true)
	assert.ErrorIs(t, err, vmerrors.ErrIoError)
}

func TestUnmapUnmappedAddressIsBadAddr(t *testing.T) {
	inst := newTestInstance(t, 8, nil, 0)

	_, err := inst.NewAddrSpace(0)
	assert.NoError(t, err)

	err = inst.UnmapPage(0, VAddr(0x0040_3000))
	assert.ErrorIs(t, err, vmerrors.ErrBadAddr)
}

func TestWithLoggerReceivesSwapFailureReport(t *testing.T) {
	var buf bytes.Buffer

	mem := make([]byte, 4*FrameSize)
	inst, err := New(mem, 4, &failingSwap{err: errors.New("disk full")}, 4, WithLogger(log.New(&buf, "", 0)))
	assert.NoError(t, err)

	_, err = inst.NewAddrSpace(0)
	assert.NoError(t, err)

	assert.NoError(t, inst.MapPage(0, VAddr(0x0000_0000), true, true, false, true))

	err = inst.MapPage(0, VAddr(0x0000_1000), true, true, false, true)
	assert.ErrorIs(t, err, vmerrors.ErrIoError)
	assert.Contains(t, buf.String(), "swap")
}

func TestMapUnmapRoundTripRestoresFrameCount(t *testing.T) {
	inst := newTestInstance(t, 16, nil, 0)

	_, err := inst.NewAddrSpace(0)
	assert.NoError(t, err)

	_, before := inst.FrameStats()

	for i := 0; i < 4; i++ {
		v := VAddr(i * FrameSize)
		assert.NoError(t, inst.MapPage(0, v, true, true, false, true))
		assert.NoError(t, inst.UnmapPage(0, v))
	}

	_, after := inst.FrameStats()
	assert.Equal(t, before, after, fmt.Sprintf("frame count leaked after map/unmap round trips"))
}
