package vm

import (
	"math/rand"
	"testing"

	"github.com/orizon-lang/orizonvm/internal/testrunner/assert"
	"github.com/orizon-lang/orizonvm/internal/testrunner/prop"
)

// occupiedFrames counts, for a single address space, the L1 frame plus
// every L2 table frame and allocated L2 entry reachable from it — the
// quantity invariant 1 requires to sum with the free-list length to
// numPhysFrames-1.
func occupiedFrames(inst *Instance, asid ASID) uint32 {
	pt := inst.asidTable(asid)
	if pt == 0 {
		return 0
	}

	count := uint32(1) // the L1 frame itself

	for i1 := uint32(0); i1 < entriesPerTable; i1++ {
		e1 := inst.readPTE(pt, i1)
		if !e1.present() {
			continue
		}

		count++ // the L2 frame

		l2 := e1.phys()
		for i2 := uint32(0); i2 < entriesPerTable; i2++ {
			if inst.readPTE(l2, i2).allocated() {
				count++
			}
		}
	}

	return count
}

type scriptOp struct {
	unmap bool
	page  uint32 // page index within a single L1 range, scaled by FrameSize
}

func genScript() prop.Generator[[]scriptOp] {
	return func(r *rand.Rand, size int) []scriptOp {
		n := r.Intn(size + 1)
		ops := make([]scriptOp, n)

		for i := range ops {
			ops[i] = scriptOp{
				unmap: r.Intn(2) == 0,
				page:  uint32(r.Intn(16)),
			}
		}

		return ops
	}
}

func shrinkScript() prop.Shrinker[[]scriptOp] {
	return func(v []scriptOp) [][]scriptOp {
		if len(v) == 0 {
			return nil
		}

		mid := len(v) / 2

		return [][]scriptOp{
			append([]scriptOp(nil), v[:mid]...),
			append([]scriptOp(nil), v[mid:]...),
		}
	}
}

// TestFrameAccountingInvariant exercises invariant 1 from the testable
// properties: the free-list length plus the frames reachable from an
// active ASID's L1 table always sums to numPhysFrames-1, for any sequence
// of map/unmap calls.
func TestFrameAccountingInvariant(t *testing.T) {
	const numFrames = 64

	result := prop.ForAll1(genScript(), shrinkScript(), func(ops []scriptOp) bool {
		mem := make([]byte, numFrames*FrameSize)

		inst, err := New(mem, numFrames, nil, 0)
		if err != nil {
			return false
		}

		if _, err := inst.NewAddrSpace(0); err != nil {
			return false
		}

		for _, op := range ops {
			v := VAddr(op.page * FrameSize)
			if op.unmap {
				_ = inst.UnmapPage(0, v)
			} else {
				_ = inst.MapPage(0, v, true, true, false, true)
			}
		}

		_, free := inst.FrameStats()

		return free+occupiedFrames(inst, 0) == numFrames-1
	}, prop.Options{Trials: 300, Size: 40})

	assert.False(t, result.Failed, result)
}
