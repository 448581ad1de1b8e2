package vm

import "github.com/orizon-lang/orizonvm/internal/vmerrors"

// walkResult names the L2 PTE a walk resolved to: the physical address of
// its containing L2 table and the index within it.
type walkResult struct {
	l2Table PAddr
	l2Index uint32
}

func (inst *Instance) l2PTE(r walkResult) pte { return inst.readPTE(r.l2Table, r.l2Index) }

func (inst *Instance) setL2PTE(r walkResult, v pte) { inst.writePTE(r.l2Table, r.l2Index, v) }

// allocFrame allocates one frame, running eviction once if the pool is
// exhausted.
func (inst *Instance) allocFrame(op string) (uint32, error) {
	idx, ok := inst.frames.Alloc()
	if ok {
		return idx, nil
	}

	if err := inst.evictOne(op); err != nil {
		return 0, err
	}

	idx, ok = inst.frames.Alloc()
	if !ok {
		return 0, vmerrors.OutOfMemory(op, nil)
	}

	return idx, nil
}
