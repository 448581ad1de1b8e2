package vm

import "github.com/orizon-lang/orizonvm/internal/vmerrors"

// victim names a located DATA PTE eligible for eviction.
type victim struct {
	asid ASID
	res  walkResult
}

// findVictim scans active ASIDs in ascending order, within each ASID scans
// L1 entries in ascending index and within each L1 entry scans L2 entries
// in ascending index, returning the first present (resident) PTE found.
// This is deterministic and reproducible across runs, by design: an LRU or
// clock policy would need accessed bits this model does not track.
func (inst *Instance) findVictim() (victim, bool) {
	for a := ASID(0); a < MaxASIDs; a++ {
		l1 := inst.asidTable(a)
		if l1 == 0 {
			continue
		}

		for i1 := uint32(0); i1 < entriesPerTable; i1++ {
			e1 := inst.readPTE(l1, i1)
			if !e1.present() {
				continue
			}

			l2 := e1.phys()

			for i2 := uint32(0); i2 < entriesPerTable; i2++ {
				e2 := inst.readPTE(l2, i2)
				if e2.present() && e2.allocated() {
					return victim{asid: a, res: walkResult{l2Table: l2, l2Index: i2}}, true
				}
			}
		}
	}

	return victim{}, false
}

// evictOne writes one resident DATA frame to swap and frees it, making one
// frame available on the free list. It fails with OutOfMemory if no victim
// exists or no swap slot is available, and with IoError if the swap write
// fails; in either failure no PTE is rewritten and no frame changes state.
func (inst *Instance) evictOne(op string) error {
	v, ok := inst.findVictim()
	if !ok {
		return vmerrors.OutOfMemory(op, nil)
	}

	slot, ok := inst.swap.allocSlot()
	if !ok {
		return vmerrors.OutOfMemory(op, map[string]any{"reason": "no free swap slot"})
	}

	victimPTE := inst.l2PTE(v.res)
	frameAddr := victimPTE.phys()

	if err := inst.swap.write(slot, inst.frameBytes(frameAddr)); err != nil {
		inst.swap.releaseSlot(slot)
		inst.logger.Printf("vm: swap write failed during eviction (asid=%d slot=%d): %v", v.asid, slot, err)

		return vmerrors.IoError(op, map[string]any{"asid": v.asid, "slot": slot}, err)
	}

	swapped, err := encodeSwapped(slot, victimPTE)
	if err != nil {
		inst.swap.releaseSlot(slot)
		return vmerrors.OutOfMemory(op, map[string]any{"reason": err.Error()})
	}

	inst.setL2PTE(v.res, swapped)
	inst.frames.Free(uint32(frameAddr) / FrameSize)

	inst.logger.Printf("vm: evicted asid=%d l2index=%d to swap slot=%d", v.asid, v.res.l2Index, slot)

	return nil
}
