package vm

import "github.com/orizon-lang/orizonvm/internal/vmerrors"

func (inst *Instance) activeTable(op string, asid ASID) (PAddr, error) {
	if asid >= MaxASIDs {
		return 0, vmerrors.BadAddr(op, map[string]any{"asid": asid})
	}

	pt := inst.asidTable(asid)
	if pt == 0 {
		return 0, vmerrors.BadAddr(op, map[string]any{"asid": asid})
	}

	return pt, nil
}

// NewAddrSpace allocates one L1 table frame and records it under asid,
// which must be in [0, MaxASIDs) and currently inactive.
func (inst *Instance) NewAddrSpace(asid ASID) (PAddr, error) {
	const op = "NewAddrSpace"

	if asid >= MaxASIDs {
		return 0, vmerrors.BadAddr(op, map[string]any{"asid": asid})
	}

	if inst.asidTable(asid) != 0 {
		return 0, vmerrors.Duplicate(op, map[string]any{"asid": asid})
	}

	frameIdx, err := inst.allocFrame(op)
	if err != nil {
		return 0, err
	}

	addr := PAddr(frameIdx * FrameSize)
	zeroFrame(inst.frameBytes(addr))
	inst.setASIDTable(asid, addr)

	return addr, nil
}

// DestroyAddrSpace walks every PTE of asid's address space, returning data
// frames to the free list and swap slots to the swap manager, then frees
// every L2 table frame and the L1 table frame itself, and clears the
// ASID-table entry. It never fails for reasons other than a bad asid.
func (inst *Instance) DestroyAddrSpace(asid ASID) error {
	const op = "DestroyAddrSpace"

	pt, err := inst.activeTable(op, asid)
	if err != nil {
		return err
	}

	for i1 := uint32(0); i1 < entriesPerTable; i1++ {
		e1 := inst.readPTE(pt, i1)
		if !e1.present() {
			continue
		}

		l2 := e1.phys()

		for i2 := uint32(0); i2 < entriesPerTable; i2++ {
			e2 := inst.readPTE(l2, i2)
			if !e2.allocated() {
				continue
			}

			if e2.present() {
				inst.frames.Free(uint32(e2.phys()) / FrameSize)
			} else {
				inst.swap.releaseSlot(e2.slot())
			}
		}

		inst.frames.Free(uint32(l2) / FrameSize)
	}

	inst.frames.Free(uint32(pt) / FrameSize)
	inst.setASIDTable(asid, 0)

	return nil
}

func (inst *Instance) rollbackL2(pt PAddr, idx1 uint32, l2 PAddr) {
	inst.writePTE(pt, idx1, 0)
	inst.frames.Free(uint32(l2) / FrameSize)
}

// MapPage establishes a mapping from v to a freshly allocated, zeroed data
// frame within asid's address space, with the given permission bits. It
// materializes an L2 table on demand. Mapping an already-allocated PTE
// returns Duplicate without consuming a frame; any failure after a fresh
// L2 table was materialized for this call unwinds that table before
// returning. An eviction that already completed while allocating a frame
// for this call is not undone: the evicted page stays in swap.
func (inst *Instance) MapPage(asid ASID, v VAddr, readable, writable, executable, user bool) error {
	const op = "MapPage"

	pt, err := inst.activeTable(op, asid)
	if err != nil {
		return err
	}

	idx1 := l1Index(v)
	e1 := inst.readPTE(pt, idx1)

	var materializedL2 PAddr

	if !e1.present() {
		l2Frame, aerr := inst.allocFrame(op)
		if aerr != nil {
			return aerr
		}

		l2Addr := PAddr(l2Frame * FrameSize)
		zeroFrame(inst.frameBytes(l2Addr))

		enc, encErr := encodeL1(l2Addr)
		if encErr != nil {
			inst.frames.Free(l2Frame)
			return vmerrors.OutOfMemory(op, map[string]any{"reason": encErr.Error()})
		}

		e1 = enc
		inst.writePTE(pt, idx1, e1)
		materializedL2 = l2Addr
	}

	res := walkResult{l2Table: e1.phys(), l2Index: l2Index(v)}

	existing := inst.l2PTE(res)
	if existing.allocated() {
		if materializedL2 != 0 {
			inst.rollbackL2(pt, idx1, materializedL2)
		}

		return vmerrors.Duplicate(op, map[string]any{"vaddr": v, "asid": asid})
	}

	dataFrame, err := inst.allocFrame(op)
	if err != nil {
		if materializedL2 != 0 {
			inst.rollbackL2(pt, idx1, materializedL2)
		}

		return err
	}

	dataAddr := PAddr(dataFrame * FrameSize)
	zeroFrame(inst.frameBytes(dataAddr))

	encoded, encErr := encodeResident(dataAddr, readable, writable, executable, user)
	if encErr != nil {
		inst.frames.Free(dataFrame)

		if materializedL2 != 0 {
			inst.rollbackL2(pt, idx1, materializedL2)
		}

		return vmerrors.OutOfMemory(op, map[string]any{"reason": encErr.Error()})
	}

	inst.setL2PTE(res, encoded)

	return nil
}

// UnmapPage clears the PTE for v within asid's address space, returning
// its frame or swap slot. If that collapses the containing L2 table to all
// zero, the L2 frame is freed and the parent L1 entry cleared; the L1
// frame itself is left alive (released only by DestroyAddrSpace).
func (inst *Instance) UnmapPage(asid ASID, v VAddr) error {
	const op = "UnmapPage"

	pt, err := inst.activeTable(op, asid)
	if err != nil {
		return err
	}

	idx1 := l1Index(v)

	e1 := inst.readPTE(pt, idx1)
	if !e1.present() {
		return vmerrors.BadAddr(op, map[string]any{"vaddr": v, "asid": asid})
	}

	l2 := e1.phys()
	res := walkResult{l2Table: l2, l2Index: l2Index(v)}

	e2 := inst.l2PTE(res)
	if !e2.allocated() {
		return vmerrors.BadAddr(op, map[string]any{"vaddr": v, "asid": asid})
	}

	if e2.present() {
		inst.frames.Free(uint32(e2.phys()) / FrameSize)
	} else {
		inst.swap.releaseSlot(e2.slot())
	}

	inst.setL2PTE(res, 0)

	if tableIsEmpty(inst.frameBytes(l2)) {
		inst.frames.Free(uint32(l2) / FrameSize)
		inst.writePTE(pt, idx1, 0)
	}

	return nil
}

// Translate resolves v to a physical address within asid's address space,
// enforcing presence, the user bit, and the requested access bit in that
// order, then swapping the frame back in if it was evicted. The returned
// address's low 12 bits equal Offset(v).
func (inst *Instance) Translate(asid ASID, v VAddr, access Access, user bool) (PAddr, error) {
	const op = "Translate"

	pt, err := inst.activeTable(op, asid)
	if err != nil {
		return 0, err
	}

	idx1 := l1Index(v)

	e1 := inst.readPTE(pt, idx1)
	if !e1.present() {
		return 0, vmerrors.BadAddr(op, map[string]any{"vaddr": v, "asid": asid})
	}

	res := walkResult{l2Table: e1.phys(), l2Index: l2Index(v)}

	e2 := inst.l2PTE(res)
	if !e2.allocated() {
		return 0, vmerrors.BadAddr(op, map[string]any{"vaddr": v, "asid": asid})
	}

	if user && !e2.user() {
		return 0, vmerrors.BadPerm(op, map[string]any{"vaddr": v, "asid": asid})
	}

	if !e2.allows(access) {
		return 0, vmerrors.BadPerm(op, map[string]any{"vaddr": v, "asid": asid, "access": access.String()})
	}

	if !e2.present() {
		slot := e2.slot()

		frameIdx, ferr := inst.allocFrame(op)
		if ferr != nil {
			return 0, ferr
		}

		dst := inst.frameBytes(PAddr(frameIdx * FrameSize))
		if rerr := inst.swap.read(slot, dst); rerr != nil {
			inst.frames.Free(frameIdx)
			inst.logger.Printf("vm: swap read failed during swap-in (asid=%d slot=%d): %v", asid, slot, rerr)

			return 0, vmerrors.IoError(op, map[string]any{"asid": asid, "slot": slot}, rerr)
		}

		inst.swap.releaseSlot(slot)

		newPTE, encErr := encodeResident(PAddr(frameIdx*FrameSize), e2.readable(), e2.writable(), e2.exec(), e2.user())
		if encErr != nil {
			inst.frames.Free(frameIdx)
			return 0, vmerrors.OutOfMemory(op, map[string]any{"reason": encErr.Error()})
		}

		inst.setL2PTE(res, newPTE)
		e2 = newPTE
	}

	return PAddr(uint32(e2.phys()) | Offset(v)), nil
}

// FrameStats reports current physical-frame occupancy, for diagnostics.
func (inst *Instance) FrameStats() (total, free uint32) {
	s := inst.frames.Stats()
	return s.TotalFrames, s.FreeFrames
}

// ActiveASIDs returns the currently active address-space identifiers in
// ascending order.
func (inst *Instance) ActiveASIDs() []ASID {
	var out []ASID

	for a := ASID(0); a < MaxASIDs; a++ {
		if inst.asidTable(a) != 0 {
			out = append(out, a)
		}
	}

	return out
}
