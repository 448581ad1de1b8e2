package vm

import "fmt"

// pte is a 32-bit page-table entry. Bit layout:
//
//	bit 0:      present   (frame is resident in physical memory)
//	bit 1:      allocated (mapping exists; frame may be resident or swapped)
//	bit 2:      readable
//	bit 3:      writable
//	bit 4:      executable
//	bit 5:      user-accessible
//	bits 12-31: page-aligned physical address (present=1) or swap slot
//	            index (present=0, allocated=1)
type pte uint32

const (
	ptePresent    pte = 1 << 0
	pteAllocated  pte = 1 << 1
	pteReadable   pte = 1 << 2
	pteWritable   pte = 1 << 3
	pteExecutable pte = 1 << 4
	pteUser       pte = 1 << 5

	pteFlagMask  = pte(0xFFF)
	pteAddrShift = 12
	pteAddrMask  = pte(0xFFFFF000)

	maxSwapSlot = uint32(0xFFFFF) // 20 bits
)

func permBits(readable, writable, executable, user bool) pte {
	var p pte

	if readable {
		p |= pteReadable
	}

	if writable {
		p |= pteWritable
	}

	if executable {
		p |= pteExecutable
	}

	if user {
		p |= pteUser
	}

	return p
}

// encodeL1 builds an L1 PTE pointing at an L2 table frame. L1 PTEs use
// only the present bit and the address field.
func encodeL1(table PAddr) (pte, error) {
	if !PageAligned(table) {
		return 0, fmt.Errorf("vm: L1 target %#x is not page-aligned", table)
	}

	return pte(table) | ptePresent, nil
}

// encodeResident builds a present, allocated L2 PTE for a data frame.
func encodeResident(phys PAddr, readable, writable, executable, user bool) (pte, error) {
	if !PageAligned(phys) {
		return 0, fmt.Errorf("vm: physical address %#x is not page-aligned", phys)
	}

	return pte(phys) | ptePresent | pteAllocated | permBits(readable, writable, executable, user), nil
}

// encodeSwapped builds an allocated, non-present L2 PTE naming a swap
// slot, preserving the permission bits of an existing PTE.
func encodeSwapped(slot uint32, perms pte) (pte, error) {
	if slot > maxSwapSlot {
		return 0, fmt.Errorf("vm: swap slot %d exceeds the 20-bit field", slot)
	}

	return pte(slot)<<pteAddrShift | pteAllocated | (perms & (pteReadable | pteWritable | pteExecutable | pteUser)), nil
}

func (p pte) present() bool   { return p&ptePresent != 0 }
func (p pte) allocated() bool { return p&pteAllocated != 0 }
func (p pte) readable() bool  { return p&pteReadable != 0 }
func (p pte) writable() bool  { return p&pteWritable != 0 }
func (p pte) exec() bool      { return p&pteExecutable != 0 }
func (p pte) user() bool      { return p&pteUser != 0 }

func (p pte) allows(a Access) bool {
	switch a {
	case AccessExec:
		return p.exec()
	case AccessRead:
		return p.readable()
	case AccessWrite:
		return p.writable()
	default:
		return false
	}
}

// phys returns the physical address named by a present PTE.
func (p pte) phys() PAddr { return PAddr(p & pteAddrMask) }

// slot returns the swap slot named by a non-present, allocated PTE.
func (p pte) slot() uint32 { return uint32(p&pteAddrMask) >> pteAddrShift }
