package vm

// swapManager maintains a bitmap of swap-file slot occupancy and performs
// whole-frame reads and writes against a caller-supplied SwapBackend. The
// bitmap bytes are a window into the owning Instance's frame 0, matching
// the spec's requirement that swap-slot state persists as instance
// metadata rather than as private Go state.
type swapManager struct {
	backend  SwapBackend
	bitmap   []byte
	numSlots uint32
}

func newSwapManager(backend SwapBackend, bitmap []byte, numSlots uint32) *swapManager {
	return &swapManager{backend: backend, bitmap: bitmap, numSlots: numSlots}
}

func (s *swapManager) present() bool { return s.backend != nil }

func (s *swapManager) bitSet(slot uint32) bool {
	return s.bitmap[slot/8]&(1<<(slot%8)) != 0
}

func (s *swapManager) setBit(slot uint32) {
	s.bitmap[slot/8] |= 1 << (slot % 8)
}

func (s *swapManager) clearBit(slot uint32) {
	s.bitmap[slot/8] &^= 1 << (slot % 8)
}

// allocSlot returns the lowest-index free slot and marks it occupied.
func (s *swapManager) allocSlot() (uint32, bool) {
	if !s.present() {
		return 0, false
	}

	for slot := uint32(0); slot < s.numSlots; slot++ {
		if !s.bitSet(slot) {
			s.setBit(slot)
			return slot, true
		}
	}

	return 0, false
}

// releaseSlot clears the occupancy bit for slot.
func (s *swapManager) releaseSlot(slot uint32) {
	s.clearBit(slot)
}

// write persists frame (exactly FrameSize bytes) to slot.
func (s *swapManager) write(slot uint32, frame []byte) error {
	_, err := s.backend.WriteAt(frame, int64(slot)*FrameSize)
	return err
}

// read fills dst (exactly FrameSize bytes) from slot.
func (s *swapManager) read(slot uint32, dst []byte) error {
	_, err := s.backend.ReadAt(dst, int64(slot)*FrameSize)
	return err
}
