package vm

// memSwap is an in-memory SwapBackend for tests that don't need a real
// file or gomock's call expectations.
type memSwap struct {
	data []byte
}

func newMemSwap(numFrames uint32) *memSwap {
	return &memSwap{data: make([]byte, uint64(numFrames)*FrameSize)}
}

func (m *memSwap) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, m.data[off:])
	return n, nil
}

func (m *memSwap) WriteAt(p []byte, off int64) (int, error) {
	n := copy(m.data[off:], p)
	return n, nil
}

// failingSwap always fails WriteAt and ReadAt, to exercise IoError.
type failingSwap struct{ err error }

func (f *failingSwap) ReadAt(p []byte, off int64) (int, error)  { return 0, f.err }
func (f *failingSwap) WriteAt(p []byte, off int64) (int, error) { return 0, f.err }
