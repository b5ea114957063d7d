package ring

// memRegion is an in-process MemoryRegion backed by plain slices, used
// throughout the test suite in place of pkg/shm's POSIX mapping.
type memRegion struct {
	control []byte
	data    []byte
}

func newMemRegion(dataSize int) *memRegion {
	return &memRegion{
		control: make([]byte, PageSize),
		data:    make([]byte, dataSize),
	}
}

func (m *memRegion) Control() []byte { return m.control }
func (m *memRegion) Data() []byte    { return m.data }
