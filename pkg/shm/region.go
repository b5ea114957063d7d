// Package shm is the external collaborator spec.md §1 leaves out of the
// core transport: the memory mapping primitive that makes a ring visible in
// both the producer's and the consumer's address spaces. It implements
// ring.MemoryRegion over a POSIX /dev/shm-backed file, grounded in
// paultag-go-diskring's mmap/munmap syscall wrappers and the gregbostrom
// shmx example's open/ftruncate/mmap sequencing, and a ring.Notifier over
// eventfd (see eventfd_linux.go) grounded in the eBPF/io_uring examples'
// event-driven wakeups.
package shm

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/yanet-platform/shmring/pkg/ring"
)

const dirMode = 0o600

// Region is a ring.MemoryRegion backed by a file mapped with mmap. The
// first PageSize bytes are the control block; the remaining length is the
// data region.
type Region struct {
	path string
	fd   int
	m    []byte
}

var _ ring.MemoryRegion = (*Region)(nil)

// Create opens (creating if necessary) and maps path as a region with
// dataSize bytes of data region in addition to the control page. dataSize
// must be a power of two. The caller owns the returned Region and must call
// Close when done.
func Create(path string, dataSize uint64) (*Region, error) {
	if err := ring.ValidateDataSize(dataSize); err != nil {
		return nil, fmt.Errorf("shm: %w", err)
	}

	fd, err := unix.Open(path, unix.O_CREAT|unix.O_RDWR, dirMode)
	if err != nil {
		return nil, fmt.Errorf("shm: open %s: %w", path, err)
	}

	total := int64(ring.PageSize) + int64(dataSize)
	if err := unix.Ftruncate(fd, total); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shm: ftruncate %s to %d: %w", path, total, err)
	}

	m, err := unix.Mmap(fd, 0, int(total), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shm: mmap %s: %w", path, err)
	}

	return &Region{path: path, fd: fd, m: m}, nil
}

// Open maps an existing region created by Create. The data region length is
// inferred from the file size minus the control page.
func Open(path string) (*Region, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("shm: open %s: %w", path, err)
	}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shm: fstat %s: %w", path, err)
	}
	total := st.Size
	if total <= ring.PageSize {
		unix.Close(fd)
		return nil, fmt.Errorf("shm: %s is too small to hold a control page (%d bytes)", path, total)
	}

	m, err := unix.Mmap(fd, 0, int(total), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shm: mmap %s: %w", path, err)
	}

	return &Region{path: path, fd: fd, m: m}, nil
}

// Control returns the control-page bytes.
func (r *Region) Control() []byte { return r.m[:ring.PageSize] }

// Data returns the data-region bytes.
func (r *Region) Data() []byte { return r.m[ring.PageSize:] }

// Close unmaps the region and closes its backing file descriptor.
func (r *Region) Close() error {
	err := unix.Munmap(r.m)
	if cerr := unix.Close(r.fd); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Remove unlinks the backing file from the filesystem namespace. Safe to
// call after Close; existing mappings in other processes remain valid
// until they too unmap.
func Remove(path string) error {
	return os.Remove(path)
}
