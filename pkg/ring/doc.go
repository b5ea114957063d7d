// Package ring implements the single-producer/single-consumer shared-memory
// transport described by the control block layout in layout.go: a fixed
// control page followed by a power-of-two data region, framed variable
// length records, a reservation engine that never blocks the producer, and
// a drop coalescer that folds overflow bursts into one summary record.
//
// The package itself never maps memory or opens a notification channel; it
// consumes the ring.MemoryRegion and ring.Notifier interfaces so that the
// transport works identically whether the region is a plain Go slice (for
// tests, single process) or a POSIX /dev/shm mapping shared across a
// privilege boundary (pkg/shm).
package ring
