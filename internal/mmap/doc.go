// Package mmap provides memory-mapped file access for zero-copy I/O.
//
// # Overview
//
// Memory mapping allows direct access to file contents without copying data
// through kernel buffers. This matters for similarity matrices, which grow
// quadratically with the number of species and can exceed available RAM.
//
// # Usage
//
//	m, err := mmap.Open("similarity.f64")
//	if err != nil { ... }
//	defer m.Close()
//
//	// Zero-copy float64 view of one matrix row
//	row, _ := m.Float64s(i*cols*8, cols)
//
//	// Provide kernel hints for access patterns
//	m.Advise(mmap.AccessSequential)
//
// # Platform Support
//
// The package provides a unified API across platforms:
//
//   - Unix (Linux, macOS, BSD): Uses mmap(2) with madvise(2) for access hints
//   - Windows: Uses CreateFileMapping/MapViewOfFile (madvise is a no-op)
//
// # Thread Safety
//
// Mapping is safe for concurrent read access. The Close() method is
// idempotent and protected by atomic operations. However, callers must
// ensure no goroutines access Bytes() or Float64s() views after Close()
// returns.
//
// # Anonymous Mappings
//
// MapAnon() creates read-write anonymous mappings for off-heap memory
// allocation. This is used by the arena allocator to obtain large memory
// chunks outside the Go garbage collector's control.
package mmap
