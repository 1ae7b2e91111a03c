// Package arena provides a chunked bump allocator for off-heap numeric buffers.
//
// # Concurrency Model
//
// Arena supports concurrent allocations but does NOT support concurrent
// Reset/Free operations. The typical usage pattern is:
//   - Create one arena per metacommunity
//   - Allocate tensor buffers from multiple goroutines (SAFE)
//   - Call Free() once when the metacommunity is closed (NOT concurrent with allocations)
//
// # Memory Management
//
// Arena obtains memory in large chunks (1 MiB default) via anonymous mappings
// and hands out aligned slices with lock-free CAS. The chunks live outside the
// Go garbage collector's control, so multi-gigabyte abundance tensors do not
// inflate GC scan times. Memory is returned to the OS only on Free().
package arena

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ecospect/diversity/internal/mmap"
)

var (
	// ErrClosed is returned when allocating from a freed arena.
	ErrClosed = errors.New("arena: closed")
	// ErrInvalidSize is returned for non-positive allocation sizes.
	ErrInvalidSize = errors.New("arena: invalid allocation size")
)

const (
	// DefaultChunkSize is the default size of a chunk (1 MiB).
	DefaultChunkSize = 1 << 20
	// alignment keeps every allocation 8-byte aligned so float64 views are valid.
	alignment = 8
)

// Stats tracks arena memory usage metrics.
//
// Note on semantics:
//   - BytesReserved: total memory currently mapped from the OS
//   - BytesUsed: actual bytes requested by allocations (before alignment)
//   - ActiveChunks: number of chunks currently held
//   - TotalAllocs: cumulative allocation count
type Stats struct {
	ChunksAllocated uint64 // Historical: total chunks ever created
	BytesReserved   uint64 // Current: total memory reserved
	BytesUsed       uint64 // Current: actual bytes used
	ActiveChunks    uint64 // Current: active chunk count
	TotalAllocs     uint64 // Historical: total allocations
}

type atomicStats struct {
	ChunksAllocated atomic.Uint64
	BytesReserved   atomic.Uint64
	BytesUsed       atomic.Uint64
	ActiveChunks    atomic.Uint64
	TotalAllocs     atomic.Uint64
}

type chunk struct {
	data    []byte
	mapping *mmap.Mapping
	offset  atomic.Int64 // MUST be atomic - accessed concurrently without locks
}

func (c *chunk) tryAlloc(size, alignedSize int) ([]byte, bool) {
	for {
		oldOffset := c.offset.Load()
		newOffset := oldOffset + int64(alignedSize)
		if newOffset > int64(len(c.data)) {
			return nil, false
		}
		if c.offset.CompareAndSwap(oldOffset, newOffset) {
			return c.data[oldOffset : oldOffset+int64(size) : newOffset], true
		}
	}
}

// Arena is a chunked bump allocator backed by anonymous mappings.
type Arena struct {
	chunkSize int
	mu        sync.Mutex // guards chunks growth and teardown
	chunks    []*chunk
	current   atomic.Pointer[chunk]
	stats     atomicStats
}

// New creates a new Arena with the given chunk size.
// A chunkSize <= 0 selects DefaultChunkSize.
func New(chunkSize int) (*Arena, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	// Round up to a multiple of the alignment.
	chunkSize = (chunkSize + alignment - 1) &^ (alignment - 1)

	a := &Arena{chunkSize: chunkSize}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.growLocked(a.chunkSize, true); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Arena) growLocked(size int, makeCurrent bool) (*chunk, error) {
	mapping, err := mmap.MapAnon(size)
	if err != nil {
		return nil, fmt.Errorf("arena: map chunk: %w", err)
	}

	c := &chunk{
		data:    mapping.Bytes(),
		mapping: mapping,
	}
	a.chunks = append(a.chunks, c)

	a.stats.ChunksAllocated.Add(1)
	a.stats.BytesReserved.Add(uint64(size))
	a.stats.ActiveChunks.Add(1)

	if makeCurrent {
		a.current.Store(c)
	}
	return c, nil
}

// AllocFloat64s allocates a zeroed float64 slice with len == n.
// The slice lives outside the Go heap and is valid until Free or Reset.
func (a *Arena) AllocFloat64s(n int) ([]float64, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	b, err := a.AllocBytes(n * 8)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&b[0])), n), nil
}

// AllocBytes allocates a zeroed byte slice of the given size, 8-byte aligned.
func (a *Arena) AllocBytes(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	alignedSize := (size + alignment - 1) &^ (alignment - 1)

	// Allocations that cannot fit in a standard chunk get a dedicated one.
	if alignedSize > a.chunkSize {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.current.Load() == nil {
			return nil, ErrClosed
		}
		c, err := a.growLocked(alignedSize, false)
		if err != nil {
			return nil, err
		}
		c.offset.Store(int64(alignedSize))
		a.stats.BytesUsed.Add(uint64(size))
		a.stats.TotalAllocs.Add(1)
		return c.data[:size:alignedSize], nil
	}

	for {
		curr := a.current.Load()
		if curr == nil {
			return nil, ErrClosed
		}

		if b, ok := curr.tryAlloc(size, alignedSize); ok {
			a.stats.BytesUsed.Add(uint64(size))
			a.stats.TotalAllocs.Add(1)
			return b, nil
		}

		// Current chunk is full. Let one goroutine grow; others retry.
		a.mu.Lock()
		if a.current.Load() != curr {
			a.mu.Unlock()
			continue
		}
		if _, err := a.growLocked(a.chunkSize, true); err != nil {
			a.mu.Unlock()
			return nil, err
		}
		a.mu.Unlock()
	}
}

// Stats returns the current arena statistics.
func (a *Arena) Stats() Stats {
	return Stats{
		ChunksAllocated: a.stats.ChunksAllocated.Load(),
		BytesReserved:   a.stats.BytesReserved.Load(),
		BytesUsed:       a.stats.BytesUsed.Load(),
		ActiveChunks:    a.stats.ActiveChunks.Load(),
		TotalAllocs:     a.stats.TotalAllocs.Load(),
	}
}

// Usage returns the fraction of reserved memory actually used, in percent.
func (a *Arena) Usage() float64 {
	stats := a.Stats()
	if stats.BytesReserved == 0 {
		return 0
	}
	return float64(stats.BytesUsed) / float64(stats.BytesReserved) * 100
}

// Reset discards all allocations, keeping only the first chunk for reuse.
//
// IMPORTANT:
//  1. Do NOT call Reset concurrently with allocations
//  2. All slices allocated before Reset become invalid
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.chunks) == 0 {
		return
	}

	first := a.chunks[0]
	for _, c := range a.chunks[1:] {
		_ = c.mapping.Close()
	}
	a.chunks = a.chunks[:1]
	// Re-zero the dirtied prefix so allocations stay zero-filled.
	clear(first.data[:first.offset.Load()])
	first.offset.Store(0)
	a.current.Store(first)

	a.stats.ActiveChunks.Store(1)
	a.stats.BytesReserved.Store(uint64(len(first.data)))
	a.stats.BytesUsed.Store(0)
}

// Free unmaps all arena memory. The arena cannot be reused afterwards.
//
// IMPORTANT:
//  1. Do NOT call Free concurrently with allocations
//  2. All slices allocated from this arena become invalid after Free
//  3. Free is idempotent
func (a *Arena) Free() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, c := range a.chunks {
		_ = c.mapping.Close()
	}
	a.chunks = nil
	a.current.Store(nil)

	a.stats.ActiveChunks.Store(0)
	a.stats.BytesReserved.Store(0)
	a.stats.BytesUsed.Store(0)
}

func (a *Arena) String() string {
	stats := a.Stats()
	return fmt.Sprintf(
		"Arena{chunks: %d, reserved: %.2f MB, used: %.2f MB, usage: %.1f%%, allocs: %d}",
		stats.ActiveChunks,
		float64(stats.BytesReserved)/(1024*1024),
		float64(stats.BytesUsed)/(1024*1024),
		a.Usage(),
		stats.TotalAllocs,
	)
}
