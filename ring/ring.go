// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/gogpu/framecore/internal/checked"
	"github.com/gogpu/framecore/internal/logging"
)

// Errors returned by ring operations.
var (
	// ErrInvalidCapacity is returned when creating a ring with no capacity.
	ErrInvalidCapacity = errors.New("ring: invalid capacity")

	// ErrInvalidSize is returned for non-positive allocation sizes.
	ErrInvalidSize = errors.New("ring: invalid allocation size")

	// ErrRequestTooLarge is returned when a request exceeds the capacity.
	ErrRequestTooLarge = errors.New("ring: request larger than capacity")

	// ErrBufferFull is returned when no contiguous free span is large enough.
	ErrBufferFull = errors.New("ring: buffer full")

	// ErrDoubleRelease is returned when a region is released twice.
	ErrDoubleRelease = errors.New("ring: region already released")

	// ErrUnknownHandle is returned for regions this ring did not issue.
	ErrUnknownHandle = errors.New("ring: unknown region")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("ring: closed")
)

// DefaultAlignment is the offset alignment of a ring created without
// WithAlignment.
const DefaultAlignment = 4

var ringIDs atomic.Uint64

// Region identifies a checked-out span of a ring: bytes
// [Offset, Offset+Length) of the arena. The zero Region is not a valid
// handle.
type Region struct {
	Offset     int
	Length     int
	Generation uint64

	ring uint64
}

// End returns the first byte offset after the region.
func (r Region) End() int { return r.Offset + r.Length }

// IsZero reports whether r is the zero Region.
func (r Region) IsZero() bool { return r == Region{} }

func (r Region) String() string {
	return fmt.Sprintf("Region[%d:%d gen=%d]", r.Offset, r.End(), r.Generation)
}

// Stats is a snapshot of ring usage.
type Stats struct {
	Name        string
	Capacity    int
	Outstanding int
	HighWater   int
	InFlight    int
	Allocations uint64
	Releases    uint64
	Wraps       uint64
	Failures    uint64
}

type entry struct {
	region   Region
	released bool
}

// Ring is a fixed-capacity circular arena. It is safe for concurrent use;
// the intended pattern is one producer allocating and one consumer
// releasing.
type Ring struct {
	id       uint64
	name     string
	capacity int
	align    int
	backing  Backing
	mem      []byte

	mu sync.Mutex
	// inflight holds *entry values in allocation order, including released
	// entries whose space is not yet reclaimed.
	inflight *queue.Queue
	live     map[uint64]*entry
	head     int
	nextGen  uint64
	closed   bool
	// space is closed and replaced whenever space is reclaimed.
	space chan struct{}

	outstanding int
	highWater   int
	allocs      uint64
	releases    uint64
	wraps       uint64
	failures    uint64
}

// Option configures a Ring during creation.
type Option func(*options)

type options struct {
	align   int
	backing string
	name    string
}

// WithAlignment aligns every region offset to n bytes. n must be a power
// of two.
func WithAlignment(n int) Option {
	return func(o *options) {
		o.align = n
	}
}

// WithBacking selects a registered backing store by name.
func WithBacking(name string) Option {
	return func(o *options) {
		o.backing = name
	}
}

// WithName sets a label used in logs and stats.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// New creates a ring of capacity bytes.
func New(capacity int, opts ...Option) (*Ring, error) {
	o := options{align: DefaultAlignment, backing: BackingHeap, name: "ring"}
	for _, opt := range opts {
		opt(&o)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	if !checked.IsPowerOfTwo(o.align) {
		return nil, fmt.Errorf("ring: alignment %d is not a power of two", o.align)
	}

	b, err := NewBacking(o.backing, capacity)
	if err != nil {
		return nil, err
	}
	mem := b.Bytes()
	if len(mem) < capacity {
		_ = b.Close()
		return nil, fmt.Errorf("ring: backing %q returned %d bytes, want %d", o.backing, len(mem), capacity)
	}

	r := &Ring{
		id:       ringIDs.Add(1),
		name:     o.name,
		capacity: capacity,
		align:    o.align,
		backing:  b,
		mem:      mem[:capacity:capacity],
		inflight: queue.New(),
		live:     make(map[uint64]*entry),
		nextGen:  1,
		space:    make(chan struct{}),
	}
	logging.Logger().Debug("ring: created",
		"name", r.name, "capacity", capacity, "align", o.align, "backing", o.backing)
	return r, nil
}

// Name returns the ring label.
func (r *Ring) Name() string { return r.name }

// Capacity returns the arena size in bytes.
func (r *Ring) Capacity() int { return r.capacity }

// Alignment returns the region offset alignment.
func (r *Ring) Alignment() int { return r.align }

// Owns reports whether reg was issued by r.
func (r *Ring) Owns(reg Region) bool { return reg.ring == r.id }

// TryAllocate returns a region of size bytes or fails immediately with
// ErrBufferFull when no contiguous span is free.
func (r *Ring) TryAllocate(size int) (Region, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, err := r.allocateLocked(size)
	if errors.Is(err, ErrBufferFull) {
		r.failures++
	}
	return reg, err
}

// Allocate returns a region of size bytes, waiting for releases while the
// ring is full. If ctx is done first, the error wraps both ErrBufferFull and
// the context error.
func (r *Ring) Allocate(ctx context.Context, size int) (Region, error) {
	for {
		r.mu.Lock()
		reg, err := r.allocateLocked(size)
		if !errors.Is(err, ErrBufferFull) {
			r.mu.Unlock()
			return reg, err
		}
		wait := r.space
		r.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			r.mu.Lock()
			r.failures++
			r.mu.Unlock()
			return Region{}, fmt.Errorf("%w: %d bytes: %w", ErrBufferFull, size, ctx.Err())
		}
	}
}

func (r *Ring) allocateLocked(size int) (Region, error) {
	if r.closed {
		return Region{}, ErrClosed
	}
	if size <= 0 {
		return Region{}, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if size > r.capacity {
		return Region{}, fmt.Errorf("%w: %d > %d", ErrRequestTooLarge, size, r.capacity)
	}

	off, wrapped, ok := r.place(size)
	if !ok {
		return Region{}, fmt.Errorf("%w: %d bytes, %d outstanding of %d", ErrBufferFull, size, r.outstanding, r.capacity)
	}

	reg := Region{Offset: off, Length: size, Generation: r.nextGen, ring: r.id}
	r.nextGen++
	e := &entry{region: reg}
	r.inflight.Add(e)
	r.live[reg.Generation] = e
	r.head = reg.End()
	r.outstanding += size
	r.highWater = max(r.highWater, r.outstanding)
	r.allocs++
	if wrapped {
		r.wraps++
		logging.Logger().Debug("ring: wrapped", "name", r.name, "size", size, "outstanding", r.outstanding)
	}
	return reg, nil
}

// place finds an offset for size bytes. The occupied span runs from the
// oldest in-flight entry (tail) to head; it is wrapped when the newest entry
// starts before the tail.
func (r *Ring) place(size int) (off int, wrapped bool, ok bool) {
	n := r.inflight.Length()
	if n == 0 {
		return 0, false, true
	}
	tail := r.inflight.Peek().(*entry).region.Offset
	newest := r.inflight.Get(n - 1).(*entry).region.Offset

	start, ok := checked.AlignUp(r.head, r.align)
	if !ok {
		return 0, false, false
	}
	if newest >= tail {
		// Free space is [head, capacity) and [0, tail).
		if start <= r.capacity-size {
			return start, false, true
		}
		if size <= tail {
			return 0, true, true
		}
		return 0, false, false
	}
	// Free space is [head, tail).
	if start <= tail-size {
		return start, false, true
	}
	return 0, false, false
}

// Release returns reg to the ring. Regions may be released in any order;
// space is reclaimed once every older region has been released too.
//
// Regions still in flight at Close can be released afterwards; the last
// such release frees the backing store.
func (r *Ring) Release(reg Region) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reg.ring != r.id {
		if r.closed {
			return ErrClosed
		}
		return fmt.Errorf("%w: %v not issued by %s", ErrUnknownHandle, reg, r.name)
	}
	e, ok := r.live[reg.Generation]
	if !ok {
		if r.closed {
			return ErrClosed
		}
		if reg.Generation > 0 && reg.Generation < r.nextGen {
			return fmt.Errorf("%w: %v", ErrDoubleRelease, reg)
		}
		return fmt.Errorf("%w: %v", ErrUnknownHandle, reg)
	}
	if e.region != reg {
		return fmt.Errorf("%w: %v does not match issued %v", ErrUnknownHandle, reg, e.region)
	}

	e.released = true
	delete(r.live, reg.Generation)
	r.outstanding -= reg.Length
	r.releases++

	if r.closed {
		if len(r.live) == 0 {
			return r.freeLocked()
		}
		return nil
	}

	reclaimed := false
	for r.inflight.Length() > 0 && r.inflight.Peek().(*entry).released {
		r.inflight.Remove()
		reclaimed = true
	}
	if r.inflight.Length() == 0 {
		r.head = 0
	}
	if reclaimed {
		close(r.space)
		r.space = make(chan struct{})
	}
	return nil
}

// Bytes returns the arena bytes of an in-flight region. The slice is valid
// only until the region is released and must not be retained past that.
// Regions in flight at Close stay readable until released.
func (r *Ring) Bytes(reg Region) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reg.ring != r.id {
		if r.closed {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("%w: %v not issued by %s", ErrUnknownHandle, reg, r.name)
	}
	e, ok := r.live[reg.Generation]
	if !ok || e.region != reg {
		if r.closed {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("%w: %v is not in flight", ErrUnknownHandle, reg)
	}
	return r.mem[reg.Offset:reg.End():reg.End()], nil
}

// Stats returns a snapshot of ring usage.
func (r *Ring) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Name:        r.name,
		Capacity:    r.capacity,
		Outstanding: r.outstanding,
		HighWater:   r.highWater,
		InFlight:    len(r.live),
		Allocations: r.allocs,
		Releases:    r.releases,
		Wraps:       r.wraps,
		Failures:    r.failures,
	}
}

// Close wakes every waiting Allocate with ErrClosed and refuses new
// allocations. The backing store is released at once when nothing is in
// flight, otherwise when the last in-flight region is released. Close is
// idempotent.
func (r *Ring) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	close(r.space)
	if n := len(r.live); n > 0 {
		logging.Logger().Debug("ring: close deferred until regions are released", "name", r.name, "regions", n)
		return nil
	}
	return r.freeLocked()
}

// freeLocked releases the backing store. Caller must hold r.mu.
func (r *Ring) freeLocked() error {
	r.mem = nil
	r.inflight = queue.New()
	err := r.backing.Close()
	logging.Logger().Debug("ring: backing released", "name", r.name)
	return err
}
