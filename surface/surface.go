// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/framecore/format"
	"github.com/gogpu/framecore/internal/checked"
	"github.com/gogpu/framecore/internal/logging"
)

// Errors returned by surface operations.
var (
	// ErrInvalidDimension is returned when width or height is non-positive
	// or the buffer size cannot be represented.
	ErrInvalidDimension = errors.New("surface: invalid dimension")

	// ErrOutOfBounds is returned when a copy rectangle or buffer range does
	// not fit.
	ErrOutOfBounds = errors.New("surface: out of bounds")

	// ErrArithmeticOverflow is returned when a bounds computation overflows.
	ErrArithmeticOverflow = errors.New("surface: arithmetic overflow")

	// ErrDisposed is returned for any operation on a disposed surface.
	ErrDisposed = errors.New("surface: disposed")

	// ErrAlreadyLocked is returned by a fail-fast acquire on a locked surface.
	ErrAlreadyLocked = errors.New("surface: already locked")

	// ErrNotLocked is returned when a released guard is used.
	ErrNotLocked = errors.New("surface: guard released")

	// ErrUnsupportedFormat is returned when the requested layout is invalid.
	ErrUnsupportedFormat = errors.New("surface: unsupported pixel format")
)

var surfaceIDs atomic.Uint64

// Surface is a rectangular buffer of 32-bit packed pixels.
//
// The surface exclusively owns its buffer. Pixels are reachable only through
// a Guard returned by Acquire. Surface methods are safe for concurrent use;
// a Guard belongs to the goroutine that acquired it.
type Surface struct {
	id     uint64
	width  int
	height int
	layout format.PixelLayout
	policy LockPolicy

	// sem holds one token while the surface is locked.
	sem      chan struct{}
	disposed atomic.Bool

	// data is guarded by sem.
	data []uint32

	acquires  atomic.Uint64
	contended atomic.Uint64
}

// Stats reports lock activity on a surface.
type Stats struct {
	Acquires  uint64
	Contended uint64
	Disposed  bool
}

// New creates a zero-filled surface of width x height pixels.
func New(width, height int, opts ...Option) (*Surface, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, width, height)
	}
	if !o.layout.Format.IsValid() {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, o.layout.Format)
	}
	if o.policy != LockBlock && o.policy != LockFailFast {
		return nil, fmt.Errorf("surface: unknown lock policy %d", o.policy)
	}
	// The pixel count must fit, and so must its size in bytes.
	n, ok := checked.Mul(width, height)
	if ok {
		_, ok = checked.Mul(n, format.BytesPerPixel)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %dx%d: %w", ErrInvalidDimension, width, height, ErrArithmeticOverflow)
	}

	s := &Surface{
		id:     surfaceIDs.Add(1),
		width:  width,
		height: height,
		layout: o.layout,
		policy: o.policy,
		sem:    make(chan struct{}, 1),
		data:   make([]uint32, n),
	}
	logging.Logger().Debug("surface: created",
		"id", s.id, "width", width, "height", height, "format", o.layout.Format.String())
	return s, nil
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.width }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.height }

// Layout returns the negotiated pixel layout.
func (s *Surface) Layout() format.PixelLayout { return s.layout }

// Policy returns the lock policy.
func (s *Surface) Policy() LockPolicy { return s.policy }

// Disposed reports whether Dispose has completed.
func (s *Surface) Disposed() bool { return s.disposed.Load() }

// Stats returns a snapshot of lock counters.
func (s *Surface) Stats() Stats {
	return Stats{
		Acquires:  s.acquires.Load(),
		Contended: s.contended.Load(),
		Disposed:  s.disposed.Load(),
	}
}

// Acquire locks the surface and returns a guard for pixel access.
// Under LockBlock it waits for the current holder; under LockFailFast it
// returns ErrAlreadyLocked.
func (s *Surface) Acquire() (*Guard, error) {
	return s.AcquireContext(context.Background())
}

// AcquireContext is Acquire with a bounded wait. Under LockBlock it returns
// the context error if ctx is done before the lock is free.
func (s *Surface) AcquireContext(ctx context.Context) (*Guard, error) {
	if s.disposed.Load() {
		return nil, ErrDisposed
	}
	select {
	case s.sem <- struct{}{}:
	default:
		s.contended.Add(1)
		if s.policy == LockFailFast {
			return nil, ErrAlreadyLocked
		}
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			return nil, fmt.Errorf("surface: acquire: %w", ctx.Err())
		}
	}
	return s.locked()
}

// TryAcquire locks the surface without waiting, regardless of policy.
func (s *Surface) TryAcquire() (*Guard, error) {
	if s.disposed.Load() {
		return nil, ErrDisposed
	}
	select {
	case s.sem <- struct{}{}:
	default:
		s.contended.Add(1)
		return nil, ErrAlreadyLocked
	}
	return s.locked()
}

// locked is called with the token held.
func (s *Surface) locked() (*Guard, error) {
	// Dispose may have run while we waited.
	if s.disposed.Load() {
		<-s.sem
		return nil, ErrDisposed
	}
	s.acquires.Add(1)
	return &Guard{s: s}, nil
}

// Update acquires the surface, runs fn with the guard and releases the
// surface on every exit path, including a panic in fn.
func (s *Surface) Update(fn func(g *Guard) error) error {
	g, err := s.Acquire()
	if err != nil {
		return err
	}
	defer g.Release()
	return fn(g)
}

// Dispose releases the pixel buffer. It waits for the current holder to
// release, regardless of lock policy, so a reader is never left with freed
// memory. Dispose is idempotent.
//
// Dispose must not be called by the goroutine holding a guard; use
// Guard.Dispose instead.
func (s *Surface) Dispose() {
	if s.disposed.Load() {
		return
	}
	s.sem <- struct{}{}
	s.disposeLocked()
	<-s.sem
}

// Close disposes the surface. It implements io.Closer.
func (s *Surface) Close() error {
	s.Dispose()
	return nil
}

// disposeLocked is called with the token held.
func (s *Surface) disposeLocked() {
	if s.disposed.Load() {
		return
	}
	s.data = nil
	s.disposed.Store(true)
	logging.Logger().Debug("surface: disposed", "id", s.id)
}

func (s *Surface) String() string {
	return fmt.Sprintf("Surface#%d(%dx%d %v)", s.id, s.width, s.height, s.layout.Format)
}
