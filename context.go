// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framecore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framecore/format"
	"github.com/gogpu/framecore/frame"
	"github.com/gogpu/framecore/gpu"
	"github.com/gogpu/framecore/internal/checked"
	"github.com/gogpu/framecore/internal/logging"
	"github.com/gogpu/framecore/ring"
	"github.com/gogpu/framecore/surface"
)

// ErrClosed is returned by a Context after Close.
var ErrClosed = errors.New("framecore: context closed")

// Context is a rendering context: the args and data pools, the frame
// synchronizer that gates their reuse, and the surfaces created through it.
//
// One goroutine produces frames with BeginFrame and Commit; another
// consumes them with NextFrame and Done.
type Context struct {
	pools      *ring.Pools
	frames     *frame.Synchronizer
	layout     format.PixelLayout
	lockPolicy surface.LockPolicy

	mu       sync.Mutex
	surfaces []*surface.Surface
	closed   bool
}

// Stats is a snapshot of context usage.
type Stats struct {
	Args   ring.Stats
	Data   ring.Stats
	Frames frame.Stats
}

// NewContext creates a rendering context.
func NewContext(opts ...ContextOption) (*Context, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !o.layout.Format.IsValid() {
		return nil, fmt.Errorf("%w: %v", format.ErrUnsupportedFormat, o.layout.Format)
	}

	pools, err := ring.NewPools(o.pools)
	if err != nil {
		return nil, err
	}
	frames, err := frame.New(o.frames, pools)
	if err != nil {
		_ = pools.Close()
		return nil, err
	}
	logging.Logger().Debug("framecore: context created",
		"args", pools.Args.Capacity(), "data", pools.Data.Capacity(), "frames", o.frames)
	return &Context{
		pools:      pools,
		frames:     frames,
		layout:     o.layout,
		lockPolicy: o.lockPolicy,
	}, nil
}

// Pools returns the args and data pools.
func (c *Context) Pools() *ring.Pools { return c.pools }

// Synchronizer returns the frame synchronizer.
func (c *Context) Synchronizer() *frame.Synchronizer { return c.frames }

// Layout returns the pixel layout of surfaces created by c.
func (c *Context) Layout() format.PixelLayout { return c.layout }

// Stats returns pool and frame counters.
func (c *Context) Stats() Stats {
	args, data := c.pools.Stats()
	return Stats{Args: args, Data: data, Frames: c.frames.Stats()}
}

// NewSurface creates a surface with the context pixel layout and lock
// policy. It is disposed when the context is closed.
func (c *Context) NewSurface(width, height int) (*surface.Surface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	s, err := surface.New(width, height,
		surface.WithLayout(c.layout), surface.WithLockPolicy(c.lockPolicy))
	if err != nil {
		return nil, err
	}
	c.surfaces = append(c.surfaces, s)
	return s, nil
}

// NewStager creates a GPU stager mirroring the context pools on device.
func (c *Context) NewStager(device hal.Device, queue hal.Queue) (*gpu.Stager, error) {
	return gpu.NewStager(device, queue, c.pools)
}

// BeginFrame starts the next frame, waiting until the consumer has
// finished with its slot or ctx is done. A renderer that cannot wait drops
// the frame when the error wraps frame.ErrSlotBusy.
func (c *Context) BeginFrame(ctx context.Context) (*Frame, error) {
	slot, err := c.frames.BeginWriteContext(ctx)
	if err != nil {
		return nil, err
	}
	return &Frame{c: c, slot: slot}, nil
}

// NextFrame waits for the next committed frame.
func (c *Context) NextFrame(ctx context.Context) (*Frame, error) {
	slot, err := c.frames.BeginConsume(ctx)
	if err != nil {
		return nil, err
	}
	return &Frame{c: c, slot: slot}, nil
}

// Close stops the synchronizer, disposes every surface created by c and
// closes the pools. Close is idempotent.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	surfaces := c.surfaces
	c.surfaces = nil
	c.mu.Unlock()

	errs := []error{c.frames.Close()}
	for _, s := range surfaces {
		errs = append(errs, s.Close())
	}
	errs = append(errs, c.pools.Close())
	return errors.Join(errs...)
}

// Frame is one frame slot seen from the producer (between BeginFrame and
// Commit or Drop) or from the consumer (between NextFrame and Done).
type Frame struct {
	c    *Context
	slot *frame.Slot
}

// Index returns the slot index of the frame.
func (f *Frame) Index() int { return f.slot.Index() }

// Sequence returns the frame number, starting at 1.
func (f *Frame) Sequence() uint64 { return f.slot.Sequence() }

// Slot returns the underlying synchronizer slot.
func (f *Frame) Slot() *frame.Slot { return f.slot }

// AllocArgs allocates size bytes of shader arguments for the frame. The
// region is released when the consumer calls Done.
func (f *Frame) AllocArgs(ctx context.Context, size int) ([]byte, ring.Region, error) {
	return f.alloc(ctx, ring.KindArgs, size)
}

// AllocData allocates size bytes of vertex or uniform data for the frame.
func (f *Frame) AllocData(ctx context.Context, size int) ([]byte, ring.Region, error) {
	return f.alloc(ctx, ring.KindData, size)
}

// alloc rounds size up to the GPU copy granularity so every region can be
// uploaded as is.
func (f *Frame) alloc(ctx context.Context, kind ring.Kind, size int) ([]byte, ring.Region, error) {
	if size <= 0 {
		return nil, ring.Region{}, fmt.Errorf("%w: %d", ring.ErrInvalidSize, size)
	}
	n, ok := checked.AlignUp(size, gpu.CopyAlignment)
	if !ok {
		return nil, ring.Region{}, fmt.Errorf("%w: %d", ring.ErrRequestTooLarge, size)
	}
	reg, err := f.c.pools.Allocate(ctx, kind, n)
	if err != nil {
		return nil, ring.Region{}, err
	}
	if err := f.slot.Attach(reg); err != nil {
		return nil, ring.Region{}, errors.Join(err, f.c.pools.Release(reg))
	}
	b, err := f.c.pools.Bytes(reg)
	if err != nil {
		return nil, ring.Region{}, err
	}
	return b[:size], reg, nil
}

// Commit publishes the frame to the consumer.
func (f *Frame) Commit() error { return f.c.frames.CommitWrite(f.slot) }

// Drop abandons a frame being written and releases its regions.
func (f *Frame) Drop() error { return f.c.frames.AbortWrite(f.slot) }

// Regions returns the regions allocated for the frame.
func (f *Frame) Regions() []ring.Region { return f.slot.Regions() }

// Bytes returns the arena bytes of one of the frame regions.
func (f *Frame) Bytes(reg ring.Region) ([]byte, error) { return f.c.pools.Bytes(reg) }

// Done ends consumption of the frame and releases its regions.
func (f *Frame) Done() error { return f.c.frames.EndConsume(f.slot) }
