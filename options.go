// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framecore

import (
	"github.com/gogpu/framecore/format"
	"github.com/gogpu/framecore/ring"
	"github.com/gogpu/framecore/surface"
)

// DefaultFramesInFlight is the number of frame slots of a Context created
// without WithFramesInFlight.
const DefaultFramesInFlight = 3

// ContextOption configures a Context during creation.
//
// Example:
//
//	// Default pools and three frames in flight
//	c, err := framecore.NewContext()
//
//	// Smaller pools in anonymous mapped memory, double buffered
//	c, err := framecore.NewContext(
//	    framecore.WithDataCapacity(4<<20),
//	    framecore.WithBacking(ring.BackingMmap),
//	    framecore.WithFramesInFlight(2),
//	)
type ContextOption func(*contextOptions)

// contextOptions holds optional configuration for Context creation.
type contextOptions struct {
	pools      ring.Config
	frames     int
	layout     format.PixelLayout
	lockPolicy surface.LockPolicy
}

// defaultOptions returns the default context options.
func defaultOptions() contextOptions {
	return contextOptions{
		pools: ring.Config{
			ArgsCapacity: ring.DefaultArgsCapacity,
			DataCapacity: ring.DefaultDataCapacity,
			Backing:      ring.BackingHeap,
		},
		frames:     DefaultFramesInFlight,
		layout:     format.DefaultPixelLayout,
		lockPolicy: surface.LockBlock,
	}
}

// WithArgsCapacity sets the size in bytes of the shader argument pool.
func WithArgsCapacity(n int) ContextOption {
	return func(o *contextOptions) {
		o.pools.ArgsCapacity = n
	}
}

// WithDataCapacity sets the size in bytes of the vertex and uniform data
// pool.
func WithDataCapacity(n int) ContextOption {
	return func(o *contextOptions) {
		o.pools.DataCapacity = n
	}
}

// WithFramesInFlight sets how many frames the producer may run ahead of
// the consumer.
func WithFramesInFlight(n int) ContextOption {
	return func(o *contextOptions) {
		o.frames = n
	}
}

// WithBacking selects the ring backing store by registry name. See
// ring.Backings for the names available on this platform.
func WithBacking(name string) ContextOption {
	return func(o *contextOptions) {
		o.pools.Backing = name
	}
}

// WithPixelLayout sets the layout of surfaces created by the Context.
func WithPixelLayout(l format.PixelLayout) ContextOption {
	return func(o *contextOptions) {
		o.layout = l
	}
}

// WithLockPolicy sets the lock policy of surfaces created by the Context.
func WithLockPolicy(p surface.LockPolicy) ContextOption {
	return func(o *contextOptions) {
		o.lockPolicy = p
	}
}
