// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package framecore is the memory core of a renderer: owned pixel
// surfaces with bounds-checked block copies, and per-frame ring arenas
// gated by a producer/consumer frame synchronizer.
//
// # Overview
//
// A software rasterizer moves finished raster output in and out of a
// surface.Surface through a scoped surface.Guard. A GPU command encoder
// stages vertex and uniform data in ring regions that are reused only after
// the consumer has finished the frame that used them.
//
// # Quick Start
//
//	import "github.com/gogpu/framecore"
//
//	c, err := framecore.NewContext(framecore.WithFramesInFlight(2))
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	// Producer
//	f, err := c.BeginFrame(ctx)
//	verts, _, err := f.AllocData(ctx, 96)
//	// ... fill verts ...
//	err = f.Commit()
//
//	// Consumer
//	f, err = c.NextFrame(ctx)
//	err = stager.UploadSlot(f.Slot())
//	err = f.Done()
//
// # Architecture
//
// The module is organized into:
//   - format: pixel and vertex layout negotiation
//   - surface: pixel surfaces, guards, disposal, image interop
//   - ring: circular arenas, the args/data pool pair, backing stores
//   - frame: the slot state machine between producer and consumer
//   - gpu: uploads to a wgpu HAL device
//
// # Errors
//
// Every failure is a returned error that wraps a package sentinel, such as
// surface.ErrOutOfBounds or ring.ErrBufferFull; test with errors.Is. Bad
// caller input never panics and never results in a partial copy.
//
// # Logging
//
// framecore is silent by default. Use SetLogger to route diagnostics from
// all packages to a log/slog logger.
package framecore
