// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu moves committed frame data onto a wgpu HAL device.
//
// A Stager mirrors each ring pool with one GPU buffer of the same size, so
// a region uploads to the same byte offset it occupies in its arena and
// draw calls can bind it directly. SurfaceTexture mirrors a pixel surface
// in a texture of the negotiated format, and BlitShader holds the shader
// module that presents such a texture on a quad.
//
// The package works with any hal.Device. Tests use the hal/noop backend.
//
//	stager, err := gpu.NewStager(device, queue, pools)
//	...
//	slot, _ := sync.BeginConsume(ctx)
//	if err := stager.UploadSlot(slot); err != nil {
//	    ...
//	}
package gpu
