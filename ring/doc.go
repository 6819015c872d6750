// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package ring provides fixed-capacity circular byte arenas for transient
// per-frame GPU data.
//
// A Ring hands out contiguous regions in allocation order and reclaims them
// once every older region has been released. A region never straddles the
// end of the arena: if a request does not fit before the end, it is placed
// at offset 0 when the space before the oldest in-flight region allows it,
// and fails with ErrBufferFull otherwise. Regions may be released in any
// order.
//
// TryAllocate fails fast; Allocate waits for releases until its context is
// done, so a renderer can bound the wait and drop the frame.
//
// Pools pairs two rings: a small, 256-byte aligned ring for shader
// arguments and a larger one for vertex and uniform data, so that many
// small argument blocks never fragment the space needed for bulk data.
package ring
