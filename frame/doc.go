// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package frame hands frames from a producer to a consumer through a fixed
// set of slots.
//
// Every slot cycles through
//
//	Empty -> Writing -> Ready -> Consuming -> Empty
//
// The producer fills slots in order and the consumer drains them in the
// same order, so a consumer never observes a slot that is still being
// written. Ring regions attached to a slot are released when the consumer
// ends it, which keeps the producer from reusing arena memory the consumer
// may still read.
//
// Writes made before CommitWrite are visible to the consumer once
// BeginConsume returns the slot.
package frame
