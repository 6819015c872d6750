// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides an owned 32-bit pixel buffer with bounds-checked
// bulk copy operations and a scoped locking discipline.
//
// A Surface is created with fixed dimensions and a fixed packed pixel
// format. Its pixels can only be read or written through a Guard, which is
// obtained by acquiring the surface and must be released on every exit path:
//
//	s, err := surface.New(800, 600)
//	if err != nil {
//	    return err
//	}
//	defer s.Dispose()
//
//	err = s.Update(func(g *surface.Guard) error {
//	    return g.SetPixels(block, 0, 2, 1, 1, 2, 2)
//	})
//
// # Bounds
//
// GetPixels and SetPixels validate the logical rectangle first and then the
// arithmetic used to validate it. A rectangle that does not fit fails with
// ErrOutOfBounds; a computation that would overflow int fails with
// ErrArithmeticOverflow. Rejected calls never touch either buffer, and no
// rectangle is ever clamped.
//
// # Locking
//
// The default LockBlock policy makes Acquire wait for the current holder.
// LockFailFast makes it return ErrAlreadyLocked instead. Dispose always
// waits for the current holder to release before dropping the buffer, after
// which every operation fails with ErrDisposed.
//
// Writes made through a Guard happen before the next successful Acquire.
package surface
