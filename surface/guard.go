// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"fmt"

	"github.com/gogpu/framecore/internal/checked"
)

// Guard is the scoped view of a locked surface. All pixel access goes
// through a Guard. Release must be called on every exit path; after that
// the guard refuses all operations with ErrNotLocked, or ErrDisposed if it
// was ended by Dispose.
//
// A Guard must not be retained or shared beyond the goroutine that
// acquired it.
type Guard struct {
	s        *Surface
	disposed bool
}

// Surface returns the locked surface, or nil after Release.
func (g *Guard) Surface() *Surface { return g.s }

// Release unlocks the surface. It is safe to call more than once.
func (g *Guard) Release() {
	s := g.s
	if s == nil {
		return
	}
	g.s = nil
	<-s.sem
}

// Dispose disposes the surface and releases the guard. It is the way for a
// holder to dispose without deadlocking on its own lock. Afterwards the
// guard reports ErrDisposed.
func (g *Guard) Dispose() {
	s := g.s
	if s == nil {
		return
	}
	s.disposeLocked()
	g.disposed = true
	g.Release()
}

func (g *Guard) surface() (*Surface, error) {
	if g == nil {
		return nil, ErrNotLocked
	}
	if g.disposed {
		return nil, ErrDisposed
	}
	if g.s == nil {
		return nil, ErrNotLocked
	}
	return g.s, nil
}

// GetPixels copies the w x h rectangle at (x, y) into dst. Row i of the
// rectangle lands at dst[dstOffset+i*dstScan:].
//
// A zero w or h is a successful no-op. Any range violation is reported
// before either buffer is touched.
func (g *Guard) GetPixels(dst []uint32, dstOffset, dstScan, x, y, w, h int) error {
	s, err := g.surface()
	if err != nil {
		return err
	}
	noop, err := s.checkCopy(len(dst), dstOffset, dstScan, x, y, w, h)
	if err != nil || noop {
		return err
	}

	si := y*s.width + x
	di := dstOffset
	srcSkip := s.width - w
	dstSkip := dstScan - w
	for range h {
		copy(dst[di:di+w], s.data[si:si+w])
		si += w + srcSkip
		di += w + dstSkip
	}
	return nil
}

// SetPixels copies a w x h block from src into the rectangle at (x, y).
// Row i of the block is read from src[srcOffset+i*srcScan:].
//
// It has the same bounds discipline as GetPixels.
func (g *Guard) SetPixels(src []uint32, srcOffset, srcScan, x, y, w, h int) error {
	s, err := g.surface()
	if err != nil {
		return err
	}
	noop, err := s.checkCopy(len(src), srcOffset, srcScan, x, y, w, h)
	if err != nil || noop {
		return err
	}

	di := y*s.width + x
	si := srcOffset
	dstSkip := s.width - w
	srcSkip := srcScan - w
	for range h {
		copy(s.data[di:di+w], src[si:si+w])
		di += w + dstSkip
		si += w + srcSkip
	}
	return nil
}

// Pixel returns the packed pixel at (x, y).
func (g *Guard) Pixel(x, y int) (uint32, error) {
	var p [1]uint32
	if err := g.GetPixels(p[:], 0, 1, x, y, 1, 1); err != nil {
		return 0, err
	}
	return p[0], nil
}

// SetPixel stores a packed pixel at (x, y).
func (g *Guard) SetPixel(x, y int, p uint32) error {
	return g.SetPixels([]uint32{p}, 0, 1, x, y, 1, 1)
}

// Clear sets every pixel to p.
func (g *Guard) Clear(p uint32) error {
	s, err := g.surface()
	if err != nil {
		return err
	}
	for i := range s.data {
		s.data[i] = p
	}
	return nil
}

// checkCopy validates a rectangle copy between the surface and a caller
// buffer of length bufLen. It reports noop for an empty rectangle.
//
// The logical rectangle is checked first, then the arithmetic that
// produced it, then the caller buffer range.
func (s *Surface) checkCopy(bufLen, offset, scan, x, y, w, h int) (noop bool, err error) {
	if w < 0 || h < 0 {
		return false, fmt.Errorf("%w: negative size %dx%d", ErrOutOfBounds, w, h)
	}
	if w == 0 || h == 0 {
		return true, nil
	}
	if x < 0 || y < 0 {
		return false, fmt.Errorf("%w: origin (%d,%d)", ErrOutOfBounds, x, y)
	}
	right, ok := checked.Add(x, w)
	if !ok {
		return false, fmt.Errorf("%w: x %d + w %d", ErrArithmeticOverflow, x, w)
	}
	bottom, ok := checked.Add(y, h)
	if !ok {
		return false, fmt.Errorf("%w: y %d + h %d", ErrArithmeticOverflow, y, h)
	}
	if right > s.width || bottom > s.height {
		return false, fmt.Errorf("%w: rect (%d,%d)-(%d,%d) outside %dx%d",
			ErrOutOfBounds, x, y, right, bottom, s.width, s.height)
	}
	if scan < w {
		return false, fmt.Errorf("%w: scan length %d < width %d", ErrOutOfBounds, scan, w)
	}
	if offset < 0 {
		return false, fmt.Errorf("%w: negative offset %d", ErrOutOfBounds, offset)
	}
	end, ok := checked.MulAdd(h, scan, offset)
	if !ok {
		return false, fmt.Errorf("%w: offset %d + %d rows of %d", ErrArithmeticOverflow, offset, h, scan)
	}
	if end > bufLen {
		return false, fmt.Errorf("%w: buffer range [%d,%d) exceeds length %d", ErrOutOfBounds, offset, end, bufLen)
	}
	return false, nil
}
