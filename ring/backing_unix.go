// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build linux || darwin || freebsd

package ring

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// mmapBacking is anonymous private memory mapped outside the Go heap, so a
// large arena adds no GC scan or heap growth pressure.
type mmapBacking struct {
	b []byte
}

func newMmapBacking(size int) (Backing, error) {
	if size <= 0 {
		return nil, ErrInvalidCapacity
	}
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("ring: mmap %d bytes: %w", size, err)
	}
	return &mmapBacking{b: b}, nil
}

func (m *mmapBacking) Bytes() []byte { return m.b }

func (m *mmapBacking) Close() error {
	if m.b == nil {
		return nil
	}
	b := m.b
	m.b = nil
	if err := unix.Munmap(b); err != nil {
		return fmt.Errorf("ring: munmap: %w", err)
	}
	return nil
}

func init() {
	RegisterBacking(BackingMmap, 50, newMmapBacking, nil)
}
