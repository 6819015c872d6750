// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framecore/frame"
	"github.com/gogpu/framecore/internal/logging"
	"github.com/gogpu/framecore/ring"
)

// CopyAlignment is the offset and size granularity of buffer writes.
const CopyAlignment = 4

// Errors returned by the GPU client.
var (
	// ErrDestroyed is returned after Destroy.
	ErrDestroyed = errors.New("gpu: resource destroyed")

	// ErrUnalignedRegion is returned for regions whose offset or length is
	// not a multiple of CopyAlignment.
	ErrUnalignedRegion = errors.New("gpu: region not copy aligned")

	// ErrSizeMismatch is returned when a surface does not match its texture.
	ErrSizeMismatch = errors.New("gpu: size mismatch")

	// ErrNoHAL is returned for providers that do not expose HAL objects.
	ErrNoHAL = errors.New("gpu: provider does not expose HAL types")
)

// StagerStats counts uploads.
type StagerStats struct {
	Uploads uint64
	Bytes   uint64
}

// Stager uploads ring regions into GPU buffers that mirror the pools.
type Stager struct {
	device hal.Device
	queue  hal.Queue
	pools  *ring.Pools

	mu        sync.Mutex
	buffers   [2]hal.Buffer
	destroyed bool
	stats     StagerStats
}

// NewStager creates one GPU buffer per pool: uniform usage for the args
// pool and vertex usage for the data pool.
func NewStager(device hal.Device, queue hal.Queue, pools *ring.Pools) (*Stager, error) {
	if device == nil || queue == nil {
		return nil, errors.New("gpu: nil device or queue")
	}
	if pools == nil {
		return nil, errors.New("gpu: nil pools")
	}
	s := &Stager{device: device, queue: queue, pools: pools}

	usage := [2]gputypes.BufferUsage{
		ring.KindArgs: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		ring.KindData: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	}
	for _, kind := range []ring.Kind{ring.KindArgs, ring.KindData} {
		r := pools.Ring(kind)
		buf, err := device.CreateBuffer(&hal.BufferDescriptor{
			Label: "framecore_" + kind.String(),
			Size:  uint64(r.Capacity()), //nolint:gosec // G115: capacity is positive
			Usage: usage[kind],
		})
		if err != nil {
			s.Destroy()
			return nil, fmt.Errorf("gpu: create %s buffer: %w", kind, err)
		}
		s.buffers[kind] = buf
	}
	logging.Logger().Debug("gpu: stager created",
		"args", pools.Args.Capacity(), "data", pools.Data.Capacity())
	return s, nil
}

// Buffer returns the GPU buffer mirroring the kind pool, or nil after
// Destroy.
func (s *Stager) Buffer(kind ring.Kind) hal.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(kind) >= len(s.buffers) {
		return nil
	}
	return s.buffers[kind]
}

// Upload writes each region to its pool buffer at the region offset.
// Every region is validated before anything is written.
func (s *Stager) Upload(regions ...ring.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrDestroyed
	}

	type write struct {
		buf  hal.Buffer
		off  uint64
		data []byte
	}
	writes := make([]write, 0, len(regions))
	for _, reg := range regions {
		if reg.Offset%CopyAlignment != 0 || reg.Length%CopyAlignment != 0 {
			return fmt.Errorf("%w: %v", ErrUnalignedRegion, reg)
		}
		kind, ok := s.pools.KindOf(reg)
		if !ok {
			return fmt.Errorf("gpu: %w: %v", ring.ErrUnknownHandle, reg)
		}
		b, err := s.pools.Bytes(reg)
		if err != nil {
			return fmt.Errorf("gpu: %w", err)
		}
		writes = append(writes, write{buf: s.buffers[kind], off: uint64(reg.Offset), data: b}) //nolint:gosec // G115: offset is non-negative
	}

	for _, w := range writes {
		s.queue.WriteBuffer(w.buf, w.off, w.data)
		s.stats.Uploads++
		s.stats.Bytes += uint64(len(w.data))
	}
	return nil
}

// UploadSlot uploads every region attached to a frame slot.
func (s *Stager) UploadSlot(slot *frame.Slot) error {
	return s.Upload(slot.Regions()...)
}

// Stats returns upload counters.
func (s *Stager) Stats() StagerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Destroy releases the GPU buffers. The pools are not closed. Destroy is
// idempotent.
func (s *Stager) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.destroyed = true
	for i, buf := range s.buffers {
		if buf != nil {
			s.device.DestroyBuffer(buf)
			s.buffers[i] = nil
		}
	}
}
