// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framecore/format"
	"github.com/gogpu/framecore/surface"
)

// SurfaceTexture is a sampled GPU texture with the size and pixel format
// of a surface.
type SurfaceTexture struct {
	device hal.Device
	queue  hal.Queue
	width  int
	height int
	layout format.PixelLayout

	mu      sync.Mutex
	texture hal.Texture
	staging []byte
	rows    []uint32
}

// NewSurfaceTexture creates a texture matching s.
func NewSurfaceTexture(device hal.Device, queue hal.Queue, s *surface.Surface) (*SurfaceTexture, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("gpu: nil device or queue")
	}
	layout := s.Layout()
	n, err := layout.ImageBytes(s.Width(), s.Height())
	if err != nil {
		return nil, fmt.Errorf("gpu: surface texture: %w", err)
	}

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: "framecore_surface",
		Size: hal.Extent3D{
			Width:              uint32(s.Width()),  //nolint:gosec // G115: surface sizes are positive
			Height:             uint32(s.Height()), //nolint:gosec // G115: surface sizes are positive
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        layout.TextureFormat(),
		Usage:         gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create surface texture: %w", err)
	}
	return &SurfaceTexture{
		device:  device,
		queue:   queue,
		width:   s.Width(),
		height:  s.Height(),
		layout:  layout,
		texture: tex,
		staging: make([]byte, n),
		rows:    make([]uint32, s.Width()),
	}, nil
}

// Texture returns the HAL texture, or nil after Destroy.
func (t *SurfaceTexture) Texture() hal.Texture {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.texture
}

// Format returns the texture format.
func (t *SurfaceTexture) Format() gputypes.TextureFormat { return t.layout.TextureFormat() }

// Size returns the texture size in pixels.
func (t *SurfaceTexture) Size() (width, height int) { return t.width, t.height }

// Upload copies the pixels of a locked surface into the texture. The
// surface must have the size and layout the texture was created with.
func (t *SurfaceTexture) Upload(g *surface.Guard) error {
	s := g.Surface()
	if s == nil {
		return surface.ErrNotLocked
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.texture == nil {
		return ErrDestroyed
	}
	if s.Width() != t.width || s.Height() != t.height {
		return fmt.Errorf("%w: surface %dx%d, texture %dx%d",
			ErrSizeMismatch, s.Width(), s.Height(), t.width, t.height)
	}
	if s.Layout() != t.layout {
		return fmt.Errorf("%w: surface layout %v, texture layout %v",
			format.ErrUnsupportedFormat, s.Layout().Format, t.layout.Format)
	}

	stride, err := t.layout.Stride(t.width)
	if err != nil {
		return err
	}
	for y := range t.height {
		if err := g.GetPixels(t.rows, 0, t.width, 0, y, t.width, 1); err != nil {
			return err
		}
		row := t.staging[y*stride:]
		for x, p := range t.rows {
			format.PutPixel(row[x*format.BytesPerPixel:], p)
		}
	}

	t.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.texture,
			MipLevel: 0,
		},
		t.staging,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(stride),   //nolint:gosec // G115: checked by Stride
			RowsPerImage: uint32(t.height), //nolint:gosec // G115: surface sizes are positive
		},
		&hal.Extent3D{Width: uint32(t.width), Height: uint32(t.height), DepthOrArrayLayers: 1}, //nolint:gosec // G115: surface sizes are positive
	)
	return nil
}

// Destroy releases the texture. It is idempotent.
func (t *SurfaceTexture) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.texture != nil {
		t.device.DestroyTexture(t.texture)
		t.texture = nil
	}
}
