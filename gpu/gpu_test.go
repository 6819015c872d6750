// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/framecore/format"
	"github.com/gogpu/framecore/frame"
	"github.com/gogpu/framecore/ring"
	"github.com/gogpu/framecore/surface"
)

// createNoopDevice creates a noop device and queue for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

func newTestPools(t *testing.T) *ring.Pools {
	t.Helper()
	p, err := ring.NewPools(ring.Config{ArgsCapacity: 4096, DataCapacity: 4096})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func newTestStager(t *testing.T) (*Stager, *ring.Pools) {
	t.Helper()
	device, queue := createNoopDevice(t)
	pools := newTestPools(t)
	s, err := NewStager(device, queue, pools)
	if err != nil {
		t.Fatalf("NewStager() error = %v", err)
	}
	t.Cleanup(s.Destroy)
	return s, pools
}

func TestNewStager(t *testing.T) {
	s, _ := newTestStager(t)
	if s.Buffer(ring.KindArgs) == nil || s.Buffer(ring.KindData) == nil {
		t.Fatal("stager buffers not created")
	}
	if s.Buffer(ring.Kind(7)) != nil {
		t.Error("Buffer(unknown kind) should be nil")
	}

	s.Destroy()
	s.Destroy()
	if s.Buffer(ring.KindArgs) != nil {
		t.Error("Buffer after Destroy should be nil")
	}
	if err := s.Upload(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Upload after Destroy = %v, want ErrDestroyed", err)
	}
}

func TestNewStagerInvalid(t *testing.T) {
	device, queue := createNoopDevice(t)
	if _, err := NewStager(nil, queue, newTestPools(t)); err == nil {
		t.Error("NewStager(nil device) should fail")
	}
	if _, err := NewStager(device, queue, nil); err == nil {
		t.Error("NewStager(nil pools) should fail")
	}
}

func TestStagerUpload(t *testing.T) {
	s, pools := newTestStager(t)

	args, err := pools.TryAllocate(ring.KindArgs, 16)
	if err != nil {
		t.Fatal(err)
	}
	data, err := pools.TryAllocate(ring.KindData, 32)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := pools.Bytes(data)
	for i := range b {
		b[i] = byte(i)
	}

	if err := s.Upload(args, data); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if st := s.Stats(); st.Uploads != 2 || st.Bytes != 48 {
		t.Errorf("Stats() = %+v, want 2 uploads of 48 bytes", st)
	}
}

func TestStagerUploadRejects(t *testing.T) {
	s, pools := newTestStager(t)

	odd, err := pools.TryAllocate(ring.KindData, 6)
	if err != nil {
		t.Fatal(err)
	}
	other, err := ring.New(64)
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()
	foreign, _ := other.TryAllocate(8)
	released, _ := pools.TryAllocate(ring.KindArgs, 8)
	if err := pools.Release(released); err != nil {
		t.Fatal(err)
	}
	good, _ := pools.TryAllocate(ring.KindArgs, 8)

	tests := []struct {
		name string
		reg  ring.Region
		want error
	}{
		{"unaligned length", odd, ErrUnalignedRegion},
		{"foreign region", foreign, ring.ErrUnknownHandle},
		{"released region", released, ring.ErrUnknownHandle},
	}
	for _, tt := range tests {
		// The valid region first: a rejected batch writes nothing.
		if err := s.Upload(good, tt.reg); !errors.Is(err, tt.want) {
			t.Errorf("%s: Upload error = %v, want %v", tt.name, err, tt.want)
		}
	}
	if st := s.Stats(); st.Uploads != 0 {
		t.Errorf("Uploads = %d after rejected batches, want 0", st.Uploads)
	}
}

func TestUploadSlot(t *testing.T) {
	s, pools := newTestStager(t)
	sync, err := frame.New(2, pools)
	if err != nil {
		t.Fatal(err)
	}
	defer sync.Close()

	slot, err := sync.BeginWrite()
	if err != nil {
		t.Fatal(err)
	}
	a, _ := pools.TryAllocate(ring.KindArgs, 64)
	d, _ := pools.TryAllocate(ring.KindData, 96)
	if err := slot.Attach(a, d); err != nil {
		t.Fatal(err)
	}
	if err := sync.CommitWrite(slot); err != nil {
		t.Fatal(err)
	}

	c, err := sync.BeginConsume(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UploadSlot(c); err != nil {
		t.Fatalf("UploadSlot() error = %v", err)
	}
	if err := sync.EndConsume(c); err != nil {
		t.Fatal(err)
	}
	if st := s.Stats(); st.Bytes != 160 {
		t.Errorf("uploaded %d bytes, want 160", st.Bytes)
	}
}

// mockDevice implements gpucontext.Device for testing.
type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

// mockQueue implements gpucontext.Queue for testing.
type mockQueue struct{}

// mockAdapter implements gpucontext.Adapter for testing.
type mockAdapter struct{}

// mockProvider implements gpucontext.DeviceProvider for testing.
type mockProvider struct{}

func (m *mockProvider) Device() gpucontext.Device             { return &mockDevice{} }
func (m *mockProvider) Queue() gpucontext.Queue               { return &mockQueue{} }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return &mockAdapter{} }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }

// halMockProvider also exposes HAL objects.
type halMockProvider struct {
	mockProvider
	device hal.Device
	queue  hal.Queue
}

func (m *halMockProvider) HalDevice() any { return m.device }
func (m *halMockProvider) HalQueue() any  { return m.queue }

func TestNewStagerFromProvider(t *testing.T) {
	device, queue := createNoopDevice(t)
	pools := newTestPools(t)

	s, err := NewStagerFromProvider(&halMockProvider{device: device, queue: queue}, pools)
	if err != nil {
		t.Fatalf("NewStagerFromProvider() error = %v", err)
	}
	s.Destroy()

	if _, err := NewStagerFromProvider(&mockProvider{}, pools); !errors.Is(err, ErrNoHAL) {
		t.Errorf("provider without HAL error = %v, want ErrNoHAL", err)
	}
	if _, err := NewStagerFromProvider(&halMockProvider{}, pools); !errors.Is(err, ErrNoHAL) {
		t.Errorf("provider with nil HAL error = %v, want ErrNoHAL", err)
	}
}

func TestSurfaceTexture(t *testing.T) {
	device, queue := createNoopDevice(t)
	s, err := surface.New(4, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Dispose()

	tex, err := NewSurfaceTexture(device, queue, s)
	if err != nil {
		t.Fatalf("NewSurfaceTexture() error = %v", err)
	}
	defer tex.Destroy()

	if tex.Format() != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("Format() = %v, want BGRA8Unorm", tex.Format())
	}
	if w, h := tex.Size(); w != 4 || h != 3 {
		t.Errorf("Size() = %dx%d, want 4x3", w, h)
	}

	err = s.Update(func(g *surface.Guard) error {
		if err := g.SetPixel(1, 2, 0xFF112233); err != nil {
			return err
		}
		return tex.Upload(g)
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	// Row 2, pixel 1, stored little-endian as B, G, R, A.
	off := 2*16 + 1*4
	if got := tex.staging[off : off+4]; got[0] != 0x33 || got[1] != 0x22 || got[2] != 0x11 || got[3] != 0xFF {
		t.Errorf("staged pixel = % x, want 33 22 11 ff", got)
	}
}

func TestSurfaceTextureRejects(t *testing.T) {
	device, queue := createNoopDevice(t)
	s, err := surface.New(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Dispose()
	other, err := surface.New(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer other.Dispose()
	abgr, err := surface.New(4, 4, surface.WithLayout(format.PixelLayout{Format: format.PixelFormatABGRPre}))
	if err != nil {
		t.Fatal(err)
	}
	defer abgr.Dispose()

	tex, err := NewSurfaceTexture(device, queue, s)
	if err != nil {
		t.Fatal(err)
	}

	if err := other.Update(tex.Upload); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Upload of other size = %v, want ErrSizeMismatch", err)
	}
	if err := abgr.Update(tex.Upload); !errors.Is(err, format.ErrUnsupportedFormat) {
		t.Errorf("Upload of other layout = %v, want ErrUnsupportedFormat", err)
	}

	g, err := s.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	g.Release()
	if err := tex.Upload(g); !errors.Is(err, surface.ErrNotLocked) {
		t.Errorf("Upload with released guard = %v, want ErrNotLocked", err)
	}

	tex.Destroy()
	tex.Destroy()
	if tex.Texture() != nil {
		t.Error("Texture() after Destroy should be nil")
	}
	if err := s.Update(tex.Upload); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Upload after Destroy = %v, want ErrDestroyed", err)
	}
}

func TestBlitShader(t *testing.T) {
	if !strings.Contains(BlitShaderSource(), BlitVertexEntry) || !strings.Contains(BlitShaderSource(), BlitFragmentEntry) {
		t.Fatal("blit shader source is missing its entry points")
	}
	device, _ := createNoopDevice(t)

	b, err := NewBlitShader(device)
	if err != nil {
		if strings.Contains(err.Error(), "not yet implemented") || strings.Contains(err.Error(), "not supported") {
			t.Skipf("Skipping: naga feature not yet implemented: %v", err)
		}
		if strings.Contains(err.Error(), "compile shader") {
			t.Skipf("Skipping: naga cannot lower the blit shader: %v", err)
		}
		t.Fatalf("NewBlitShader() error = %v", err)
	}
	if b.Module() == nil {
		t.Error("Module() is nil")
	}
	vbl := b.VertexBufferLayout()
	if vbl.ArrayStride != 16 || len(vbl.Attributes) != 2 {
		t.Errorf("VertexBufferLayout() = %+v, want stride 16 with 2 attributes", vbl)
	}
	b.Destroy()
	b.Destroy()
	if b.Module() != nil {
		t.Error("Module() after Destroy should be nil")
	}
}

func TestCompileWGSLError(t *testing.T) {
	if _, err := CompileWGSL("fn broken( {"); err == nil {
		t.Error("CompileWGSL of invalid source should fail")
	}
	if _, err := CompileWGSL("fn broken( {"); err == nil {
		t.Error("failed compilation must not be cached")
	}
}

func TestCompileWGSLCached(t *testing.T) {
	first, err := CompileWGSL(BlitShaderSource())
	if err != nil {
		t.Skipf("blit shader does not compile with this naga: %v", err)
	}
	before := spirvCache.Stats().Hits
	second, err := CompileWGSL(BlitShaderSource())
	if err != nil {
		t.Fatal(err)
	}
	if len(first) == 0 || &first[0] != &second[0] {
		t.Error("second compile should return the cached words")
	}
	if spirvCache.Stats().Hits != before+1 {
		t.Error("second compile did not hit the cache")
	}
}

func TestWriteQuad(t *testing.T) {
	layout, err := format.NegotiateVertex(format.QuadLayout)
	if err != nil {
		t.Fatal(err)
	}
	if got := QuadBytes(layout); got != 96 {
		t.Fatalf("QuadBytes() = %d, want 96", got)
	}
	if err := WriteQuad(make([]byte, 95), layout); err == nil {
		t.Error("WriteQuad into a short buffer should fail")
	}
	if err := WriteQuad(make([]byte, 96), format.VertexLayout{Stride: 16}); !errors.Is(err, format.ErrUnsupportedFormat) {
		t.Errorf("WriteQuad without attributes = %v, want ErrUnsupportedFormat", err)
	}

	dst := make([]byte, 96)
	if err := WriteQuad(dst, layout); err != nil {
		t.Fatal(err)
	}
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(dst[off:])) }
	// Vertex 2 is the top right corner: position (1, 1), uv (1, 0).
	base := 2 * 16
	if x, y, u, v := f(base), f(base+4), f(base+8), f(base+12); x != 1 || y != 1 || u != 1 || v != 0 {
		t.Errorf("vertex 2 = (%v, %v, %v, %v), want (1, 1, 1, 0)", x, y, u, v)
	}
}
