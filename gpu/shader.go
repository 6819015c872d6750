// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framecore/format"
	"github.com/gogpu/framecore/internal/cache"
)

//go:embed shaders/blit.wgsl
var blitShaderSource string

// Entry points of the blit shader.
const (
	BlitVertexEntry   = "vs_main"
	BlitFragmentEntry = "fs_main"
)

// QuadVertexCount is the number of vertices WriteQuad emits.
const QuadVertexCount = 6

// BlitShaderSource returns the WGSL source of the blit shader.
func BlitShaderSource() string { return blitShaderSource }

// spirvCache memoizes compiled SPIR-V keyed by WGSL source.
var spirvCache = cache.New[string, []uint32](32)

// CompileWGSL compiles WGSL source to SPIR-V words. Results are cached by
// source text; the returned slice is shared and must not be modified.
func CompileWGSL(source string) ([]uint32, error) {
	return spirvCache.GetOrCreate(source, func() ([]uint32, error) {
		return compileWGSL(source)
	})
}

func compileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("gpu: SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}
	// SPIR-V is little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return code, nil
}

// QuadBytes returns the size of the vertex data WriteQuad emits for
// layout.
func QuadBytes(layout format.VertexLayout) int { return QuadVertexCount * layout.Stride }

// WriteQuad encodes two triangles covering clip space into dst using the
// first two attributes of layout as position and texture coordinate. The
// texture origin maps to the top left.
func WriteQuad(dst []byte, layout format.VertexLayout) error {
	if len(layout.Attributes) < 2 {
		return fmt.Errorf("%w: quad needs position and uv attributes", format.ErrUnsupportedFormat)
	}
	if n := QuadBytes(layout); len(dst) < n {
		return fmt.Errorf("gpu: quad needs %d bytes, have %d", n, len(dst))
	}
	verts := [QuadVertexCount][4]float32{
		{-1, -1, 0, 1},
		{1, -1, 1, 1},
		{1, 1, 1, 0},
		{-1, -1, 0, 1},
		{1, 1, 1, 0},
		{-1, 1, 0, 0},
	}
	pos, uv := layout.Attributes[0].Offset, layout.Attributes[1].Offset
	for i, v := range verts {
		base := i * layout.Stride
		binary.LittleEndian.PutUint32(dst[base+pos:], math.Float32bits(v[0]))
		binary.LittleEndian.PutUint32(dst[base+pos+4:], math.Float32bits(v[1]))
		binary.LittleEndian.PutUint32(dst[base+uv:], math.Float32bits(v[2]))
		binary.LittleEndian.PutUint32(dst[base+uv+4:], math.Float32bits(v[3]))
	}
	return nil
}

// BlitShader is the compiled shader module for presenting a surface
// texture, together with the vertex layout it consumes.
type BlitShader struct {
	device hal.Device
	module hal.ShaderModule
	layout format.VertexLayout
}

// NewBlitShader compiles the blit shader for the quad vertex layout.
func NewBlitShader(device hal.Device) (*BlitShader, error) {
	layout, err := format.NegotiateVertex(format.QuadLayout)
	if err != nil {
		return nil, err
	}
	code, err := CompileWGSL(blitShaderSource)
	if err != nil {
		return nil, err
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: "framecore_blit",
		Source: hal.ShaderSource{
			SPIRV: code,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create blit shader module: %w", err)
	}
	return &BlitShader{device: device, module: module, layout: layout}, nil
}

// Module returns the shader module, or nil after Destroy.
func (b *BlitShader) Module() hal.ShaderModule { return b.module }

// VertexLayout returns the negotiated quad layout.
func (b *BlitShader) VertexLayout() format.VertexLayout { return b.layout }

// VertexBufferLayout returns the layout for a render pipeline descriptor.
func (b *BlitShader) VertexBufferLayout() gputypes.VertexBufferLayout {
	return b.layout.BufferLayout()
}

// Destroy releases the shader module. It is idempotent.
func (b *BlitShader) Destroy() {
	if b.module != nil {
		b.device.DestroyShaderModule(b.module)
		b.module = nil
	}
}
