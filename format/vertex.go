// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package format

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framecore/internal/checked"
)

// MaxVertexStride is the largest vertex stride a layout may negotiate.
const MaxVertexStride = 2048

// vertexStrideAlign is the minimum alignment of vertex strides and offsets.
const vertexStrideAlign = 4

// ComponentType is the scalar type of a vertex attribute component.
type ComponentType uint8

const (
	// ComponentFloat32 is a 32-bit IEEE float.
	ComponentFloat32 ComponentType = iota + 1

	// ComponentUnorm8 is an 8-bit unsigned normalized integer.
	// Only four-component attributes (packed colors) are supported.
	ComponentUnorm8
)

func (c ComponentType) String() string {
	switch c {
	case ComponentFloat32:
		return "float32"
	case ComponentUnorm8:
		return "unorm8"
	default:
		return fmt.Sprintf("ComponentType(%d)", uint8(c))
	}
}

// AttributeRequest describes one vertex attribute.
type AttributeRequest struct {
	Type       ComponentType
	Components int
}

// VertexRequest describes an interleaved vertex layout. Attributes are
// packed in order and bound to consecutive shader locations.
type VertexRequest struct {
	Attributes []AttributeRequest

	// Align rounds the stride up to a multiple of this many bytes. It must be
	// zero or a power of two of at least 4.
	Align int
}

// VertexAttribute is a negotiated attribute.
type VertexAttribute struct {
	Format         gputypes.VertexFormat
	Offset         int
	Size           int
	ShaderLocation int
}

// VertexLayout is a negotiated interleaved vertex layout.
type VertexLayout struct {
	Attributes []VertexAttribute
	Stride     int
}

type vertexKey struct {
	typ        ComponentType
	components int
}

var vertexFormats = map[vertexKey]struct {
	format gputypes.VertexFormat
	size   int
}{
	{ComponentFloat32, 1}: {gputypes.VertexFormatFloat32, 4},
	{ComponentFloat32, 2}: {gputypes.VertexFormatFloat32x2, 8},
	{ComponentFloat32, 3}: {gputypes.VertexFormatFloat32x3, 12},
	{ComponentFloat32, 4}: {gputypes.VertexFormatFloat32x4, 16},
	{ComponentUnorm8, 4}:  {gputypes.VertexFormatUnorm8x4, 4},
}

// NegotiateVertex validates req and computes attribute offsets and stride.
func NegotiateVertex(req VertexRequest) (VertexLayout, error) {
	if len(req.Attributes) == 0 {
		return VertexLayout{}, fmt.Errorf("%w: no vertex attributes", ErrUnsupportedFormat)
	}
	align := req.Align
	if align == 0 {
		align = vertexStrideAlign
	}
	if align < vertexStrideAlign || !checked.IsPowerOfTwo(align) {
		return VertexLayout{}, fmt.Errorf("%w: vertex alignment %d", ErrUnsupportedFormat, req.Align)
	}

	layout := VertexLayout{Attributes: make([]VertexAttribute, 0, len(req.Attributes))}
	offset := 0
	for i, a := range req.Attributes {
		vf, ok := vertexFormats[vertexKey{a.Type, a.Components}]
		if !ok {
			return VertexLayout{}, fmt.Errorf("%w: attribute %d is %d x %v", ErrUnsupportedFormat, i, a.Components, a.Type)
		}
		layout.Attributes = append(layout.Attributes, VertexAttribute{
			Format:         vf.format,
			Offset:         offset,
			Size:           vf.size,
			ShaderLocation: i,
		})
		offset += vf.size
		if offset > MaxVertexStride {
			return VertexLayout{}, fmt.Errorf("%w: vertex stride exceeds %d bytes", ErrUnsupportedFormat, MaxVertexStride)
		}
	}

	stride, _ := checked.AlignUp(offset, align)
	if stride > MaxVertexStride {
		return VertexLayout{}, fmt.Errorf("%w: vertex stride %d exceeds %d bytes", ErrUnsupportedFormat, stride, MaxVertexStride)
	}
	layout.Stride = stride
	return layout, nil
}

// BufferSize returns the number of bytes needed for count vertices.
func (l VertexLayout) BufferSize(count int) (int, error) {
	if count < 0 {
		return 0, fmt.Errorf("%w: negative vertex count %d", ErrUnsupportedFormat, count)
	}
	n, ok := checked.Mul(l.Stride, count)
	if !ok {
		return 0, fmt.Errorf("%w: %d vertices of %d bytes", ErrArithmeticOverflow, count, l.Stride)
	}
	return n, nil
}

// BufferLayout returns the GPU vertex buffer layout for l.
func (l VertexLayout) BufferLayout() gputypes.VertexBufferLayout {
	attrs := make([]gputypes.VertexAttribute, len(l.Attributes))
	for i, a := range l.Attributes {
		attrs[i] = gputypes.VertexAttribute{
			Format:         a.Format,
			Offset:         uint64(a.Offset),         //nolint:gosec // G115: bounded by MaxVertexStride
			ShaderLocation: uint32(a.ShaderLocation), //nolint:gosec // G115: bounded by attribute count
		}
	}
	return gputypes.VertexBufferLayout{
		ArrayStride: uint64(l.Stride), //nolint:gosec // G115: bounded by MaxVertexStride
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

// QuadLayout is the position + texture coordinate layout used to present
// surfaces on the GPU.
var QuadLayout = VertexRequest{
	Attributes: []AttributeRequest{
		{Type: ComponentFloat32, Components: 2}, // position
		{Type: ComponentFloat32, Components: 2}, // uv
	},
}
