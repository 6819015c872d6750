// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package format

import (
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestNegotiateVertexQuad(t *testing.T) {
	l, err := NegotiateVertex(QuadLayout)
	if err != nil {
		t.Fatalf("NegotiateVertex(QuadLayout) error = %v", err)
	}
	if l.Stride != 16 {
		t.Errorf("Stride = %d, want 16", l.Stride)
	}
	if len(l.Attributes) != 2 || l.Attributes[1].Offset != 8 || l.Attributes[1].ShaderLocation != 1 {
		t.Errorf("Attributes = %+v, want uv at offset 8 location 1", l.Attributes)
	}

	bl := l.BufferLayout()
	if bl.ArrayStride != 16 {
		t.Errorf("ArrayStride = %d, want 16", bl.ArrayStride)
	}
	if bl.StepMode != gputypes.VertexStepModeVertex {
		t.Errorf("StepMode = %v, want VertexStepModeVertex", bl.StepMode)
	}
	if bl.Attributes[0].Format != gputypes.VertexFormatFloat32x2 {
		t.Errorf("attribute 0 format = %v, want Float32x2", bl.Attributes[0].Format)
	}
}

func TestNegotiateVertexLayouts(t *testing.T) {
	tests := []struct {
		name       string
		req        VertexRequest
		wantStride int
		wantErr    bool
	}{
		{
			name: "position coverage color",
			req: VertexRequest{Attributes: []AttributeRequest{
				{ComponentFloat32, 2}, {ComponentFloat32, 1}, {ComponentFloat32, 4},
			}},
			wantStride: 28,
		},
		{
			name: "packed color",
			req: VertexRequest{Attributes: []AttributeRequest{
				{ComponentFloat32, 3}, {ComponentUnorm8, 4},
			}},
			wantStride: 16,
		},
		{
			name: "aligned to 32",
			req: VertexRequest{
				Attributes: []AttributeRequest{{ComponentFloat32, 3}},
				Align:      32,
			},
			wantStride: 32,
		},
		{name: "empty", req: VertexRequest{}, wantErr: true},
		{name: "five floats", req: VertexRequest{Attributes: []AttributeRequest{{ComponentFloat32, 5}}}, wantErr: true},
		{name: "two unorm8", req: VertexRequest{Attributes: []AttributeRequest{{ComponentUnorm8, 2}}}, wantErr: true},
		{name: "unknown type", req: VertexRequest{Attributes: []AttributeRequest{{ComponentType(9), 1}}}, wantErr: true},
		{name: "bad align", req: VertexRequest{Attributes: []AttributeRequest{{ComponentFloat32, 1}}, Align: 2}, wantErr: true},
		{name: "align over max", req: VertexRequest{Attributes: []AttributeRequest{{ComponentFloat32, 1}}, Align: 4096}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NegotiateVertex(tt.req)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("error = %v, want ErrUnsupportedFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if l.Stride != tt.wantStride {
				t.Errorf("Stride = %d, want %d", l.Stride, tt.wantStride)
			}
		})
	}
}

func TestNegotiateVertexStrideLimit(t *testing.T) {
	attrs := make([]AttributeRequest, 129)
	for i := range attrs {
		attrs[i] = AttributeRequest{ComponentFloat32, 4}
	}
	if _, err := NegotiateVertex(VertexRequest{Attributes: attrs}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestVertexBufferSize(t *testing.T) {
	l, err := NegotiateVertex(QuadLayout)
	if err != nil {
		t.Fatal(err)
	}
	if n, err := l.BufferSize(6); err != nil || n != 96 {
		t.Errorf("BufferSize(6) = (%d, %v), want 96", n, err)
	}
	if _, err := l.BufferSize(math.MaxInt / 8); !errors.Is(err, ErrArithmeticOverflow) {
		t.Errorf("BufferSize overflow error = %v, want ErrArithmeticOverflow", err)
	}
	if _, err := l.BufferSize(-1); err == nil {
		t.Error("BufferSize(-1) should fail")
	}
}
