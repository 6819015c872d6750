// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package checked

import (
	"math"
	"testing"
)

func TestAdd(t *testing.T) {
	tests := []struct {
		name   string
		a, b   int
		want   int
		wantOK bool
	}{
		{"small", 2, 3, 5, true},
		{"negative", -7, 3, -4, true},
		{"max plus zero", math.MaxInt, 0, math.MaxInt, true},
		{"max plus one", math.MaxInt, 1, 0, false},
		{"min minus one", math.MinInt, -1, 0, false},
		{"min plus max", math.MinInt, math.MaxInt, -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Add(tt.a, tt.b)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Add(%d, %d) = (%d, %v), want (%d, %v)", tt.a, tt.b, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestMul(t *testing.T) {
	tests := []struct {
		name   string
		a, b   int
		want   int
		wantOK bool
	}{
		{"zero", 0, math.MaxInt, 0, true},
		{"small", 6, 7, 42, true},
		{"negative", -6, 7, -42, true},
		{"both negative", -6, -7, 42, true},
		{"max times one", math.MaxInt, 1, math.MaxInt, true},
		{"max times two", math.MaxInt, 2, 0, false},
		{"half max times three", math.MaxInt / 2, 3, 0, false},
		{"min times one", math.MinInt, 1, math.MinInt, true},
		{"min times minus one", math.MinInt, -1, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Mul(tt.a, tt.b)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Mul(%d, %d) = (%d, %v), want (%d, %v)", tt.a, tt.b, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestMulAdd(t *testing.T) {
	if got, ok := MulAdd(4, 4, 3); !ok || got != 19 {
		t.Errorf("MulAdd(4, 4, 3) = (%d, %v), want (19, true)", got, ok)
	}
	if _, ok := MulAdd(math.MaxInt/2+1, 2, 0); ok {
		t.Error("MulAdd should report overflow in the product")
	}
	if _, ok := MulAdd(math.MaxInt/2, 2, 2); ok {
		t.Error("MulAdd should report overflow in the sum")
	}
}

func TestProduct(t *testing.T) {
	if got, ok := Product(4, 4, 4); !ok || got != 64 {
		t.Errorf("Product(4, 4, 4) = (%d, %v), want (64, true)", got, ok)
	}
	if _, ok := Product(math.MaxInt/3, 2, 4); ok {
		t.Error("Product should report overflow")
	}
	if got, ok := Product(); !ok || got != 1 {
		t.Errorf("Product() = (%d, %v), want (1, true)", got, ok)
	}
}

func TestAlignUp(t *testing.T) {
	tests := []struct {
		v, align, want int
	}{
		{0, 256, 0},
		{1, 256, 256},
		{256, 256, 256},
		{257, 256, 512},
		{7, 4, 8},
		{7, 1, 7},
	}
	for _, tt := range tests {
		if got, ok := AlignUp(tt.v, tt.align); !ok || got != tt.want {
			t.Errorf("AlignUp(%d, %d) = (%d, %v), want %d", tt.v, tt.align, got, ok, tt.want)
		}
	}
	if _, ok := AlignUp(math.MaxInt, 4); ok {
		t.Error("AlignUp(MaxInt, 4) should overflow")
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, v := range []int{1, 2, 4, 256, 1 << 20} {
		if !IsPowerOfTwo(v) {
			t.Errorf("IsPowerOfTwo(%d) = false", v)
		}
	}
	for _, v := range []int{0, -4, 3, 6, 255} {
		if IsPowerOfTwo(v) {
			t.Errorf("IsPowerOfTwo(%d) = true", v)
		}
	}
}
