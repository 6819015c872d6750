// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package format

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestNegotiatePixel(t *testing.T) {
	tests := []struct {
		name    string
		req     PixelRequest
		want    PixelFormat
		wantErr bool
	}{
		{"argb", PixelRequest{Channels: 4, BitsPerChannel: 8, Order: OrderARGB}, PixelFormatARGB, false},
		{"argb premul", PixelRequest{Channels: 4, BitsPerChannel: 8, Order: OrderARGB, Premultiplied: true}, PixelFormatARGBPre, false},
		{"abgr", PixelRequest{Channels: 4, BitsPerChannel: 8, Order: OrderABGR}, PixelFormatABGR, false},
		{"abgr premul", PixelRequest{Channels: 4, BitsPerChannel: 8, Order: OrderABGR, Premultiplied: true}, PixelFormatABGRPre, false},
		{"three channels", PixelRequest{Channels: 3, BitsPerChannel: 8, Order: OrderARGB}, 0, true},
		{"16-bit channels", PixelRequest{Channels: 4, BitsPerChannel: 16, Order: OrderARGB}, 0, true},
		{"rgba order", PixelRequest{Channels: 4, BitsPerChannel: 8, Order: OrderRGBA}, 0, true},
		{"missing order", PixelRequest{Channels: 4, BitsPerChannel: 8}, 0, true},
		{"odd row align", PixelRequest{Channels: 4, BitsPerChannel: 8, Order: OrderARGB, RowAlign: 3}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NegotiatePixel(tt.req)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("NegotiatePixel() error = %v, want ErrUnsupportedFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NegotiatePixel() error = %v", err)
			}
			if got.Format != tt.want {
				t.Errorf("Format = %v, want %v", got.Format, tt.want)
			}
		})
	}
}

func TestPixelLayoutStride(t *testing.T) {
	tight := PixelLayout{Format: PixelFormatARGB}
	if s, err := tight.Stride(10); err != nil || s != 40 {
		t.Errorf("tight Stride(10) = (%d, %v), want 40", s, err)
	}

	padded := PixelLayout{Format: PixelFormatARGB, RowAlign: 256}
	if s, err := padded.Stride(10); err != nil || s != 256 {
		t.Errorf("padded Stride(10) = (%d, %v), want 256", s, err)
	}
	if s, err := padded.Stride(64); err != nil || s != 256 {
		t.Errorf("padded Stride(64) = (%d, %v), want 256", s, err)
	}

	if _, err := tight.Stride(math.MaxInt / 2); !errors.Is(err, ErrArithmeticOverflow) {
		t.Errorf("Stride(MaxInt/2) error = %v, want ErrArithmeticOverflow", err)
	}
	if _, err := tight.ImageBytes(math.MaxInt/8, 16); !errors.Is(err, ErrArithmeticOverflow) {
		t.Errorf("ImageBytes overflow error = %v, want ErrArithmeticOverflow", err)
	}
	if n, err := padded.ImageBytes(10, 3); err != nil || n != 768 {
		t.Errorf("ImageBytes(10, 3) = (%d, %v), want 768", n, err)
	}
}

func TestTextureFormatMapping(t *testing.T) {
	tests := []struct {
		f    PixelFormat
		want gputypes.TextureFormat
	}{
		{PixelFormatARGB, gputypes.TextureFormatBGRA8Unorm},
		{PixelFormatARGBPre, gputypes.TextureFormatBGRA8Unorm},
		{PixelFormatABGR, gputypes.TextureFormatRGBA8Unorm},
		{PixelFormatABGRPre, gputypes.TextureFormatRGBA8Unorm},
	}
	for _, tt := range tests {
		if got := tt.f.TextureFormat(); got != tt.want {
			t.Errorf("%v.TextureFormat() = %v, want %v", tt.f, got, tt.want)
		}
		back, err := PixelFormatForTexture(tt.want, tt.f.IsPremultiplied())
		if err != nil || back != tt.f {
			t.Errorf("PixelFormatForTexture(%v) = (%v, %v), want %v", tt.want, back, err, tt.f)
		}
	}
	if _, err := PixelFormatForTexture(gputypes.TextureFormatR8Unorm, false); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("R8Unorm error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestPackUnpack(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}

	if got := PixelFormatARGB.Pack(red); got != 0xFFFF0000 {
		t.Errorf("ARGB.Pack(red) = %#08x, want 0xFFFF0000", got)
	}
	if got := PixelFormatABGR.Pack(red); got != 0xFF0000FF {
		t.Errorf("ABGR.Pack(red) = %#08x, want 0xFF0000FF", got)
	}

	half := color.NRGBA{R: 255, A: 128}
	p := PixelFormatARGBPre.Pack(half)
	if a, r := uint8(p>>24), uint8(p>>16); a != 128 || r != 128 {
		t.Errorf("ARGBPre.Pack(half red) = %#08x, want alpha 128 and red 128", p)
	}
	if c, ok := PixelFormatARGBPre.Unpack(p).(color.RGBA); !ok || c.R != 128 || c.A != 128 {
		t.Errorf("ARGBPre.Unpack() = %v, want premultiplied color.RGBA", PixelFormatARGBPre.Unpack(p))
	}

	for f := PixelFormat(0); f < pixelFormatCount; f++ {
		c := color.NRGBA{R: 10, G: 20, B: 30, A: 255}
		if got := f.Unpack(f.Pack(c)); color.NRGBAModel.Convert(got) != c {
			t.Errorf("%v round trip = %v, want %v", f, got, c)
		}
	}
}

func TestPutPixelByteOrder(t *testing.T) {
	buf := make([]byte, 4)
	PutPixel(buf, PixelFormatARGB.Pack(color.NRGBA{R: 1, G: 2, B: 3, A: 4}))
	// BGRA8Unorm memory order.
	if buf[0] != 3 || buf[1] != 2 || buf[2] != 1 || buf[3] != 4 {
		t.Errorf("ARGB bytes = %v, want [3 2 1 4]", buf)
	}
	PutPixel(buf, PixelFormatABGR.Pack(color.NRGBA{R: 1, G: 2, B: 3, A: 4}))
	// RGBA8Unorm memory order.
	if buf[0] != 1 || buf[1] != 2 || buf[2] != 3 || buf[3] != 4 {
		t.Errorf("ABGR bytes = %v, want [1 2 3 4]", buf)
	}
}

func TestPixelFormatString(t *testing.T) {
	if s := PixelFormatARGBPre.String(); s != "ARGBPre" {
		t.Errorf("String() = %q, want ARGBPre", s)
	}
	if s := PixelFormat(42).String(); s != "PixelFormat(42)" {
		t.Errorf("String() = %q, want PixelFormat(42)", s)
	}
	if PixelFormat(42).IsValid() {
		t.Error("PixelFormat(42) should be invalid")
	}
}
