// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package format validates requested pixel and vertex layouts against the
// fixed set the surface and ring-buffer core supports, and derives strides
// and GPU format descriptors from them.
//
// Surfaces store exactly one 32-bit packed pixel format per instance. No
// conversion between formats happens on the fly; Pack and Unpack exist only
// to move single pixels between the packed format and image/color.
package format

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framecore/internal/checked"
)

// Errors returned by layout negotiation.
var (
	// ErrUnsupportedFormat is returned for any layout outside the supported set.
	ErrUnsupportedFormat = errors.New("format: unsupported format")

	// ErrArithmeticOverflow is returned when a stride or size computation
	// overflows int.
	ErrArithmeticOverflow = errors.New("format: arithmetic overflow")
)

// BytesPerPixel is the size of every supported pixel format.
const BytesPerPixel = 4

// PixelFormat is a 32-bit packed pixel format. Pixels are stored as uint32
// values; the format decides the channel order inside the word.
type PixelFormat uint8

const (
	// PixelFormatARGB packs straight-alpha pixels as 0xAARRGGBB.
	PixelFormatARGB PixelFormat = iota

	// PixelFormatARGBPre packs premultiplied pixels as 0xAARRGGBB.
	// This is the software rasterizer's native output format.
	PixelFormatARGBPre

	// PixelFormatABGR packs straight-alpha pixels as 0xAABBGGRR, which is
	// RGBA byte order in little-endian memory.
	PixelFormatABGR

	// PixelFormatABGRPre packs premultiplied pixels as 0xAABBGGRR.
	PixelFormatABGRPre

	pixelFormatCount
)

// ChannelOrder names the order of channels inside a packed 32-bit word,
// from the most significant byte down.
type ChannelOrder uint8

const (
	// OrderARGB is alpha, red, green, blue.
	OrderARGB ChannelOrder = iota + 1
	// OrderABGR is alpha, blue, green, red.
	OrderABGR
	// OrderRGBA is red, green, blue, alpha. Not supported for surfaces.
	OrderRGBA
	// OrderBGRA is blue, green, red, alpha. Not supported for surfaces.
	OrderBGRA
)

// PixelInfo describes a supported pixel format.
type PixelInfo struct {
	Name          string
	Order         ChannelOrder
	Premultiplied bool
	Texture       gputypes.TextureFormat
}

var pixelInfoTable = [pixelFormatCount]PixelInfo{
	PixelFormatARGB: {
		Name:    "ARGB",
		Order:   OrderARGB,
		Texture: gputypes.TextureFormatBGRA8Unorm,
	},
	PixelFormatARGBPre: {
		Name:          "ARGBPre",
		Order:         OrderARGB,
		Premultiplied: true,
		Texture:       gputypes.TextureFormatBGRA8Unorm,
	},
	PixelFormatABGR: {
		Name:    "ABGR",
		Order:   OrderABGR,
		Texture: gputypes.TextureFormatRGBA8Unorm,
	},
	PixelFormatABGRPre: {
		Name:          "ABGRPre",
		Order:         OrderABGR,
		Premultiplied: true,
		Texture:       gputypes.TextureFormatRGBA8Unorm,
	},
}

// IsValid reports whether f is one of the supported formats.
func (f PixelFormat) IsValid() bool { return f < pixelFormatCount }

// Info returns the table entry for f, or the zero PixelInfo if f is invalid.
func (f PixelFormat) Info() PixelInfo {
	if !f.IsValid() {
		return PixelInfo{}
	}
	return pixelInfoTable[f]
}

// IsPremultiplied reports whether color channels are premultiplied by alpha.
func (f PixelFormat) IsPremultiplied() bool { return f.Info().Premultiplied }

// TextureFormat returns the GPU texture format whose memory layout matches
// f on little-endian hosts.
func (f PixelFormat) TextureFormat() gputypes.TextureFormat { return f.Info().Texture }

func (f PixelFormat) String() string {
	if !f.IsValid() {
		return fmt.Sprintf("PixelFormat(%d)", uint8(f))
	}
	return pixelInfoTable[f].Name
}

// Pack converts c into a packed pixel of format f.
func (f PixelFormat) Pack(c color.Color) uint32 {
	if f.IsPremultiplied() {
		cr, cg, cb, ca := c.RGBA()
		return f.PackRGBA(uint8(cr>>8), uint8(cg>>8), uint8(cb>>8), uint8(ca>>8)) //nolint:gosec // G115: 16-bit to 8-bit
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return f.PackRGBA(n.R, n.G, n.B, n.A)
}

// PackRGBA packs channels that already follow f's alpha convention.
func (f PixelFormat) PackRGBA(r, g, b, a uint8) uint32 {
	if f.Info().Order == OrderABGR {
		return uint32(a)<<24 | uint32(b)<<16 | uint32(g)<<8 | uint32(r)
	}
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// UnpackRGBA splits p into channels in f's alpha convention.
func (f PixelFormat) UnpackRGBA(p uint32) (r, g, b, a uint8) {
	a = uint8(p >> 24)
	g = uint8(p >> 8)
	if f.Info().Order == OrderABGR {
		return uint8(p), g, uint8(p >> 16), a
	}
	return uint8(p >> 16), g, uint8(p), a
}

// Unpack converts a packed pixel of format f into a color. Premultiplied
// formats yield color.RGBA, straight formats yield color.NRGBA.
func (f PixelFormat) Unpack(p uint32) color.Color {
	r, g, b, a := f.UnpackRGBA(p)
	if f.IsPremultiplied() {
		return color.RGBA{R: r, G: g, B: b, A: a}
	}
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// PutPixel stores p into dst in the in-memory byte order that matches
// TextureFormat. dst must hold at least BytesPerPixel bytes.
func PutPixel(dst []byte, p uint32) {
	binary.LittleEndian.PutUint32(dst, p)
}

// PixelRequest describes the pixel layout a caller would like.
type PixelRequest struct {
	// Channels is the number of channels, including alpha.
	Channels int

	// BitsPerChannel is the width of each channel in bits.
	BitsPerChannel int

	// Order is the channel order inside the packed word.
	Order ChannelOrder

	// Premultiplied selects premultiplied alpha.
	Premultiplied bool

	// RowAlign pads each exported row to a multiple of this many bytes.
	// Zero means rows are tightly packed (stride == width*4).
	RowAlign int
}

// PixelLayout is a negotiated pixel layout.
type PixelLayout struct {
	Format   PixelFormat
	RowAlign int
}

// DefaultPixelLayout is the layout used when none is requested: tightly
// packed premultiplied ARGB.
var DefaultPixelLayout = PixelLayout{Format: PixelFormatARGBPre}

// NegotiatePixel maps req onto a supported layout. Any request other than
// four 8-bit channels in ARGB or ABGR order fails with ErrUnsupportedFormat.
func NegotiatePixel(req PixelRequest) (PixelLayout, error) {
	if req.Channels != 4 || req.BitsPerChannel != 8 {
		return PixelLayout{}, fmt.Errorf("%w: %d channels of %d bits", ErrUnsupportedFormat, req.Channels, req.BitsPerChannel)
	}
	if req.RowAlign < 0 || (req.RowAlign > 0 && !checked.IsPowerOfTwo(req.RowAlign)) {
		return PixelLayout{}, fmt.Errorf("%w: row alignment %d", ErrUnsupportedFormat, req.RowAlign)
	}

	var f PixelFormat
	switch req.Order {
	case OrderARGB:
		f = PixelFormatARGB
	case OrderABGR:
		f = PixelFormatABGR
	default:
		return PixelLayout{}, fmt.Errorf("%w: channel order %d", ErrUnsupportedFormat, req.Order)
	}
	if req.Premultiplied {
		f++
	}
	return PixelLayout{Format: f, RowAlign: req.RowAlign}, nil
}

// PixelFormatForTexture returns the straight or premultiplied pixel format
// whose memory layout matches tf.
func PixelFormatForTexture(tf gputypes.TextureFormat, premultiplied bool) (PixelFormat, error) {
	for f := PixelFormat(0); f < pixelFormatCount; f++ {
		info := pixelInfoTable[f]
		if info.Texture == tf && info.Premultiplied == premultiplied {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: texture format %v", ErrUnsupportedFormat, tf)
}

// BytesPerPixel returns the pixel size of the layout.
func (l PixelLayout) BytesPerPixel() int { return BytesPerPixel }

// Stride returns the number of bytes per exported row of the given width,
// including row padding.
func (l PixelLayout) Stride(width int) (int, error) {
	if width < 0 {
		return 0, fmt.Errorf("%w: negative width %d", ErrUnsupportedFormat, width)
	}
	row, ok := checked.Mul(width, BytesPerPixel)
	if !ok {
		return 0, fmt.Errorf("%w: row of %d pixels", ErrArithmeticOverflow, width)
	}
	if l.RowAlign <= 1 {
		return row, nil
	}
	stride, ok := checked.AlignUp(row, l.RowAlign)
	if !ok {
		return 0, fmt.Errorf("%w: row of %d bytes aligned to %d", ErrArithmeticOverflow, row, l.RowAlign)
	}
	return stride, nil
}

// ImageBytes returns the number of bytes needed to export width x height
// pixels with this layout.
func (l PixelLayout) ImageBytes(width, height int) (int, error) {
	stride, err := l.Stride(width)
	if err != nil {
		return 0, err
	}
	n, ok := checked.Mul(stride, height)
	if !ok || height < 0 {
		return 0, fmt.Errorf("%w: %d rows of %d bytes", ErrArithmeticOverflow, height, stride)
	}
	return n, nil
}

// TextureFormat returns the GPU texture format of the layout.
func (l PixelLayout) TextureFormat() gputypes.TextureFormat { return l.Format.TextureFormat() }
