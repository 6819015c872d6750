// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Bounds returns the surface rectangle with its origin at (0, 0).
func (s *Surface) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.width, s.height)
}

func (s *Surface) checkRect(r image.Rectangle) error {
	if r.Dx() < 0 || r.Dy() < 0 {
		return fmt.Errorf("%w: inverted rect %v", ErrOutOfBounds, r)
	}
	if r.Empty() {
		return nil
	}
	if !r.In(s.Bounds()) {
		return fmt.Errorf("%w: rect %v outside %v", ErrOutOfBounds, r, s.Bounds())
	}
	return nil
}

// newScratch returns an image whose pixel model matches the surface's
// alpha convention: *image.RGBA for premultiplied formats, *image.NRGBA
// otherwise.
func (s *Surface) newScratch(w, h int) draw.Image {
	r := image.Rect(0, 0, w, h)
	if s.layout.Format.IsPremultiplied() {
		return image.NewRGBA(r)
	}
	return image.NewNRGBA(r)
}

// scratchPix returns the byte slice and stride of a scratch image.
func scratchPix(img draw.Image) ([]uint8, int) {
	switch m := img.(type) {
	case *image.RGBA:
		return m.Pix, m.Stride
	case *image.NRGBA:
		return m.Pix, m.Stride
	}
	return nil, 0
}

// Image returns a copy of the pixels in r as an image whose origin is r.Min.
// The result is *image.RGBA for premultiplied formats and *image.NRGBA
// otherwise.
func (g *Guard) Image(r image.Rectangle) (image.Image, error) {
	s, err := g.surface()
	if err != nil {
		return nil, err
	}
	if err := s.checkRect(r); err != nil {
		return nil, err
	}
	w, h := r.Dx(), r.Dy()
	rows := make([]uint32, w*h)
	if err := g.GetPixels(rows, 0, w, r.Min.X, r.Min.Y, w, h); err != nil {
		return nil, err
	}

	img := s.newScratch(w, h)
	pix, stride := scratchPix(img)
	f := s.layout.Format
	for y := range h {
		row := pix[y*stride : y*stride+w*4]
		for x := range w {
			cr, cg, cb, ca := f.UnpackRGBA(rows[y*w+x])
			row[x*4+0], row[x*4+1], row[x*4+2], row[x*4+3] = cr, cg, cb, ca
		}
	}
	switch m := img.(type) {
	case *image.RGBA:
		m.Rect = r
	case *image.NRGBA:
		m.Rect = r
	}
	return img, nil
}

// Snapshot returns a copy of the whole surface.
func (g *Guard) Snapshot() (image.Image, error) {
	s, err := g.surface()
	if err != nil {
		return nil, err
	}
	return g.Image(s.Bounds())
}

// DrawImage copies src into the surface with its bounds' origin placed at
// dp. The destination rectangle must lie inside the surface.
func (g *Guard) DrawImage(src image.Image, dp image.Point) error {
	s, err := g.surface()
	if err != nil {
		return err
	}
	sr := src.Bounds()
	dr := sr.Sub(sr.Min).Add(dp)
	if err := s.checkRect(dr); err != nil {
		return err
	}
	if dr.Empty() {
		return nil
	}
	scratch := s.newScratch(dr.Dx(), dr.Dy())
	draw.Copy(scratch, image.Point{}, src, sr, draw.Src, nil)
	return g.store(scratch, dr)
}

// ScaleImage scales src into dr with bilinear filtering.
func (g *Guard) ScaleImage(src image.Image, dr image.Rectangle) error {
	s, err := g.surface()
	if err != nil {
		return err
	}
	if err := s.checkRect(dr); err != nil {
		return err
	}
	if dr.Empty() || src.Bounds().Empty() {
		return nil
	}
	scratch := s.newScratch(dr.Dx(), dr.Dy())
	draw.ApproxBiLinear.Scale(scratch, scratch.Bounds(), src, src.Bounds(), draw.Src, nil)
	return g.store(scratch, dr)
}

// Fill sets every pixel of r to c.
func (g *Guard) Fill(r image.Rectangle, c color.Color) error {
	s, err := g.surface()
	if err != nil {
		return err
	}
	if err := s.checkRect(r); err != nil {
		return err
	}
	if r.Empty() {
		return nil
	}
	p := s.layout.Format.Pack(c)
	row := make([]uint32, r.Dx())
	for i := range row {
		row[i] = p
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		if err := g.SetPixels(row, 0, len(row), r.Min.X, y, len(row), 1); err != nil {
			return err
		}
	}
	return nil
}

// store packs a scratch image into the surface rectangle dr.
func (g *Guard) store(scratch draw.Image, dr image.Rectangle) error {
	s := g.s
	w, h := dr.Dx(), dr.Dy()
	pix, stride := scratchPix(scratch)
	f := s.layout.Format
	rows := make([]uint32, w*h)
	for y := range h {
		row := pix[y*stride : y*stride+w*4]
		for x := range w {
			rows[y*w+x] = f.PackRGBA(row[x*4+0], row[x*4+1], row[x*4+2], row[x*4+3])
		}
	}
	return g.SetPixels(rows, 0, w, dr.Min.X, dr.Min.Y, w, h)
}
