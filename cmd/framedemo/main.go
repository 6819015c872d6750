// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command framedemo runs a producer and a consumer through a framecore
// context on the noop GPU backend and saves the final surface as a PNG.
package main

import (
	"context"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/format"
	"github.com/gogpu/framecore/frame"
	"github.com/gogpu/framecore/gpu"
	"github.com/gogpu/framecore/ring"
	"github.com/gogpu/framecore/surface"
)

func main() {
	var (
		width   = flag.Int("width", 320, "surface width")
		height  = flag.Int("height", 240, "surface height")
		frames  = flag.Int("frames", 60, "number of frames to render")
		flight  = flag.Int("inflight", framecore.DefaultFramesInFlight, "frames in flight")
		backing = flag.String("backing", ring.BackingHeap, "ring backing store")
		timeout = flag.Duration("timeout", 100*time.Millisecond, "wait for a free frame before dropping it")
		output  = flag.String("output", "framedemo.png", "output file")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		framecore.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	cfg := config{
		width: *width, height: *height, frames: *frames,
		inflight: *flight, backing: *backing, timeout: *timeout,
	}
	img, err := run(context.Background(), cfg)
	if err != nil {
		log.Fatalf("framedemo: %v", err)
	}
	if err := savePNG(*output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Demo saved to %s (%dx%d)\n", *output, *width, *height)
}

type config struct {
	width, height int
	frames        int
	inflight      int
	backing       string
	timeout       time.Duration
}

func run(ctx context.Context, cfg config) (image.Image, error) {
	c, err := framecore.NewContext(
		framecore.WithFramesInFlight(cfg.inflight),
		framecore.WithBacking(cfg.backing),
		framecore.WithArgsCapacity(1<<20),
		framecore.WithDataCapacity(1<<20),
	)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	// One surface per frame slot: the producer only draws into the surface
	// of the slot it holds for writing, so it never overwrites a frame the
	// consumer is still uploading.
	surfaces := make([]*surface.Surface, c.Synchronizer().Len())
	for i := range surfaces {
		if surfaces[i], err = c.NewSurface(cfg.width, cfg.height); err != nil {
			return nil, err
		}
	}

	device, queue, cleanup, err := openNoopDevice()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	stager, err := c.NewStager(device, queue)
	if err != nil {
		return nil, err
	}
	defer stager.Destroy()

	tex, err := gpu.NewSurfaceTexture(device, queue, surfaces[0])
	if err != nil {
		return nil, err
	}
	defer tex.Destroy()

	quad, err := format.NegotiateVertex(format.QuadLayout)
	if err != nil {
		return nil, err
	}
	if blit, err := gpu.NewBlitShader(device); err != nil {
		framecore.Logger().Warn("framedemo: blit shader unavailable", "err", err)
	} else {
		defer blit.Destroy()
	}

	last := -1
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return produce(ctx, c, surfaces, quad, cfg) })
	g.Go(func() error {
		var err error
		last, err = consume(ctx, c, surfaces, stager, tex, cfg)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if last < 0 {
		return nil, errors.New("no frame was consumed")
	}

	st := c.Stats()
	log.Printf("frames: %d committed, %d consumed, %d dropped; args high water %d B, data high water %d B, %d B uploaded",
		st.Frames.Committed, st.Frames.Consumed, st.Frames.Dropped,
		st.Args.HighWater, st.Data.HighWater, stager.Stats().Bytes)

	var img image.Image
	err = surfaces[last].Update(func(g *surface.Guard) error {
		var err error
		img, err = g.Snapshot()
		return err
	})
	return img, err
}

var barColor = color.RGBA{R: 255, G: 200, B: 40, A: 255}

// produce draws a bar sweeping across the slot surface and stages the frame
// number, per-frame uniforms and quad vertices.
func produce(ctx context.Context, c *framecore.Context, surfaces []*surface.Surface, quad format.VertexLayout, cfg config) error {
	defer c.Synchronizer().Close()

	for i := range cfg.frames {
		wait, cancel := context.WithTimeout(ctx, cfg.timeout)
		f, err := c.BeginFrame(wait)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			framecore.Logger().Warn("framedemo: frame skipped", "frame", i, "err", err)
			continue
		}

		err = surfaces[f.Index()].Update(func(g *surface.Guard) error {
			return drawFrame(g, i, cfg)
		})
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, errors.Join(err, f.Drop()))
		}

		args, _, err := f.AllocArgs(ctx, 16)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, errors.Join(err, f.Drop()))
		}
		for j, v := range []int{i, cfg.frames, cfg.width, cfg.height} {
			binary.LittleEndian.PutUint32(args[j*4:], uint32(v)) //nolint:gosec // G115: small non-negative values
		}

		verts, _, err := f.AllocData(ctx, gpu.QuadBytes(quad))
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, errors.Join(err, f.Drop()))
		}
		if err := gpu.WriteQuad(verts, quad); err != nil {
			return fmt.Errorf("frame %d: %w", i, errors.Join(err, f.Drop()))
		}

		if err := f.Commit(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

// barRect returns where frame i draws the bar.
func barRect(i int, cfg config) image.Rectangle {
	w, h := cfg.width, cfg.height
	t := float64(i) / float64(max(cfg.frames-1, 1))
	bar := max(w/8, 1)
	x := int(t * float64(w-bar))
	return image.Rect(x, h/4, x+bar, h-h/4)
}

func drawFrame(g *surface.Guard, i int, cfg config) error {
	t := float64(i) / float64(max(cfg.frames-1, 1))
	bg := color.RGBA{R: uint8(20 + 60*t), G: 24, B: 48, A: 255}
	if err := g.Fill(image.Rect(0, 0, cfg.width, cfg.height), bg); err != nil {
		return err
	}
	return g.Fill(barRect(i, cfg), barColor)
}

// consume uploads every committed frame and the surface of its slot, then
// releases it. It checks that the surface still holds the frame named in
// the args block and returns the slot index of the last frame.
func consume(ctx context.Context, c *framecore.Context, surfaces []*surface.Surface, stager *gpu.Stager, tex *gpu.SurfaceTexture, cfg config) (int, error) {
	last := -1
	for {
		f, err := c.NextFrame(ctx)
		if err != nil {
			if errors.Is(err, frame.ErrClosed) {
				return last, nil
			}
			return last, err
		}
		if err := consumeFrame(f, surfaces[f.Index()], stager, tex, cfg); err != nil {
			return last, errors.Join(err, f.Done())
		}
		last = f.Index()
		if err := f.Done(); err != nil {
			return last, err
		}
	}
}

func consumeFrame(f *framecore.Frame, s *surface.Surface, stager *gpu.Stager, tex *gpu.SurfaceTexture, cfg config) error {
	regions := f.Regions()
	if len(regions) == 0 {
		return fmt.Errorf("frame %d: no regions", f.Sequence())
	}
	args, err := f.Bytes(regions[0])
	if err != nil {
		return err
	}
	n := int(binary.LittleEndian.Uint32(args))
	if err := stager.UploadSlot(f.Slot()); err != nil {
		return err
	}
	return s.Update(func(g *surface.Guard) error {
		r := barRect(n, cfg)
		p, err := g.Pixel(r.Min.X, r.Min.Y)
		if err != nil {
			return err
		}
		if p != s.Layout().Format.Pack(barColor) {
			return fmt.Errorf("frame %d: slot %d surface does not hold its frame", n, f.Index())
		}
		return tex.Upload(g)
	})
}

func openNoopDevice() (hal.Device, hal.Queue, func(), error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, nil, fmt.Errorf("no adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, nil, fmt.Errorf("open device: %w", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup, nil
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
