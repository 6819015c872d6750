// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ring

import (
	"context"
	"errors"
	"fmt"
)

// Kind selects one of the two pools.
type Kind uint8

const (
	// KindArgs is the pool for small shader argument blocks.
	KindArgs Kind = iota

	// KindData is the pool for vertex and bulk uniform data.
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindArgs:
		return "args"
	case KindData:
		return "data"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Pool defaults.
const (
	DefaultArgsCapacity  = 8 << 20
	DefaultDataCapacity  = 20 << 20
	DefaultArgsAlignment = 256
	DefaultDataAlignment = 4
)

// Config sizes the two pools. Zero fields take the defaults.
type Config struct {
	ArgsCapacity  int
	DataCapacity  int
	ArgsAlignment int
	DataAlignment int

	// Backing names the backing store of both rings. Empty selects
	// BackingHeap.
	Backing string
}

func (c Config) withDefaults() Config {
	if c.ArgsCapacity == 0 {
		c.ArgsCapacity = DefaultArgsCapacity
	}
	if c.DataCapacity == 0 {
		c.DataCapacity = DefaultDataCapacity
	}
	if c.ArgsAlignment == 0 {
		c.ArgsAlignment = DefaultArgsAlignment
	}
	if c.DataAlignment == 0 {
		c.DataAlignment = DefaultDataAlignment
	}
	if c.Backing == "" {
		c.Backing = BackingHeap
	}
	return c
}

// Pools is the args/data ring pair used by a frame producer.
type Pools struct {
	Args *Ring
	Data *Ring
}

// NewPools creates both rings.
func NewPools(cfg Config) (*Pools, error) {
	cfg = cfg.withDefaults()

	args, err := New(cfg.ArgsCapacity,
		WithAlignment(cfg.ArgsAlignment), WithBacking(cfg.Backing), WithName(KindArgs.String()))
	if err != nil {
		return nil, fmt.Errorf("ring: args pool: %w", err)
	}
	data, err := New(cfg.DataCapacity,
		WithAlignment(cfg.DataAlignment), WithBacking(cfg.Backing), WithName(KindData.String()))
	if err != nil {
		_ = args.Close()
		return nil, fmt.Errorf("ring: data pool: %w", err)
	}
	return &Pools{Args: args, Data: data}, nil
}

// Ring returns the ring for kind, or nil for an unknown kind.
func (p *Pools) Ring(kind Kind) *Ring {
	switch kind {
	case KindArgs:
		return p.Args
	case KindData:
		return p.Data
	}
	return nil
}

// KindOf reports which pool issued reg.
func (p *Pools) KindOf(reg Region) (Kind, bool) {
	switch {
	case p.Args.Owns(reg):
		return KindArgs, true
	case p.Data.Owns(reg):
		return KindData, true
	}
	return 0, false
}

func (p *Pools) owner(reg Region) (*Ring, error) {
	kind, ok := p.KindOf(reg)
	if !ok {
		return nil, fmt.Errorf("%w: %v not issued by these pools", ErrUnknownHandle, reg)
	}
	return p.Ring(kind), nil
}

// Allocate allocates from the kind pool, waiting while it is full.
func (p *Pools) Allocate(ctx context.Context, kind Kind, size int) (Region, error) {
	r := p.Ring(kind)
	if r == nil {
		return Region{}, fmt.Errorf("ring: unknown pool %v", kind)
	}
	return r.Allocate(ctx, size)
}

// TryAllocate allocates from the kind pool without waiting.
func (p *Pools) TryAllocate(kind Kind, size int) (Region, error) {
	r := p.Ring(kind)
	if r == nil {
		return Region{}, fmt.Errorf("ring: unknown pool %v", kind)
	}
	return r.TryAllocate(size)
}

// Release returns reg to the pool that issued it.
func (p *Pools) Release(reg Region) error {
	r, err := p.owner(reg)
	if err != nil {
		return err
	}
	return r.Release(reg)
}

// Bytes returns the arena bytes of reg.
func (p *Pools) Bytes(reg Region) ([]byte, error) {
	r, err := p.owner(reg)
	if err != nil {
		return nil, err
	}
	return r.Bytes(reg)
}

// Stats returns usage of both pools.
func (p *Pools) Stats() (args, data Stats) {
	return p.Args.Stats(), p.Data.Stats()
}

// Close closes both rings.
func (p *Pools) Close() error {
	return errors.Join(p.Args.Close(), p.Data.Close())
}
