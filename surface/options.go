// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import "github.com/gogpu/framecore/format"

// LockPolicy selects what Acquire does when the surface is already locked.
type LockPolicy uint8

const (
	// LockBlock makes Acquire wait until the holder releases. This is the
	// cooperative single-writer model and the default.
	LockBlock LockPolicy = iota

	// LockFailFast makes Acquire return ErrAlreadyLocked immediately.
	LockFailFast
)

func (p LockPolicy) String() string {
	switch p {
	case LockBlock:
		return "Block"
	case LockFailFast:
		return "FailFast"
	default:
		return "Unknown"
	}
}

// Option configures a Surface during creation.
type Option func(*options)

type options struct {
	layout format.PixelLayout
	policy LockPolicy
}

func defaultOptions() options {
	return options{
		layout: format.DefaultPixelLayout,
		policy: LockBlock,
	}
}

// WithLayout sets the negotiated pixel layout of the surface.
func WithLayout(l format.PixelLayout) Option {
	return func(o *options) {
		o.layout = l
	}
}

// WithLockPolicy sets the behavior of Acquire on a locked surface.
func WithLockPolicy(p LockPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}
