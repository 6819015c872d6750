// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framecore/ring"
)

// halProvider is implemented by device providers that expose their HAL
// device and queue.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// HAL extracts the HAL device and queue from a shared device provider.
func HAL(provider gpucontext.DeviceProvider) (hal.Device, hal.Queue, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	return device, queue, nil
}

// NewStagerFromProvider creates a Stager on the device of a shared
// provider. The provider keeps ownership of the device.
func NewStagerFromProvider(provider gpucontext.DeviceProvider, pools *ring.Pools) (*Stager, error) {
	device, queue, err := HAL(provider)
	if err != nil {
		return nil, err
	}
	return NewStager(device, queue, pools)
}
