// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/framecore/internal/logging"
	"github.com/gogpu/framecore/ring"
)

// Errors returned by the synchronizer.
var (
	// ErrInvalidSlots is returned by New for a slot count below one.
	ErrInvalidSlots = errors.New("frame: slot count must be positive")

	// ErrSlotBusy is returned by BeginWrite when the next slot is not Empty.
	ErrSlotBusy = errors.New("frame: slot busy")

	// ErrInvalidTransition is returned for a call that does not match the
	// slot state.
	ErrInvalidTransition = errors.New("frame: invalid slot transition")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("frame: synchronizer closed")
)

// State is the position of a slot in its cycle.
type State uint8

// Slot states.
const (
	StateEmpty State = iota
	StateWriting
	StateReady
	StateConsuming
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateWriting:
		return "Writing"
	case StateReady:
		return "Ready"
	case StateConsuming:
		return "Consuming"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Releaser returns ring regions to their allocator. *ring.Ring and
// *ring.Pools implement it.
type Releaser interface {
	Release(reg ring.Region) error
}

// Slot is one producer/consumer handoff. Its fields are guarded by the
// owning Synchronizer.
type Slot struct {
	owner   *Synchronizer
	index   int
	state   State
	seq     uint64
	dropped bool
	regions []ring.Region
}

// Index returns the slot position.
func (s *Slot) Index() int { return s.index }

// Sequence returns the frame number assigned when the slot was last begun
// for writing. Frame numbers start at 1.
func (s *Slot) Sequence() uint64 {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	return s.seq
}

// State returns the current slot state.
func (s *Slot) State() State {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	return s.state
}

// Attach ties regions to the slot so they are released when the consumer
// ends it. The slot must be Writing.
func (s *Slot) Attach(regions ...ring.Region) error {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	if s.state != StateWriting {
		return fmt.Errorf("%w: attach to slot %d in state %v", ErrInvalidTransition, s.index, s.state)
	}
	s.regions = append(s.regions, regions...)
	return nil
}

// Regions returns a copy of the attached regions.
func (s *Slot) Regions() []ring.Region {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	out := make([]ring.Region, len(s.regions))
	copy(out, s.regions)
	return out
}

// Stats counts completed handoffs.
type Stats struct {
	Slots     int
	Committed uint64
	Consumed  uint64
	Dropped   uint64
}

// Synchronizer coordinates one producer and one consumer over a ring of
// slots.
type Synchronizer struct {
	mu     sync.Mutex
	slots  []*Slot
	rel    Releaser
	write  int
	read   int
	seq    uint64
	closed bool
	// changed is closed and replaced on every state change.
	changed chan struct{}

	committed uint64
	consumed  uint64
	dropped   uint64
}

// New creates a synchronizer with n slots. rel releases the regions
// attached to a slot when it is consumed or dropped; it may be nil when
// slots never carry regions.
func New(n int, rel Releaser) (*Synchronizer, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSlots, n)
	}
	s := &Synchronizer{
		slots:   make([]*Slot, n),
		rel:     rel,
		changed: make(chan struct{}),
	}
	for i := range s.slots {
		s.slots[i] = &Slot{owner: s, index: i}
	}
	return s, nil
}

// Len returns the number of slots.
func (s *Synchronizer) Len() int { return len(s.slots) }

// States returns the state of every slot in index order.
func (s *Synchronizer) States() []State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]State, len(s.slots))
	for i, sl := range s.slots {
		out[i] = sl.state
	}
	return out
}

// Stats returns handoff counters.
func (s *Synchronizer) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Slots:     len(s.slots),
		Committed: s.committed,
		Consumed:  s.consumed,
		Dropped:   s.dropped,
	}
}

// broadcast must be called with mu held.
func (s *Synchronizer) broadcast() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// BeginWrite moves the next producer slot from Empty to Writing. It fails
// with ErrSlotBusy if the consumer has not finished with that slot.
func (s *Synchronizer) BeginWrite() (*Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	sl := s.slots[s.write]
	if sl.state != StateEmpty {
		return nil, fmt.Errorf("%w: slot %d is %v", ErrSlotBusy, sl.index, sl.state)
	}
	return s.beginWriteLocked(sl), nil
}

// BeginWriteContext is BeginWrite that waits for the next slot to become
// Empty until ctx is done.
func (s *Synchronizer) BeginWriteContext(ctx context.Context) (*Slot, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, ErrClosed
		}
		sl := s.slots[s.write]
		if sl.state == StateEmpty {
			sl = s.beginWriteLocked(sl)
			s.mu.Unlock()
			return sl, nil
		}
		wait := s.changed
		s.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrSlotBusy, ctx.Err())
		}
	}
}

func (s *Synchronizer) beginWriteLocked(sl *Slot) *Slot {
	s.seq++
	sl.seq = s.seq
	sl.state = StateWriting
	sl.regions = sl.regions[:0]
	s.write = (s.write + 1) % len(s.slots)
	s.broadcast()
	return sl
}

// CommitWrite moves a slot from Writing to Ready, publishing it to the
// consumer. A write begun before Close can still be committed; the
// consumer drains it before seeing ErrClosed.
func (s *Synchronizer) CommitWrite(sl *Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(sl, StateWriting, "commit"); err != nil {
		return err
	}
	sl.state = StateReady
	s.committed++
	s.broadcast()
	return nil
}

// AbortWrite drops a slot in Writing. Its regions are released at once and
// the consumer skips the slot, returning it to Empty without handing it
// out.
func (s *Synchronizer) AbortWrite(sl *Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(sl, StateWriting, "abort"); err != nil {
		return err
	}
	err := s.releaseLocked(sl)
	sl.state = StateReady
	sl.dropped = true
	s.dropped++
	logging.Logger().Warn("frame: dropped", "slot", sl.index, "seq", sl.seq)
	s.broadcast()
	return err
}

// BeginConsume waits until the next consumer slot is Ready and moves it to
// Consuming. Slots are consumed in the order they were begun for writing.
func (s *Synchronizer) BeginConsume(ctx context.Context) (*Slot, error) {
	for {
		s.mu.Lock()
		sl := s.slots[s.read]
		switch {
		case sl.state == StateReady && sl.dropped:
			sl.state = StateEmpty
			sl.dropped = false
			s.read = (s.read + 1) % len(s.slots)
			s.broadcast()
			s.mu.Unlock()
			continue
		case sl.state == StateReady:
			sl.state = StateConsuming
			s.read = (s.read + 1) % len(s.slots)
			s.broadcast()
			s.mu.Unlock()
			return sl, nil
		case s.closed:
			s.mu.Unlock()
			return nil, ErrClosed
		}
		wait := s.changed
		s.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// EndConsume moves a slot from Consuming to Empty and releases its
// regions. The slot is Empty even when a release fails; release errors are
// joined into the result.
func (s *Synchronizer) EndConsume(sl *Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(sl, StateConsuming, "end consume"); err != nil {
		return err
	}
	err := s.releaseLocked(sl)
	s.consumed++
	s.broadcast()
	return err
}

// releaseLocked empties a slot and releases its regions.
func (s *Synchronizer) releaseLocked(sl *Slot) error {
	var errs []error
	if s.rel != nil {
		for _, reg := range sl.regions {
			if err := s.rel.Release(reg); err != nil {
				errs = append(errs, err)
			}
		}
	}
	sl.regions = sl.regions[:0]
	sl.state = StateEmpty
	if err := errors.Join(errs...); err != nil {
		logging.Logger().Warn("frame: release failed", "slot", sl.index, "err", err)
		return fmt.Errorf("frame: slot %d: %w", sl.index, err)
	}
	return nil
}

func (s *Synchronizer) check(sl *Slot, want State, op string) error {
	if sl == nil || sl.owner != s {
		return fmt.Errorf("%w: %s on a foreign slot", ErrInvalidTransition, op)
	}
	if sl.state != want {
		return fmt.Errorf("%w: %s slot %d in state %v", ErrInvalidTransition, op, sl.index, sl.state)
	}
	return nil
}

// Close wakes all waiters with ErrClosed and refuses new writes. Writes in
// progress can still be committed or aborted, Ready slots can still be
// consumed and consumed slots can still be ended so their regions are
// released. Close is idempotent.
func (s *Synchronizer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.broadcast()
	return nil
}
