// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package imumux

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"

	"github.com/FatimaSyeda9991/IMUMultiplexer/mpu9250"
)

// Slots returns every confirmed slot in channel order.
func (a *Array) Slots() []*Slot {
	out := make([]*Slot, len(a.slots))
	copy(out, a.slots)
	return out
}

// Slot returns the confirmed slot on the given channel, if any.
func (a *Array) Slot(channel uint8) (*Slot, bool) {
	for _, s := range a.slots {
		if s.Channel == channel {
			return s, true
		}
	}
	return nil, false
}

// Reports returns the per-channel discovery ledger, including the
// tolerated per-candidate faults.
func (a *Array) Reports() []ChannelReport {
	out := make([]ChannelReport, len(a.reports))
	copy(out, a.reports)
	return out
}

// Read routes the switch to the slot's channel and takes one sample. A
// failure is isolated to this slot: the switch and the other slots are
// unaffected, and the slot stays eligible for future reads.
func (a *Array) Read(s *Slot) (mpu9250.Sample, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.readLocked(s)
}

func (a *Array) readLocked(s *Slot) (mpu9250.Sample, error) {
	if err := a.mux.Select(s.Channel); err != nil {
		return mpu9250.Sample{}, err
	}
	return s.dev.Read()
}

// ReadAll performs one sampling cycle: every slot in channel order, each
// behind its own select. A faulted slot yields a Reading with Err set and
// the cycle moves on to the next slot without delay.
func (a *Array) ReadAll() Cycle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.readAllLocked()
}

func (a *Array) readAllLocked() Cycle {
	a.seq++
	cy := Cycle{Seq: a.seq, Time: time.Now(), Readings: make([]Reading, 0, len(a.slots))}
	for _, s := range a.slots {
		sample, err := a.readLocked(s)
		cy.Readings = append(cy.Readings, Reading{Channel: s.Channel, Sample: sample, Err: err})
	}
	return cy
}

// ReadContinuous samples every slot at the given period and delivers the
// cycles on the returned channel until Halt is called. Cancellation only
// happens at the cycle boundary: a cycle in flight always completes, and
// the stop check happens before the next cycle's first channel select.
// Cycles are dropped, not queued, when the consumer lags.
func (a *Array) ReadContinuous(period time.Duration) (<-chan Cycle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stop != nil {
		return nil, errors.New("imumux: continuous read already running")
	}
	if period <= 0 {
		period = DefaultConfig.Period
	}
	a.stop = make(chan struct{})
	out := make(chan Cycle, 4)
	a.wg.Add(1)
	go func(stop <-chan struct{}) {
		defer a.wg.Done()
		defer close(out)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				cy := a.ReadAll()
				select {
				case out <- cy:
				default:
				}
			}
		}
	}(a.stop)
	return out, nil
}

// Halt stops a continuous read at its cycle boundary, puts every sensor
// back to sleep and disconnects all switch channels. Implements
// conn.Resource. Sensor faults during shutdown do not prevent the rest of
// the rig from being released; the first fault is reported.
func (a *Array) Halt() error {
	a.mu.Lock()
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
	a.mu.Unlock()
	a.wg.Wait()

	a.mu.Lock()
	defer a.mu.Unlock()
	var first error
	for _, s := range a.slots {
		if err := a.mux.Select(s.Channel); err != nil {
			if first == nil {
				first = err
			}
			continue
		}
		if err := s.dev.Halt(); err != nil && first == nil {
			first = err
		}
	}
	if err := a.mux.Halt(); err != nil && first == nil {
		first = err
	}
	return first
}

func (a *Array) String() string {
	return fmt.Sprintf("imumux.Array{%s, %d slots}", a.mux, len(a.slots))
}

var _ conn.Resource = &Array{}
