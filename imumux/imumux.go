// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package imumux

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/FatimaSyeda9991/IMUMultiplexer/mpu9250"
	"github.com/FatimaSyeda9991/IMUMultiplexer/tca9548"
)

// ErrMuxAbsent is returned by Discover and Scan when the switch does not
// acknowledge its reset write. Nothing behind the switch can be trusted
// without it, so this is fatal to the whole session.
var ErrMuxAbsent = errors.New("imumux: multiplexer does not acknowledge")

// Config describes one multiplexed sensor rig.
type Config struct {
	// MuxAddr is the switch address on the upstream bus.
	MuxAddr uint16
	// Channels are the switch channels expected to carry a sensor, in
	// the order they are discovered and sampled.
	Channels []uint8
	// Addresses are the candidate sensor addresses, tried in order on
	// every channel. The rig under test straps AD0 high, so 0x69 comes
	// first.
	Addresses []uint16
	// Period is the continuous sampling period.
	Period time.Duration
	// SettleDelay is the switch settle delay after a channel select.
	SettleDelay time.Duration
	// WakeDelay is the sensor wake delay used during discovery.
	WakeDelay time.Duration
}

// DefaultConfig matches the observed hardware: three IMUs with AD0 high on
// channels 2, 3 and 4, sampled once a second.
var DefaultConfig = Config{
	MuxAddr:     0x70,
	Channels:    []uint8{2, 3, 4},
	Addresses:   []uint16{0x69, 0x68},
	Period:      time.Second,
	SettleDelay: 10 * time.Millisecond,
	WakeDelay:   100 * time.Millisecond,
}

// scanWakeDelay is the shorter wake delay used when walking all channels;
// parts that were probed before are already out of their power-up phase.
const scanWakeDelay = 10 * time.Millisecond

// fill returns cfg with zero fields replaced by their defaults, after
// validating the channel set.
func fill(cfg *Config) (Config, error) {
	c := DefaultConfig
	if cfg != nil {
		if cfg.MuxAddr != 0 {
			c.MuxAddr = cfg.MuxAddr
		}
		if cfg.Channels != nil {
			c.Channels = cfg.Channels
		}
		if cfg.Addresses != nil {
			c.Addresses = cfg.Addresses
		}
		if cfg.Period > 0 {
			c.Period = cfg.Period
		}
		if cfg.SettleDelay > 0 {
			c.SettleDelay = cfg.SettleDelay
		}
		if cfg.WakeDelay > 0 {
			c.WakeDelay = cfg.WakeDelay
		}
	}
	seen := [8]bool{}
	for _, ch := range c.Channels {
		if ch > 7 {
			return c, fmt.Errorf("imumux: channel %d: %w", ch, tca9548.ErrInvalidChannel)
		}
		if seen[ch] {
			return c, fmt.Errorf("imumux: channel %d configured twice", ch)
		}
		seen[ch] = true
	}
	if len(c.Addresses) == 0 {
		return c, errors.New("imumux: no candidate addresses")
	}
	return c, nil
}

// Slot is one confirmed sensor behind the switch. Its channel, address and
// identity are fixed at discovery time.
type Slot struct {
	// Channel is the switch channel the sensor sits behind.
	Channel uint8
	dev     *mpu9250.Dev
}

// Addr returns the address the sensor was resolved to.
func (s *Slot) Addr() uint16 {
	return s.dev.Addr()
}

// WhoAmI returns the identification value read during discovery.
func (s *Slot) WhoAmI() byte {
	return s.dev.WhoAmI()
}

// Variant names the detected part.
func (s *Slot) Variant() string {
	return s.dev.Variant()
}

func (s *Slot) String() string {
	return fmt.Sprintf("ch%d/%s@%#02x", s.Channel, s.dev.Variant(), s.dev.Addr())
}

// Reading is the outcome of one slot's read within a cycle. Err is set
// when the slot faulted; the fault is isolated to this slot.
type Reading struct {
	Channel uint8
	Sample  mpu9250.Sample
	Err     error
}

// Cycle is one pass over every slot, in channel order.
type Cycle struct {
	Seq      uint64
	Time     time.Time
	Readings []Reading
}

// Probe records one candidate address attempt on one channel.
type Probe struct {
	Addr uint16
	// WhoAmI is the identification value read, if the device answered.
	// It is also set when Err is an UnexpectedDeviceError.
	WhoAmI byte
	Err    error
}

// ChannelReport is the full ledger of what discovery or a scan saw on one
// channel. Discovery stops at the first confirmed probe; a scan probes
// every candidate.
type ChannelReport struct {
	Channel uint8
	// SelectErr is set when the switch refused the channel select; no
	// probes were attempted in that case.
	SelectErr error
	Probes    []Probe
}

// Found returns the address and identification of the first confirmed
// probe on the channel.
func (r ChannelReport) Found() (addr uint16, whoami byte, ok bool) {
	for _, p := range r.Probes {
		if p.Err == nil {
			return p.Addr, p.WhoAmI, true
		}
	}
	return 0, 0, false
}

// Array is a discovered rig: the switch plus every confirmed slot. All
// sampling is strictly sequential; the mutex only guards against misuse
// from multiple goroutines, it does not make concurrent sampling useful.
type Array struct {
	mux     *tca9548.Dev
	slots   []*Slot
	reports []ChannelReport

	mu   sync.Mutex
	seq  uint64
	stop chan struct{}
	wg   sync.WaitGroup
}
