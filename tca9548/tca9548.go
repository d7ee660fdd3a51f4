// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tca9548

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

var (
	// ErrInvalidAddress is returned by New for an address outside the
	// range the A0-A2 pins can strap.
	ErrInvalidAddress = errors.New("tca9548: address must be in 0x70-0x77")
	// ErrInvalidChannel is returned by Select for a channel outside 0-7.
	// The check happens before any bus traffic.
	ErrInvalidChannel = errors.New("tca9548: channel must be 0-7")
)

const (
	maskNone byte = 0x00 // no channel connected
	maskAll  byte = 0xFF // every channel connected, presence testing only
)

// Opts holds the configuration options for the switch.
type Opts struct {
	// SettleDelay is slept after every acknowledged control write. The
	// analog switch needs at least 10ms to stabilize; shorter delays risk
	// intermittent misreads on the downstream channel.
	SettleDelay time.Duration
}

// DefaultOpts is the recommended configuration.
var DefaultOpts = Opts{SettleDelay: 10 * time.Millisecond}

// Dev is a handle to a TCA9548A switch.
type Dev struct {
	d      *i2c.Dev
	settle time.Duration
	mask   byte // last acknowledged control byte
}

// New returns a handle to the switch at addr. The bus is not touched;
// use Present to verify the part answers.
func New(bus i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if addr < 0x70 || addr > 0x77 {
		return nil, ErrInvalidAddress
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	settle := opts.SettleDelay
	if settle <= 0 {
		settle = DefaultOpts.SettleDelay
	}
	return &Dev{d: &i2c.Dev{Bus: bus, Addr: addr}, settle: settle}, nil
}

// Select connects exactly the requested downstream channel to the bus,
// disconnecting all others, and blocks for the settle delay. It always
// writes, even if the channel is already selected, since the part may have
// been power-cycled since the last write.
func (d *Dev) Select(channel uint8) error {
	if channel > 7 {
		return ErrInvalidChannel
	}
	return d.write(1 << channel)
}

// Reset disconnects every channel. This is the known safe state between
// test phases.
func (d *Dev) Reset() error {
	return d.write(maskNone)
}

// EnableAll connects every channel at once. Only useful for presence
// testing the switch itself; never do this while identical sensors sit on
// several channels.
func (d *Dev) EnableAll() error {
	return d.write(maskAll)
}

// Present reports whether the switch acknowledges a control write. The
// part exposes no readable register, so an acknowledged Reset is the only
// available presence signal.
func (d *Dev) Present() bool {
	return d.Reset() == nil
}

// Selected returns the control byte of the last acknowledged write.
func (d *Dev) Selected() byte {
	return d.mask
}

// Halt disconnects every channel. Implements conn.Resource.
func (d *Dev) Halt() error {
	return d.Reset()
}

func (d *Dev) String() string {
	return fmt.Sprintf("TCA9548A{%s}", d.d.String())
}

func (d *Dev) write(mask byte) error {
	if err := d.d.Tx([]byte{mask}, nil); err != nil {
		return fmt.Errorf("tca9548: control write %#02x: %w", mask, err)
	}
	d.mask = mask
	time.Sleep(d.settle)
	return nil
}

var _ conn.Resource = &Dev{}
