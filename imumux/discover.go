// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package imumux

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/FatimaSyeda9991/IMUMultiplexer/mpu9250"
	"github.com/FatimaSyeda9991/IMUMultiplexer/tca9548"
)

// Discover verifies the switch answers, then walks the configured channels
// resolving each sensor's address from the candidate list. A channel where
// every candidate fails is simply left without a slot; that is the normal
// outcome for an unpopulated channel, not an error. Only a missing switch
// or an invalid configuration fails the call.
//
// The per-candidate outcomes, including the faults that were tolerated,
// are kept in the returned Array's Reports.
func Discover(bus i2c.Bus, cfg *Config) (*Array, error) {
	c, err := fill(cfg)
	if err != nil {
		return nil, err
	}
	mux, err := tca9548.New(bus, c.MuxAddr, &tca9548.Opts{SettleDelay: c.SettleDelay})
	if err != nil {
		return nil, err
	}
	if !mux.Present() {
		return nil, fmt.Errorf("%w at %#02x", ErrMuxAbsent, c.MuxAddr)
	}
	a := &Array{mux: mux}
	for _, ch := range c.Channels {
		slot, rep := discoverChannel(bus, mux, ch, c.Addresses, c.WakeDelay)
		a.reports = append(a.reports, rep)
		if slot != nil {
			a.slots = append(a.slots, slot)
		}
	}
	return a, nil
}

// discoverChannel tries each candidate address on one channel, stopping at
// the first confirmed sensor. Every attempt's outcome is recorded; none is
// silently swallowed.
func discoverChannel(bus i2c.Bus, mux *tca9548.Dev, ch uint8, addrs []uint16, wake time.Duration) (*Slot, ChannelReport) {
	rep := ChannelReport{Channel: ch}
	if err := mux.Select(ch); err != nil {
		rep.SelectErr = err
		return nil, rep
	}
	opts := mpu9250.Opts{WakeDelay: wake}
	for _, addr := range addrs {
		dev, err := mpu9250.New(bus, addr, &opts)
		if err != nil {
			rep.Probes = append(rep.Probes, newProbe(addr, err))
			continue
		}
		rep.Probes = append(rep.Probes, Probe{Addr: addr, WhoAmI: dev.WhoAmI()})
		return &Slot{Channel: ch, dev: dev}, rep
	}
	return nil, rep
}

// Scan walks all 8 switch channels probing every candidate address, and
// reports what answered where. Unlike Discover it does not stop at the
// first hit and does not keep handles to what it finds; it exists for
// diagnostics, to see sensors on channels the configuration does not
// expect.
func Scan(bus i2c.Bus, cfg *Config) ([]ChannelReport, error) {
	c, err := fill(cfg)
	if err != nil {
		return nil, err
	}
	mux, err := tca9548.New(bus, c.MuxAddr, &tca9548.Opts{SettleDelay: c.SettleDelay})
	if err != nil {
		return nil, err
	}
	if !mux.Present() {
		return nil, fmt.Errorf("%w at %#02x", ErrMuxAbsent, c.MuxAddr)
	}
	opts := mpu9250.Opts{WakeDelay: scanWakeDelay}
	reports := make([]ChannelReport, 0, 8)
	for ch := uint8(0); ch < 8; ch++ {
		rep := ChannelReport{Channel: ch}
		if err := mux.Select(ch); err != nil {
			rep.SelectErr = err
			reports = append(reports, rep)
			continue
		}
		for _, addr := range c.Addresses {
			dev, err := mpu9250.New(bus, addr, &opts)
			if err != nil {
				rep.Probes = append(rep.Probes, newProbe(addr, err))
				continue
			}
			rep.Probes = append(rep.Probes, Probe{Addr: addr, WhoAmI: dev.WhoAmI()})
		}
		reports = append(reports, rep)
	}
	// Leave the bus in the safe state.
	if err := mux.Reset(); err != nil {
		return reports, err
	}
	return reports, nil
}

// newProbe records a failed attempt, salvaging the identification byte
// when the device answered but was not one of ours.
func newProbe(addr uint16, err error) Probe {
	p := Probe{Addr: addr, Err: err}
	var ude *mpu9250.UnexpectedDeviceError
	if errors.As(err, &ude) {
		p.WhoAmI = ude.WhoAmI
	}
	return p
}
