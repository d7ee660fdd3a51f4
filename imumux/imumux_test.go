// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package imumux

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/FatimaSyeda9991/IMUMultiplexer/mpu9250"
)

// gravity1Data is a data register block reading +1g on X and a plausible
// temperature, everything else zero.
var gravity1Data = [14]byte{0x10, 0x00, 0, 0, 0, 0, 0x01, 0x00}

// fakeSensor emulates the register surface of an MPU-9250 as this module
// drives it.
type fakeSensor struct {
	whoami   byte
	data     [14]byte
	failWake bool
	failRead bool
	awake    bool
}

// rigBus emulates a TCA9548A with sensors behind its channels. A sensor is
// reachable only while its channel is the single selected one, which is
// exactly the property the acquisition code must maintain.
type rigBus struct {
	muxAddr  uint16
	muxDead  bool
	selected byte
	sensors  map[uint8]map[uint16]*fakeSensor
}

func (b *rigBus) String() string { return "rig" }

func (b *rigBus) SetSpeed(f physic.Frequency) error { return nil }

func (b *rigBus) Tx(addr uint16, w, r []byte) error {
	if addr == b.muxAddr {
		if b.muxDead {
			return errors.New("i2c: no ack")
		}
		if len(w) != 1 || len(r) != 0 {
			return fmt.Errorf("rig: unexpected mux transaction w=%x r=%d", w, len(r))
		}
		b.selected = w[0]
		return nil
	}
	if bits.OnesCount8(b.selected) != 1 {
		return errors.New("i2c: no ack")
	}
	channel := uint8(bits.TrailingZeros8(b.selected))
	s := b.sensors[channel][addr]
	if s == nil {
		return errors.New("i2c: no ack")
	}
	switch {
	case len(w) == 2 && w[0] == 0x6B && w[1] == 0x00:
		if s.failWake {
			return errors.New("i2c: no ack")
		}
		s.awake = true
		return nil
	case len(w) == 2 && w[0] == 0x6B && w[1] == 0x40:
		s.awake = false
		return nil
	case len(w) == 1 && w[0] == 0x75 && len(r) == 1:
		r[0] = s.whoami
		return nil
	case len(w) == 1 && w[0] == 0x3B && len(r) == 14:
		if s.failRead {
			return errors.New("i2c: read error")
		}
		copy(r, s.data[:])
		return nil
	}
	return fmt.Errorf("rig: unexpected transaction to %#02x: w=%x r=%d", addr, w, len(r))
}

func testConfig() *Config {
	return &Config{
		SettleDelay: time.Microsecond,
		WakeDelay:   time.Microsecond,
	}
}

// defaultRig is the observed hardware: AD0-high sensors on channels 2, 3
// and 4.
func defaultRig() *rigBus {
	return &rigBus{
		muxAddr: 0x70,
		sensors: map[uint8]map[uint16]*fakeSensor{
			2: {0x69: &fakeSensor{whoami: 0x71, data: gravity1Data}},
			3: {0x69: &fakeSensor{whoami: 0x71, data: gravity1Data}},
			4: {0x69: &fakeSensor{whoami: 0x71, data: gravity1Data}},
		},
	}
}

func TestDiscover(t *testing.T) {
	bus := defaultRig()
	// Channel 3 has its sensor strapped AD0 low instead, and it is a
	// 9255: the candidate fallback has to find it at 0x68.
	bus.sensors[3] = map[uint16]*fakeSensor{0x68: {whoami: 0x73, data: gravity1Data}}
	// Channel 4 is unpopulated.
	delete(bus.sensors, 4)

	a, err := Discover(bus, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	slots := a.Slots()
	if len(slots) != 2 {
		t.Fatalf("%d slots, want 2", len(slots))
	}
	if slots[0].Channel != 2 || slots[0].Addr() != 0x69 || slots[0].Variant() != "MPU-9250" {
		t.Errorf("slot 0 = %s", slots[0])
	}
	if slots[1].Channel != 3 || slots[1].Addr() != 0x68 || slots[1].Variant() != "MPU-9255" {
		t.Errorf("slot 1 = %s", slots[1])
	}
	if _, ok := a.Slot(4); ok {
		t.Error("unpopulated channel 4 produced a slot")
	}

	reports := a.Reports()
	if len(reports) != 3 {
		t.Fatalf("%d reports, want 3", len(reports))
	}
	// The fallback on channel 3 must be on the ledger: a failed probe at
	// 0x69 followed by the confirmed one at 0x68.
	if len(reports[1].Probes) != 2 || reports[1].Probes[0].Err == nil {
		t.Errorf("channel 3 probes = %+v", reports[1].Probes)
	}
	if addr, whoami, ok := reports[1].Found(); !ok || addr != 0x68 || whoami != 0x73 {
		t.Errorf("channel 3 Found() = %#02x, %#02x, %v", addr, whoami, ok)
	}
	// Channel 4 exhausted every candidate without a hit.
	if _, _, ok := reports[2].Found(); ok {
		t.Error("channel 4 reported a find on an unpopulated channel")
	}
	if len(reports[2].Probes) != 2 {
		t.Errorf("channel 4 probes = %+v", reports[2].Probes)
	}
}

func TestDiscoverMuxAbsent(t *testing.T) {
	bus := defaultRig()
	bus.muxDead = true
	if _, err := Discover(bus, testConfig()); !errors.Is(err, ErrMuxAbsent) {
		t.Fatalf("Discover = %v, want ErrMuxAbsent", err)
	}
}

func TestDiscoverForeignDevice(t *testing.T) {
	bus := defaultRig()
	// Something answers on channel 2 at both addresses but is not part of
	// the family: no slot, and the identification byte is on the ledger.
	bus.sensors[2] = map[uint16]*fakeSensor{0x69: {whoami: 0x40}}

	a, err := Discover(bus, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := a.Slot(2); ok {
		t.Error("foreign device on channel 2 was confirmed")
	}
	rep := a.Reports()[0]
	if len(rep.Probes) != 2 {
		t.Fatalf("channel 2 probes = %+v", rep.Probes)
	}
	var ude *mpu9250.UnexpectedDeviceError
	if !errors.As(rep.Probes[0].Err, &ude) || rep.Probes[0].WhoAmI != 0x40 {
		t.Errorf("probe 0 = %+v, want UnexpectedDeviceError with WhoAmI 0x40", rep.Probes[0])
	}
}

func TestDiscoverConfigValidation(t *testing.T) {
	bus := defaultRig()
	cfg := testConfig()
	cfg.Channels = []uint8{2, 8}
	if _, err := Discover(bus, cfg); err == nil {
		t.Error("channel 8 accepted")
	}
	cfg.Channels = []uint8{2, 2}
	if _, err := Discover(bus, cfg); err == nil {
		t.Error("duplicate channel accepted")
	}
	// No bus traffic may have happened for either precondition violation.
	if bus.selected != 0 {
		t.Errorf("precondition violations reached the bus, selected=%#02x", bus.selected)
	}
}

func TestReadAllFaultIsolation(t *testing.T) {
	bus := defaultRig()
	a, err := Discover(bus, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Slots()) != 3 {
		t.Fatalf("%d slots, want 3", len(a.Slots()))
	}

	// First cycle: channel 3 faults mid-cycle.
	bus.sensors[3][0x69].failRead = true
	cy := a.ReadAll()
	if cy.Seq != 1 {
		t.Errorf("Seq = %d, want 1", cy.Seq)
	}
	if len(cy.Readings) != 3 {
		t.Fatalf("%d readings, want 3", len(cy.Readings))
	}
	if cy.Readings[0].Err != nil || cy.Readings[0].Channel != 2 {
		t.Errorf("channel 2 reading = %+v", cy.Readings[0])
	}
	if cy.Readings[1].Err == nil {
		t.Error("channel 3 fault not reported")
	}
	// The fault on channel 3 must not have suppressed channel 4.
	if cy.Readings[2].Err != nil || cy.Readings[2].Channel != 4 {
		t.Errorf("channel 4 reading = %+v", cy.Readings[2])
	}
	if got := cy.Readings[2].Sample.Ax; math.Abs(got-9.80665) > 1e-9 {
		t.Errorf("channel 4 Ax = %v, want 9.80665", got)
	}

	// Next cycle: channel 3 recovered and must have been retried, not
	// dropped.
	bus.sensors[3][0x69].failRead = false
	cy = a.ReadAll()
	if cy.Seq != 2 {
		t.Errorf("Seq = %d, want 2", cy.Seq)
	}
	if len(cy.Readings) != 3 {
		t.Fatalf("%d readings, want 3", len(cy.Readings))
	}
	if cy.Readings[1].Err != nil {
		t.Errorf("channel 3 still faulted after recovery: %v", cy.Readings[1].Err)
	}
}

func TestReadSelectsChannel(t *testing.T) {
	bus := defaultRig()
	a, err := Discover(bus, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	s, ok := a.Slot(4)
	if !ok {
		t.Fatal("no slot on channel 4")
	}
	if _, err := a.Read(s); err != nil {
		t.Fatal(err)
	}
	if bus.selected != 1<<4 {
		t.Errorf("selected = %#02x after reading channel 4, want %#02x", bus.selected, 1<<4)
	}
}

func TestReadContinuous(t *testing.T) {
	bus := defaultRig()
	a, err := Discover(bus, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	ch, err := a.ReadContinuous(time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.ReadContinuous(time.Millisecond); err == nil {
		t.Error("second ReadContinuous accepted while the first is running")
	}

	var last Cycle
	for i := 0; i < 3; i++ {
		cy, ok := <-ch
		if !ok {
			t.Fatal("cycle channel closed early")
		}
		if len(cy.Readings) != 3 {
			t.Fatalf("%d readings, want 3", len(cy.Readings))
		}
		if cy.Seq <= last.Seq {
			t.Fatalf("Seq did not advance: %d after %d", cy.Seq, last.Seq)
		}
		last = cy
	}

	if err := a.Halt(); err != nil {
		t.Fatal(err)
	}
	for range ch {
		// Drain whatever was in flight; the channel must close.
	}
	// Halt releases the rig: sensors asleep, no channel connected.
	for channel, byAddr := range bus.sensors {
		for addr, s := range byAddr {
			if s.awake {
				t.Errorf("sensor %d/%#02x still awake after Halt", channel, addr)
			}
		}
	}
	if bus.selected != 0 {
		t.Errorf("selected = %#02x after Halt, want 0", bus.selected)
	}
}

func TestScan(t *testing.T) {
	bus := defaultRig()
	delete(bus.sensors, 3)
	delete(bus.sensors, 4)
	// A foreign part answers on a channel the configuration does not
	// expect; Scan reports it anyway.
	bus.sensors[6] = map[uint16]*fakeSensor{0x68: {whoami: 0x40}}

	reports, err := Scan(bus, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 8 {
		t.Fatalf("%d reports, want 8", len(reports))
	}
	if addr, whoami, ok := reports[2].Found(); !ok || addr != 0x69 || whoami != 0x71 {
		t.Errorf("channel 2 Found() = %#02x, %#02x, %v", addr, whoami, ok)
	}
	if _, _, ok := reports[6].Found(); ok {
		t.Error("foreign part on channel 6 was confirmed")
	}
	if reports[6].Probes[1].WhoAmI != 0x40 {
		t.Errorf("channel 6 probe = %+v, want WhoAmI 0x40", reports[6].Probes[1])
	}
	if bus.selected != 0 {
		t.Errorf("selected = %#02x after Scan, want 0", bus.selected)
	}
}

func TestScanMuxAbsent(t *testing.T) {
	bus := defaultRig()
	bus.muxDead = true
	if _, err := Scan(bus, testConfig()); !errors.Is(err, ErrMuxAbsent) {
		t.Fatalf("Scan = %v, want ErrMuxAbsent", err)
	}
}
