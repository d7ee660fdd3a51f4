// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mpu9250

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Sample is one measurement of all three sensor dies sharing the data
// register block. Acceleration is in m/s², angular rate in rad/s.
type Sample struct {
	Ax, Ay, Az  float64
	Gx, Gy, Gz  float64
	Temperature physic.Temperature
}

func (s Sample) String() string {
	return fmt.Sprintf("accel(%.3f, %.3f, %.3f)m/s² gyro(%.3f, %.3f, %.3f)rad/s %.1f°C",
		s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz, s.Temperature.Celsius())
}

// Opts holds the configuration options for the device.
type Opts struct {
	// WakeDelay is slept after clearing the sleep bit, before the part is
	// trusted to answer register reads. 100ms covers oscillator start on
	// first power-up; 10ms is enough when re-probing an already powered
	// part.
	WakeDelay time.Duration
}

// DefaultOpts is the safe first-power-up configuration.
var DefaultOpts = Opts{WakeDelay: 100 * time.Millisecond}

// UnexpectedDeviceError is returned by New when a device acknowledges at
// the probed address but its identification register does not match the
// MPU-9250 family.
type UnexpectedDeviceError struct {
	Addr   uint16
	WhoAmI byte
}

func (e *UnexpectedDeviceError) Error() string {
	return fmt.Sprintf("mpu9250: device at %#02x identifies as %#02x, want %#02x or %#02x",
		e.Addr, e.WhoAmI, WhoAmIMPU9250, WhoAmIMPU9255)
}

// Dev is a confirmed MPU-9250 or MPU-9255 at one bus address. The address
// and identification value never change after New.
type Dev struct {
	d      *i2c.Dev
	whoami byte
}

// New wakes the device at addr, then reads and checks its identification
// register. AD0 selects the address: 0x69 with the pin high, 0x68 low.
// A device answering with an identification outside the MPU-9250 family is
// reported through UnexpectedDeviceError.
func New(bus i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	wake := opts.WakeDelay
	if wake <= 0 {
		wake = DefaultOpts.WakeDelay
	}
	d := &Dev{d: &i2c.Dev{Bus: bus, Addr: addr}}
	// Clear sleep mode; the data registers hold stale values until then.
	if err := d.d.Tx([]byte{regPwrMgmt1, 0x00}, nil); err != nil {
		return nil, fmt.Errorf("mpu9250: wake: %w", err)
	}
	time.Sleep(wake)
	var id [1]byte
	if err := d.d.Tx([]byte{regWhoAmI}, id[:]); err != nil {
		return nil, fmt.Errorf("mpu9250: identification read: %w", err)
	}
	if id[0] != WhoAmIMPU9250 && id[0] != WhoAmIMPU9255 {
		return nil, &UnexpectedDeviceError{Addr: addr, WhoAmI: id[0]}
	}
	d.whoami = id[0]
	return d, nil
}

// Read bursts the 14 data registers in one transaction and decodes them.
func (d *Dev) Read() (Sample, error) {
	var raw [dataLen]byte
	if err := d.d.Tx([]byte{regAccelXOutH}, raw[:]); err != nil {
		return Sample{}, fmt.Errorf("mpu9250: data read: %w", err)
	}
	return decode(raw), nil
}

// Addr returns the resolved bus address.
func (d *Dev) Addr() uint16 {
	return d.d.Addr
}

// WhoAmI returns the identification value read during New.
func (d *Dev) WhoAmI() byte {
	return d.whoami
}

// Variant names the part the identification value corresponds to.
func (d *Dev) Variant() string {
	switch d.whoami {
	case WhoAmIMPU9250:
		return "MPU-9250"
	case WhoAmIMPU9255:
		return "MPU-9255"
	}
	return fmt.Sprintf("unknown(%#02x)", d.whoami)
}

// Halt puts the device back into low-power sleep mode. Implements
// conn.Resource.
func (d *Dev) Halt() error {
	if err := d.d.Tx([]byte{regPwrMgmt1, bitSleep}, nil); err != nil {
		return fmt.Errorf("mpu9250: sleep: %w", err)
	}
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("%s{%s}", d.Variant(), d.d.String())
}

// decode converts the data register block to physical units. The register
// order is fixed by hardware: accel X/Y/Z, temperature, gyro X/Y/Z, each a
// big-endian signed 16-bit pair.
func decode(raw [dataLen]byte) Sample {
	tempC := float64(toInt16(raw[6], raw[7]))/tempLSBPerDegC + tempOffsetC
	return Sample{
		Ax:          accelFromRaw(toInt16(raw[0], raw[1])),
		Ay:          accelFromRaw(toInt16(raw[2], raw[3])),
		Az:          accelFromRaw(toInt16(raw[4], raw[5])),
		Gx:          rateFromRaw(toInt16(raw[8], raw[9])),
		Gy:          rateFromRaw(toInt16(raw[10], raw[11])),
		Gz:          rateFromRaw(toInt16(raw[12], raw[13])),
		Temperature: physic.Temperature(tempC*float64(physic.Kelvin)) + physic.ZeroCelsius,
	}
}

func accelFromRaw(raw int16) float64 {
	return float64(raw) / accelLSBPerG * gravity
}

func rateFromRaw(raw int16) float64 {
	return float64(raw) / gyroLSBPerDps * degToRad
}

// toInt16 combines a big-endian register pair into its two's-complement
// value.
func toInt16(high, low byte) int16 {
	return int16(uint16(high)<<8 | uint16(low))
}

var _ conn.Resource = &Dev{}
