// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mpu9250

// Register subset used by this driver, per RM-MPU-9250A-00.
const (
	regAccelXOutH = 0x3B // First of the 14 contiguous data registers
	regAccelXOutL = 0x3C
	regAccelYOutH = 0x3D
	regAccelYOutL = 0x3E
	regAccelZOutH = 0x3F
	regAccelZOutL = 0x40
	regTempOutH   = 0x41
	regTempOutL   = 0x42
	regGyroXOutH  = 0x43
	regGyroXOutL  = 0x44
	regGyroYOutH  = 0x45
	regGyroYOutL  = 0x46
	regGyroZOutH  = 0x47
	regGyroZOutL  = 0x48 // Last of the 14 contiguous data registers
	regPwrMgmt1   = 0x6B // Power management 1: sleep, reset, clock source
	regPwrMgmt2   = 0x6C // Power management 2: per-axis enables
	regWhoAmI     = 0x75 // Device identification, read-only
)

const (
	bitSleep = 0x40 // regPwrMgmt1: low-power sleep mode
	bitReset = 0x80 // regPwrMgmt1: full device reset
)

// Identification values accepted as this sensor family.
const (
	WhoAmIMPU9250 byte = 0x71
	WhoAmIMPU9255 byte = 0x73
)

// dataLen is the size of the burst read covering regAccelXOutH through
// regGyroZOutL.
const dataLen = 14

// Scale factors for the full-scale ranges in effect after wake-up.
const (
	accelLSBPerG   = 4096.0  // LSB per g at ±8g
	gravity        = 9.80665 // standard gravity, m/s² per g
	tempLSBPerDegC = 333.87  // LSB per °C
	tempOffsetC    = 21.0    // °C at zero count
	gyroLSBPerDps  = 32.8    // LSB per °/s at ±1000°/s
	degToRad       = 0.0174533
)
