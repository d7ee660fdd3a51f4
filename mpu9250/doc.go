// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mpu9250 controls an InvenSense MPU-9250 (or MPU-9255) inertial
// measurement unit over I²C.
//
// The driver wakes the part, confirms its identity through the WHO_AM_I
// register and reads the accelerometer, temperature and gyroscope registers
// in a single 14-byte burst, converting them to m/s², °C and rad/s using
// the scale factors of the wake-time configuration (±8g, ±1000°/s).
//
// The magnetometer die (AK8963) is not driven.
//
// Datasheet
// https://invensense.tdk.com/wp-content/uploads/2015/02/PS-MPU-9250A-01-v1.1.pdf
//
// Register map
// https://invensense.tdk.com/wp-content/uploads/2015/02/RM-MPU-9250A-00-v1.6.pdf
package mpu9250
