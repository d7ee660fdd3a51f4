// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package imumultiplexer is a container for the drivers and the acquisition
// pipeline of a rig of MPU-9250 inertial measurement units multiplexed
// behind a TCA9548A I²C switch.
//
// See tca9548 for the switch, mpu9250 for the sensor and imumux for
// discovery and continuous sampling across the switched channels.
package imumultiplexer
