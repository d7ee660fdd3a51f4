// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package imumux acquires samples from several MPU-9250 inertial
// measurement units multiplexed behind a single TCA9548A I²C switch.
//
// Because every sensor answers at the same one or two addresses, only one
// switch channel may be connected at a time and every transaction must be
// preceded by a channel select. Discover walks the configured channels,
// resolving each sensor's address from an ordered candidate list, and
// returns an Array whose slots are then sampled one channel at a time.
//
// A fault on one slot never aborts a cycle: the other slots are still
// read, and the faulted slot is attempted again on the next cycle.
package imumux
