// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tca9548 controls a Texas Instruments TCA9548A 8-channel I²C
// switch over I²C.
//
// The switch connects the upstream bus to any subset of its 8 downstream
// channels according to a single control byte, one bit per channel. This
// driver only ever selects a single channel at a time (or none), which is
// the only safe configuration when identical devices with identical
// addresses sit behind several channels.
//
// The part has no readable register; presence can only be inferred from
// the acknowledgment of a control write.
//
// Datasheet
// https://www.ti.com/lit/ds/symlink/tca9548a.pdf
package tca9548
