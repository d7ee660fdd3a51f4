// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// muxread continuously samples every confirmed sensor of a multiplexed
// IMU rig, one structured log record per reading, until interrupted.
// Interruption takes effect at the cycle boundary; no transaction is cut
// short.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dikkadev/prettyslog"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/FatimaSyeda9991/IMUMultiplexer/imumux"
)

var (
	busName = flag.String("bus", "", "I²C bus to use (empty for the first one)")
	muxAddr = flag.Uint("mux", 0x70, "switch address")
	period  = flag.Duration("period", time.Second, "sampling period")
	verbose = flag.Bool("v", false, "debug logging")
)

func main() {
	flag.Parse()
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(prettyslog.NewPrettyslogHandler("muxread",
		prettyslog.WithLevel(level),
	)))

	if _, err := host.Init(); err != nil {
		slog.Error("host init failed", "err", err)
		os.Exit(1)
	}
	bus, err := i2creg.Open(*busName)
	if err != nil {
		slog.Error("failed to open I²C bus", "bus", *busName, "err", err)
		os.Exit(1)
	}
	defer bus.Close()

	cfg := &imumux.Config{MuxAddr: uint16(*muxAddr), Period: *period}
	array, err := imumux.Discover(bus, cfg)
	if err != nil {
		slog.Error("discovery failed", "err", err)
		os.Exit(1)
	}
	slots := array.Slots()
	if len(slots) == 0 {
		slog.Error("no sensors confirmed on any configured channel")
		os.Exit(1)
	}
	for _, slot := range slots {
		slog.Info("sensor confirmed",
			"channel", slot.Channel,
			"addr", fmt.Sprintf("%#02x", slot.Addr()),
			"variant", slot.Variant(),
		)
	}

	cycles, err := array.ReadContinuous(*period)
	if err != nil {
		slog.Error("continuous read failed", "err", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		slog.Info("stopping at the next cycle boundary")
		if err := array.Halt(); err != nil {
			slog.Warn("shutdown incomplete", "err", err)
		}
	}()

	for cycle := range cycles {
		for _, r := range cycle.Readings {
			if r.Err != nil {
				slog.Warn("read fault, channel stays in rotation",
					"cycle", cycle.Seq, "channel", r.Channel, "err", r.Err)
				continue
			}
			slog.Info("sample",
				"cycle", cycle.Seq,
				"channel", r.Channel,
				"ax", r.Sample.Ax, "ay", r.Sample.Ay, "az", r.Sample.Az,
				"gx", r.Sample.Gx, "gy", r.Sample.Gy, "gz", r.Sample.Gz,
				"temp_c", r.Sample.Temperature.Celsius(),
			)
		}
	}
	slog.Info("stopped")
}
