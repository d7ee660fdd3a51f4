// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// muxdiag checks a multiplexed IMU rig end to end: switch presence, a
// scan of all 8 channels, discovery on the expected channels and one
// sample per confirmed sensor. Exits non-zero when any expected sensor is
// missing or unreadable.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/FatimaSyeda9991/IMUMultiplexer/imumux"
)

const (
	green = "\033[32m"
	red   = "\033[31m"
	reset = "\033[0m"
)

var (
	busName  = flag.String("bus", "", "I²C bus to use (empty for the first one)")
	muxAddr  = flag.Uint("mux", 0x70, "switch address")
	channels = flag.String("channels", "2,3,4", "comma-separated channels expected to carry a sensor")
	addrs    = flag.String("addrs", "0x69,0x68", "comma-separated candidate sensor addresses, in probe order")
)

func main() {
	flag.Parse()
	w := colorable.NewColorableStdout()

	cfg := &imumux.Config{MuxAddr: uint16(*muxAddr)}
	var err error
	if cfg.Channels, err = parseChannels(*channels); err != nil {
		log.Fatal(err)
	}
	if cfg.Addresses, err = parseAddrs(*addrs); err != nil {
		log.Fatal(err)
	}

	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	bus, err := i2creg.Open(*busName)
	if err != nil {
		log.Fatalf("failed to open I²C: %v", err)
	}
	defer bus.Close()

	fmt.Fprintf(w, "Scanning all channels of the switch at %#02x on %s...\n", cfg.MuxAddr, bus)
	reports, err := imumux.Scan(bus, cfg)
	if err != nil {
		// A dead switch leaves nothing to diagnose downstream.
		log.Fatal(err)
	}
	for _, rep := range reports {
		printReport(w, rep)
	}

	fmt.Fprintf(w, "\nDiscovering sensors on channels %v...\n", cfg.Channels)
	array, err := imumux.Discover(bus, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer array.Halt()

	bad := 0
	for _, ch := range cfg.Channels {
		slot, ok := array.Slot(ch)
		if !ok {
			fail(w, "channel %d: no sensor confirmed", ch)
			bad++
			continue
		}
		pass(w, "channel %d: %s at %#02x (WHO_AM_I=%#02x)", ch, slot.Variant(), slot.Addr(), slot.WhoAmI())
	}

	fmt.Fprintln(w, "\nOne sample per confirmed sensor:")
	for _, r := range array.ReadAll().Readings {
		if r.Err != nil {
			fail(w, "channel %d: %v", r.Channel, r.Err)
			bad++
			continue
		}
		pass(w, "channel %d: %s", r.Channel, r.Sample)
	}

	if bad > 0 {
		fmt.Fprintf(w, "\n%d problem(s) on %d expected channel(s)\n", bad, len(cfg.Channels))
		os.Exit(1)
	}
	fmt.Fprintf(w, "\nall %d sensors working\n", len(cfg.Channels))
}

func printReport(w io.Writer, rep imumux.ChannelReport) {
	if rep.SelectErr != nil {
		fail(w, "channel %d: select failed: %v", rep.Channel, rep.SelectErr)
		return
	}
	if addr, whoami, ok := rep.Found(); ok {
		pass(w, "channel %d: sensor at %#02x (WHO_AM_I=%#02x)", rep.Channel, addr, whoami)
		return
	}
	for _, p := range rep.Probes {
		if p.WhoAmI != 0 {
			fmt.Fprintf(w, "  channel %d: %#02x answered with unexpected WHO_AM_I=%#02x\n", rep.Channel, p.Addr, p.WhoAmI)
			return
		}
	}
	fmt.Fprintf(w, "  channel %d: nothing found\n", rep.Channel)
}

func pass(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, green+"✓ "+reset+format+"\n", args...)
}

func fail(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, red+"✗ "+reset+format+"\n", args...)
}

func parseChannels(s string) ([]uint8, error) {
	var out []uint8
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 0, 8)
		if err != nil {
			return nil, fmt.Errorf("bad channel %q: %v", part, err)
		}
		out = append(out, uint8(v))
	}
	return out, nil
}

func parseAddrs(s string) ([]uint16, error) {
	var out []uint16
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 0, 16)
		if err != nil {
			return nil, fmt.Errorf("bad address %q: %v", part, err)
		}
		out = append(out, uint16(v))
	}
	return out, nil
}
