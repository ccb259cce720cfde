package ddc

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ProbeTimeout bounds a full bus scan, which is much slower than a single
// register read.
const ProbeTimeout = 60 * time.Second

// Monitor is one entry of ddccontrol -p output.
type Monitor struct {
	Device string `json:"device" yaml:"device"`
	Name   string `json:"name" yaml:"name"`
	Input  string `json:"input" yaml:"input"`
	DDCCI  bool   `json:"ddcci" yaml:"ddcci"`
}

// Probe scans every I2C bus for monitors. It is meant for install time,
// picking the device to put in the config.
func Probe(ctx context.Context, r Runner, binary string) ([]Monitor, error) {
	if r == nil {
		r = ExecRunner{}
	}
	if binary == "" {
		binary = DefaultBinary
	}

	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	out, err := r.Run(ctx, binary, "-p")
	if err := classify(err, out); err != nil {
		return nil, fmt.Errorf("probe monitors: %w", err)
	}
	return ParseProbe(string(out)), nil
}

// ParseProbe extracts monitor blocks from ddccontrol -p output:
//
//	 - Device: dev:/dev/i2c-4
//	   DDC/CI supported: Yes
//	   Monitor Name: Dell U2415 (DVI)
//	   Input type: Digital
func ParseProbe(out string) []Monitor {
	var (
		monitors []Monitor
		cur      *Monitor
	)

	for _, raw := range strings.Split(out, "\n") {
		line := strings.TrimSpace(raw)

		if rest, ok := strings.CutPrefix(line, "- Device:"); ok {
			monitors = append(monitors, Monitor{
				Device: strings.TrimPrefix(strings.TrimSpace(rest), "dev:"),
			})
			cur = &monitors[len(monitors)-1]
			continue
		}
		if cur == nil {
			continue
		}

		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch strings.TrimSpace(key) {
		case "DDC/CI supported":
			cur.DDCCI = strings.EqualFold(val, "yes")
		case "Monitor Name":
			cur.Name = val
		case "Input type":
			cur.Input = val
		}
	}

	return monitors
}

// Best picks the first monitor that speaks DDC/CI.
func Best(monitors []Monitor) (Monitor, bool) {
	for _, m := range monitors {
		if m.DDCCI {
			return m, true
		}
	}
	return Monitor{}, false
}
