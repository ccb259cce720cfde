// Package ddc drives monitor brightness over DDC/CI by shelling out to
// ddccontrol. The wire protocol is entirely ddccontrol's business; this
// package only builds command lines and parses what comes back.
package ddc

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDevice   = "/dev/i2c-3"
	DefaultRegister = "0x10" // VCP brightness
	DefaultBinary   = "ddccontrol"
	DefaultTimeout  = 5 * time.Second

	MinPercent = 0
	MaxPercent = 100
)

// Controller reads and writes one VCP register on one I2C device.
type Controller struct {
	Device   string
	Register string
	Binary   string
	Timeout  time.Duration

	runner Runner
}

type Option func(*Controller)

func WithRunner(r Runner) Option {
	return func(c *Controller) { c.runner = r }
}

func WithBinary(path string) Option {
	return func(c *Controller) {
		if path != "" {
			c.Binary = path
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

func New(device, register string, opts ...Option) *Controller {
	if device == "" {
		device = DefaultDevice
	}
	if register == "" {
		register = DefaultRegister
	}
	c := &Controller{
		Device:   device,
		Register: register,
		Binary:   DefaultBinary,
		Timeout:  DefaultTimeout,
		runner:   ExecRunner{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// target is the device argument in the form ddccontrol expects.
func (c *Controller) target() string {
	return "dev:" + c.Device
}

func (c *Controller) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	out, err := c.runner.Run(ctx, c.Binary, args...)
	return out, classify(err, out)
}

// Get returns the current value of the register in percent.
func (c *Controller) Get(ctx context.Context) (int, error) {
	out, err := c.run(ctx, "-r", c.Register, c.target())
	if err != nil {
		return 0, fmt.Errorf("read %s on %s: %w", c.Register, c.Device, err)
	}

	cur, _, ok := ParseValue(string(out))
	if !ok {
		return 0, fmt.Errorf("read %s on %s: %w", c.Register, c.Device, ErrNoValue)
	}
	return cur, nil
}

// Set writes value, clamped to [0,100], to the register.
func (c *Controller) Set(ctx context.Context, value int) error {
	value = Clamp(value, MinPercent, MaxPercent)
	if _, err := c.run(ctx, "-r", c.Register, "-w", strconv.Itoa(value), c.target()); err != nil {
		return fmt.Errorf("write %d to %s on %s: %w", value, c.Register, c.Device, err)
	}
	return nil
}

func (c *Controller) String() string {
	return fmt.Sprintf("%s %s", c.target(), c.Register)
}

var (
	// "Control 0x10: +/70/100 [Brightness]"
	plusRe = regexp.MustCompile(`\+/(\d+)/(\d+)`)
	// " > current value = 70"
	currentRe = regexp.MustCompile(`current\s+value\s*=\s*(\d+)`)
)

// ParseValue finds the current value in ddccontrol -r output. max is zero
// when the output did not carry one.
func ParseValue(out string) (cur, max int, ok bool) {
	for _, line := range strings.Split(out, "\n") {
		if m := plusRe.FindStringSubmatch(line); m != nil {
			cur, _ = strconv.Atoi(m[1])
			max, _ = strconv.Atoi(m[2])
			return cur, max, true
		}
		if m := currentRe.FindStringSubmatch(line); m != nil {
			cur, _ = strconv.Atoi(m[1])
			return cur, 0, true
		}
	}
	return 0, 0, false
}

func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
