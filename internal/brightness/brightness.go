// Package brightness keeps the applet's view of the monitor brightness and
// funnels every change through debounced writes to the device.
package brightness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hoppxi/ddc-brightness/internal/debounce"
	"github.com/hoppxi/ddc-brightness/pkg/ddc"
	"github.com/rs/zerolog/log"
)

const (
	DefaultDelay     = 150 * time.Millisecond
	DefaultStepDelay = 100 * time.Millisecond
)

// Device is the hardware side, satisfied by *ddc.Controller.
type Device interface {
	Get(ctx context.Context) (int, error)
	Set(ctx context.Context, value int) error
}

// State is what subscribers see after every change.
type State struct {
	Value int
	Known bool
	Err   error
}

func (s State) Available() bool {
	return s.Known && s.Err == nil
}

type Options struct {
	Min       int
	Max       int
	Delay     time.Duration
	StepDelay time.Duration
}

// target is a value to write, tagged with the request that produced it.
type target struct {
	value int
	gen   uint64
}

type Service struct {
	dev     Device
	slider  *debounce.Debouncer[target]
	stepper *debounce.Debouncer[target]

	// writeMu serializes device writes across both debouncers and Apply.
	writeMu sync.Mutex

	mu        sync.Mutex
	min, max  int
	state     State
	gen       uint64
	listeners []func(State)
}

var ErrRange = errors.New("invalid brightness range")

func New(dev Device, opts Options) (*Service, error) {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.StepDelay <= 0 {
		opts.StepDelay = DefaultStepDelay
	}
	if err := checkRange(opts.Min, opts.Max); err != nil {
		return nil, err
	}

	s := &Service{dev: dev, min: opts.Min, max: opts.Max}
	s.slider = debounce.New(opts.Delay, s.write)
	s.stepper = debounce.New(opts.StepDelay, s.write)
	return s, nil
}

func checkRange(min, max int) error {
	if min < ddc.MinPercent || max > ddc.MaxPercent || min >= max {
		return fmt.Errorf("%w: [%d,%d] must be inside [%d,%d]", ErrRange, min, max, ddc.MinPercent, ddc.MaxPercent)
	}
	return nil
}

// SetRange narrows or widens the accepted range. The cached value is
// clamped into the new range but nothing is written.
func (s *Service) SetRange(min, max int) error {
	if err := checkRange(min, max); err != nil {
		return err
	}
	s.mu.Lock()
	s.min, s.max = min, max
	if s.state.Known {
		s.state.Value = ddc.Clamp(s.state.Value, min, max)
	}
	st := s.state
	s.mu.Unlock()

	s.publish(st)
	return nil
}

func (s *Service) Range() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.min, s.max
}

func (s *Service) SetDelays(delay, stepDelay time.Duration) {
	if delay > 0 {
		s.slider.SetDelay(delay)
	}
	if stepDelay > 0 {
		s.stepper.SetDelay(stepDelay)
	}
}

func (s *Service) clamp(v int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ddc.Clamp(v, s.min, s.max)
}

// Subscribe registers fn for state changes. fn runs on whatever goroutine
// caused the change.
func (s *Service) Subscribe(fn func(State)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Service) publish(st State) {
	s.mu.Lock()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(st)
	}
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Service) update(f func(st *State)) State {
	s.mu.Lock()
	f(&s.state)
	st := s.state
	s.mu.Unlock()

	s.publish(st)
	return st
}

// Refresh reads the device and publishes the result.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	v, err := s.dev.Get(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read brightness")
		s.update(func(st *State) { st.Err = err })
		return 0, err
	}

	log.Debug().Int("value", v).Msg("read brightness")
	s.update(func(st *State) {
		st.Value = v
		st.Known = true
		st.Err = nil
	})
	return v, nil
}

// next starts a new request. Writes tagged with an older generation are
// dropped.
func (s *Service) next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

func (s *Service) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

// Request is the slider path: the value is clamped, cached and written
// once the slider has been still for the debounce delay.
func (s *Service) Request(percent int) int {
	v := s.clamp(percent)
	s.stepper.Cancel()
	gen := s.next()
	s.update(func(st *State) {
		st.Value = v
		st.Known = true
	})
	s.slider.Request(target{value: v, gen: gen})
	return v
}

// Apply writes percent right away, dropping anything still pending. It
// waits for a write already in progress.
func (s *Service) Apply(ctx context.Context, percent int) (int, error) {
	v := s.clamp(percent)
	s.slider.Cancel()
	s.stepper.Cancel()

	return v, s.set(ctx, target{value: v, gen: s.next()})
}

// Step moves the brightness by delta relative to the cached value, reading
// the device once if nothing is cached yet. Steps are coalesced with their
// own, shorter delay. It returns the new target.
func (s *Service) Step(ctx context.Context, delta int) (int, error) {
	st := s.State()
	cur := st.Value
	if !st.Known {
		v, err := s.Refresh(ctx)
		if err != nil {
			return 0, err
		}
		cur = v
	}

	v := s.clamp(cur + delta)
	if v == cur {
		return v, nil
	}

	s.slider.Cancel()
	gen := s.next()
	s.update(func(st *State) {
		st.Value = v
		st.Known = true
	})
	s.stepper.Request(target{value: v, gen: gen})
	return v, nil
}

// write is the debounce callback.
func (s *Service) write(t target) {
	_ = s.set(context.Background(), t)
}

// set writes t unless a newer request has replaced it by the time the
// previous write finishes.
func (s *Service) set(ctx context.Context, t target) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.current(t.gen) {
		log.Debug().Int("value", t.value).Msg("dropping superseded write")
		return nil
	}

	v := t.value
	if err := s.dev.Set(ctx, v); err != nil {
		log.Error().Err(err).Int("value", v).Msg("failed to set brightness")
		s.update(func(st *State) { st.Err = err })
		return err
	}

	log.Debug().Int("value", v).Msg("brightness set")
	s.update(func(st *State) {
		// A request made while writing already cached its own value.
		if s.gen == t.gen {
			st.Value = v
			st.Known = true
		}
		st.Err = nil
	})
	return nil
}

// Pending reports a value waiting on either debouncer.
func (s *Service) Pending() (int, bool) {
	if t, ok := s.slider.Pending(); ok {
		return t.value, true
	}
	t, ok := s.stepper.Pending()
	return t.value, ok
}

// Close applies whatever is still pending.
func (s *Service) Close() {
	s.slider.Flush()
	s.stepper.Flush()
}
