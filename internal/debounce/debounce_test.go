package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
	delays []time.Duration
}

func (c *fakeClock) after(d time.Duration, f func()) timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	c.delays = append(c.delays, d)
	return t
}

// fireAll runs every timer callback, including stopped ones, the way a
// time.AfterFunc that raced with Stop would.
func (c *fakeClock) fireAll() {
	c.mu.Lock()
	timers := append([]*fakeTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range timers {
		t.f()
	}
}

type recorder struct {
	mu  sync.Mutex
	got []int
}

func (r *recorder) apply(v int) {
	r.mu.Lock()
	r.got = append(r.got, v)
	r.mu.Unlock()
}

func (r *recorder) values() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.got...)
}

func newFake(delay time.Duration) (*Debouncer[int], *fakeClock, *recorder) {
	rec := &recorder{}
	clk := &fakeClock{}
	d := New(delay, rec.apply)
	d.after = clk.after
	return d, clk, rec
}

func TestRequestOnlyLastValueApplied(t *testing.T) {
	tests := []struct {
		name string
		seq  []int
		want []int
	}{
		{name: "single", seq: []int{40}, want: []int{40}},
		{name: "burst", seq: []int{10, 20, 30, 75}, want: []int{75}},
		{name: "repeated", seq: []int{50, 50, 50}, want: []int{50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, clk, rec := newFake(150 * time.Millisecond)
			for _, v := range tt.seq {
				d.Request(v)
			}
			clk.fireAll()
			require.Equal(t, tt.want, rec.values())

			for _, delay := range clk.delays {
				require.Equal(t, 150*time.Millisecond, delay)
			}
		})
	}
}

func TestFireConsumesOnce(t *testing.T) {
	d, clk, rec := newFake(time.Millisecond)
	d.Request(5)
	clk.fireAll()
	clk.fireAll()

	require.Equal(t, []int{5}, rec.values())
	_, ok := d.Pending()
	require.False(t, ok)
}

func TestCancel(t *testing.T) {
	d, clk, rec := newFake(time.Millisecond)
	require.False(t, d.Cancel())

	d.Request(30)
	v, ok := d.Pending()
	require.True(t, ok)
	require.Equal(t, 30, v)

	require.True(t, d.Cancel())
	clk.fireAll()
	require.Empty(t, rec.values())
}

func TestFlush(t *testing.T) {
	d, clk, rec := newFake(time.Hour)
	require.False(t, d.Flush())

	d.Request(1)
	d.Request(2)
	require.True(t, d.Flush())
	require.Equal(t, []int{2}, rec.values())

	clk.fireAll()
	require.Equal(t, []int{2}, rec.values())
}

func TestRequestAfterFireArmsAgain(t *testing.T) {
	d, clk, rec := newFake(time.Millisecond)
	d.Request(10)
	clk.fireAll()
	d.Request(20)
	clk.fireAll()

	require.Equal(t, []int{10, 20}, rec.values())
}

func TestRealTimer(t *testing.T) {
	rec := &recorder{}
	d := New(20*time.Millisecond, rec.apply)
	for i := 0; i <= 100; i += 10 {
		d.Request(i)
	}

	require.Eventually(t, func() bool { return len(rec.values()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, []int{100}, rec.values())
}

func TestSetDelay(t *testing.T) {
	d, clk, _ := newFake(time.Millisecond)
	d.SetDelay(100 * time.Millisecond)
	require.Equal(t, 100*time.Millisecond, d.Delay())

	d.Request(1)
	require.Equal(t, []time.Duration{100 * time.Millisecond}, clk.delays)
}
