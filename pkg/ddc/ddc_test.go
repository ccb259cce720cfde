package ddc

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	out   string
	err   error
	calls []call
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	return []byte(f.out), f.err
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		wantCur int
		wantMax int
		wantOK  bool
	}{
		{
			name:    "plus form",
			out:     "Reading 0x10...\nControl 0x10: +/70/100 C [Brightness]\n",
			wantCur: 70, wantMax: 100, wantOK: true,
		},
		{
			name:    "current value form",
			out:     "ddccontrol version 0.4.4\n > current value = 42, max value = 100\n",
			wantCur: 42, wantOK: true,
		},
		{
			name:   "no value",
			out:    "No monitor supporting DDC/CI available.\n",
			wantOK: false,
		},
		{
			name:    "first match wins",
			out:     "Control 0x10: +/5/100\nControl 0x10: +/90/100\n",
			wantCur: 5, wantMax: 100, wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur, max, ok := ParseValue(tt.out)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.wantCur, cur)
			require.Equal(t, tt.wantMax, max)
		})
	}
}

func TestNewDefaults(t *testing.T) {
	c := New("", "")
	require.Equal(t, "/dev/i2c-3", c.Device)
	require.Equal(t, "0x10", c.Register)
	require.Equal(t, "ddccontrol", c.Binary)
	require.Equal(t, DefaultTimeout, c.Timeout)
}

func TestGet(t *testing.T) {
	r := &fakeRunner{out: "Control 0x10: +/63/100 [Brightness]\n"}
	c := New("/dev/i2c-5", "0x10", WithRunner(r))

	v, err := c.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 63, v)
	require.Equal(t, []call{{name: "ddccontrol", args: []string{"-r", "0x10", "dev:/dev/i2c-5"}}}, r.calls)
}

func TestGetNoValue(t *testing.T) {
	r := &fakeRunner{out: "garbage"}
	c := New("", "", WithRunner(r))

	_, err := c.Get(context.Background())
	require.ErrorIs(t, err, ErrNoValue)
}

func TestSetClamps(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{in: -20, want: "0"},
		{in: 0, want: "0"},
		{in: 55, want: "55"},
		{in: 100, want: "100"},
		{in: 250, want: "100"},
	}

	for _, tt := range tests {
		r := &fakeRunner{}
		c := New("", "", WithRunner(r), WithBinary("/usr/bin/ddccontrol"))
		require.NoError(t, c.Set(context.Background(), tt.in))
		require.Equal(t, []call{{
			name: "/usr/bin/ddccontrol",
			args: []string{"-r", "0x10", "-w", tt.want, "dev:/dev/i2c-3"},
		}}, r.calls)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "missing binary", err: &exec.Error{Name: "ddccontrol", Err: exec.ErrNotFound}, want: ErrNotInstalled},
		{name: "permission", err: &ExitError{Err: errors.New("exit status 1"), Stderr: "open /dev/i2c-3: Permission denied"}, want: ErrPermission},
		{name: "no monitor", err: &ExitError{Err: errors.New("exit status 1"), Stderr: "No monitor supporting DDC/CI available."}, want: ErrNoMonitor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("", "", WithRunner(&fakeRunner{err: tt.err}))
			err := c.Set(context.Background(), 10)
			require.ErrorIs(t, err, tt.want)
			require.NotEqual(t, "ddccontrol failed", Reason(err))
		})
	}
}

func TestTimeoutApplied(t *testing.T) {
	var deadline time.Time
	r := RunnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		deadline, _ = ctx.Deadline()
		return []byte("Control 0x10: +/1/100"), nil
	})
	c := New("", "", WithRunner(r), WithTimeout(2*time.Second))

	start := time.Now()
	_, err := c.Get(context.Background())
	require.NoError(t, err)
	require.WithinDuration(t, start.Add(2*time.Second), deadline, time.Second)
}

func TestReason(t *testing.T) {
	require.Empty(t, Reason(nil))
	require.Equal(t, "ddccontrol failed", Reason(errors.New("boom")))
	require.Equal(t, "ddccontrol timed out", Reason(context.DeadlineExceeded))
}
