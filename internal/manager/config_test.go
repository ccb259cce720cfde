package manager

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("device", "d", "/dev/i2c-3", "")
	fs.Int("min", 0, "")
	fs.Int("max", 100, "")
	fs.Bool("standalone", false, "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	c := &ConfigManager{}
	s, err := c.Load("", testFlags(t))
	require.NoError(t, err)

	require.Equal(t, "/dev/i2c-3", s.Device)
	require.Equal(t, "0x10", s.Register)
	require.Equal(t, 0, s.Min)
	require.Equal(t, 100, s.Max)
	require.Equal(t, 5, s.Step)
	require.Equal(t, 150*time.Millisecond, s.Debounce)
	require.Equal(t, 100*time.Millisecond, s.StepDebounce)
	require.True(t, s.Notify)
	require.Empty(t, c.File())
	require.False(t, c.Watch(func(*Settings) {}))
}

func TestLoadPrecedence(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`device: /dev/i2c-7
min: 10
step: 10
debounce: 250ms
standalone: true
`), 0o644))

	t.Setenv("DDC_BRIGHTNESS_STEP", "20")

	c := &ConfigManager{}
	s, err := c.Load(path, testFlags(t, "--device", "/dev/i2c-9"))
	require.NoError(t, err)

	require.Equal(t, "/dev/i2c-9", s.Device, "flag beats file")
	require.Equal(t, 10, s.Min, "file beats default")
	require.Equal(t, 20, s.Step, "env beats file")
	require.Equal(t, 250*time.Millisecond, s.Debounce)
	require.True(t, s.Standalone)
	require.Equal(t, path, c.File())
}

func TestLoadDefaultPathPickedUp(t *testing.T) {
	isolate(t)

	require.NoError(t, os.MkdirAll(ConfigDir(), 0o755))
	require.NoError(t, os.WriteFile(DefaultConfigPath(), []byte("device: /dev/i2c-1\n"), 0o644))

	c := &ConfigManager{}
	s, err := c.Load("", nil)
	require.NoError(t, err)
	require.Equal(t, "/dev/i2c-1", s.Device)
	require.Equal(t, DefaultConfigPath(), c.File())
}

func TestLoadExplicitMissingFile(t *testing.T) {
	isolate(t)

	_, err := (&ConfigManager{}).Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	isolate(t)

	_, err := (&ConfigManager{}).Load("", testFlags(t, "--min", "80", "--max", "20"))
	require.ErrorIs(t, err, ErrInvalidConfig)
}
