package cmd

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hoppxi/ddc-brightness/internal/manager"
	"github.com/hoppxi/ddc-brightness/pkg/ddc"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestWrittenConfigLoads(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	conf := defaultFileConfig("/dev/i2c-7")
	conf.Min = 10
	conf.Standalone = true
	require.NoError(t, writeFileConfig(path, conf))

	s, err := manager.Config.Load(path, pflag.NewFlagSet("test", pflag.ContinueOnError))
	require.NoError(t, err)
	require.Equal(t, "/dev/i2c-7", s.Device)
	require.Equal(t, ddc.DefaultRegister, s.Register)
	require.Equal(t, 10, s.Min)
	require.True(t, s.Standalone)
	require.Equal(t, "150ms", s.Debounce.String())
}

func TestAskFileConfig(t *testing.T) {
	in := strings.Join([]string{
		"/dev/i2c-5", // device
		"",           // register
		"5",          // min
		"abc",        // max, rejected
		"90",         // max
		"",           // step
		"y",          // standalone
		"",           // keep notifications
	}, "\n") + "\n"

	var out bytes.Buffer
	conf := defaultFileConfig(ddc.DefaultDevice)
	askFileConfig(bufio.NewReader(strings.NewReader(in)), &out, &conf)

	require.Equal(t, "/dev/i2c-5", conf.Device)
	require.Equal(t, ddc.DefaultRegister, conf.Register)
	require.Equal(t, 5, conf.Min)
	require.Equal(t, 90, conf.Max)
	require.Equal(t, 5, conf.Step)
	require.True(t, conf.Standalone)
	require.True(t, conf.Notify)
	require.Contains(t, out.String(), `"abc" is not a number`)
}

func TestFileConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *FileConfig)
		ok     bool
	}{
		{name: "defaults", modify: func(c *FileConfig) {}, ok: true},
		{name: "min above max", modify: func(c *FileConfig) { c.Min, c.Max = 90, 20 }},
		{name: "max out of range", modify: func(c *FileConfig) { c.Max = 150 }},
		{name: "zero step", modify: func(c *FileConfig) { c.Step = 0 }},
		{name: "bad debounce", modify: func(c *FileConfig) { c.Debounce = "soon" }},
	}

	for _, tt := range tests {
		conf := defaultFileConfig(ddc.DefaultDevice)
		tt.modify(&conf)
		err := conf.Validate()
		if tt.ok {
			require.NoError(t, err, tt.name)
			continue
		}
		require.ErrorIs(t, err, manager.ErrInvalidConfig, tt.name)
	}
}

func TestSetupReasksInvalidRange(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")

	answers := []string{
		"", "", "90", "20", "", "", "", // min above max
		"", "", "10", "80", "", "", "", // accepted
		"n", // no autostart
	}
	in := strings.Join(answers, "\n") + "\n"

	var out bytes.Buffer
	setupNoProbe = true
	configPath = path
	t.Cleanup(func() { setupNoProbe, configPath = false, "" })

	setupCmd.SetIn(strings.NewReader(in))
	setupCmd.SetOut(&out)
	require.NoError(t, setupCmd.RunE(setupCmd, nil))
	require.Contains(t, out.String(), "please try again")

	s, err := manager.Config.Load(path, pflag.NewFlagSet("test", pflag.ContinueOnError))
	require.NoError(t, err)
	require.Equal(t, 10, s.Min)
	require.Equal(t, 80, s.Max)
}

func TestWriteAutostart(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "autostart", "ddc-brightness.desktop")
	require.NoError(t, writeAutostart(dest, "/usr/local/bin/ddc-brightness"))

	d, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Contains(t, string(d), "Exec=/usr/local/bin/ddc-brightness\n")
	require.Contains(t, string(d), "[Desktop Entry]")
}

func TestPermissionHints(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printPermissionHints(&out))
	require.Contains(t, out.String(), `KERNEL=="i2c-[0-9]*"`)
	require.Contains(t, out.String(), "i2c-dev")
}

func TestPrintMonitors(t *testing.T) {
	var out bytes.Buffer
	printMonitors(&out, []ddc.Monitor{
		{Device: "/dev/i2c-2", Name: "Laptop panel"},
		{Device: "/dev/i2c-4", Name: "Dell U2415", DDCCI: true},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "  /dev/i2c-2"))
	require.True(t, strings.HasPrefix(lines[1], "* /dev/i2c-4"))

	out.Reset()
	printMonitors(&out, nil)
	require.Equal(t, "No monitors found.\n", out.String())
}
