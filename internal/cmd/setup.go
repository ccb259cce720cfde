package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/hoppxi/ddc-brightness/config"
	"github.com/hoppxi/ddc-brightness/internal/brightness"
	"github.com/hoppxi/ddc-brightness/internal/manager"
	"github.com/hoppxi/ddc-brightness/pkg/ddc"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// FileConfig is what setup writes to the config file.
type FileConfig struct {
	Device     string `yaml:"device"`
	Register   string `yaml:"register"`
	Min        int    `yaml:"min"`
	Max        int    `yaml:"max"`
	Step       int    `yaml:"step"`
	Debounce   string `yaml:"debounce"`
	Standalone bool   `yaml:"standalone"`
	Notify     bool   `yaml:"notify"`
}

var (
	setupYes     bool
	setupNoProbe bool
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write a config file and optionally an autostart entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(cmd.InOrStdin())
		out := cmd.OutOrStdout()

		device := ddc.DefaultDevice
		if !setupNoProbe {
			binary, _ := cmd.Flags().GetString("binary")
			device = probeDefault(cmd.Context(), binary, out)
		}

		path := configPath
		if path == "" {
			path = manager.DefaultConfigPath()
		}
		if _, err := os.Stat(path); err == nil && !setupYes {
			fmt.Fprintf(out, "Warning: config already exists at %s\n", path)
			if !confirm(reader, out, "Overwrite it?") {
				return nil
			}
		}

		conf := defaultFileConfig(device)
		for attempt := 0; !setupYes && attempt < 3; attempt++ {
			askFileConfig(reader, out, &conf)
			err := conf.Validate()
			if err == nil {
				break
			}
			fmt.Fprintf(out, "%v, please try again.\n", err)
		}
		if err := conf.Validate(); err != nil {
			return err
		}
		if err := writeFileConfig(path, conf); err != nil {
			return err
		}
		fmt.Fprintf(out, "Config written to %s\n", path)

		if setupYes || confirm(reader, out, "Start ddc-brightness on login?") {
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("could not locate executable: %w", err)
			}
			dest := autostartPath()
			if err := writeAutostart(dest, exe); err != nil {
				return err
			}
			fmt.Fprintf(out, "Autostart entry written to %s\n", dest)
		}

		return printPermissionHints(out)
	},
}

func init() {
	setupCmd.Flags().BoolVarP(&setupYes, "yes", "y", false, "Accept all defaults without prompting")
	setupCmd.Flags().BoolVar(&setupNoProbe, "no-probe", false, "Skip ddccontrol -p when picking the default device")
}

func defaultFileConfig(device string) FileConfig {
	return FileConfig{
		Device:   device,
		Register: ddc.DefaultRegister,
		Min:      ddc.MinPercent,
		Max:      ddc.MaxPercent,
		Step:     5,
		Debounce: "150ms",
		Notify:   true,
	}
}

// Validate checks conf the way the applet will when it loads the file.
func (c FileConfig) Validate() error {
	debounce, err := time.ParseDuration(c.Debounce)
	if err != nil {
		return fmt.Errorf("%w: debounce %q: %v", manager.ErrInvalidConfig, c.Debounce, err)
	}
	s := manager.Settings{
		Device:       c.Device,
		Register:     c.Register,
		Min:          c.Min,
		Max:          c.Max,
		Step:         c.Step,
		ScrollStep:   1,
		Debounce:     debounce,
		StepDebounce: brightness.DefaultStepDelay,
	}
	return s.Validate()
}

func probeDefault(ctx context.Context, binary string, out io.Writer) string {
	fmt.Fprintln(out, "Probing for DDC/CI monitors (this can take a while)...")
	monitors, err := ddc.Probe(orBackground(ctx), ddc.ExecRunner{}, binary)
	if err != nil {
		log.Warn().Err(err).Msg("probe failed")
		return ddc.DefaultDevice
	}
	best, ok := ddc.Best(monitors)
	if !ok {
		fmt.Fprintln(out, "No monitor answered, keeping the default device.")
		return ddc.DefaultDevice
	}
	fmt.Fprintf(out, "Found %s on %s\n", best.Name, best.Device)
	return best.Device
}

func askFileConfig(reader *bufio.Reader, out io.Writer, conf *FileConfig) {
	conf.Device = prompt(reader, out, "I2C device", conf.Device)
	conf.Register = prompt(reader, out, "Brightness register", conf.Register)
	conf.Min = promptInt(reader, out, "Minimum brightness", conf.Min)
	conf.Max = promptInt(reader, out, "Maximum brightness", conf.Max)
	conf.Step = promptInt(reader, out, "Slider step", conf.Step)
	conf.Standalone = confirm(reader, out, "Use a floating window instead of the tray?")
	conf.Notify = !confirm(reader, out, "Disable desktop notifications on errors?")
}

func writeFileConfig(path string, conf FileConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	d, err := yaml.Marshal(&conf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, d, 0644)
}

func autostartPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "autostart", manager.AppName+".desktop")
}

func writeAutostart(dest, exe string) error {
	tmpl, err := template.ParseFS(config.ConfigFS(), "ddc-brightness.desktop")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()
	return tmpl.Execute(f, struct{ Exec string }{Exec: exe})
}

func printPermissionHints(out io.Writer) error {
	embeds := config.ConfigFS()
	rules, err := embeds.ReadFile("99-ddc-i2c.rules")
	if err != nil {
		return err
	}
	modules, err := embeds.ReadFile("i2c-dev.conf")
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\nIf ddccontrol reports a permission error, install this udev rule as")
	fmt.Fprintln(out, "/etc/udev/rules.d/99-ddc-i2c.rules and add yourself to the i2c group:")
	fmt.Fprintf(out, "\n%s\n", strings.TrimSpace(string(rules)))
	fmt.Fprintln(out, "\nTo load i2c-dev at boot, save this as /etc/modules-load.d/i2c-dev.conf:")
	fmt.Fprintf(out, "\n%s\n", strings.TrimSpace(string(modules)))
	return nil
}

func prompt(r *bufio.Reader, out io.Writer, label, defaultValue string) string {
	fmt.Fprintf(out, "%s [%s]: ", label, defaultValue)
	input, _ := r.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}

func promptInt(r *bufio.Reader, out io.Writer, label string, defaultValue int) int {
	for {
		input := prompt(r, out, label, strconv.Itoa(defaultValue))
		n, err := strconv.Atoi(input)
		if err == nil {
			return n
		}
		fmt.Fprintf(out, "%q is not a number\n", input)
	}
}

func confirm(r *bufio.Reader, out io.Writer, message string) bool {
	fmt.Fprintf(out, "%s (y/N): ", message)
	input, _ := r.ReadString('\n')
	input = strings.ToLower(strings.TrimSpace(input))
	return input == "y" || input == "yes"
}
