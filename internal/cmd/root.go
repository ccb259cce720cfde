package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/hoppxi/ddc-brightness/internal/brightness"
	"github.com/hoppxi/ddc-brightness/internal/manager"
	"github.com/hoppxi/ddc-brightness/pkg/ddc"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var Version = "0.1.0"

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:     manager.AppName,
	Version: Version,
	Short:   "Tray slider for external monitor brightness over DDC/CI",
	Long: `ddc-brightness puts a brightness slider in the system tray and drives the
monitor through ddccontrol (DDC/CI over I2C).`,
	Example: `  ddc-brightness                       # tray icon (default)
  ddc-brightness --standalone          # floating window
  ddc-brightness --device /dev/i2c-5   # use a different I2C bus
  ddc-brightness --set 40              # set and exit
  ddc-brightness --get                 # print and exit`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(verbose)
	},
	RunE: runRoot,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+manager.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().String("binary", ddc.DefaultBinary, "ddccontrol executable")

	f := rootCmd.Flags()
	f.StringP("device", "d", ddc.DefaultDevice, "I2C device path")
	f.StringP("register", "r", ddc.DefaultRegister, "DDC register for brightness")
	f.Int("min", ddc.MinPercent, "Minimum brightness value")
	f.Int("max", ddc.MaxPercent, "Maximum brightness value")
	f.Int("step", 5, "Slider step size")
	f.Int("scroll-step", 1, "Step used by ctl up/down")
	f.Bool("standalone", false, "Show as a floating window instead of a tray icon")
	f.Int("set", 0, "Set brightness to `VALUE` and exit (no GUI)")
	f.Bool("get", false, "Print current brightness and exit (no GUI)")

	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(ctlCmd)
}

func runRoot(cmd *cobra.Command, args []string) error {
	s, err := manager.Config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	get, _ := cmd.Flags().GetBool("get")
	if get {
		return runGet(cmd.Context(), s)
	}
	if cmd.Flags().Changed("set") {
		v, _ := cmd.Flags().GetInt("set")
		return runSet(cmd.Context(), s, v)
	}

	return runApplet(s)
}

func newController(s *manager.Settings) *ddc.Controller {
	return ddc.New(s.Device, s.Register, ddc.WithBinary(s.Binary), ddc.WithTimeout(s.Timeout))
}

func newService(dev brightness.Device, s *manager.Settings) (*brightness.Service, error) {
	return brightness.New(dev, brightness.Options{
		Min:       s.Min,
		Max:       s.Max,
		Delay:     s.Debounce,
		StepDelay: s.StepDebounce,
	})
}

func runGet(ctx context.Context, s *manager.Settings) error {
	v, err := newController(s).Get(orBackground(ctx))
	if err != nil {
		return fmt.Errorf("could not read brightness: %w", err)
	}
	fmt.Println(v)
	return nil
}

func runSet(ctx context.Context, s *manager.Settings, value int) error {
	svc, err := newService(newController(s), s)
	if err != nil {
		return err
	}
	v, err := svc.Apply(orBackground(ctx), value)
	if err != nil {
		return fmt.Errorf("could not set brightness: %w", err)
	}
	log.Debug().Int("value", v).Msg("brightness applied")
	return nil
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
