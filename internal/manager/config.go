package manager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hoppxi/ddc-brightness/internal/brightness"
	"github.com/hoppxi/ddc-brightness/pkg/ddc"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	AppName   = "ddc-brightness"
	envPrefix = "DDC_BRIGHTNESS"
)

// Settings is the merged view of defaults, config file, environment and
// flags.
type Settings struct {
	Device       string        `mapstructure:"device"`
	Register     string        `mapstructure:"register"`
	Binary       string        `mapstructure:"binary"`
	Min          int           `mapstructure:"min"`
	Max          int           `mapstructure:"max"`
	Step         int           `mapstructure:"step"`
	ScrollStep   int           `mapstructure:"scroll_step"`
	Debounce     time.Duration `mapstructure:"debounce"`
	StepDebounce time.Duration `mapstructure:"step_debounce"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Standalone   bool          `mapstructure:"standalone"`
	Notify       bool          `mapstructure:"notify"`
}

var ErrInvalidConfig = errors.New("invalid config")

func (s *Settings) Validate() error {
	var problems []string
	if s.Device == "" {
		problems = append(problems, "device is empty")
	}
	if s.Register == "" {
		problems = append(problems, "register is empty")
	}
	if s.Min < ddc.MinPercent || s.Max > ddc.MaxPercent || s.Min >= s.Max {
		problems = append(problems, fmt.Sprintf("range [%d,%d] must be inside [0,100]", s.Min, s.Max))
	}
	if s.Step <= 0 {
		problems = append(problems, "step must be positive")
	}
	if s.ScrollStep <= 0 {
		problems = append(problems, "scroll_step must be positive")
	}
	if s.Debounce <= 0 || s.StepDebounce <= 0 {
		problems = append(problems, "debounce delays must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// flagKeys maps flag names onto config keys.
var flagKeys = map[string]string{
	"device":      "device",
	"register":    "register",
	"min":         "min",
	"max":         "max",
	"step":        "step",
	"scroll-step": "scroll_step",
	"standalone":  "standalone",
	"binary":      "binary",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("device", ddc.DefaultDevice)
	v.SetDefault("register", ddc.DefaultRegister)
	v.SetDefault("binary", ddc.DefaultBinary)
	v.SetDefault("min", ddc.MinPercent)
	v.SetDefault("max", ddc.MaxPercent)
	v.SetDefault("step", 5)
	v.SetDefault("scroll_step", 1)
	v.SetDefault("debounce", brightness.DefaultDelay)
	v.SetDefault("step_debounce", brightness.DefaultStepDelay)
	v.SetDefault("timeout", ddc.DefaultTimeout)
	v.SetDefault("standalone", false)
	v.SetDefault("notify", true)
}

type ConfigManager struct {
	mu   sync.Mutex
	v    *viper.Viper
	file string
}

var Config = &ConfigManager{}

func ConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(configDir, AppName)
}

func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Load builds the settings. An explicit path must exist; the default path
// is optional.
func (c *ConfigManager) Load(path string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	file := path
	if file == "" {
		file = DefaultConfigPath()
		if _, err := os.Stat(file); err != nil {
			file = ""
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	s, err := decode(v)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.v = v
	c.file = file
	c.mu.Unlock()

	log.Debug().Str("file", file).Str("device", s.Device).Msg("config loaded")
	return s, nil
}

func decode(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// File is the config file in use, empty when running on defaults.
func (c *ConfigManager) File() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.file
}

// Watch calls onChange with freshly decoded settings whenever the config
// file changes. Invalid edits are logged and skipped.
func (c *ConfigManager) Watch(onChange func(*Settings)) bool {
	c.mu.Lock()
	v, file := c.v, c.file
	c.mu.Unlock()

	if v == nil || file == "" {
		return false
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		s, err := decode(v)
		if err != nil {
			log.Warn().Err(err).Str("file", e.Name).Msg("ignoring config change")
			return
		}
		log.Info().Str("file", e.Name).Msg("config reloaded")
		onChange(s)
	})
	v.WatchConfig()
	return true
}
