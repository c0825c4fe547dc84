package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coreman2200/wyoming-ledring/internal/config"
	"github.com/coreman2200/wyoming-ledring/internal/led"
)

var (
	configPath string
	// flagCfg receives flag values; only flags the user set are copied over
	// the loaded config.
	flagCfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "ledring",
	Short: "Drive a WS2812 LED ring from Wyoming satellite events",
	Long: `ledring listens for Wyoming protocol events (wake word detection, voice
activity, audio playback) and animates an addressable LED ring to match.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zerolog.TimeFieldFormat = time.RFC3339
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		if flagCfg.Debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
		return nil
	},
	RunE: runServe,
}

func init() {
	addFlags(rootCmd.PersistentFlags(), flagCfg)
	rootCmd.AddCommand(selftestCmd, configCmd)
}

func addFlags(fs *pflag.FlagSet, c *config.Config) {
	fs.StringVar(&configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&c.URI, "uri", c.URI, "unix:// or tcp:// address to listen on")
	fs.IntVar(&c.Pixels, "pixels", c.Pixels, "number of LEDs in the ring")
	fs.Float64Var(&c.Brightness, "brightness", c.Brightness, "global brightness 0..1")
	fs.StringVar(&c.Pin, "pin", c.Pin, "board pin driving the ring (e.g. 'D18', 'GPIO18', or '18')")
	fs.StringVar(&c.PrimaryColor, "primary-color", c.PrimaryColor, "hex color used for the main animation")
	fs.StringVar(&c.SecondaryColor, "secondary-color", c.SecondaryColor, "hex color used for the secondary animation")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "log DEBUG messages")
	fs.StringVar(&c.Driver, "driver", c.Driver, fmt.Sprintf("LED driver: %v", led.Drivers))
	fs.StringVar(&c.SPI.Dev, "spi-dev", c.SPI.Dev, "SPI port for the spi driver (default: first port)")
	fs.StringVar(&c.Policy.Base, "policy", c.Policy.Base, "event mapping: service | library")
	fs.StringVar(&c.Monitor.Addr, "monitor-addr", c.Monitor.Addr, "HTTP address for the frame monitor (e.g. :8088)")
	fs.BoolVar(&c.AllowMissingLEDs, "allow-missing-leds", c.AllowMissingLEDs, "keep serving events when no LED hardware is found")
}

// overrides copies a set flag from the flag config onto the effective one.
var overrides = map[string]func(dst, src *config.Config){
	"uri":                func(d, s *config.Config) { d.URI = s.URI },
	"pixels":             func(d, s *config.Config) { d.Pixels = s.Pixels },
	"brightness":         func(d, s *config.Config) { d.Brightness = s.Brightness },
	"pin":                func(d, s *config.Config) { d.Pin = s.Pin },
	"primary-color":      func(d, s *config.Config) { d.PrimaryColor = s.PrimaryColor },
	"secondary-color":    func(d, s *config.Config) { d.SecondaryColor = s.SecondaryColor },
	"debug":              func(d, s *config.Config) { d.Debug = s.Debug },
	"driver":             func(d, s *config.Config) { d.Driver = s.Driver },
	"spi-dev":            func(d, s *config.Config) { d.SPI.Dev = s.SPI.Dev },
	"policy":             func(d, s *config.Config) { d.Policy.Base = s.Policy.Base },
	"monitor-addr":       func(d, s *config.Config) { d.Monitor.Addr = s.Monitor.Addr },
	"allow-missing-leds": func(d, s *config.Config) { d.AllowMissingLEDs = s.AllowMissingLEDs },
}

// resolveConfig layers defaults, the config file and explicitly set flags.
func resolveConfig(fs *pflag.FlagSet, path string, flags *config.Config) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		c, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	fs.Visit(func(f *pflag.Flag) {
		if apply, ok := overrides[f.Name]; ok {
			apply(cfg, flags)
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
}
