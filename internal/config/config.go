package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/wyoming-ledring/internal/color"
	"github.com/coreman2200/wyoming-ledring/internal/led"
	"github.com/coreman2200/wyoming-ledring/internal/ring"
	"github.com/coreman2200/wyoming-ledring/internal/router"
)

type Ring struct {
	Offset  int  `yaml:"offset"`
	Reverse bool `yaml:"reverse"`
}

type SPI struct {
	Dev string `yaml:"dev"` // e.g. /dev/spidev0.0, "" for the first port
}

type Policy struct {
	Base   string                 `yaml:"base"` // "service" | "library"
	Events map[string]router.Rule `yaml:"events,omitempty"`
}

type Monitor struct {
	Addr string `yaml:"addr,omitempty"` // e.g. :8088, empty disables
}

type Boot struct {
	Pulse time.Duration `yaml:"pulse"` // 0 skips the boot pulse
}

type Config struct {
	URI              string  `yaml:"uri"`
	Driver           string  `yaml:"driver"` // auto | gpio | spi | console | sim
	Pin              string  `yaml:"pin"`
	Pixels           int     `yaml:"pixels"`
	Brightness       float64 `yaml:"brightness"`
	PrimaryColor     string  `yaml:"primary_color"`
	SecondaryColor   string  `yaml:"secondary_color"`
	AllowMissingLEDs bool    `yaml:"allow_missing_leds"`
	Debug            bool    `yaml:"debug"`

	Ring        Ring          `yaml:"ring"`
	Power       led.Power     `yaml:"power"`
	SPI         SPI           `yaml:"spi,omitempty"`
	Policy      Policy        `yaml:"policy"`
	Monitor     Monitor       `yaml:"monitor,omitempty"`
	Boot        Boot          `yaml:"boot"`
	JoinTimeout time.Duration `yaml:"join_timeout"`
}

func Default() *Config {
	return &Config{
		Driver:         led.DriverAuto,
		Pin:            "D18",
		Pixels:         12,
		Brightness:     0.4,
		PrimaryColor:   "0x0080FF",
		SecondaryColor: "0x007A37",
		Policy:         Policy{Base: router.ServicePolicy},
		Boot:           Boot{Pulse: time.Second},
		JoinTimeout:    ring.DefaultJoinTimeout,
	}
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Palette parses the configured colors.
func (c *Config) Palette() (color.Palette, error) {
	p, err := color.ParseHex(c.PrimaryColor)
	if err != nil {
		return color.Palette{}, fmt.Errorf("primary_color: %w", err)
	}
	s, err := color.ParseHex(c.SecondaryColor)
	if err != nil {
		return color.Palette{}, fmt.Errorf("secondary_color: %w", err)
	}
	return color.Palette{Primary: p, Secondary: s}, nil
}

// BuildPolicy resolves the base policy and its per-event overrides.
func (c *Config) BuildPolicy() (router.Policy, error) {
	return router.Build(c.Policy.Base, c.Policy.Events)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Pixels <= 0 {
		errs = append(errs, fmt.Errorf("pixels must be > 0, got %d", c.Pixels))
	}
	if c.Brightness < 0 || c.Brightness > 1 {
		errs = append(errs, fmt.Errorf("brightness must be in [0,1], got %g", c.Brightness))
	}
	if !slices.Contains(led.Drivers, c.Driver) {
		errs = append(errs, fmt.Errorf("unknown driver %q (want one of %v)", c.Driver, led.Drivers))
	}
	if _, err := c.Palette(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.BuildPolicy(); err != nil {
		errs = append(errs, err)
	}
	if c.JoinTimeout < 0 || c.Boot.Pulse < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.Power.WhiteCap < 0 || c.Power.WhiteCap > 1 {
		errs = append(errs, fmt.Errorf("power.white_cap must be in [0,1], got %g", c.Power.WhiteCap))
	}
	return errors.Join(errs...)
}
