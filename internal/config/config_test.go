package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/wyoming-ledring/internal/color"
	"github.com/coreman2200/wyoming-ledring/internal/router"
	"github.com/coreman2200/wyoming-ledring/internal/wyoming"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	p, err := c.Palette()
	require.NoError(t, err)
	assert.Equal(t, color.DefaultPalette, p)
	assert.Equal(t, 12, c.Pixels)
	assert.Equal(t, 0.4, c.Brightness)
	assert.Equal(t, time.Second, c.JoinTimeout)
}

func TestLoadOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledring.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
uri: tcp://0.0.0.0:10500
pixels: 24
primary_color: "#ff0000"
ring:
  offset: 3
  reverse: true
power:
  budget_ma: 500
policy:
  base: library
  events:
    played:
      effect: pulse
      duration: 250ms
join_timeout: 500ms
`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	assert.Equal(t, "tcp://0.0.0.0:10500", c.URI)
	assert.Equal(t, 24, c.Pixels)
	assert.Equal(t, 0.4, c.Brightness)
	assert.Equal(t, "D18", c.Pin)
	assert.Equal(t, Ring{Offset: 3, Reverse: true}, c.Ring)
	assert.Equal(t, 500.0, c.Power.BudgetMA)
	assert.Equal(t, 500*time.Millisecond, c.JoinTimeout)

	p, err := c.BuildPolicy()
	require.NoError(t, err)
	assert.Equal(t, router.Action{Effect: router.Pulse, Duration: 250 * time.Millisecond}, p[wyoming.Played])
	assert.Equal(t, router.Think, p[wyoming.VoiceStopped].Effect)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	c := Default()
	c.URI = "unix:///run/ledring.sock"
	c.Monitor.Addr = ":8088"
	c.Policy.Events = map[string]router.Rule{wyoming.Detection: {Effect: "mono", Color: "#00ff00"}}
	require.NoError(t, Save(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"pixels":     func(c *Config) { c.Pixels = 0 },
		"brightness": func(c *Config) { c.Brightness = 1.5 },
		"driver":     func(c *Config) { c.Driver = "pwm" },
		"color":      func(c *Config) { c.SecondaryColor = "green" },
		"policy":     func(c *Config) { c.Policy.Base = "cloud" },
		"override":   func(c *Config) { c.Policy.Events = map[string]router.Rule{"played": {Effect: "strobe"}} },
		"duration":   func(c *Config) { c.JoinTimeout = -time.Second },
		"white cap":  func(c *Config) { c.Power.WhiteCap = 2 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
