package led

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio/gpiostream"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/devices/v3/screen1d"
	"periph.io/x/host/v3"
)

// RefreshRate is the WS2812 data rate in kHz.
const RefreshRate physic.Frequency = 800

const (
	DriverAuto    = "auto"
	DriverGPIO    = "gpio"
	DriverSPI     = "spi"
	DriverConsole = "console"
	DriverSim     = "sim"
)

var Drivers = []string{DriverAuto, DriverGPIO, DriverSPI, DriverConsole, DriverSim}

type Options struct {
	Driver string
	Pin    string
	SPIDev string // "" opens the first SPI port
	Count  int
}

var (
	hostOnce sync.Once
	hostErr  error
)

func initHost() error {
	hostOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			hostErr = fmt.Errorf("periph host init: %w", err)
		}
	})
	return hostErr
}

// Open selects and opens the hardware driver named by o.Driver. "auto" tries
// the GPIO pin first, then SPI.
func Open(o Options) (Driver, error) {
	if o.Count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", o.Count)
	}
	switch o.Driver {
	case DriverSim:
		return NewSim(o.Count), nil
	case DriverConsole:
		return NewDrawer(screen1d.New(&screen1d.Opts{X: o.Count}), o.Count, nil), nil
	case DriverGPIO:
		return openGPIO(o)
	case DriverSPI:
		return openSPI(o)
	case DriverAuto, "":
		d, gerr := openGPIO(o)
		if gerr == nil {
			return d, nil
		}
		log.Debug().Err(gerr).Str("pin", o.Pin).Msg("gpio stream unavailable; trying SPI")
		d, serr := openSPI(o)
		if serr == nil {
			return d, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrNoDriver, errors.Join(gerr, serr))
	}
	return nil, fmt.Errorf("unknown driver %q", o.Driver)
}

func openGPIO(o Options) (Driver, error) {
	p, err := ResolvePin(o.Pin)
	if err != nil {
		return nil, err
	}
	s, ok := p.(gpiostream.PinOut)
	if !ok {
		return nil, fmt.Errorf("pin %s cannot stream", p)
	}
	d, err := nrzled.NewStream(s, &nrzled.Opts{
		NumPixels: o.Count,
		Channels:  3,
		Freq:      RefreshRate * physic.KiloHertz,
	})
	if err != nil {
		return nil, fmt.Errorf("nrzled on %s: %w", p, err)
	}
	log.Info().Str("component", "led").Str("driver", "gpio").Str("pin", p.String()).Int("pixels", o.Count).Msg("strip ready")
	return NewDrawer(d, o.Count, nil), nil
}

func openSPI(o Options) (Driver, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	port, err := spireg.Open(o.SPIDev)
	if err != nil {
		return nil, fmt.Errorf("spi open %q: %w", o.SPIDev, err)
	}
	d, err := newSPIStrip(port, o.Count)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	log.Info().Str("component", "led").Str("driver", "spi").Str("port", port.String()).Int("pixels", o.Count).Msg("strip ready")
	return NewDrawer(d, o.Count, port), nil
}

func newSPIStrip(port spi.Port, count int) (*nrzled.Dev, error) {
	d, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: count,
		Channels:  3,
		Freq:      ((RefreshRate * 3) + 100) * physic.KiloHertz,
	})
	if err != nil {
		return nil, fmt.Errorf("nrzled over spi: %w", err)
	}
	return d, nil
}
