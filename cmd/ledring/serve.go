package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/coreman2200/wyoming-ledring/internal/color"
	"github.com/coreman2200/wyoming-ledring/internal/config"
	"github.com/coreman2200/wyoming-ledring/internal/diagnostics"
	"github.com/coreman2200/wyoming-ledring/internal/led"
	"github.com/coreman2200/wyoming-ledring/internal/monitor"
	"github.com/coreman2200/wyoming-ledring/internal/ring"
	"github.com/coreman2200/wyoming-ledring/internal/router"
	"github.com/coreman2200/wyoming-ledring/internal/wyoming"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd.Flags(), configPath, flagCfg)
	if err != nil {
		return err
	}
	if cfg.URI == "" {
		return errors.New("--uri is required (unix:// or tcp://)")
	}
	palette, err := cfg.Palette()
	if err != nil {
		return err
	}
	policy, err := cfg.BuildPolicy()
	if err != nil {
		return err
	}
	log.Debug().Interface("config", cfg).Msg("effective config")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Msg("initialising LED ring")
	rig, err := buildRing(cfg, palette)
	if err != nil {
		return err
	}
	defer func() {
		if err := rig.engine.Deinit(); err != nil {
			log.Warn().Err(err).Msg("deinit")
		}
	}()

	boot(ctx, rig.engine, palette.Primary, cfg.Boot.Pulse)
	log.Info().Msg("ready")

	rt := router.New(rig.engine, policy)
	srv := &wyoming.Server{URI: cfg.URI}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ctx, func(id string, _ *wyoming.Writer) wyoming.Handler { return rt })
	})
	if rig.hub != nil {
		rig.hub.SetControl(rt)
		rig.hub.SetActive(rig.engine.Active)
		g.Go(func() error { return rig.hub.Serve(ctx, cfg.Monitor.Addr) })
	}
	err = g.Wait()
	log.Info().Msg("shutting down")
	return err
}

type rig struct {
	engine *ring.Engine
	hub    *monitor.Hub
}

// buildRing opens the driver and wires strip, monitor and engine. With
// allow_missing_leds a failed open yields a disabled engine instead.
func buildRing(cfg *config.Config, palette color.Palette) (*rig, error) {
	var (
		sink  led.Sink
		hub   *monitor.Hub
		fault diagnostics.Handler
	)
	strip, err := openStrip(cfg)
	switch {
	case err == nil:
		sink = strip
		if cfg.Monitor.Addr != "" {
			hub = monitor.NewHub(strip)
			sink, fault = hub, hub.Report
		}
	case cfg.AllowMissingLEDs:
		log.Warn().Err(err).Msg("LED ring unavailable; continuing without LEDs")
	default:
		return nil, err
	}
	e := ring.New(sink, ring.Config{
		Palette:     palette,
		JoinTimeout: cfg.JoinTimeout,
		OnFault:     fault,
	})
	return &rig{engine: e, hub: hub}, nil
}

func openStrip(cfg *config.Config) (*led.Strip, error) {
	drv, err := led.Open(led.Options{
		Driver: cfg.Driver,
		Pin:    cfg.Pin,
		SPIDev: cfg.SPI.Dev,
		Count:  cfg.Pixels,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s driver: %w", cfg.Driver, err)
	}
	strip, err := led.NewStrip(drv, cfg.Pixels, led.StripOptions{
		Brightness: cfg.Brightness,
		Offset:     cfg.Ring.Offset,
		Reverse:    cfg.Ring.Reverse,
		Power:      cfg.Power,
	})
	if err != nil {
		_ = drv.Close()
		return nil, err
	}
	return strip, nil
}

// boot pulses c for d so the ring shows the service is up, then blanks it.
func boot(ctx context.Context, e *ring.Engine, c color.RGB, d time.Duration) {
	if d <= 0 {
		return
	}
	e.Pulse(c, d)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
	e.Off()
}
