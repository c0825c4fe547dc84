package router

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/wyoming-ledring/internal/color"
	"github.com/coreman2200/wyoming-ledring/internal/ring"
	"github.com/coreman2200/wyoming-ledring/internal/wyoming"
)

// Effects is the part of the ring engine the router drives.
type Effects interface {
	Wakeup(d time.Duration)
	Think(d time.Duration)
	Speak()
	Spin(d time.Duration)
	Mono(c color.RGB)
	Pulse(c color.RGB, d time.Duration)
	Off()
	Palette() color.Palette
}

var _ Effects = (*ring.Engine)(nil)

type Router struct {
	fx     Effects
	policy Policy
	log    zerolog.Logger
}

func New(fx Effects, policy Policy) *Router {
	return &Router{fx: fx, policy: policy, log: log.With().Str("component", "router").Logger()}
}

// Handle runs the action mapped to ev.Type. It always keeps the
// connection open.
func (r *Router) Handle(ev wyoming.Event) bool {
	a, ok := r.policy[ev.Type]
	if !ok {
		return true
	}
	r.log.Debug().Str("event", ev.Type).Str("effect", string(a.Effect)).Msg("dispatch")
	r.apply(a)
	return true
}

func (r *Router) apply(a Action) {
	switch a.Effect {
	case Wakeup:
		r.fx.Wakeup(orDefault(a.Duration, ring.DefaultWakeupDuration))
	case Think:
		r.fx.Think(orDefault(a.Duration, ring.Forever))
	case Speak:
		r.fx.Speak()
	case Spin:
		r.fx.Spin(orDefault(a.Duration, ring.DefaultSpinDuration))
	case Mono:
		r.fx.Mono(a.Color)
	case Pulse:
		c := a.Color
		if !a.HasColor {
			c = r.fx.Palette().Primary
		}
		r.fx.Pulse(c, orDefault(a.Duration, ring.DefaultPulseDuration))
	case Off:
		r.fx.Off()
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
