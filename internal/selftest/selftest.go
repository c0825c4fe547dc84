package selftest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/wyoming-ledring/internal/color"
	"github.com/coreman2200/wyoming-ledring/internal/ring"
)

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep"
	RGBTest    Kind = "rgb_channels"
)

var Kinds = []Kind{IndexSweep, RGBTest}

var white = color.RGB{R: 255, G: 255, B: 255}

type Plan struct{ Kind Kind }

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return None, fmt.Errorf("unknown selftest %q (want one of %v)", s, Kinds)
}

// Steps is the number of frames the plan draws on an n pixel ring.
func (p Plan) Steps(n int) int {
	switch p.Kind {
	case IndexSweep:
		return n
	case RGBTest:
		return 3
	}
	return 0
}

// Frame returns the pattern for step. Steps past the plan are blank.
func (p Plan) Frame(n int) ring.FrameFunc {
	return func(step int) []color.RGB {
		out := make([]color.RGB, n)
		switch p.Kind {
		case IndexSweep:
			if step < n {
				out[step] = white
			}
		case RGBTest:
			var c color.RGB
			switch step {
			case 0:
				c.R = 255
			case 1:
				c.G = 255
			case 2:
				c.B = 255
			}
			for i := range out {
				out[i] = c
			}
		}
		return out
	}
}

// Effect wraps the plan for the ring engine; each step is held for interval.
func (p Plan) Effect(n int, interval time.Duration) ring.Effect {
	return ring.Effect{
		Name:     "selftest:" + string(p.Kind),
		Frame:    p.Frame(n),
		Interval: interval,
		Steps:    p.Steps(n),
	}
}

// Run plays plans in order, waiting for each to finish.
func Run(ctx context.Context, e *ring.Engine, interval time.Duration, plans ...Plan) error {
	for _, p := range plans {
		if p.Steps(e.Len()) == 0 {
			continue
		}
		log.Info().Str("component", "selftest").Str("kind", string(p.Kind)).Int("pixels", e.Len()).Msg("running")
		e.Start(p.Effect(e.Len(), interval))
		if err := e.Wait(ctx); err != nil {
			e.Stop()
			return err
		}
	}
	return nil
}
