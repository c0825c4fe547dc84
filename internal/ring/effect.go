package ring

import (
	"time"

	"github.com/coreman2200/wyoming-ledring/internal/color"
)

// Frame intervals and default durations for the built-in effects.
const (
	WakeupInterval = 80 * time.Millisecond
	ThinkInterval  = 120 * time.Millisecond
	SpinInterval   = 60 * time.Millisecond
	PulseInterval  = 50 * time.Millisecond

	DefaultWakeupDuration = 2 * time.Second
	DefaultSpinDuration   = 1500 * time.Millisecond
	DefaultPulseDuration  = 1500 * time.Millisecond
)

// Forever runs an effect until something replaces it.
const Forever time.Duration = 0

// Effect is a frame generator plus its timing. A Duration <= 0 runs until
// stopped; a Steps > 0 limits the effect to that many frames.
type Effect struct {
	Name     string
	Frame    FrameFunc
	Interval time.Duration
	Duration time.Duration
	Steps    int
}

func wakeupEffect(n int, p color.Palette, d time.Duration) Effect {
	return Effect{Name: "wakeup", Frame: WakeupFrame(n, p.Primary), Interval: WakeupInterval, Duration: d}
}

func thinkEffect(n int, p color.Palette, d time.Duration) Effect {
	return Effect{Name: "think", Frame: ThinkFrame(n, p.Secondary), Interval: ThinkInterval, Duration: d}
}

func spinEffect(n int, p color.Palette, d time.Duration) Effect {
	return Effect{Name: "spin", Frame: SpinFrame(n, p.Primary), Interval: SpinInterval, Duration: d}
}

func pulseEffect(n int, c color.RGB, d time.Duration) Effect {
	return Effect{Name: "pulse", Frame: PulseFrame(n, c), Interval: PulseInterval, Duration: d}
}
