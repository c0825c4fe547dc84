package ring

import "github.com/coreman2200/wyoming-ledring/internal/color"

// PulseCycle is the number of steps in one pulse ramp (0 -> full -> 0).
const PulseCycle = 40

// FrameFunc returns the full ring for a step. Generators keep no state;
// all phase is derived from step.
type FrameFunc func(step int) []color.RGB

// WakeupFrame fills the ring from pixel 0 upward, holds full for N steps,
// then starts over.
func WakeupFrame(n int, c color.RGB) FrameFunc {
	return func(step int) []color.RGB {
		progress := step % (n * 2)
		lit := min(progress, n)
		out := make([]color.RGB, n)
		for i := 0; i < lit; i++ {
			out[i] = c
		}
		return out
	}
}

// ThinkFrame rotates a soft half-ring fade at half intensity.
func ThinkFrame(n int, c color.RGB) FrameFunc {
	half := float64(n) / 2
	return func(step int) []color.RGB {
		offset := step % n
		out := make([]color.RGB, n)
		for i := range out {
			distance := mod(i-offset, n)
			fade := max(0, 1-float64(distance)/half)
			out[i] = c.Scale(fade * 0.5)
		}
		return out
	}
}

// SpinFrame lights a single rotating pixel.
func SpinFrame(n int, c color.RGB) FrameFunc {
	return func(step int) []color.RGB {
		out := make([]color.RGB, n)
		out[step%n] = c
		return out
	}
}

// PulseFrame fills the ring with c scaled by PulseLevel(step).
func PulseFrame(n int, c color.RGB) FrameFunc {
	return func(step int) []color.RGB {
		return color.Fill(n, c.Scale(PulseLevel(step)))
	}
}

// PulseLevel is a triangle wave over PulseCycle steps: 0 at phase 0, 1 at
// phase PulseCycle/2.
func PulseLevel(step int) float64 {
	half := float64(PulseCycle) / 2
	phase := float64(mod(step, PulseCycle))
	if phase < half {
		return phase / half
	}
	return 1 - (phase-half)/half
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
