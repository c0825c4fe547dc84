package router

import (
	"fmt"
	"sort"
	"time"

	"github.com/coreman2200/wyoming-ledring/internal/color"
	"github.com/coreman2200/wyoming-ledring/internal/wyoming"
)

// Effect names an engine call.
type Effect string

const (
	None   Effect = "none"
	Wakeup Effect = "wakeup"
	Think  Effect = "think"
	Speak  Effect = "speak"
	Spin   Effect = "spin"
	Mono   Effect = "mono"
	Pulse  Effect = "pulse"
	Off    Effect = "off"
)

var effects = map[Effect]bool{None: true, Wakeup: true, Think: true, Speak: true, Spin: true, Mono: true, Pulse: true, Off: true}

// Action is one engine call. A zero Duration selects the effect's default.
// Color is used by mono and pulse; pulse falls back to the primary color
// when HasColor is false.
type Action struct {
	Effect   Effect
	Duration time.Duration
	Color    color.RGB
	HasColor bool
}

// Policy maps a wire event type to the action it triggers.
type Policy map[string]Action

const (
	ServicePolicy = "service"
	LibraryPolicy = "library"
)

var red = color.RGB{R: 255}

var common = Policy{
	wyoming.Detection:             {Effect: Wakeup},
	wyoming.VoiceStarted:          {Effect: Speak},
	wyoming.StreamingStarted:      {Effect: Speak},
	wyoming.StreamingStopped:      {Effect: Off},
	wyoming.SatelliteDisconnected: {Effect: Mono, Color: red, HasColor: true},
}

var policies = map[string]Policy{
	ServicePolicy: {
		wyoming.VoiceStopped:       {Effect: Spin},
		wyoming.SatelliteConnected: {Effect: Think, Duration: 2 * time.Second},
		wyoming.Played:             {Effect: Off},
	},
	LibraryPolicy: {
		wyoming.VoiceStopped:       {Effect: Think},
		wyoming.SatelliteConnected: {Effect: Off},
		wyoming.Played:             {Effect: Speak},
	},
}

// Names lists the built-in policies.
func Names() []string {
	out := make([]string, 0, len(policies))
	for k := range policies {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Builtin returns a copy of a named policy.
func Builtin(name string) (Policy, error) {
	if name == "" {
		name = ServicePolicy
	}
	variant, ok := policies[name]
	if !ok {
		return nil, fmt.Errorf("unknown policy %q (want one of %v)", name, Names())
	}
	p := make(Policy, len(common)+len(variant))
	for k, v := range common {
		p[k] = v
	}
	for k, v := range variant {
		p[k] = v
	}
	return p, nil
}

// Rule is the config form of an Action.
type Rule struct {
	Effect   string        `yaml:"effect"`
	Duration time.Duration `yaml:"duration,omitempty"`
	Color    string        `yaml:"color,omitempty"`
}

func (r Rule) Action() (Action, error) {
	a := Action{Effect: Effect(r.Effect), Duration: r.Duration}
	if !effects[a.Effect] {
		return Action{}, fmt.Errorf("unknown effect %q", r.Effect)
	}
	if r.Duration < 0 {
		return Action{}, fmt.Errorf("effect %q: negative duration %s", r.Effect, r.Duration)
	}
	if r.Color != "" {
		c, err := color.ParseHex(r.Color)
		if err != nil {
			return Action{}, fmt.Errorf("effect %q: %w", r.Effect, err)
		}
		a.Color, a.HasColor = c, true
	}
	if a.Effect == Mono && !a.HasColor {
		return Action{}, fmt.Errorf("effect %q needs a color", r.Effect)
	}
	return a, nil
}

// Build starts from the named built-in policy and applies overrides.
func Build(base string, overrides map[string]Rule) (Policy, error) {
	p, err := Builtin(base)
	if err != nil {
		return nil, err
	}
	for ev, r := range overrides {
		a, err := r.Action()
		if err != nil {
			return nil, fmt.Errorf("policy override %q: %w", ev, err)
		}
		p[ev] = a
	}
	return p, nil
}
