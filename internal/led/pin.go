package led

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// ResolvePin looks a pin description ("D18", "GPIO18", "18", "board.D18")
// up in the periph GPIO registry.
func ResolvePin(name string) (gpio.PinIO, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	for _, c := range pinCandidates(name) {
		if p := gpioreg.ByName(c); p != nil {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown board pin %q; try values like 'D18', 'GPIO18', or '18'", name)
}

// pinCandidates expands a pin description into the registry names to try, in order.
func pinCandidates(name string) []string {
	v := strings.TrimSpace(name)
	if strings.HasPrefix(strings.ToLower(v), "board.") {
		v = v[len("board."):]
	}
	if v == "" {
		return nil
	}

	var out []string
	add := func(s string) {
		for _, o := range out {
			if o == s {
				return
			}
		}
		out = append(out, s)
	}

	add(v)
	upper := strings.ToUpper(v)
	add(upper)
	switch {
	case strings.HasPrefix(upper, "GPIO"):
		suffix := upper[4:]
		add("GPIO" + suffix)
		add("D" + suffix)
		if isDigits(suffix) {
			add(suffix)
		}
	case strings.HasPrefix(upper, "D") && isDigits(upper[1:]):
		suffix := upper[1:]
		add("GPIO" + suffix)
		add(suffix)
	case isDigits(upper):
		add("D" + upper)
		add("GPIO" + upper)
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
