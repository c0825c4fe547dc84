package led

import (
	"fmt"

	"github.com/coreman2200/wyoming-ledring/internal/color"
	"github.com/coreman2200/wyoming-ledring/internal/layout"
)

type StripOptions struct {
	// Brightness is the global 0..1 multiplier applied on every flush.
	Brightness float64
	Offset     int
	Reverse    bool
	Power      Power
}

// Strip owns the pixel buffer of one ring and flushes it through a Driver.
type Strip struct {
	drv        Driver
	buf        []color.RGB
	out        []byte
	ring       layout.Ring
	brightness float64
	power      Power
	closed     bool
}

func NewStrip(drv Driver, count int, o StripOptions) (*Strip, error) {
	if drv == nil {
		return nil, ErrNoDriver
	}
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	return &Strip{
		drv:        drv,
		buf:        make([]color.RGB, count),
		out:        make([]byte, count*3),
		ring:       layout.Ring{Count: count, Offset: o.Offset, Reverse: o.Reverse},
		brightness: clamp(o.Brightness, 0, 1),
		power:      o.Power,
	}, nil
}

func (s *Strip) Len() int { return len(s.buf) }

func (s *Strip) Set(i int, c color.RGB) error {
	if i < 0 || i >= len(s.buf) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexRange, i, len(s.buf))
	}
	s.buf[i] = c
	return nil
}

// Pixels returns a copy of the logical buffer (before brightness and layout).
func (s *Strip) Pixels() []color.RGB {
	return append([]color.RGB(nil), s.buf...)
}

func (s *Strip) Flush() error {
	if s.closed {
		return nil
	}
	for i, c := range s.buf {
		p := s.ring.Index(i) * 3
		s.out[p+0] = uint8(float64(c.R) * s.brightness)
		s.out[p+1] = uint8(float64(c.G) * s.brightness)
		s.out[p+2] = uint8(float64(c.B) * s.brightness)
	}
	s.power.Apply(s.out)
	return s.drv.Write(s.out)
}

func (s *Strip) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.drv.Close()
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
