package led

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sim logs a compact summary of each frame (first pixel & avg), useful when
// no LEDs are attached.
type Sim struct {
	Count  int
	Frames int
	Last   []byte
	log    zerolog.Logger
	closed bool
}

func NewSim(count int) *Sim {
	return &Sim{
		Count: count,
		log:   log.With().Str("component", "led").Str("driver", "sim").Logger(),
	}
}

func (d *Sim) Write(rgb []byte) error {
	d.Frames++
	d.Last = append(d.Last[:0], rgb...)
	if e := d.log.Debug(); e.Enabled() {
		// compute simple average for log
		var r, g, b float64
		for i := 0; i+2 < len(rgb); i += 3 {
			r += float64(rgb[i])
			g += float64(rgb[i+1])
			b += float64(rgb[i+2])
		}
		n := float64(len(rgb) / 3)
		if n == 0 {
			n = 1
		}
		e.Int("frame", d.Frames).
			Floats64("avg", []float64{r / n, g / n, b / n}).
			Bytes("first", rgb[:min(3, len(rgb))]).
			Msg("frame")
	}
	return nil
}

func (d *Sim) Close() error {
	if !d.closed {
		d.closed = true
		d.log.Debug().Int("frames", d.Frames).Msg("closed")
	}
	return nil
}
