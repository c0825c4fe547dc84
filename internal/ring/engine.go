package ring

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/wyoming-ledring/internal/color"
	"github.com/coreman2200/wyoming-ledring/internal/diagnostics"
	"github.com/coreman2200/wyoming-ledring/internal/led"
)

// DefaultJoinTimeout bounds how long a replacement waits for the previous
// animation to exit.
const DefaultJoinTimeout = time.Second

type Config struct {
	Palette     color.Palette
	JoinTimeout time.Duration
	Logger      *zerolog.Logger
	OnFault     diagnostics.Handler
}

// Engine owns the pixel sink and at most one running animation. Every
// public operation stops the current animation before it acts, so frames
// from a replaced effect never reach the sink after the new one has drawn.
type Engine struct {
	sink        led.Sink
	n           int
	joinTimeout time.Duration
	fault       diagnostics.Handler
	log         zerolog.Logger

	mu      sync.Mutex
	palette color.Palette
	cur     *run
	closed  bool

	drawMu sync.Mutex
	gen    atomic.Uint64
}

type run struct {
	name   string
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns an engine driving sink. A nil sink yields a disabled engine
// whose operations log and return.
func New(sink led.Sink, cfg Config) *Engine {
	l := log.Logger
	if cfg.Logger != nil {
		l = *cfg.Logger
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = DefaultJoinTimeout
	}
	if cfg.Palette == (color.Palette{}) {
		cfg.Palette = color.DefaultPalette
	}
	e := &Engine{
		sink:        sink,
		joinTimeout: cfg.JoinTimeout,
		fault:       cfg.OnFault,
		log:         l.With().Str("component", "ring").Logger(),
		palette:     cfg.Palette,
	}
	if sink != nil {
		e.n = sink.Len()
	}
	if e.n <= 0 {
		e.sink = nil
		e.log.Warn().Msg("no LEDs attached, animations disabled")
	}
	return e
}

func (e *Engine) Disabled() bool { return e.sink == nil }

func (e *Engine) Len() int { return e.n }

func (e *Engine) Palette() color.Palette {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.palette
}

// SetColorPalette replaces the palette used by effects started afterwards.
func (e *Engine) SetColorPalette(primary, secondary color.RGB) {
	e.mu.Lock()
	e.palette = color.Palette{Primary: primary, Secondary: secondary}
	e.mu.Unlock()
	e.log.Debug().Stringer("primary", primary).Stringer("secondary", secondary).Msg("palette set")
}

// Active names the running animation, or "" when idle.
func (e *Engine) Active() string {
	e.mu.Lock()
	r := e.cur
	e.mu.Unlock()
	if r == nil {
		return ""
	}
	select {
	case <-r.done:
		return ""
	default:
		return r.name
	}
}

// Wait blocks until the current animation finishes or ctx is done.
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	r := e.cur
	e.mu.Unlock()
	if r == nil {
		return nil
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) Wakeup(d time.Duration) {
	e.startWith(func(p color.Palette) Effect { return wakeupEffect(e.n, p, d) })
}

func (e *Engine) Think(d time.Duration) {
	e.startWith(func(p color.Palette) Effect { return thinkEffect(e.n, p, d) })
}

func (e *Engine) Spin(d time.Duration) {
	e.startWith(func(p color.Palette) Effect { return spinEffect(e.n, p, d) })
}

func (e *Engine) Pulse(c color.RGB, d time.Duration) {
	e.startWith(func(color.Palette) Effect { return pulseEffect(e.n, c, d) })
}

// Speak holds the primary color on every pixel.
func (e *Engine) Speak() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fillLocked("speak", e.palette.Primary)
}

// Mono holds c on every pixel.
func (e *Engine) Mono(c color.RGB) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fillLocked("mono", c)
}

// Off blanks the ring.
func (e *Engine) Off() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fillLocked("off", color.Off)
}

// Stop ends the current animation, leaving the last frame on the ring.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

// Start runs a caller-built effect.
func (e *Engine) Start(fx Effect) {
	e.startWith(func(color.Palette) Effect { return fx })
}

// Deinit stops any animation, blanks the ring and closes the sink.
// Calls after the first are no-ops.
func (e *Engine) Deinit() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.Disabled() {
		return nil
	}
	e.stopLocked()
	var errs []error
	if err := e.draw(e.gen.Load(), color.Fill(e.n, color.Off)); err != nil {
		errs = append(errs, err)
	}
	if err := e.sink.Close(); err != nil {
		errs = append(errs, err)
	}
	e.log.Debug().Msg("deinit")
	return errors.Join(errs...)
}

func (e *Engine) startWith(build func(color.Palette) Effect) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready() {
		return
	}
	e.stopLocked()
	fx := build(e.palette)
	if fx.Frame == nil {
		return
	}
	if fx.Interval <= 0 {
		fx.Interval = PulseInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &run{name: fx.Name, gen: e.gen.Add(1), cancel: cancel, done: make(chan struct{})}
	e.cur = r
	e.log.Debug().Str("effect", fx.Name).Dur("duration", fx.Duration).Msg("start")
	go e.loop(ctx, r, fx)
}

func (e *Engine) fillLocked(name string, c color.RGB) {
	if !e.ready() {
		return
	}
	e.stopLocked()
	if err := e.draw(e.gen.Load(), color.Fill(e.n, c)); err != nil {
		e.sinkFault(name, err)
	}
	e.log.Debug().Str("effect", name).Stringer("color", c).Msg("fill")
}

func (e *Engine) ready() bool {
	if e.Disabled() {
		e.log.Debug().Msg("disabled, ignoring")
		return false
	}
	return !e.closed
}

// stopLocked cancels the running animation and waits up to joinTimeout for
// it to exit. The generation bump discards any frame it is still producing.
func (e *Engine) stopLocked() {
	r := e.cur
	if r == nil {
		return
	}
	e.cur = nil
	e.gen.Add(1)
	r.cancel()
	t := time.NewTimer(e.joinTimeout)
	defer t.Stop()
	select {
	case <-r.done:
	case <-t.C:
		e.log.Warn().Str("effect", r.name).Dur("timeout", e.joinTimeout).Msg("animation did not stop in time")
		e.fault.Report(diagnostics.Diagnostic{
			Severity: diagnostics.Warn,
			Code:     diagnostics.EffectStopTimeout,
			Summary:  "animation did not stop within the join timeout",
			Evidence: map[string]any{"effect": r.name, "timeout_ms": e.joinTimeout.Milliseconds()},
		})
	}
}

func (e *Engine) loop(ctx context.Context, r *run, fx Effect) {
	defer close(r.done)
	start := time.Now()
	ticker := time.NewTicker(fx.Interval)
	defer ticker.Stop()

	failed := false
	for step := 0; ; {
		if ctx.Err() != nil {
			return
		}
		if err := e.draw(r.gen, fx.Frame(step)); err != nil {
			if !failed {
				e.sinkFault(fx.Name, err)
			}
			failed = true
		}
		step++
		if fx.Duration > 0 && time.Since(start) >= fx.Duration {
			break
		}
		if fx.Steps > 0 && step >= fx.Steps {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
	if err := e.draw(r.gen, color.Fill(e.n, color.Off)); err != nil && !failed {
		e.sinkFault(fx.Name, err)
	}
	e.log.Debug().Str("effect", fx.Name).Dur("elapsed", time.Since(start)).Msg("done")
}

// draw writes colors and flushes, unless gen has been superseded.
func (e *Engine) draw(gen uint64, colors []color.RGB) error {
	e.drawMu.Lock()
	defer e.drawMu.Unlock()
	if e.gen.Load() != gen {
		return nil
	}
	for i, c := range colors {
		if i >= e.n {
			break
		}
		if err := e.sink.Set(i, c); err != nil {
			return err
		}
	}
	return e.sink.Flush()
}

func (e *Engine) sinkFault(effect string, err error) {
	e.log.Warn().Err(err).Str("effect", effect).Msg("sink write failed")
	e.fault.Report(diagnostics.Diagnostic{
		Severity:       diagnostics.Err,
		Code:           diagnostics.SinkWrite,
		Summary:        "writing to the LED ring failed",
		Detail:         err.Error(),
		LikelyCauses:   []string{"strip unplugged or unpowered", "SPI or GPIO access lost"},
		SuggestedFixes: []string{"check wiring and power", "restart with --debug for driver logs"},
		Evidence:       map[string]any{"effect": effect},
	})
}
