package ring

import (
	"fmt"
	"sync"

	"github.com/coreman2200/wyoming-ledring/internal/color"
	"github.com/coreman2200/wyoming-ledring/internal/led"
)

// recSink records every flushed frame.
type recSink struct {
	mu       sync.Mutex
	buf      []color.RGB
	frames   [][]color.RGB
	closed   int
	flushErr error
}

func newRecSink(n int) *recSink { return &recSink{buf: make([]color.RGB, n)} }

func (s *recSink) Len() int { return len(s.buf) }

func (s *recSink) Set(i int, c color.RGB) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.buf) {
		return fmt.Errorf("%w: %d", led.ErrIndexRange, i)
	}
	s.buf[i] = c
	return nil
}

func (s *recSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flushErr != nil {
		return s.flushErr
	}
	s.frames = append(s.frames, append([]color.RGB(nil), s.buf...))
	return nil
}

func (s *recSink) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return nil
}

func (s *recSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *recSink) snapshot() [][]color.RGB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]color.RGB(nil), s.frames...)
}

func (s *recSink) pixels() []color.RGB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]color.RGB(nil), s.buf...)
}

func allOff(f []color.RGB) bool {
	for _, c := range f {
		if !c.IsOff() {
			return false
		}
	}
	return true
}
