package led

import (
	"errors"

	"github.com/coreman2200/wyoming-ledring/internal/color"
)

var (
	// ErrIndexRange is returned by Set for an index outside [0, Len()).
	ErrIndexRange = errors.New("pixel index out of range")
	// ErrNoDriver means no hardware driver could be opened.
	ErrNoDriver = errors.New("no LED driver available")
)

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes an RGB frame to hardware. len(rgb) must be 3*N.
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}

// Sink is the pixel buffer the animation engine draws into. It does no
// locking of its own; callers serialize Set/Flush.
type Sink interface {
	Len() int
	// Set writes slot i. Out-of-range indexes fail with ErrIndexRange and
	// leave the buffer untouched.
	Set(i int, c color.RGB) error
	// Flush pushes the buffer to the driver.
	Flush() error
	// Close releases the driver. It is idempotent.
	Close() error
}
