package led

import (
	"fmt"
	"image"
	"io"

	"periph.io/x/conn/v3/display"
)

// Drawer adapts a periph display.Drawer (nrzled, screen1d, ...) to Driver.
type Drawer struct {
	d      display.Drawer
	port   io.Closer
	img    *image.NRGBA
	halted bool
}

// NewDrawer wraps d for a strip of count pixels. port, if not nil, is closed
// after the drawer is halted.
func NewDrawer(d display.Drawer, count int, port io.Closer) *Drawer {
	img := image.NewNRGBA(image.Rect(0, 0, count, 1))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	return &Drawer{d: d, port: port, img: img}
}

func (w *Drawer) Write(rgb []byte) error {
	if w.halted {
		return fmt.Errorf("%s: halted", w.d)
	}
	n := w.img.Rect.Dx()
	if len(rgb) != n*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), n)
	}
	for i := 0; i < n; i++ {
		copy(w.img.Pix[i*4:i*4+3], rgb[i*3:i*3+3])
	}
	return w.d.Draw(w.d.Bounds(), w.img, image.Point{})
}

func (w *Drawer) Close() error {
	if w.halted {
		return nil
	}
	w.halted = true
	err := w.d.Halt()
	if w.port != nil {
		if cerr := w.port.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (w *Drawer) String() string { return w.d.String() }
