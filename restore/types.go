package restore

import "fmt"

// Frame is a 3-channel RGB image stored as contiguous float32 planes.
// Channel order is R, G, B; values are nominally in [0,1].
type Frame struct {
	Ch     [3][]float32
	Height int
	Width  int
}

// DepthField is a per-pixel range map in meters. Values at or below
// zero mark pixels with no valid return; the models must never assign
// such pixels a positive backscatter estimate or a transmission factor
// other than 1.
type DepthField struct {
	Pix    []float32
	Height int
	Width  int
}

// NewFrame allocates a zeroed frame of the given size.
func NewFrame(height, width int) Frame {
	f := Frame{Height: height, Width: width}
	for c := range f.Ch {
		f.Ch[c] = make([]float32, height*width)
	}
	return f
}

// NewDepthField allocates a zeroed depth field of the given size.
func NewDepthField(height, width int) DepthField {
	return DepthField{
		Pix:    make([]float32, height*width),
		Height: height,
		Width:  width,
	}
}

// Pixels returns the number of pixels per channel.
func (f Frame) Pixels() int {
	return f.Height * f.Width
}

func (d DepthField) pixels() int {
	return d.Height * d.Width
}

func checkShapes(f Frame, d DepthField) error {
	if f.Height != d.Height || f.Width != d.Width {
		return fmt.Errorf("frame %dx%d and depth %dx%d differ in size",
			f.Height, f.Width, d.Height, d.Width)
	}
	n := f.Pixels()
	for c := range f.Ch {
		if len(f.Ch[c]) != n {
			return fmt.Errorf("frame channel %d has %d pixels, want %d", c, len(f.Ch[c]), n)
		}
	}
	if len(d.Pix) != d.pixels() {
		return fmt.Errorf("depth field has %d pixels, want %d", len(d.Pix), d.pixels())
	}
	return nil
}
