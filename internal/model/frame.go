package model

import (
	"image"
)

// Frame is one full write to a strip, index 0 first.
type Frame []Color

// Blank returns an all-off frame of n cells.
func Blank(n int) Frame {
	return make(Frame, n)
}

// Single returns a frame of n cells where only cell i holds c.
func Single(n, i int, c Color) Frame {
	f := Blank(n)
	if i >= 0 && i < n {
		f[i] = c
	}
	return f
}

// Lit returns the indexes of every non-blank cell.
func (f Frame) Lit() []int {
	r := make([]int, 0, 1)
	for i, c := range f {
		if !c.IsOff() {
			r = append(r, i)
		}
	}
	return r
}

func (f Frame) IsBlank() bool {
	return len(f.Lit()) == 0
}

// Clone copies the frame so drivers may keep it after Write returns.
func (f Frame) Clone() Frame {
	c := make(Frame, len(f))
	copy(c, f)
	return c
}

// RGB flattens the frame to r,g,b triples.
func (f Frame) RGB() []byte {
	buf := make([]byte, 0, len(f)*3)
	for _, c := range f {
		buf = append(buf, c.R, c.G, c.B)
	}
	return buf
}

// Image renders the frame as a single row image for periph display.Drawer sinks.
func (f Frame) Image() *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, len(f), 1))
	for x := 0; x < im.Rect.Max.X; x++ {
		im.SetNRGBA(x, 0, f[x].NRGBA())
	}
	return im
}
