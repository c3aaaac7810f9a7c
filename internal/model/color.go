package model

import "image/color"

const (
	RED_OFFSET   uint8 = 0x10
	GREEN_OFFSET uint8 = 0x08
	BLUE_OFFSET  uint8 = 0x0
)

// Color is one cell of an LED strip, 8 bits per channel.
type Color struct {
	R, G, B uint8
}

// Off is a blank cell.
var Off = Color{}

// NewColor unpacks 0x00RRGGBB.
func NewColor(c uint32) Color {
	return Color{
		R: getcolor(c, RED_OFFSET),
		G: getcolor(c, GREEN_OFFSET),
		B: getcolor(c, BLUE_OFFSET),
	}
}

// Packed returns the color as 0x00RRGGBB.
func (c Color) Packed() uint32 {
	var v uint32
	v = setcolor(v, c.R, RED_OFFSET)
	v = setcolor(v, c.G, GREEN_OFFSET)
	v = setcolor(v, c.B, BLUE_OFFSET)
	return v
}

func (c Color) IsOff() bool {
	return c == Off
}

// Scale multiplies every channel by s (clamped to [0,1]).
func (c Color) Scale(s float64) Color {
	if s >= 1 {
		return c
	}
	if s <= 0 {
		return Off
	}
	return Color{
		R: uint8(float64(c.R) * s),
		G: uint8(float64(c.G) * s),
		B: uint8(float64(c.B) * s),
	}
}

func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

func setcolor(c uint32, n uint8, off uint8) uint32 {
	var val uint32 = uint32(n) << off
	var mask uint32 = 0xFF << off
	return (c & (^mask)) | val
}

func getcolor(c uint32, off uint8) uint8 {
	var mask uint32 = 0xFF << off
	return uint8((c & (mask)) >> off)
}
