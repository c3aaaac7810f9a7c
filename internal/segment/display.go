// Package segment drives 4-character alphanumeric displays.
package segment

import (
	"errors"
	"strconv"
)

// Width is the number of characters a display can show.
const Width = 4

// ErrClosed is returned by displays used after Close.
var ErrClosed = errors.New("segment: display closed")

// Display is a fixed-width alphanumeric output sink.
type Display interface {
	SetEnabled(on bool) error
	// DisplayInt shows n right-aligned.
	DisplayInt(n int) error
	// DisplayString shows s left-aligned, truncated to Width.
	DisplayString(s string) error
	Clear() error
	Close() error
}

// Fit left-aligns s into Width characters, truncating longer strings.
func Fit(s string) string {
	r := []rune(s)
	if len(r) > Width {
		r = r[:Width]
	}
	for len(r) < Width {
		r = append(r, ' ')
	}
	return string(r)
}

// FitInt right-aligns n into Width characters. Values that do not fit keep
// their leading digits.
func FitInt(n int) string {
	s := strconv.Itoa(n)
	if len(s) >= Width {
		return s[:Width]
	}
	for len(s) < Width {
		s = " " + s
	}
	return s
}
