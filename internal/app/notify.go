package app

import (
	"io"

	"github.com/fatih/color"
)

// ConsoleNotifier prints messages to w in the style of a toast.
type ConsoleNotifier struct {
	W io.Writer
}

var toast = color.New(color.FgHiRed, color.Bold)

func (n ConsoleNotifier) Notify(msg string) {
	_, _ = toast.Fprintf(n.W, "! %s\n", msg)
}

// Summary formats the text shown next to the display after a search.
func Summary(totalHits int64) string {
	return color.New(color.FgGreen).Sprintf("%d result found", totalHits)
}
