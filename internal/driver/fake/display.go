package fake

import (
	"fmt"
	"sync"
)

// Display logs each call as a short string: "enable", "disable",
// "int:42", "str:GOOD", "clear", "close".
type Display struct {
	// Err, when set, is returned for calls whose log entry it maps.
	Err map[string]error

	mu    sync.Mutex
	calls []string
}

func NewDisplay() *Display { return &Display{} }

func (d *Display) record(call string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
	return d.Err[call]
}

func (d *Display) SetEnabled(on bool) error {
	if on {
		return d.record("enable")
	}
	return d.record("disable")
}

func (d *Display) DisplayInt(n int) error { return d.record(fmt.Sprintf("int:%d", n)) }

func (d *Display) DisplayString(s string) error { return d.record("str:" + s) }

func (d *Display) Clear() error { return d.record("clear") }

func (d *Display) Close() error { return d.record("close") }

func (d *Display) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// LastShown returns the last int/str call, or "".
func (d *Display) LastShown() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.calls) - 1; i >= 0; i-- {
		c := d.calls[i]
		if len(c) > 4 && (c[:4] == "int:" || c[:4] == "str:") {
			return c
		}
	}
	return ""
}
