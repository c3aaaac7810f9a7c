// Package peripheral holds the error types shared by the hardware wrappers.
package peripheral

import "fmt"

// InitError reports a peripheral that could not be opened or primed.
// It is fatal to the component that owns the peripheral.
type InitError struct {
	Peripheral string
	Err        error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("error initializing %s: %v", e.Peripheral, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// IOError reports a failed write on an open peripheral.
type IOError struct {
	Peripheral string
	Op         string
	Err        error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Peripheral, e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
