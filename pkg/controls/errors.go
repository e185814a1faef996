package controls

import "errors"

var (
	// ErrDisabled is returned when input is sent to a read-only or
	// placeholder control.
	ErrDisabled = errors.New("controls: control is disabled")
	// ErrInvalidInput reports input that cannot be coerced to the control's
	// kind.
	ErrInvalidInput = errors.New("controls: invalid input")
)
