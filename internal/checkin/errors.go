package checkin

import "errors"

var (
	// ErrNotFound means the parsed identifier matched no registrant in
	// the current snapshot. Non-fatal; surfaced to the operator.
	ErrNotFound = errors.New("registrant not found")

	// ErrNoEventSelected means a check-in was attempted with no active
	// event on the engine.
	ErrNoEventSelected = errors.New("no event selected")
)
