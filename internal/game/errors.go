package game

import "errors"

var (
	// ErrInvalidGestureState is returned when a gesture is updated or released
	// with none active, or begun while one already is.
	ErrInvalidGestureState = errors.New("invalid gesture state")
	// ErrDegenerateVector is returned when a zero-length vector would be normalized.
	ErrDegenerateVector = errors.New("degenerate vector")
	// ErrControllerUnavailable is returned when a tracked controller disappears mid-gesture.
	ErrControllerUnavailable = errors.New("controller unavailable")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrUnknownCourse   = errors.New("unknown course")
	ErrJournalDisabled = errors.New("shot journal disabled")
)
