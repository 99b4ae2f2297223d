package service

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrRecalculationRunning is returned when a full recalculation is
	// requested while another one is still replaying the history.
	ErrRecalculationRunning = errors.New("recalculation already running")

	// ErrNotStarted is returned when an operation is invoked before Start.
	ErrNotStarted = errors.New("service not started")
)
