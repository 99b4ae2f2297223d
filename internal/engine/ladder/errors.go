package ladder

import "errors"

// Sentinel kinds for ladder errors.
var (
	ErrUnknownScope       = errors.New("unknown ladder scope")
	ErrUnknownStrategy    = errors.New("unknown ranking strategy")
	ErrUnknownWeightClass = errors.New("unknown weight class")
)
