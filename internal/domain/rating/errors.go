package rating

import "errors"

// Sentinel error kinds for this package.
var (
	ErrUnknownBelt = errors.New("unknown belt")
)
