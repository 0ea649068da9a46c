package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrInvalidK = errors.New("rank count must be at least 1")
)
