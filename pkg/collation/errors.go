package collation

import "errors"

var (
	// ErrMalformedDocument is returned when the input cannot be parsed as the
	// expected grammar. No partial matrix is produced.
	ErrMalformedDocument = errors.New("collation: malformed document")

	// ErrThresholdOutOfRange is returned when the minimum extant proportion
	// is outside [0, 1]. It is reported before any parsing begins.
	ErrThresholdOutOfRange = errors.New("collation: min extant proportion must be between 0 and 1")

	// ErrDimensionMismatch is returned when a fitted reweighting is applied
	// to a matrix with a different reading count.
	ErrDimensionMismatch = errors.New("collation: dimension mismatch")
)
