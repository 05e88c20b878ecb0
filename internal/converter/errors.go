package converter

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when neither record group of a file produced any
// value. The file fails before a document is built.
var ErrNoData = errors.New("no valid data found")

// NoDataError wraps ErrNoData with the file name.
func NoDataError(name string) error {
	return fmt.Errorf("%w in %s", ErrNoData, name)
}

// UnexpectedError marks a failure after the records were read: a structural
// check failure, a serialization error or a recovered panic.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return e.Err.Error()
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

// IsUnexpected reports whether err is or wraps an *UnexpectedError.
func IsUnexpected(err error) bool {
	var u *UnexpectedError
	return errors.As(err, &u)
}
