package coverage

import (
	"errors"
	"fmt"
)

var (
	ErrMissingConfiguration = errors.New("missing configuration")
	ErrMalformedTimestamp   = errors.New("malformed timestamp")
	ErrCombinationNotFound  = errors.New("combination not found")
	ErrEmptyDataset         = errors.New("empty dataset")
)

// TimestampError reports the row whose date field could not be parsed.
type TimestampError struct {
	Row   int
	Value string
	Err   error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("row %d: column date: %v %q: %v", e.Row, ErrMalformedTimestamp, e.Value, e.Err)
}

func (e *TimestampError) Is(target error) bool {
	return target == ErrMalformedTimestamp
}

func (e *TimestampError) Unwrap() error {
	return e.Err
}
