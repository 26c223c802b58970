package search

import (
	"errors"
	"fmt"

	"github.com/capstone-maru/maru/internal/filter"
	"github.com/capstone-maru/maru/internal/listing"
)

// Sentinel errors. Validation failures also match filter.ErrValidation and
// can be unwrapped to *filter.ValidationError.
var (
	ErrInvalidQuery     = errors.New("invalid search query")
	ErrUnknownRequester = errors.New("unknown requester")
	ErrListingNotFound  = listing.ErrListingNotFound
)

// DataAccessError wraps a failure of a read collaborator. It is never
// converted into an empty result.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return "search: " + e.Op + ": " + e.Err.Error()
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

func dataAccess(op string, err error) error {
	return &DataAccessError{Op: op, Err: err}
}

func invalid(field, reason string) error {
	return invalidErr(filter.NewValidationError(field, reason))
}

func invalidErr(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
}

// errorKind classifies err for the error counter.
func errorKind(err error) string {
	var dae *DataAccessError
	switch {
	case errors.Is(err, ErrInvalidQuery), errors.Is(err, filter.ErrValidation):
		return ErrorKindValidation
	case errors.Is(err, ErrUnknownRequester):
		return ErrorKindRequester
	case errors.Is(err, ErrListingNotFound):
		return ErrorKindNotFound
	case errors.As(err, &dae):
		return ErrorKindDataAccess
	}
	return ErrorKindInternal
}
