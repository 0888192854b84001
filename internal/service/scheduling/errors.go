package scheduling

import (
	"errors"
	"fmt"

	"github.com/Alijeyrad/simorq_scheduler/pkg/slottime"
)

var (
	ErrPatternNotFound   = errors.New("recurring pattern not found")
	ErrExceptionNotFound = errors.New("no override exists for this date")
	ErrInvalidTimeRange  = errors.New("end_time must be after start_time")
)

// ValidationError reports bad caller input. It is never fatal.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e ValidationError) Unwrap() error { return e.Err }

// CapacityError means the day already holds the maximum number of slots.
type CapacityError struct {
	Date  slottime.Date
	Limit int
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("maximum %d slots per day allowed (%s)", e.Limit, e.Date)
}

// DataAccessError wraps any failure coming from the store.
type DataAccessError struct {
	Op  string
	Err error
}

func (e DataAccessError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e DataAccessError) Unwrap() error { return e.Err }

// AuthenticationError is returned before any write when the caller has no
// resolved identity.
type AuthenticationError struct{}

func (AuthenticationError) Error() string {
	return "user must be authenticated to modify slots"
}

func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}

func IsCapacity(err error) bool {
	var c CapacityError
	return errors.As(err, &c)
}

func IsDataAccess(err error) bool {
	var d DataAccessError
	return errors.As(err, &d)
}

func IsAuthentication(err error) bool {
	var a AuthenticationError
	return errors.As(err, &a)
}

func dataAccess(op string, err error) error {
	return DataAccessError{Op: op, Err: err}
}
