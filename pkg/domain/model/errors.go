package model

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

// Workflow errors. Callers match them with errors.Is; context such as the
// failing field or the attempted transition is attached as goerr values.
var (
	ErrValidationFailed   = goerr.New("validation failed")
	ErrIllegalTransition  = goerr.New("illegal transition")
	ErrSequenceMismatch   = goerr.New("sequence mismatch")
	ErrOtpExpired         = goerr.New("otp expired")
	ErrOtpInvalid         = goerr.New("otp invalid")
	ErrOtpAlreadyConsumed = goerr.New("otp already consumed")
	ErrNotReady           = goerr.New("precondition not met")
	ErrNotFound           = goerr.New("entity not found")
	ErrConflict           = goerr.New("version conflict")
)

// Context keys for error values
const (
	FieldKey   = "field"
	FromKey    = "from"
	ToKey      = "to"
	EntityKey  = "entity"
	IDKey      = "id"
	VersionKey = "version"
)

// NewValidationError reports the first field that failed validation
func NewValidationError(field string, opts ...goerr.Option) error {
	opts = append(opts, goerr.V(FieldKey, field))
	return goerr.Wrap(ErrValidationFailed, "invalid "+field, opts...)
}

// NewTransitionError reports a state change that is not reachable from the current state
func NewTransitionError(from, to string, opts ...goerr.Option) error {
	opts = append(opts, goerr.V(FromKey, from), goerr.V(ToKey, to))
	return goerr.Wrap(ErrIllegalTransition, "cannot transition from "+from+" to "+to, opts...)
}

// NewNotFoundError reports a missing entity
func NewNotFoundError(entity string, id string) error {
	return goerr.Wrap(ErrNotFound, entity+" not found", goerr.V(EntityKey, entity), goerr.V(IDKey, id))
}

// NewConflictError reports a failed version precondition on commit
func NewConflictError(entity string, id string, version int64) error {
	return goerr.Wrap(ErrConflict, entity+" was modified concurrently",
		goerr.V(EntityKey, entity), goerr.V(IDKey, id), goerr.V(VersionKey, version))
}

// ErrorValue looks up a goerr value anywhere in the error chain
func ErrorValue(err error, key string) (any, bool) {
	for e := err; e != nil; e = errors.Unwrap(e) {
		var ge *goerr.Error
		if !errors.As(e, &ge) {
			return nil, false
		}
		if v, ok := ge.Values()[key]; ok {
			return v, true
		}
		e = ge
	}
	return nil, false
}
