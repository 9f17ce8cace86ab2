package order

import (
	"errors"
	"fmt"
)

// Error kinds. Specific errors wrap one of these so callers can classify
// with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrStaleReference     = errors.New("catalog reference is stale")
	ErrTransitionRejected = errors.New("transition rejected")
	ErrTransientNetwork   = errors.New("transient network error")
)

// Validation errors.
var (
	ErrInvalidQuantity  = fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
	ErrVariantRequired  = fmt.Errorf("%w: required variant missing", ErrValidation)
	ErrInvalidVariant   = fmt.Errorf("%w: invalid variant value", ErrValidation)
	ErrVariantDisabled  = fmt.Errorf("%w: variant not offered", ErrValidation)
	ErrUnknownAddon     = fmt.Errorf("%w: addon not offered by item", ErrValidation)
	ErrUnknownCombo     = fmt.Errorf("%w: combo not offered by item", ErrValidation)
	ErrUnknownCustom    = fmt.Errorf("%w: custom variant not offered", ErrValidation)
	ErrBundleImmutable  = fmt.Errorf("%w: bundle lines only accept quantity changes", ErrValidation)
	ErrModifierInactive = fmt.Errorf("%w: modifier is not on the line", ErrValidation)
	ErrUnknownAction    = fmt.Errorf("%w: unknown action", ErrValidation)
)

// TransitionError explains why a kitchen status change was refused.
// It leaves local state untouched.
type TransitionError struct {
	Kitchen string
	From    string
	To      string
	Reason  string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot transition %s from %s to %s: %s", e.Kitchen, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("cannot transition %s from %s to %s", e.Kitchen, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrTransitionRejected
}
