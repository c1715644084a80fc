package option

import "errors"

// Closed error set for the state machine. Every operation failure maps to
// exactly one of these kinds so callers can distinguish "not yet allowed"
// from "insufficient funds" from "instrument already closed" with errors.Is.
var (
	// ErrUnauthorized is returned when a non-issuer attempts a privileged op.
	ErrUnauthorized = errors.New("caller is not the issuer")
	// ErrAlreadyExpired is returned for any op after the terminal state.
	ErrAlreadyExpired = errors.New("instrument already expired")
	// ErrNotYetExpirable is returned when expire is called before the
	// expiration instant.
	ErrNotYetExpirable = errors.New("expiration instant not reached")
	// ErrNotInExerciseWindow is returned for exercise outside the fixed
	// pre-expiry window.
	ErrNotInExerciseWindow = errors.New("outside exercise window")
	// ErrInsufficientUnitBalance is returned when a burn would exceed the
	// holder's balance.
	ErrInsufficientUnitBalance = errors.New("insufficient unit balance")
	// ErrInsufficientPayment is returned when the paid value is below the
	// computed requirement.
	ErrInsufficientPayment = errors.New("insufficient payment")
	// ErrAmountMismatch is returned when the declared issue amount differs
	// from the accompanying value.
	ErrAmountMismatch = errors.New("deposited value does not match amount")
	// ErrZeroAmount is returned for non-positive amounts.
	ErrZeroAmount = errors.New("amount must be positive")
	// ErrUnsupported is returned for a non-native collateral kind. Reserved
	// extension point: foreign collateral is recognized but rejected.
	ErrUnsupported = errors.New("unsupported collateral kind")
	// ErrTransferFailed is returned when an outbound value movement did not
	// complete. The enclosing call rolls back all of its state mutation.
	ErrTransferFailed = errors.New("outbound transfer failed")
	// ErrInvalidTerms is returned by New for malformed construction params.
	ErrInvalidTerms = errors.New("invalid instrument terms")
)
