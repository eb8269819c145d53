package leasehold

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound     = errors.New("leasehold: not found")
	ErrInvalidInput = errors.New("leasehold: invalid input")

	// Authorization errors
	ErrNotOwner           = errors.New("leasehold: caller is not the owner")
	ErrNotOwnerOrApproved = errors.New("leasehold: caller is not owner nor approved")
	ErrNotOperator        = errors.New("leasehold: caller is not the operator")

	// Pass errors
	ErrPassNotFound    = errors.New("leasehold: pass not found")
	ErrSupplyExhausted = errors.New("leasehold: pass supply exhausted")
	ErrPassInUse       = errors.New("leasehold: pass is still in use")

	// Payment errors
	ErrInsufficientPayment = errors.New("leasehold: insufficient payment")
	ErrIncorrectPayment    = errors.New("leasehold: incorrect payment amount")

	// Delegation errors
	ErrInvalidExpiry      = errors.New("leasehold: invalid expiry")
	ErrDoubleDelegation   = errors.New("leasehold: usage already delegated")
	ErrNoActiveDelegation = errors.New("leasehold: no delegation to revoke")

	// Marketplace errors
	ErrNotListed             = errors.New("leasehold: pass is not listed")
	ErrSelfRental            = errors.New("leasehold: cannot rent own pass")
	ErrRentalPeriodTooShort  = errors.New("leasehold: rental period too short")
	ErrUnapprovedMarketplace = errors.New("leasehold: marketplace not approved for pass")

	// Store errors
	ErrStoreNotReady     = errors.New("leasehold: store not ready")
	ErrStoreClosed       = errors.New("leasehold: store is closed")
	ErrTransactionFailed = errors.New("leasehold: transaction failed")
	ErrMigrationFailed   = errors.New("leasehold: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("leasehold: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "leasehold: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("leasehold: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPassNotFound) ||
		errors.Is(err, ErrNotListed) ||
		errors.Is(err, ErrNoActiveDelegation)
}

// IsAuthorization returns true if the error is an authorization failure:
// the caller lacks the required relationship to the pass or role.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrNotOwner) ||
		errors.Is(err, ErrNotOwnerOrApproved) ||
		errors.Is(err, ErrNotOperator) ||
		errors.Is(err, ErrUnapprovedMarketplace) ||
		errors.Is(err, ErrSelfRental)
}

// IsValidation returns true if the error is a rejected input or payment.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInsufficientPayment) ||
		errors.Is(err, ErrIncorrectPayment) ||
		errors.Is(err, ErrInvalidExpiry) ||
		errors.Is(err, ErrRentalPeriodTooShort) ||
		errors.Is(err, ErrSupplyExhausted)
}

// IsStateConflict returns true if the requested transition is illegal
// given current ledger state rather than the inputs themselves.
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrPassInUse) ||
		errors.Is(err, ErrDoubleDelegation) ||
		errors.Is(err, ErrNotListed) ||
		errors.Is(err, ErrNoActiveDelegation)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
