// internal/pkg/errors/error.go
package xerrors

import (
	"errors"
	"fmt"
)

// Error categories. Every domain error below wraps exactly one of these so
// transport code can map on the category alone.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrUnauthorized    = errors.New("unauthorized access")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal server error")
	ErrRateLimited     = errors.New("too many requests")
	ErrExternalService = errors.New("external service error")
)

// Catalog
var (
	ErrPlanNotFound   = fmt.Errorf("subscription plan: %w", ErrNotFound)
	ErrArtistNotFound = fmt.Errorf("artist: %w", ErrNotFound)
	ErrUserNotFound   = fmt.Errorf("user: %w", ErrNotFound)
	ErrInvalidSplit   = fmt.Errorf("split percentages must sum to 100: %w", ErrInvalidInput)
	ErrPlanInactive   = fmt.Errorf("subscription plan is not active: %w", ErrInvalidInput)
)

// Subscriptions
var (
	ErrSubscriptionNotFound = fmt.Errorf("subscription: %w", ErrNotFound)
	ErrAlreadySubscribed    = fmt.Errorf("user already has an active subscription to this artist: %w", ErrConflict)
	ErrVersionConflict      = fmt.Errorf("subscription was modified concurrently: %w", ErrConflict)
	ErrPaymentInitiation    = fmt.Errorf("payment initiation failed: %w", ErrExternalService)
)

// Reconciliation
var (
	ErrInvalidSignature      = fmt.Errorf("invalid webhook signature: %w", ErrUnauthorized)
	ErrInvalidWebhookPayload = fmt.Errorf("invalid webhook payload: %w", ErrInvalidInput)
)

// Ledger
var (
	ErrWalletNotFound      = fmt.Errorf("platform wallet: %w", ErrNotFound)
	ErrInvalidAmount       = fmt.Errorf("amount must be greater than zero: %w", ErrInvalidInput)
	ErrInsufficientBalance = fmt.Errorf("insufficient balance: %w", ErrConflict)
)

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is allows checking whether an error is a specific sentinel error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
