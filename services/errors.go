package services

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy shared by all services. Controllers map these onto HTTP
// status codes.
var (
	ErrValidation         = errors.New("invalid input")
	ErrConflict           = errors.New("time slot not available")
	ErrInsufficientFunds  = errors.New("insufficient wallet balance")
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrWalletInactive     = errors.New("wallet is not active")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermanentlyLocked  = errors.New("account permanently locked, contact support")
	ErrAlreadyReviewed    = errors.New("appointment already reviewed")
	ErrRecordExists       = errors.New("medical record already exists")
)

// StorageError wraps an unexpected persistence failure so callers can tell
// infrastructure faults apart from domain errors. It always aborts the
// enclosing transaction and is never retried internally.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// TemporarilyLockedError carries the time the lock expires so callers can
// report the remaining wait.
type TemporarilyLockedError struct {
	Until time.Time
}

func (e *TemporarilyLockedError) Error() string {
	return fmt.Sprintf("account temporarily locked until %s", e.Until.Format(time.RFC3339))
}

// Remaining returns how long the lock still holds at the given instant.
func (e *TemporarilyLockedError) Remaining(now time.Time) time.Duration {
	if now.After(e.Until) {
		return 0
	}
	return e.Until.Sub(now)
}
