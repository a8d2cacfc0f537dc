package domain

import (
	"errors"
	"fmt"
)

// Domain errors. All of them leave persisted state unchanged.
var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidState           = errors.New("invalid state for this transition")
	ErrAlreadyDecided         = fmt.Errorf("payment request already decided: %w", ErrInvalidState)
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrNoActiveRound          = errors.New("no active lottery round")
	ErrConflictingActiveRound = errors.New("another lottery round is already active")
	ErrNoParticipants         = errors.New("no tickets issued for this round")
	ErrInvalidAmount          = errors.New("amount must be positive with at most two decimal places")
	ErrInvalidImageRef        = errors.New("image reference is required")
)

// StorageError reports that the database itself failed (connection,
// transaction, statement). It is never a domain decision and callers may retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError unless it is nil or already a domain error.
func Storage(op string, err error) error {
	if err == nil || IsDomain(err) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsDomain reports whether err is one of the domain sentinels above.
func IsDomain(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidState, ErrInsufficientFunds, ErrNoActiveRound,
		ErrConflictingActiveRound, ErrNoParticipants, ErrInvalidAmount, ErrInvalidImageRef,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
