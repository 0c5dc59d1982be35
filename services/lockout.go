package services

import (
	"time"

	"github.com/clinova/clinic-booking/models"
	"github.com/clinova/clinic-booking/repositories"
)

const (
	lockoutThreshold   = 5
	permanentThreshold = 8
)

// Escalating lock duration per consecutive failure count.
var lockoutDurations = map[int]time.Duration{
	5: 1 * time.Minute,
	6: 3 * time.Minute,
	7: 5 * time.Minute,
}

// LockoutService tracks consecutive failed logins per account and escalates
// the lock until it becomes permanent at the eighth failure.
type LockoutService struct {
	users repositories.UserRepository
	now   func() time.Time
}

func NewLockoutService(users repositories.UserRepository) *LockoutService {
	return &LockoutService{users: users, now: time.Now}
}

// CheckLoginAllowed gates every login attempt. It fails with
// ErrPermanentlyLocked or a TemporarilyLockedError carrying the unlock time.
func (s *LockoutService) CheckLoginAllowed(user *models.User) error {
	if user.PermanentlyLocked {
		return ErrPermanentlyLocked
	}
	if user.LockedUntil != nil && user.LockedUntil.After(s.now()) {
		return &TemporarilyLockedError{Until: *user.LockedUntil}
	}
	return nil
}

// RecordFailure increments the counter, applies the escalation table and
// persists the lockout columns. The user struct is updated in place.
func (s *LockoutService) RecordFailure(user *models.User) error {
	user.FailedAttempts++
	switch {
	case user.FailedAttempts >= permanentThreshold:
		user.PermanentlyLocked = true
		user.LockedUntil = nil
	case user.FailedAttempts >= lockoutThreshold:
		until := s.now().Add(lockoutDurations[user.FailedAttempts])
		user.LockedUntil = &until
	}
	if err := s.users.UpdateLockout(user.ID, user.FailedAttempts, user.LockedUntil, user.PermanentlyLocked); err != nil {
		return storageErr("persist lockout state", err)
	}
	return nil
}

// RecordSuccess resets the counter and clears any temporary lock. A permanent
// lock survives; only an administrator lifts it.
func (s *LockoutService) RecordSuccess(user *models.User) error {
	user.FailedAttempts = 0
	user.LockedUntil = nil
	if err := s.users.UpdateLockout(user.ID, 0, nil, user.PermanentlyLocked); err != nil {
		return storageErr("persist lockout state", err)
	}
	return nil
}
