package services

import (
	"errors"
	"testing"
	"time"

	"github.com/clinova/clinic-booking/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenUserRepo fails every write with the injected error.
type brokenUserRepo struct {
	memUserRepo
	err error
}

func (r *brokenUserRepo) UpdateLockout(userID uint, failedAttempts int, lockedUntil *time.Time, permanentlyLocked bool) error {
	return r.err
}

func TestStorageErrorWrapsUnexpectedFailures(t *testing.T) {
	s := newMemStore()
	user := s.addUser(models.User{Email: "patient@example.com"})

	cause := errors.New("connection reset")
	svc := NewLockoutService(&brokenUserRepo{memUserRepo: memUserRepo{s: s}, err: cause})

	u := user
	err := svc.RecordFailure(&u)
	require.Error(t, err)

	var storage *StorageError
	require.ErrorAs(t, err, &storage)
	assert.Equal(t, "persist lockout state", storage.Op)
	assert.ErrorIs(t, err, cause, "the original cause stays reachable through Unwrap")
}
