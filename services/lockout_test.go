package services

import (
	"errors"
	"testing"
	"time"

	"github.com/clinova/clinic-booking/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLockoutFixture(t *testing.T) (*memStore, *LockoutService, time.Time) {
	t.Helper()
	s := newMemStore()
	svc := NewLockoutService(s.repos().Users)
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return s, svc, now
}

func TestLockoutEscalation(t *testing.T) {
	s, svc, now := newLockoutFixture(t)
	user := s.addUser(models.User{Email: "patient@example.com"})

	expected := []struct {
		attempts  int
		lockedFor time.Duration
		permanent bool
	}{
		{1, 0, false},
		{2, 0, false},
		{3, 0, false},
		{4, 0, false},
		{5, 1 * time.Minute, false},
		{6, 3 * time.Minute, false},
		{7, 5 * time.Minute, false},
		{8, 0, true},
		{9, 0, true},
	}

	u := user
	for _, step := range expected {
		require.NoError(t, svc.RecordFailure(&u))
		assert.Equal(t, step.attempts, u.FailedAttempts)

		stored := s.users[user.ID]
		assert.Equal(t, step.attempts, stored.FailedAttempts, "attempt %d not persisted", step.attempts)
		assert.Equal(t, step.permanent, stored.PermanentlyLocked)
		if step.permanent {
			assert.Nil(t, stored.LockedUntil, "permanent lock clears locked_until")
		} else if step.lockedFor > 0 {
			require.NotNil(t, stored.LockedUntil)
			assert.Equal(t, now.Add(step.lockedFor), *stored.LockedUntil)
		} else {
			assert.Nil(t, stored.LockedUntil)
		}
	}
}

func TestLockoutSuccessResetsCounter(t *testing.T) {
	s, svc, _ := newLockoutFixture(t)
	user := s.addUser(models.User{Email: "patient@example.com"})

	u := user
	for i := 0; i < 4; i++ {
		require.NoError(t, svc.RecordFailure(&u))
	}
	require.Equal(t, 4, u.FailedAttempts)

	require.NoError(t, svc.RecordSuccess(&u))
	assert.Equal(t, 0, u.FailedAttempts)
	assert.Nil(t, u.LockedUntil)

	stored := s.users[user.ID]
	assert.Equal(t, 0, stored.FailedAttempts)
	assert.Nil(t, stored.LockedUntil)
}

func TestLockoutSuccessKeepsPermanentLock(t *testing.T) {
	s, svc, _ := newLockoutFixture(t)
	user := s.addUser(models.User{Email: "patient@example.com", PermanentlyLocked: true, FailedAttempts: 8})

	u := user
	require.NoError(t, svc.RecordSuccess(&u))

	stored := s.users[user.ID]
	assert.True(t, stored.PermanentlyLocked, "only an administrator lifts a permanent lock")
	assert.Equal(t, 0, stored.FailedAttempts)
}

func TestCheckLoginAllowed(t *testing.T) {
	_, svc, now := newLockoutFixture(t)

	t.Run("clean account passes", func(t *testing.T) {
		assert.NoError(t, svc.CheckLoginAllowed(&models.User{}))
	})

	t.Run("permanent lock", func(t *testing.T) {
		err := svc.CheckLoginAllowed(&models.User{PermanentlyLocked: true})
		assert.ErrorIs(t, err, ErrPermanentlyLocked)
	})

	t.Run("temporary lock reports remaining time", func(t *testing.T) {
		until := now.Add(45 * time.Second)
		err := svc.CheckLoginAllowed(&models.User{FailedAttempts: 5, LockedUntil: &until})
		require.Error(t, err)

		var locked *TemporarilyLockedError
		require.True(t, errors.As(err, &locked))
		assert.Equal(t, 45*time.Second, locked.Remaining(now))
	})

	t.Run("expired lock passes", func(t *testing.T) {
		until := now.Add(-time.Second)
		err := svc.CheckLoginAllowed(&models.User{FailedAttempts: 5, LockedUntil: &until})
		assert.NoError(t, err)
	})
}
