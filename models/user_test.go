package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserIsLocked(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	assert.False(t, (&User{}).IsLocked(now))
	assert.True(t, (&User{PermanentlyLocked: true}).IsLocked(now))

	future := now.Add(time.Minute)
	assert.True(t, (&User{LockedUntil: &future}).IsLocked(now))

	past := now.Add(-time.Minute)
	assert.False(t, (&User{LockedUntil: &past}).IsLocked(now))
}
